package fact

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxSummaryLength caps fact summaries (also the text fed to the
// embedding provider).
const MaxSummaryLength = 2000

// DefaultCurrency is applied to financial facts that don't specify one.
const DefaultCurrency = "USD"

// Type classifies what kind of statement a fact is.
type Type string

const (
	TypeTask       Type = "task"
	TypeDecision   Type = "decision"
	TypeMilestone  Type = "milestone"
	TypeFinancial  Type = "financial"
	TypeSchedule   Type = "schedule"
	TypeMaterial   Type = "material"
	TypeRisk       Type = "risk"
	TypeConstraint Type = "constraint"
)

// Valid reports whether t is a known fact type.
func (t Type) Valid() bool {
	switch t {
	case TypeTask, TypeDecision, TypeMilestone, TypeFinancial,
		TypeSchedule, TypeMaterial, TypeRisk, TypeConstraint:
		return true
	}
	return false
}

// AllTypes returns every fact type, in declaration order.
func AllTypes() []Type {
	return []Type{
		TypeTask, TypeDecision, TypeMilestone, TypeFinancial,
		TypeSchedule, TypeMaterial, TypeRisk, TypeConstraint,
	}
}

// Priority expresses urgency. Ordering: critical > high > normal > low.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityNormal   Priority = "normal"
	PriorityLow      Priority = "low"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

// rank returns the sort position of p (critical first).
func (p Priority) rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityNormal:
		return 2
	default:
		return 3
	}
}

// VerificationStatus is the human-review state of a fact.
type VerificationStatus string

const (
	VerificationPending     VerificationStatus = "pending_approval"
	VerificationVerified    VerificationStatus = "verified"
	VerificationRejected    VerificationStatus = "rejected"
	VerificationNeedsReview VerificationStatus = "needs_review"
)

// Valid reports whether v is a known verification status.
func (v VerificationStatus) Valid() bool {
	switch v {
	case VerificationPending, VerificationVerified, VerificationRejected, VerificationNeedsReview:
		return true
	}
	return false
}

// FinancialType qualifies a money amount attached to a fact.
type FinancialType string

const (
	FinancialEstimate    FinancialType = "estimate"
	FinancialQuote       FinancialType = "quote"
	FinancialChangeOrder FinancialType = "change_order"
	FinancialHardCost    FinancialType = "hard_cost"
	FinancialInvoice     FinancialType = "invoice"
	FinancialPayment     FinancialType = "payment"
	FinancialBudget      FinancialType = "budget"
)

// Valid reports whether ft is a known financial type.
func (ft FinancialType) Valid() bool {
	switch ft {
	case FinancialEstimate, FinancialQuote, FinancialChangeOrder,
		FinancialHardCost, FinancialInvoice, FinancialPayment, FinancialBudget:
		return true
	}
	return false
}

// AuthorRole records who stated the fact.
type AuthorRole string

const (
	RoleUser      AuthorRole = "user"
	RoleAssistant AuthorRole = "assistant"
	RoleSystem    AuthorRole = "system"
)

// Valid reports whether r is a known author role.
func (r AuthorRole) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Fact is one version of an atomic, attributable statement about a
// project. Content fields are immutable once persisted; corrections
// create a new version via Store.Supersede.
type Fact struct {
	ID        int64
	LineageID int64 // id of the root version of this fact's chain

	SessionID uuid.UUID
	ProjectID *int64
	UserID    *int64

	Type    Type
	Content map[string]any // structured payload, opaque to the engine
	Summary string         // short sentence; also the embedding input

	Embedding []float32 // nil when never computed or computation failed

	Active       bool
	SupersededBy *int64
	ValidUntil   *time.Time
	Version      int

	AuthorRole         AuthorRole
	Confidence         *float64 // clamped to [0,1]
	VerificationStatus VerificationStatus
	VerifiedBy         *int64
	VerifiedAt         *time.Time

	FinancialAmount   *float64
	Currency          string
	FinancialCategory *string
	FinancialType     *FinancialType

	Priority       Priority
	RequiresAction bool
	ActionDeadline *time.Time

	SourceMessageID *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Normalize fills defaults and clamps out-of-range values. Called by the
// store before validation so callers can leave zero values.
func (f *Fact) Normalize() {
	if f.Priority == "" {
		f.Priority = PriorityNormal
	}
	if f.AuthorRole == "" {
		f.AuthorRole = RoleSystem
	}
	if f.VerificationStatus == "" {
		f.VerificationStatus = VerificationPending
	}
	if f.FinancialAmount != nil && f.Currency == "" {
		f.Currency = DefaultCurrency
	}
	if f.Confidence != nil {
		c := *f.Confidence
		if c < 0 {
			c = 0
		}
		if c > 1 {
			c = 1
		}
		f.Confidence = &c
	}
}

// Validate checks the fields a caller supplies. The store rejects
// invalid facts before persistence.
func (f *Fact) Validate() error {
	if f.Summary == "" {
		return fmt.Errorf("summary is required")
	}
	if len(f.Summary) > MaxSummaryLength {
		return fmt.Errorf("summary length %d exceeds maximum %d", len(f.Summary), MaxSummaryLength)
	}
	if !f.Type.Valid() {
		return fmt.Errorf("invalid fact type: %q", f.Type)
	}
	if !f.Priority.Valid() {
		return fmt.Errorf("invalid priority: %q", f.Priority)
	}
	if !f.AuthorRole.Valid() {
		return fmt.Errorf("invalid author role: %q", f.AuthorRole)
	}
	if !f.VerificationStatus.Valid() {
		return fmt.Errorf("invalid verification status: %q", f.VerificationStatus)
	}
	if f.FinancialAmount != nil && f.FinancialType == nil {
		return fmt.Errorf("financial amount requires a financial type")
	}
	if f.FinancialType != nil && !f.FinancialType.Valid() {
		return fmt.Errorf("invalid financial type: %q", *f.FinancialType)
	}
	return nil
}

// Expired reports whether the fact's natural validity window has passed.
func (f *Fact) Expired(now time.Time) bool {
	return f.ValidUntil != nil && f.ValidUntil.Before(now)
}
