package fact

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kolmobuild/kolmo/internal/embed"
)

// Candidate is a structured fact proposed by the upstream extractor.
// PreviousFactID is the extractor's supersession hint: when set, the
// candidate updates that fact; when nil, it is a fresh statement. The
// subject-matching heuristic itself lives upstream — the resolver only
// applies the decision policy.
type Candidate struct {
	SessionID uuid.UUID
	ProjectID *int64
	UserID    *int64

	Type    Type
	Content map[string]any
	Summary string

	AuthorRole AuthorRole
	Confidence *float64

	FinancialAmount   *float64
	Currency          string
	FinancialCategory *string
	FinancialType     *FinancialType

	Priority       Priority
	RequiresAction bool
	ActionDeadline *time.Time
	ValidUntil     *time.Time

	SourceMessageID *int64
	PreviousFactID  *int64
}

// fact converts the candidate into an unpersisted Fact.
func (c Candidate) fact() *Fact {
	return &Fact{
		SessionID:         c.SessionID,
		ProjectID:         c.ProjectID,
		UserID:            c.UserID,
		Type:              c.Type,
		Content:           c.Content,
		Summary:           c.Summary,
		AuthorRole:        c.AuthorRole,
		Confidence:        c.Confidence,
		FinancialAmount:   c.FinancialAmount,
		Currency:          c.Currency,
		FinancialCategory: c.FinancialCategory,
		FinancialType:     c.FinancialType,
		Priority:          c.Priority,
		RequiresAction:    c.RequiresAction,
		ActionDeadline:    c.ActionDeadline,
		ValidUntil:        c.ValidUntil,
		SourceMessageID:   c.SourceMessageID,
	}
}

// Validate reports whether the candidate would be accepted by Resolve,
// after defaults are applied. Lets transport layers reject bad input
// before any embedding or storage work.
func (c Candidate) Validate() error {
	f := c.fact()
	f.Normalize()
	return f.Validate()
}

// Resolver turns extractor candidates into store operations: create a
// fresh lineage, or supersede the hinted predecessor.
type Resolver struct {
	store    *Store
	provider embed.Provider
	logger   *slog.Logger
}

// NewResolver creates a conflict resolver.
func NewResolver(store *Store, provider embed.Provider, logger *slog.Logger) (*Resolver, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("embedding provider is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, provider: provider, logger: logger}, nil
}

// Resolve persists the candidate. With a PreviousFactID hint the call
// supersedes that fact; a concurrent update of the same predecessor
// surfaces ErrConflict and the caller must re-resolve against the new
// active version — latest info wins, never a silent overwrite.
//
// The summary embedding is computed best-effort before the write: if
// the provider is unavailable the fact is stored without a vector and
// backfilled later via Store.SetEmbedding.
func (r *Resolver) Resolve(ctx context.Context, c Candidate) (*Fact, error) {
	f := c.fact()
	f.Normalize()
	if err := f.Validate(); err != nil {
		return nil, err
	}

	embedCtx, cancel := context.WithTimeout(ctx, embed.Timeout)
	vec, err := r.provider.Embed(embedCtx, f.Summary)
	cancel()
	switch {
	case err != nil && ctx.Err() != nil:
		return nil, ctx.Err()
	case err != nil:
		r.logger.Warn("embedding unavailable, storing fact without vector", "error", err)
	default:
		f.Embedding = vec
	}

	if c.PreviousFactID != nil {
		_, created, err := r.store.Supersede(ctx, *c.PreviousFactID, f)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("fact superseded",
			"previous_id", *c.PreviousFactID, "id", created.ID, "version", created.Version)
		return created, nil
	}

	created, err := r.store.Create(ctx, f)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("fact created", "id", created.ID, "type", created.Type)
	return created, nil
}
