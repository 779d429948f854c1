package fact

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Filter is the closed set of search predicates. Fields are combined
// with AND; nil/zero fields are skipped. Combinations are applied
// literally — MinFinancialAmount without FinancialOnly is accepted and
// simply constrains the amount.
type Filter struct {
	ProjectID            *int64
	SessionID            *uuid.UUID
	Types                []Type
	MinConfidence        *float64
	VerificationStatuses []VerificationStatus
	ActiveOnly           *bool // nil means true: search current truth by default
	RequiresAction       *bool
	Priorities           []Priority
	FinancialOnly        bool
	MinFinancialAmount   *float64
	ValidOnly            bool // excludes facts past valid_until
}

// activeOnly resolves the default.
func (f Filter) activeOnly() bool {
	return f.ActiveOnly == nil || *f.ActiveOnly
}

// predicate accumulates WHERE clauses with positional parameters. The
// start offset accounts for parameters the caller has already bound
// (e.g. the query vector).
type predicate struct {
	conds []string
	args  []any
}

func (p *predicate) add(expr string, vals ...any) {
	placeholders := make([]any, len(vals))
	for i, v := range vals {
		p.args = append(p.args, v)
		placeholders[i] = fmt.Sprintf("$%d", len(p.args))
	}
	p.conds = append(p.conds, fmt.Sprintf(expr, placeholders...))
}

// where renders the accumulated conditions as a WHERE clause.
func (p *predicate) where() string {
	if len(p.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(p.conds, " AND ")
}

// apply translates the filter into SQL conditions. Deterministic: the
// same filter always yields the same clause order and parameters.
func (f Filter) apply(p *predicate) {
	if f.activeOnly() {
		p.conds = append(p.conds, "is_active")
	}
	if f.ProjectID != nil {
		p.add("project_id = %s", *f.ProjectID)
	}
	if f.SessionID != nil {
		p.add("session_id = %s", *f.SessionID)
	}
	if len(f.Types) > 0 {
		p.add("fact_type = ANY(%s)", typeStrings(f.Types))
	}
	if f.MinConfidence != nil {
		p.add("confidence_score >= %s", *f.MinConfidence)
	}
	if len(f.VerificationStatuses) > 0 {
		p.add("verification_status = ANY(%s)", statusStrings(f.VerificationStatuses))
	}
	if f.RequiresAction != nil {
		p.add("requires_action = %s", *f.RequiresAction)
	}
	if len(f.Priorities) > 0 {
		p.add("priority = ANY(%s)", priorityStrings(f.Priorities))
	}
	if f.FinancialOnly {
		p.conds = append(p.conds, "financial_amount IS NOT NULL")
	}
	if f.MinFinancialAmount != nil {
		p.add("financial_amount >= %s", *f.MinFinancialAmount)
	}
	if f.ValidOnly {
		p.conds = append(p.conds, "(valid_until IS NULL OR valid_until > now())")
	}
}

func typeStrings(ts []Type) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = string(t)
	}
	return out
}

func statusStrings(vs []VerificationStatus) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}

func priorityStrings(ps []Priority) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return out
}
