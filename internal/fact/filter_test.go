package fact

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestFilterDefaults(t *testing.T) {
	var p predicate
	Filter{}.apply(&p)

	where := p.where()
	if !strings.Contains(where, "is_active") {
		t.Errorf("default filter missing is_active: %q", where)
	}
	if len(p.args) != 0 {
		t.Errorf("default filter bound args: %v", p.args)
	}
}

func TestFilterActiveOnlyFalse(t *testing.T) {
	off := false
	var p predicate
	Filter{ActiveOnly: &off}.apply(&p)

	if strings.Contains(p.where(), "is_active") {
		t.Errorf("ActiveOnly=false still constrains is_active: %q", p.where())
	}
}

func TestFilterFullClause(t *testing.T) {
	projectID := int64(3)
	sessionID := uuid.New()
	minConf := 0.5
	reqAction := true
	minAmount := 100.0

	f := Filter{
		ProjectID:            &projectID,
		SessionID:            &sessionID,
		Types:                []Type{TypeDecision, TypeFinancial},
		MinConfidence:        &minConf,
		VerificationStatuses: []VerificationStatus{VerificationVerified},
		RequiresAction:       &reqAction,
		Priorities:           []Priority{PriorityCritical},
		FinancialOnly:        true,
		MinFinancialAmount:   &minAmount,
		ValidOnly:            true,
	}

	var p predicate
	f.apply(&p)
	where := p.where()

	for _, want := range []string{
		"is_active",
		"project_id = $1",
		"session_id = $2",
		"fact_type = ANY($3)",
		"confidence_score >= $4",
		"verification_status = ANY($5)",
		"requires_action = $6",
		"priority = ANY($7)",
		"financial_amount IS NOT NULL",
		"financial_amount >= $8",
		"valid_until IS NULL OR valid_until > now()",
	} {
		if !strings.Contains(where, want) {
			t.Errorf("clause missing %q:\n%s", want, where)
		}
	}
	if len(p.args) != 8 {
		t.Errorf("bound args = %d, want 8", len(p.args))
	}
}

func TestFilterDeterministic(t *testing.T) {
	projectID := int64(9)
	f := Filter{
		ProjectID: &projectID,
		Types:     []Type{TypeTask},
		ValidOnly: true,
	}

	var p1, p2 predicate
	f.apply(&p1)
	f.apply(&p2)

	if p1.where() != p2.where() {
		t.Errorf("same filter produced different clauses:\n%s\n%s", p1.where(), p2.where())
	}
}

func TestPredicateOffset(t *testing.T) {
	// Pre-bound parameter (e.g. the query vector) shifts placeholders.
	p := predicate{args: []any{"vector"}}
	projectID := int64(1)
	Filter{ProjectID: &projectID}.apply(&p)

	if !strings.Contains(p.where(), "project_id = $2") {
		t.Errorf("offset placeholder wrong: %q", p.where())
	}
}

func TestPredicateEmptyWhere(t *testing.T) {
	var p predicate
	if got := p.where(); got != "" {
		t.Errorf("empty predicate where() = %q, want empty", got)
	}
}
