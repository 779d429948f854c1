package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/kolmobuild/kolmo/internal/fact"
)

// parseFilter translates query parameters into a search filter.
//
// Recognized parameters: project_id, session_id, types, min_confidence,
// statuses, active_only, requires_action, priorities, financial_only,
// min_financial_amount, valid_only. List parameters are comma separated.
func parseFilter(q url.Values) (fact.Filter, error) {
	var f fact.Filter

	projectID, err := parseOptionalInt64(q.Get("project_id"))
	if err != nil {
		return f, fmt.Errorf("project_id must be an integer")
	}
	f.ProjectID = projectID

	if raw := q.Get("session_id"); raw != "" {
		sid, err := uuid.Parse(raw)
		if err != nil {
			return f, fmt.Errorf("session_id must be a UUID")
		}
		f.SessionID = &sid
	}

	for _, raw := range splitList(q.Get("types")) {
		t := fact.Type(raw)
		if !t.Valid() {
			return f, fmt.Errorf("unknown fact type %q", raw)
		}
		f.Types = append(f.Types, t)
	}

	if raw := q.Get("min_confidence"); raw != "" {
		c, err := strconv.ParseFloat(raw, 64)
		if err != nil || c < 0 || c > 1 {
			return f, fmt.Errorf("min_confidence must be a number in [0,1]")
		}
		f.MinConfidence = &c
	}

	for _, raw := range splitList(q.Get("statuses")) {
		s := fact.VerificationStatus(raw)
		if !s.Valid() {
			return f, fmt.Errorf("unknown verification status %q", raw)
		}
		f.VerificationStatuses = append(f.VerificationStatuses, s)
	}

	if raw := q.Get("active_only"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return f, fmt.Errorf("active_only must be a boolean")
		}
		f.ActiveOnly = &b
	}

	if raw := q.Get("requires_action"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return f, fmt.Errorf("requires_action must be a boolean")
		}
		f.RequiresAction = &b
	}

	for _, raw := range splitList(q.Get("priorities")) {
		p := fact.Priority(raw)
		if !p.Valid() {
			return f, fmt.Errorf("unknown priority %q", raw)
		}
		f.Priorities = append(f.Priorities, p)
	}

	if raw := q.Get("financial_only"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return f, fmt.Errorf("financial_only must be a boolean")
		}
		f.FinancialOnly = b
	}

	if raw := q.Get("min_financial_amount"); raw != "" {
		amt, err := strconv.ParseFloat(raw, 64)
		if err != nil || amt < 0 {
			return f, fmt.Errorf("min_financial_amount must be a non-negative number")
		}
		f.MinFinancialAmount = &amt
	}

	if raw := q.Get("valid_only"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return f, fmt.Errorf("valid_only must be a boolean")
		}
		f.ValidOnly = b
	}

	return f, nil
}

// parseLimit parses a result limit; empty means the engine default.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("limit must be a non-negative integer")
	}
	return limit, nil
}

func parseOptionalInt64(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("not an integer: %q", raw)
	}
	return &v, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
