package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kolmobuild/kolmo/internal/fact"
)

// factService is the slice of the fact facade the handlers consume.
type factService interface {
	Resolve(ctx context.Context, c fact.Candidate) (*fact.Fact, error)
	Verify(ctx context.Context, id, verifierID int64, decision fact.VerificationStatus) (*fact.Fact, error)
	Get(ctx context.Context, id int64) (*fact.Fact, error)
	Lineage(ctx context.Context, lineageID int64) ([]*fact.Fact, error)
	Search(ctx context.Context, query string, filter fact.Filter, limit int) ([]fact.SearchResult, error)
	FindSimilar(ctx context.Context, factID int64, limit int) ([]fact.SearchResult, error)
	ActionableFacts(ctx context.Context, projectID *int64, limit int) ([]*fact.Fact, error)
	UnverifiedFinancialFacts(ctx context.Context, projectID *int64, minAmount float64, limit int) ([]*fact.Fact, error)
}

type factHandler struct {
	service factService
	logger  *slog.Logger
}

// factJSON is the wire representation of a fact.
type factJSON struct {
	ID        int64     `json:"id"`
	LineageID int64     `json:"lineage_id"`
	SessionID uuid.UUID `json:"session_id"`
	ProjectID *int64    `json:"project_id,omitempty"`
	UserID    *int64    `json:"user_id,omitempty"`

	Type    fact.Type      `json:"fact_type"`
	Content map[string]any `json:"fact_content,omitempty"`
	Summary string         `json:"fact_summary"`

	Active       bool       `json:"is_active"`
	SupersededBy *int64     `json:"superseded_by,omitempty"`
	ValidUntil   *time.Time `json:"valid_until,omitempty"`
	Version      int        `json:"version"`

	AuthorRole         fact.AuthorRole         `json:"author_role"`
	Confidence         *float64                `json:"confidence_score,omitempty"`
	VerificationStatus fact.VerificationStatus `json:"verification_status"`
	VerifiedBy         *int64                  `json:"verified_by,omitempty"`
	VerifiedAt         *time.Time              `json:"verified_at,omitempty"`

	FinancialAmount   *float64            `json:"financial_amount,omitempty"`
	Currency          string              `json:"currency,omitempty"`
	FinancialCategory *string             `json:"financial_category,omitempty"`
	FinancialType     *fact.FinancialType `json:"financial_type,omitempty"`

	Priority       fact.Priority `json:"priority"`
	RequiresAction bool          `json:"requires_action"`
	ActionDeadline *time.Time    `json:"action_deadline,omitempty"`

	SourceMessageID *int64    `json:"source_message_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toFactJSON(f *fact.Fact) factJSON {
	return factJSON{
		ID:                 f.ID,
		LineageID:          f.LineageID,
		SessionID:          f.SessionID,
		ProjectID:          f.ProjectID,
		UserID:             f.UserID,
		Type:               f.Type,
		Content:            f.Content,
		Summary:            f.Summary,
		Active:             f.Active,
		SupersededBy:       f.SupersededBy,
		ValidUntil:         f.ValidUntil,
		Version:            f.Version,
		AuthorRole:         f.AuthorRole,
		Confidence:         f.Confidence,
		VerificationStatus: f.VerificationStatus,
		VerifiedBy:         f.VerifiedBy,
		VerifiedAt:         f.VerifiedAt,
		FinancialAmount:    f.FinancialAmount,
		Currency:           f.Currency,
		FinancialCategory:  f.FinancialCategory,
		FinancialType:      f.FinancialType,
		Priority:           f.Priority,
		RequiresAction:     f.RequiresAction,
		ActionDeadline:     f.ActionDeadline,
		SourceMessageID:    f.SourceMessageID,
		CreatedAt:          f.CreatedAt,
		UpdatedAt:          f.UpdatedAt,
	}
}

func toFactList(facts []*fact.Fact) []factJSON {
	out := make([]factJSON, len(facts))
	for i, f := range facts {
		out[i] = toFactJSON(f)
	}
	return out
}

// resultJSON is a search hit with its scores.
type resultJSON struct {
	Fact       factJSON `json:"fact"`
	Similarity float64  `json:"similarity"`
	Relevance  float64  `json:"relevance"`
}

func toResultList(results []fact.SearchResult) []resultJSON {
	out := make([]resultJSON, len(results))
	for i, r := range results {
		out[i] = resultJSON{Fact: toFactJSON(r.Fact), Similarity: r.Similarity, Relevance: r.Relevance}
	}
	return out
}

// createFactRequest is the ingest payload. previous_fact_id is the
// extractor's supersession hint.
type createFactRequest struct {
	SessionID uuid.UUID `json:"session_id"`
	ProjectID *int64    `json:"project_id"`
	UserID    *int64    `json:"user_id"`

	Type    fact.Type      `json:"fact_type"`
	Content map[string]any `json:"fact_content"`
	Summary string         `json:"fact_summary"`

	AuthorRole fact.AuthorRole `json:"author_role"`
	Confidence *float64        `json:"confidence_score"`

	FinancialAmount   *float64            `json:"financial_amount"`
	Currency          string              `json:"currency"`
	FinancialCategory *string             `json:"financial_category"`
	FinancialType     *fact.FinancialType `json:"financial_type"`

	Priority       fact.Priority `json:"priority"`
	RequiresAction bool          `json:"requires_action"`
	ActionDeadline *time.Time    `json:"action_deadline"`
	ValidUntil     *time.Time    `json:"valid_until"`

	SourceMessageID *int64 `json:"source_message_id"`
	PreviousFactID  *int64 `json:"previous_fact_id"`
}

func (req createFactRequest) candidate() fact.Candidate {
	return fact.Candidate{
		SessionID:         req.SessionID,
		ProjectID:         req.ProjectID,
		UserID:            req.UserID,
		Type:              req.Type,
		Content:           req.Content,
		Summary:           req.Summary,
		AuthorRole:        req.AuthorRole,
		Confidence:        req.Confidence,
		FinancialAmount:   req.FinancialAmount,
		Currency:          req.Currency,
		FinancialCategory: req.FinancialCategory,
		FinancialType:     req.FinancialType,
		Priority:          req.Priority,
		RequiresAction:    req.RequiresAction,
		ActionDeadline:    req.ActionDeadline,
		ValidUntil:        req.ValidUntil,
		SourceMessageID:   req.SourceMessageID,
		PreviousFactID:    req.PreviousFactID,
	}
}

// create handles POST /api/v1/facts.
func (h *factHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createFactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON", h.logger)
		return
	}
	if req.SessionID == uuid.Nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "session_id is required", h.logger)
		return
	}

	cand := req.candidate()
	if err := cand.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}

	created, err := h.service.Resolve(r.Context(), cand)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusCreated, toFactJSON(created))
}

type verifyRequest struct {
	VerifierID int64                   `json:"verifier_id"`
	Decision   fact.VerificationStatus `json:"decision"`
}

// verify handles POST /api/v1/facts/{id}/verify.
func (h *factHandler) verify(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON", h.logger)
		return
	}
	if !req.Decision.Valid() || req.Decision == fact.VerificationPending {
		WriteError(w, http.StatusBadRequest, "invalid_request",
			"decision must be verified, rejected, or needs_review", h.logger)
		return
	}
	if req.VerifierID == 0 {
		WriteError(w, http.StatusBadRequest, "invalid_request", "verifier_id is required", h.logger)
		return
	}

	updated, err := h.service.Verify(r.Context(), id, req.VerifierID, req.Decision)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, toFactJSON(updated))
}

// get handles GET /api/v1/facts/{id}.
func (h *factHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}

	f, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, toFactJSON(f))
}

// lineage handles GET /api/v1/facts/{id}/lineage.
func (h *factHandler) lineage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}

	// The id may be any version in the chain; its lineage_id names the chain.
	f, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	chain, err := h.service.Lineage(r.Context(), f.LineageID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"lineage": toFactList(chain)})
}

// search handles GET /api/v1/facts/search.
func (h *factHandler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter, err := parseFilter(q)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}

	results, err := h.service.Search(r.Context(), q.Get("q"), filter, limit)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"results": toResultList(results)})
}

// similar handles GET /api/v1/facts/{id}/similar.
func (h *factHandler) similar(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}

	results, err := h.service.FindSimilar(r.Context(), id, limit)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"results": toResultList(results)})
}

// actionable handles GET /api/v1/facts/actionable.
func (h *factHandler) actionable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	projectID, err := parseOptionalInt64(q.Get("project_id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "project_id must be an integer", h.logger)
		return
	}
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}

	facts, err := h.service.ActionableFacts(r.Context(), projectID, limit)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"facts": toFactList(facts)})
}

// unverifiedFinancial handles GET /api/v1/facts/financial/unverified.
func (h *factHandler) unverifiedFinancial(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	projectID, err := parseOptionalInt64(q.Get("project_id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "project_id must be an integer", h.logger)
		return
	}

	minAmount := 0.0
	if raw := q.Get("min_amount"); raw != "" {
		minAmount, err = strconv.ParseFloat(raw, 64)
		if err != nil || minAmount < 0 {
			WriteError(w, http.StatusBadRequest, "invalid_request", "min_amount must be a non-negative number", h.logger)
			return
		}
	}

	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}

	facts, err := h.service.UnverifiedFinancialFacts(r.Context(), projectID, minAmount, limit)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"facts": toFactList(facts)})
}

// pathID extracts the {id} path segment as an int64.
func pathID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, http.StatusBadRequest, "invalid_request", "id must be a positive integer", logger)
		return 0, false
	}
	return id, true
}
