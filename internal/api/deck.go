package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kolmobuild/kolmo/internal/deck"
	"github.com/kolmobuild/kolmo/internal/permit"
	"github.com/kolmobuild/kolmo/internal/pricing"
)

type deckHandler struct {
	logger *slog.Logger
}

// designResponse bundles the structural model with its quote.
type designResponse struct {
	Structure *deck.Structure `json:"structure"`
	Quote     *pricing.Quote  `json:"quote,omitempty"`
}

// decodeSiteInput reads and sanity-checks the site input payload.
func (h *deckHandler) decodeSiteInput(w http.ResponseWriter, r *http.Request) (deck.SiteInput, bool) {
	var input deck.SiteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON", h.logger)
		return input, false
	}

	if input.WidthFt <= 0 || input.DepthFt <= 0 || input.HeightFt <= 0 {
		WriteError(w, http.StatusBadRequest, "invalid_request",
			"width_ft, depth_ft, and height_ft must be positive", h.logger)
		return input, false
	}
	if input.LedgerAttachment != "" && !input.LedgerAttachment.Valid() {
		WriteError(w, http.StatusBadRequest, "invalid_request",
			"unknown ledger_attachment", h.logger)
		return input, false
	}
	if input.DeckingType != "" && !input.DeckingType.Valid() {
		WriteError(w, http.StatusBadRequest, "invalid_request", "unknown decking_type", h.logger)
		return input, false
	}
	if input.RailingType != "" && !input.RailingType.Valid() {
		WriteError(w, http.StatusBadRequest, "invalid_request", "unknown railing_type", h.logger)
		return input, false
	}

	return input, true
}

// design handles POST /api/v1/deck/design: site input in, structure and
// quote out. A non-compliant design still returns 200 with the errors
// recorded on the structure; the quote is omitted.
func (h *deckHandler) design(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeSiteInput(w, r)
	if !ok {
		return
	}

	structure := deck.Generate(input)
	resp := designResponse{Structure: structure}
	if structure.Compliant {
		resp.Quote = pricing.Calculate(structure)
	}

	WriteJSON(w, http.StatusOK, resp)
}

// permitPlan handles POST /api/v1/deck/permit-plan: site input in, PNG
// framing plan out. The section sheet is returned instead when
// ?sheet=section is given.
func (h *deckHandler) permitPlan(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeSiteInput(w, r)
	if !ok {
		return
	}

	structure := deck.Generate(input)
	if !structure.Compliant {
		WriteError(w, http.StatusUnprocessableEntity, "not_compliant",
			"design violates prescriptive span tables: "+structure.Errors[0], h.logger)
		return
	}

	renderer := permit.NewRenderer(structure)

	var buf bytes.Buffer
	var err error
	if r.URL.Query().Get("sheet") == "section" {
		err = renderer.WriteSectionPNG(&buf)
	} else {
		err = renderer.WriteFramingPlanPNG(&buf)
	}
	if err != nil {
		h.logger.Error("rendering permit sheet", "error", err)
		WriteError(w, http.StatusInternalServerError, "render_failed", "could not render sheet", h.logger)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Debug("failed to write response body", "error", err)
	}
}
