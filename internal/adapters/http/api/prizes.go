// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/314yush/caporslap/internal/domain/model"
)

// PrizeDependencies defines the interface for prize lifecycle operations.
type PrizeDependencies interface {
	FinalizePeriod(ctx context.Context, periodID string) (*model.PrizeArchive, error)
	PrizeArchive(ctx context.Context, periodID string) (*model.PrizeArchive, error)
	PreviewDistribution(ctx context.Context, periodID string) ([]model.PrizeAward, error)
}

// PrizesHandler handles prize archive reads and finalization.
type PrizesHandler struct {
	deps PrizeDependencies
}

// NewPrizesHandler creates a new prizes handler.
func NewPrizesHandler(deps PrizeDependencies) *PrizesHandler {
	return &PrizesHandler{deps: deps}
}

// previewResponse is the dry-run distribution shape.
type previewResponse struct {
	Period       string             `json:"period"`
	Preview      bool               `json:"preview"`
	Distribution []model.PrizeAward `json:"distribution"`
}

// HandleGetPrizes handles GET /prizes/{period} requests. With
// ?preview=true it computes the would-be distribution without freezing
// anything; otherwise it returns the finalized archive or 404.
func (h *PrizesHandler) HandleGetPrizes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	periodID := strings.TrimPrefix(r.URL.Path, "/prizes/")
	if periodID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	if r.URL.Query().Get("preview") == "true" {
		dist, err := h.deps.PreviewDistribution(r.Context(), periodID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, previewResponse{Period: periodID, Preview: true, Distribution: dist})
		return
	}

	arch, err := h.deps.PrizeArchive(r.Context(), periodID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if arch == nil {
		writeError(w, http.StatusNotFound, "not_finalized", nil)
		return
	}
	writeJSON(w, http.StatusOK, arch)
}

// HandlePostFinalize handles POST /finalize/{period} requests. The call
// is idempotent: repeating it returns the archive frozen by the first
// successful finalization.
func (h *PrizesHandler) HandlePostFinalize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	periodID := strings.TrimPrefix(r.URL.Path, "/finalize/")
	if periodID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	arch, err := h.deps.FinalizePeriod(r.Context(), periodID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, arch)
}
