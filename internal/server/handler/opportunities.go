package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/arbscanner/internal/domain"
	"github.com/alanyoungcy/arbscanner/internal/service"
)

const scanFailedMessage = "Failed to fetch opportunities"

// Scanner runs scans on demand and serves cached results.
type Scanner interface {
	ScanCrossVenue(ctx context.Context) (service.CrossVenueResult, error)
	ScanSingleVenue(ctx context.Context) (service.SingleVenueResult, error)
	Latest(ctx context.Context, kind string) ([]byte, error)
}

// OpportunityHandler serves the opportunity scan endpoints.
type OpportunityHandler struct {
	scanner Scanner
	logger  *slog.Logger
}

// NewOpportunityHandler creates an OpportunityHandler.
func NewOpportunityHandler(scanner Scanner, logger *slog.Logger) *OpportunityHandler {
	return &OpportunityHandler{scanner: scanner, logger: logHandler(logger, "opportunities")}
}

// CrossVenue runs a fresh cross-venue scan.
// GET /api/opportunities
func (h *OpportunityHandler) CrossVenue(w http.ResponseWriter, r *http.Request) {
	clearWriteDeadline(w)
	res, err := h.scanner.ScanCrossVenue(r.Context())
	if err != nil {
		h.scanFailed(w, r, service.KindCrossVenue, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SingleVenue runs a fresh single-venue strategy scan.
// GET /api/polymarket-opportunities
func (h *OpportunityHandler) SingleVenue(w http.ResponseWriter, r *http.Request) {
	clearWriteDeadline(w)
	res, err := h.scanner.ScanSingleVenue(r.Context())
	if err != nil {
		h.scanFailed(w, r, service.KindSingleVenue, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// LatestCrossVenue serves the cached cross-venue result.
// GET /api/opportunities/latest
func (h *OpportunityHandler) LatestCrossVenue(w http.ResponseWriter, r *http.Request) {
	h.latest(w, r, service.KindCrossVenue)
}

// LatestSingleVenue serves the cached single-venue result.
// GET /api/polymarket-opportunities/latest
func (h *OpportunityHandler) LatestSingleVenue(w http.ResponseWriter, r *http.Request) {
	h.latest(w, r, service.KindSingleVenue)
}

func (h *OpportunityHandler) latest(w http.ResponseWriter, r *http.Request, kind string) {
	data, err := h.scanner.Latest(r.Context(), kind)
	switch {
	case err == nil:
		writeRawJSON(w, http.StatusOK, data)
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":         "no recent scan result",
			"opportunities": []any{},
		})
	default:
		h.logger.ErrorContext(r.Context(), "read latest result failed",
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":         scanFailedMessage,
			"opportunities": []any{},
		})
	}
}

// clearWriteDeadline lifts the server's write timeout for this response. Fresh
// scans are paced by venue rate limits and routinely outlast it.
func clearWriteDeadline(w http.ResponseWriter) {
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
}

func (h *OpportunityHandler) scanFailed(w http.ResponseWriter, r *http.Request, kind string, err error) {
	h.logger.ErrorContext(r.Context(), "scan failed",
		slog.String("kind", kind),
		slog.String("error", err.Error()),
	)
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"error":         scanFailedMessage,
		"opportunities": []any{},
	})
}
