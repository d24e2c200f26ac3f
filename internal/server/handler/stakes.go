package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/arbscanner/internal/arbitrage"
	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// StakesHandler splits a bankroll across the legs of a cross-venue trade.
type StakesHandler struct {
	defaultBankroll float64
	logger          *slog.Logger
}

// NewStakesHandler creates a StakesHandler that uses defaultBankroll when a
// request omits one.
func NewStakesHandler(defaultBankroll float64, logger *slog.Logger) *StakesHandler {
	return &StakesHandler{defaultBankroll: defaultBankroll, logger: logHandler(logger, "stakes")}
}

type stakesRequest struct {
	Bankroll    *float64                      `json:"bankroll"`
	Opportunity *domain.CrossVenueOpportunity `json:"opportunity"`
}

type stakesResponse struct {
	domain.StakeAllocation
	Bankroll  float64   `json:"bankroll"`
	Timestamp time.Time `json:"timestamp"`
}

// Allocate computes the stake split for the posted opportunity.
// POST /api/stakes
func (h *StakesHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	var req stakesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Opportunity == nil {
		writeError(w, http.StatusBadRequest, "opportunity is required")
		return
	}

	bankroll := h.defaultBankroll
	if req.Bankroll != nil {
		bankroll = *req.Bankroll
	}

	alloc, err := arbitrage.AllocateStakes(bankroll, *req.Opportunity)
	if err != nil {
		h.logger.DebugContext(r.Context(), "stake allocation rejected", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, stakesResponse{
		StakeAllocation: alloc,
		Bankroll:        bankroll,
		Timestamp:       time.Now().UTC(),
	})
}
