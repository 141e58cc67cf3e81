package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/FightFi/booster/internal/domain"
	"github.com/FightFi/booster/internal/server/middleware"
)

// ClaimService defines the claim operations the handler requires from the
// service layer.
type ClaimService interface {
	ClaimReward(ctx context.Context, caller common.Address, eventID string, fightID uint32, indices []uint32) (uint64, error)
	ClaimRewards(ctx context.Context, caller common.Address, eventID string, claims []domain.FightClaim) (uint64, error)
}

// ClaimHandler serves payout endpoints.
type ClaimHandler struct {
	svc    ClaimService
	logger *slog.Logger
}

// NewClaimHandler creates a ClaimHandler.
func NewClaimHandler(svc ClaimService, logger *slog.Logger) *ClaimHandler {
	return &ClaimHandler{svc: svc, logger: logger}
}

type claimRequest struct {
	FightID uint32   `json:"fight_id"`
	Indices []uint32 `json:"indices"`
}

// Claim pays out the caller's boosts on one fight.
// POST /api/events/{id}/claims
func (h *ClaimHandler) Claim(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing verified caller")
		return
	}
	var req claimRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	paid, err := h.svc.ClaimReward(r.Context(), caller, pathParam(r, "id"), req.FightID, req.Indices)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"paid": paid})
}

type batchClaimRequest struct {
	Claims []claimRequest `json:"claims"`
}

// ClaimBatch pays out the caller's boosts across several fights atomically.
// POST /api/events/{id}/claims/batch
func (h *ClaimHandler) ClaimBatch(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing verified caller")
		return
	}
	var req batchClaimRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := make([]domain.FightClaim, len(req.Claims))
	for i, c := range req.Claims {
		claims[i] = domain.FightClaim{FightID: c.FightID, Indices: c.Indices}
	}

	paid, err := h.svc.ClaimRewards(r.Context(), caller, pathParam(r, "id"), claims)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"paid": paid})
}
