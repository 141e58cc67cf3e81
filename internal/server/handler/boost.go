package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/FightFi/booster/internal/domain"
	"github.com/FightFi/booster/internal/server/middleware"
)

// BoostService defines the boost operations the handler requires from the
// service layer.
type BoostService interface {
	PlaceBoosts(ctx context.Context, caller common.Address, eventID string, orders []domain.BoostOrder) error
	AddToBoost(ctx context.Context, caller common.Address, eventID string, fightID uint32, index uint32, amount uint64) error
	GetUserBoosts(eventID string, fightID uint32, owner common.Address) ([]domain.Boost, error)
	GetUserBoostIndices(eventID string, fightID uint32, owner common.Address) ([]uint32, error)
	QuoteClaimable(ctx context.Context, eventID string, fightID uint32, owner common.Address) (uint64, error)
}

// BoostHandler serves boost placement and query endpoints.
type BoostHandler struct {
	svc    BoostService
	logger *slog.Logger
}

// NewBoostHandler creates a BoostHandler.
func NewBoostHandler(svc BoostService, logger *slog.Logger) *BoostHandler {
	return &BoostHandler{svc: svc, logger: logger}
}

type boostOrderRequest struct {
	FightID         uint32 `json:"fight_id"`
	Amount          uint64 `json:"amount"`
	PredictedWinner string `json:"predicted_winner"`
	PredictedMethod string `json:"predicted_method"`
}

type placeBoostsRequest struct {
	Orders []boostOrderRequest `json:"orders"`
}

// PlaceBoosts places a batch of boosts for the verified caller.
// POST /api/events/{id}/boosts
func (h *BoostHandler) PlaceBoosts(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing verified caller")
		return
	}
	var req placeBoostsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	orders := make([]domain.BoostOrder, len(req.Orders))
	for i, o := range req.Orders {
		orders[i] = domain.BoostOrder{
			FightID:         o.FightID,
			Amount:          o.Amount,
			PredictedWinner: domain.Corner(o.PredictedWinner),
			PredictedMethod: domain.Method(o.PredictedMethod),
		}
	}

	if err := h.svc.PlaceBoosts(r.Context(), caller, pathParam(r, "id"), orders); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"placed": len(orders)})
}

type addToBoostRequest struct {
	FightID uint32 `json:"fight_id"`
	Index   uint32 `json:"index"`
	Amount  uint64 `json:"amount"`
}

// AddToBoost increases the stake of one of the caller's boosts.
// PUT /api/events/{id}/boosts
func (h *BoostHandler) AddToBoost(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing verified caller")
		return
	}
	var req addToBoostRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.AddToBoost(r.Context(), caller, pathParam(r, "id"), req.FightID, req.Index, req.Amount); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"amount": req.Amount})
}

type listBoostsResponse struct {
	Boosts           []boostJSON `json:"boosts"`
	UnclaimedIndices []uint32    `json:"unclaimed_indices"`
}

// ListBoosts returns one owner's boosts on a fight with the indices still
// open to claim.
// GET /api/events/{id}/fights/{fid}/boosts?owner=0x...
func (h *BoostHandler) ListBoosts(w http.ResponseWriter, r *http.Request) {
	fid, err := fightIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	owner, err := ownerParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := pathParam(r, "id")
	boosts, err := h.svc.GetUserBoosts(id, fid, owner)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	indices, err := h.svc.GetUserBoostIndices(id, fid, owner)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listBoostsResponse{
		Boosts:           toBoostsJSON(boosts),
		UnclaimedIndices: indices,
	})
}

// Quote previews what one owner could claim on a fight right now.
// GET /api/events/{id}/fights/{fid}/quote?owner=0x...
func (h *BoostHandler) Quote(w http.ResponseWriter, r *http.Request) {
	fid, err := fightIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	owner, err := ownerParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := h.svc.QuoteClaimable(r.Context(), pathParam(r, "id"), fid, owner)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"claimable": amount})
}
