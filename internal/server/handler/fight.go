package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/FightFi/booster/internal/domain"
)

// FightService defines the fight operations the handler requires from the
// service layer.
type FightService interface {
	SetFightBoostCutoff(ctx context.Context, caller common.Address, id string, fightID uint32, cutoff int64) error
	DepositBonus(ctx context.Context, caller common.Address, eventID string, fightID uint32, amount uint64, force bool) error
	UpdateFightStatus(ctx context.Context, caller common.Address, eventID string, fightID uint32, status domain.FightStatus) error
	CancelFight(ctx context.Context, caller common.Address, eventID string, fightID uint32) error
	SubmitFightResult(ctx context.Context, caller common.Address, eventID string, r domain.FightResult) error
	SubmitFightResults(ctx context.Context, caller common.Address, eventID string, results []domain.FightResult) error
	GetFight(ctx context.Context, eventID string, fightID uint32) (domain.Fight, error)
	TotalPool(eventID string, fightID uint32) (uint64, error)
}

// FightHandler serves fight lifecycle and settlement endpoints.
type FightHandler struct {
	svc    FightService
	logger *slog.Logger
}

// NewFightHandler creates a FightHandler.
func NewFightHandler(svc FightService, logger *slog.Logger) *FightHandler {
	return &FightHandler{svc: svc, logger: logger}
}

// SetBoostCutoff applies a placement cutoff to one fight.
// PUT /api/events/{id}/fights/{fid}/cutoff
func (h *FightHandler) SetBoostCutoff(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAddress(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fid, err := fightIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req cutoffRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.SetFightBoostCutoff(r.Context(), actor, pathParam(r, "id"), fid, req.Cutoff); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"cutoff": req.Cutoff})
}

type bonusRequest struct {
	Amount uint64 `json:"amount"`
	Force  bool   `json:"force"`
}

// DepositBonus moves operator funds into the fight's bonus pool.
// POST /api/events/{id}/fights/{fid}/bonus
func (h *FightHandler) DepositBonus(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAddress(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fid, err := fightIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req bonusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.DepositBonus(r.Context(), actor, pathParam(r, "id"), fid, req.Amount, req.Force); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"amount": req.Amount})
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus transitions the fight's lifecycle status.
// PUT /api/events/{id}/fights/{fid}/status
func (h *FightHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAddress(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fid, err := fightIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req statusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := domain.FightStatus(req.Status)
	if !status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid fight status")
		return
	}

	if err := h.svc.UpdateFightStatus(r.Context(), actor, pathParam(r, "id"), fid, status); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

// Cancel flags the fight as cancelled so stakes become flat refunds.
// POST /api/events/{id}/fights/{fid}/cancel
func (h *FightHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAddress(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fid, err := fightIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.CancelFight(r.Context(), actor, pathParam(r, "id"), fid); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
}

type resultRequest struct {
	Winner                 string `json:"winner"`
	Method                 string `json:"method"`
	PointsForWinner        uint64 `json:"points_for_winner"`
	PointsForWinnerMethod  uint64 `json:"points_for_winner_method"`
	SumWinnersStakes       uint64 `json:"sum_winners_stakes"`
	WinningPoolTotalShares uint64 `json:"winning_pool_total_shares"`
}

func (req resultRequest) toDomain(fightID uint32) domain.FightResult {
	return domain.FightResult{
		FightID:                fightID,
		Winner:                 domain.Corner(req.Winner),
		Method:                 domain.Method(req.Method),
		PointsForWinner:        req.PointsForWinner,
		PointsForWinnerMethod:  req.PointsForWinnerMethod,
		SumWinnersStakes:       req.SumWinnersStakes,
		WinningPoolTotalShares: req.WinningPoolTotalShares,
	}
}

// SubmitResult records one fight outcome with its scoring aggregates.
// POST /api/events/{id}/fights/{fid}/result
func (h *FightHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAddress(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fid, err := fightIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req resultRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.SubmitFightResult(r.Context(), actor, pathParam(r, "id"), req.toDomain(fid)); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"fight_id": uint64(fid)})
}

type batchResultRequest struct {
	Results []struct {
		FightID uint32 `json:"fight_id"`
		resultRequest
	} `json:"results"`
}

// SubmitResults records a batch of outcomes atomically.
// POST /api/events/{id}/results
func (h *FightHandler) SubmitResults(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAddress(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req batchResultRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	results := make([]domain.FightResult, len(req.Results))
	for i, entry := range req.Results {
		results[i] = entry.toDomain(entry.FightID)
	}

	if err := h.svc.SubmitFightResults(r.Context(), actor, pathParam(r, "id"), results); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"submitted": len(results)})
}

// GetFight returns one fight.
// GET /api/events/{id}/fights/{fid}
func (h *FightHandler) GetFight(w http.ResponseWriter, r *http.Request) {
	fid, err := fightIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f, err := h.svc.GetFight(r.Context(), pathParam(r, "id"), fid)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFightJSON(f))
}

// GetPool returns the fight's total pool (stakes plus bonus).
// GET /api/events/{id}/fights/{fid}/pool
func (h *FightHandler) GetPool(w http.ResponseWriter, r *http.Request) {
	fid, err := fightIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	total, err := h.svc.TotalPool(pathParam(r, "id"), fid)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"total_pool": total})
}
