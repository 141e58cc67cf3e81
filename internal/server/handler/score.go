package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/FightFi/booster/internal/domain"
)

// ScoreService computes the share multiplier for one prediction against an
// outcome.
type ScoreService interface {
	Score(predictedWinner, actualWinner domain.Corner, predictedMethod, actualMethod domain.Method, pointsForWinner, pointsForWinnerMethod uint64) uint64
}

// ScoreHandler exposes the scoring function as a calculator endpoint so
// clients can preview share counts without placing anything.
type ScoreHandler struct {
	svc    ScoreService
	logger *slog.Logger
}

// NewScoreHandler creates a ScoreHandler.
func NewScoreHandler(svc ScoreService, logger *slog.Logger) *ScoreHandler {
	return &ScoreHandler{svc: svc, logger: logger}
}

// Score computes points for a hypothetical prediction.
// GET /api/score?predicted_winner=red&actual_winner=red&predicted_method=knockout&actual_method=decision&pfw=10&pfwm=20
func (h *ScoreHandler) Score(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	predictedWinner := domain.Corner(q.Get("predicted_winner"))
	actualWinner := domain.Corner(q.Get("actual_winner"))
	predictedMethod := domain.Method(q.Get("predicted_method"))
	actualMethod := domain.Method(q.Get("actual_method"))
	if !predictedWinner.Valid() || !actualWinner.Valid() || !predictedMethod.Valid() || !actualMethod.Valid() {
		writeError(w, http.StatusBadRequest, "invalid corner or method")
		return
	}

	pfw, err := strconv.ParseUint(q.Get("pfw"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pfw")
		return
	}
	pfwm, err := strconv.ParseUint(q.Get("pfwm"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pfwm")
		return
	}

	points := h.svc.Score(predictedWinner, actualWinner, predictedMethod, actualMethod, pfw, pfwm)
	writeJSON(w, http.StatusOK, map[string]uint64{"points": points})
}
