package handler

import (
	"github.com/FightFi/booster/internal/domain"
)

// Wire representations of the domain records. The engine types stay free of
// serialization concerns; handlers convert at the boundary.

type eventJSON struct {
	ID            string `json:"id"`
	SeasonID      uint64 `json:"season_id"`
	NumFights     uint32 `json:"num_fights"`
	ClaimReady    bool   `json:"claim_ready"`
	ClaimDeadline int64  `json:"claim_deadline,omitempty"`
	CreatedAt     int64  `json:"created_at"`
}

func toEventJSON(ev domain.Event) eventJSON {
	return eventJSON{
		ID:            ev.ID,
		SeasonID:      ev.SeasonID,
		NumFights:     ev.NumFights,
		ClaimReady:    ev.ClaimReady,
		ClaimDeadline: ev.ClaimDeadline,
		CreatedAt:     ev.CreatedAt,
	}
}

type fightJSON struct {
	EventID                string `json:"event_id"`
	ID                     uint32 `json:"id"`
	Status                 string `json:"status"`
	Winner                 string `json:"winner"`
	Method                 string `json:"method,omitempty"`
	OriginalPool           uint64 `json:"original_pool"`
	BonusPool              uint64 `json:"bonus_pool"`
	SumWinnersStakes       uint64 `json:"sum_winners_stakes"`
	WinningPoolTotalShares uint64 `json:"winning_pool_total_shares"`
	PointsForWinner        uint64 `json:"points_for_winner"`
	PointsForWinnerMethod  uint64 `json:"points_for_winner_method"`
	ClaimedAmount          uint64 `json:"claimed_amount"`
	PurgedAmount           uint64 `json:"purged_amount"`
	BoostCutoff            int64  `json:"boost_cutoff,omitempty"`
	Cancelled              bool   `json:"cancelled"`
}

func toFightJSON(f domain.Fight) fightJSON {
	return fightJSON{
		EventID:                f.EventID,
		ID:                     f.ID,
		Status:                 string(f.Status),
		Winner:                 string(f.Winner),
		Method:                 string(f.Method),
		OriginalPool:           f.OriginalPool,
		BonusPool:              f.BonusPool,
		SumWinnersStakes:       f.SumWinnersStakes,
		WinningPoolTotalShares: f.WinningPoolTotalShares,
		PointsForWinner:        f.PointsForWinner,
		PointsForWinnerMethod:  f.PointsForWinnerMethod,
		ClaimedAmount:          f.ClaimedAmount,
		PurgedAmount:           f.PurgedAmount,
		BoostCutoff:            f.BoostCutoff,
		Cancelled:              f.Cancelled,
	}
}

func toFightsJSON(fights []domain.Fight) []fightJSON {
	out := make([]fightJSON, len(fights))
	for i, f := range fights {
		out[i] = toFightJSON(f)
	}
	return out
}

type boostJSON struct {
	EventID         string `json:"event_id"`
	FightID         uint32 `json:"fight_id"`
	Owner           string `json:"owner"`
	Index           uint32 `json:"index"`
	Amount          uint64 `json:"amount"`
	PredictedWinner string `json:"predicted_winner"`
	PredictedMethod string `json:"predicted_method"`
	Claimed         bool   `json:"claimed"`
	PlacedAt        int64  `json:"placed_at"`
}

func toBoostsJSON(boosts []domain.Boost) []boostJSON {
	out := make([]boostJSON, len(boosts))
	for i, b := range boosts {
		out[i] = boostJSON{
			EventID:         b.EventID,
			FightID:         b.FightID,
			Owner:           b.Owner.Hex(),
			Index:           b.Index,
			Amount:          b.Amount,
			PredictedWinner: string(b.PredictedWinner),
			PredictedMethod: string(b.PredictedMethod),
			Claimed:         b.Claimed,
			PlacedAt:        b.PlacedAt,
		}
	}
	return out
}
