package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FightFi/booster/internal/domain"
)

// FightStore implements domain.FightStore using PostgreSQL.
type FightStore struct {
	pool *pgxpool.Pool
}

// NewFightStore creates a new FightStore backed by the given connection pool.
func NewFightStore(pool *pgxpool.Pool) *FightStore {
	return &FightStore{pool: pool}
}

const fightCols = `event_id, id, status, winner, method,
	original_pool, bonus_pool, sum_winners_stakes, winning_pool_total_shares,
	points_for_winner, points_for_winner_method,
	claimed_amount, boost_cutoff, cancelled, purged_amount`

const fightUpsert = `
	INSERT INTO fights (
		event_id, id, status, winner, method,
		original_pool, bonus_pool, sum_winners_stakes, winning_pool_total_shares,
		points_for_winner, points_for_winner_method,
		claimed_amount, boost_cutoff, cancelled, purged_amount, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9,
		$10, $11,
		$12, $13, $14, $15, NOW()
	)
	ON CONFLICT (event_id, id) DO UPDATE SET
		status                    = EXCLUDED.status,
		winner                    = EXCLUDED.winner,
		method                    = EXCLUDED.method,
		original_pool             = EXCLUDED.original_pool,
		bonus_pool                = EXCLUDED.bonus_pool,
		sum_winners_stakes        = EXCLUDED.sum_winners_stakes,
		winning_pool_total_shares = EXCLUDED.winning_pool_total_shares,
		points_for_winner         = EXCLUDED.points_for_winner,
		points_for_winner_method  = EXCLUDED.points_for_winner_method,
		claimed_amount            = EXCLUDED.claimed_amount,
		boost_cutoff              = EXCLUDED.boost_cutoff,
		cancelled                 = EXCLUDED.cancelled,
		purged_amount             = EXCLUDED.purged_amount,
		updated_at                = NOW()`

func fightArgs(f domain.Fight) []any {
	return []any{
		f.EventID, f.ID, string(f.Status), string(f.Winner), string(f.Method),
		f.OriginalPool, f.BonusPool, f.SumWinnersStakes, f.WinningPoolTotalShares,
		f.PointsForWinner, f.PointsForWinnerMethod,
		f.ClaimedAmount, f.BoostCutoff, f.Cancelled, f.PurgedAmount,
	}
}

// Upsert inserts or updates a single fight.
func (s *FightStore) Upsert(ctx context.Context, f domain.Fight) error {
	if _, err := s.pool.Exec(ctx, fightUpsert, fightArgs(f)...); err != nil {
		return fmt.Errorf("postgres: upsert fight %s/%d: %w", f.EventID, f.ID, err)
	}
	return nil
}

// UpsertBatch inserts or updates multiple fights in a single batch operation.
func (s *FightStore) UpsertBatch(ctx context.Context, fights []domain.Fight) error {
	if len(fights) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, f := range fights {
		batch.Queue(fightUpsert, fightArgs(f)...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range fights {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert fight batch item %d: %w", i, err)
		}
	}
	return nil
}

func scanFight(row pgx.Row) (domain.Fight, error) {
	var f domain.Fight
	var status, winner, method string
	err := row.Scan(
		&f.EventID, &f.ID, &status, &winner, &method,
		&f.OriginalPool, &f.BonusPool, &f.SumWinnersStakes, &f.WinningPoolTotalShares,
		&f.PointsForWinner, &f.PointsForWinnerMethod,
		&f.ClaimedAmount, &f.BoostCutoff, &f.Cancelled, &f.PurgedAmount,
	)
	if err != nil {
		return domain.Fight{}, err
	}
	f.Status = domain.FightStatus(status)
	f.Winner = domain.Corner(winner)
	f.Method = domain.Method(method)
	return f, nil
}

// GetByID retrieves a fight by its composite key.
func (s *FightStore) GetByID(ctx context.Context, eventID string, fightID uint32) (domain.Fight, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+fightCols+` FROM fights WHERE event_id = $1 AND id = $2`, eventID, fightID)
	f, err := scanFight(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Fight{}, domain.ErrNotFound
		}
		return domain.Fight{}, fmt.Errorf("postgres: get fight %s/%d: %w", eventID, fightID, err)
	}
	return f, nil
}

// ListByEvent returns every fight of an event ordered by fight id.
func (s *FightStore) ListByEvent(ctx context.Context, eventID string) ([]domain.Fight, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+fightCols+` FROM fights WHERE event_id = $1 ORDER BY id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list fights for %s: %w", eventID, err)
	}
	defer rows.Close()

	var fights []domain.Fight
	for rows.Next() {
		f, err := scanFight(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan fight: %w", err)
		}
		fights = append(fights, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list fights rows: %w", err)
	}
	return fights, nil
}
