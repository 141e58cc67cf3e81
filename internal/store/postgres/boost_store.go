package postgres

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FightFi/booster/internal/domain"
)

// BoostStore implements domain.BoostStore using PostgreSQL. Owner addresses
// are stored in their EIP-55 hex form.
type BoostStore struct {
	pool *pgxpool.Pool
}

// NewBoostStore creates a new BoostStore backed by the given connection pool.
func NewBoostStore(pool *pgxpool.Pool) *BoostStore {
	return &BoostStore{pool: pool}
}

const boostCols = `event_id, fight_id, owner, idx,
	amount, predicted_winner, predicted_method, claimed, placed_at`

const boostUpsert = `
	INSERT INTO boosts (
		event_id, fight_id, owner, idx,
		amount, predicted_winner, predicted_method, claimed, placed_at, updated_at
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7, $8, $9, NOW()
	)
	ON CONFLICT (event_id, fight_id, owner, idx) DO UPDATE SET
		amount           = EXCLUDED.amount,
		predicted_winner = EXCLUDED.predicted_winner,
		predicted_method = EXCLUDED.predicted_method,
		claimed          = EXCLUDED.claimed,
		updated_at       = NOW()`

func boostArgs(b domain.Boost) []any {
	return []any{
		b.EventID, b.FightID, b.Owner.Hex(), b.Index,
		b.Amount, string(b.PredictedWinner), string(b.PredictedMethod), b.Claimed, b.PlacedAt,
	}
}

// Upsert inserts or updates a single boost.
func (s *BoostStore) Upsert(ctx context.Context, b domain.Boost) error {
	if _, err := s.pool.Exec(ctx, boostUpsert, boostArgs(b)...); err != nil {
		return fmt.Errorf("postgres: upsert boost %s/%d/%s/%d: %w", b.EventID, b.FightID, b.Owner.Hex(), b.Index, err)
	}
	return nil
}

// UpsertBatch inserts or updates multiple boosts in a single batch operation.
func (s *BoostStore) UpsertBatch(ctx context.Context, boosts []domain.Boost) error {
	if len(boosts) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, b := range boosts {
		batch.Queue(boostUpsert, boostArgs(b)...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range boosts {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert boost batch item %d: %w", i, err)
		}
	}
	return nil
}

func scanBoost(row pgx.Row) (domain.Boost, error) {
	var b domain.Boost
	var owner, winner, method string
	err := row.Scan(
		&b.EventID, &b.FightID, &owner, &b.Index,
		&b.Amount, &winner, &method, &b.Claimed, &b.PlacedAt,
	)
	if err != nil {
		return domain.Boost{}, err
	}
	b.Owner = common.HexToAddress(owner)
	b.PredictedWinner = domain.Corner(winner)
	b.PredictedMethod = domain.Method(method)
	return b, nil
}

func (s *BoostStore) list(ctx context.Context, query string, args ...any) ([]domain.Boost, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list boosts: %w", err)
	}
	defer rows.Close()

	var boosts []domain.Boost
	for rows.Next() {
		b, err := scanBoost(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan boost: %w", err)
		}
		boosts = append(boosts, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list boosts rows: %w", err)
	}
	return boosts, nil
}

// ListByOwner returns one owner's boosts on a fight ordered by index.
func (s *BoostStore) ListByOwner(ctx context.Context, eventID string, fightID uint32, owner common.Address) ([]domain.Boost, error) {
	return s.list(ctx,
		`SELECT `+boostCols+` FROM boosts
		 WHERE event_id = $1 AND fight_id = $2 AND owner = $3 ORDER BY idx`,
		eventID, fightID, owner.Hex())
}

// ListByFight returns every boost on a fight.
func (s *BoostStore) ListByFight(ctx context.Context, eventID string, fightID uint32) ([]domain.Boost, error) {
	return s.list(ctx,
		`SELECT `+boostCols+` FROM boosts
		 WHERE event_id = $1 AND fight_id = $2 ORDER BY owner, idx`,
		eventID, fightID)
}

// ListByEvent returns every boost across an event's fights.
func (s *BoostStore) ListByEvent(ctx context.Context, eventID string) ([]domain.Boost, error) {
	return s.list(ctx,
		`SELECT `+boostCols+` FROM boosts
		 WHERE event_id = $1 ORDER BY fight_id, owner, idx`,
		eventID)
}
