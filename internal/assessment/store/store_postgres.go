package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"caregate/internal/domain"
	"caregate/pkg/platform/sentinel"
)

// PostgresStore persists decision records as JSONB with the state lifted into
// its own column for the compare-and-swap transition.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Schema for reference; migrations are owned by deployment tooling.
//
//	CREATE TABLE decisions (
//	    id         UUID PRIMARY KEY,
//	    state      TEXT NOT NULL,
//	    payload    JSONB NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL
//	);

func (s *PostgresStore) Create(ctx context.Context, rec *domain.DecisionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal decision record: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO decisions (id, state, payload, created_at) VALUES ($1, $2, $3, $4)`,
		rec.ID, string(rec.State), payload, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert decision record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*domain.DecisionRecord, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM decisions WHERE id = $1`, id,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select decision record: %w", err)
	}

	var rec domain.DecisionRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal decision record: %w", err)
	}
	return &rec, nil
}

// Update applies the compare-and-swap transition: the row is replaced only
// when its stored state still equals expect.
func (s *PostgresStore) Update(ctx context.Context, rec *domain.DecisionRecord, expect domain.DecisionState) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal decision record: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE decisions SET state = $2, payload = $3 WHERE id = $1 AND state = $4`,
		rec.ID, string(rec.State), payload, string(expect),
	)
	if err != nil {
		return fmt.Errorf("update decision record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either missing or the state moved underneath us.
		if _, err := s.Get(ctx, rec.ID); errors.Is(err, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	}
	return nil
}
