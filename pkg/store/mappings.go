package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/paywall/pkg/billing"
	"github.com/dmitrymomot/paywall/pkg/pg"
)

// DB is the subset of *pgxpool.Pool used by the store.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGMappings is the Postgres billing.MappingStore.
type PGMappings struct {
	db DB
}

var _ billing.MappingStore = (*PGMappings)(nil)

func NewPGMappings(db DB) *PGMappings {
	return &PGMappings{db: db}
}

func (s *PGMappings) GetByUserID(ctx context.Context, userID string) (*billing.CustomerMapping, error) {
	m := billing.CustomerMapping{UserID: userID}
	err := s.db.QueryRow(ctx, `
		SELECT customer_id, metadata, created_at
		FROM customer_mappings
		WHERE user_id = $1`, userID).
		Scan(&m.CustomerID, &m.Metadata, &m.CreatedAt)
	if pg.IsNotFoundError(err) {
		return nil, billing.ErrMappingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer mapping: %w", err)
	}
	if m.Metadata == nil {
		m.Metadata = map[string]any{}
	}
	return &m, nil
}

// Insert is insert-or-ignore on user_id followed by a read, so concurrent
// backfills for one user converge on the first committed row.
func (s *PGMappings) Insert(ctx context.Context, m billing.CustomerMapping) (*billing.CustomerMapping, error) {
	if m.Metadata == nil {
		m.Metadata = map[string]any{}
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO customer_mappings (user_id, customer_id, metadata, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING`,
		m.UserID, m.CustomerID, m.Metadata, m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert customer mapping: %w", err)
	}
	return s.GetByUserID(ctx, m.UserID)
}
