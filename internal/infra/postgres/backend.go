package postgres

import (
	"context"
	"errors"
	"fmt"

	"exam-bot/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Backend stores collection documents as JSONB rows in the collections table
// created by the migrations package.
type Backend struct {
	pool *pgxpool.Pool
}

func NewBackend(pool *pgxpool.Pool) *Backend {
	return &Backend{pool: pool}
}

func (b *Backend) Load(ctx context.Context, c domain.Collection) ([]byte, error) {
	var raw []byte
	err := b.pool.QueryRow(ctx, `SELECT data FROM collections WHERE name=$1`, string(c)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load collection: %w", err)
	}
	return raw, nil
}

func (b *Backend) Save(ctx context.Context, c domain.Collection, data []byte) error {
	_, err := b.pool.Exec(ctx, `
		INSERT INTO collections (name, data, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		string(c), string(data))
	if err != nil {
		return fmt.Errorf("save collection: %w", err)
	}
	return nil
}
