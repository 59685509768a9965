package redis

import (
	"context"
	"errors"

	"exam-bot/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Backend stores each collection document as one Redis string:
//
//	SET {prefix}:collection:{name} <json>
//
// Keys never expire; the store above it owns caching.
type Backend struct {
	client *redis.Client
	prefix string
}

func NewBackend(client *redis.Client, prefix string) *Backend {
	if prefix == "" {
		prefix = "exambot"
	}
	return &Backend{client: client, prefix: prefix}
}

func (b *Backend) Load(ctx context.Context, c domain.Collection) ([]byte, error) {
	data, err := b.client.Get(ctx, b.key(c)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (b *Backend) Save(ctx context.Context, c domain.Collection, data []byte) error {
	return b.client.Set(ctx, b.key(c), data, 0).Err()
}

func (b *Backend) key(c domain.Collection) string {
	return b.prefix + ":collection:" + string(c)
}
