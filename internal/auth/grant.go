package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/shinyyama/market-backend/internal/cache"
)

// GrantStore makes reset grants single use.
type GrantStore interface {
	Remember(ctx context.Context, id string, userID uint64, ttl time.Duration) error
	// Consume reports whether id was remembered for userID and forgets it.
	Consume(ctx context.Context, id string, userID uint64) (bool, error)
}

type grantStore struct {
	cache cache.Cache
}

func NewGrantStore(c cache.Cache) GrantStore {
	return &grantStore{cache: c}
}

func (g *grantStore) Remember(ctx context.Context, id string, userID uint64, ttl time.Duration) error {
	return g.cache.Set(ctx, cache.Key(cache.KeyResetGrant, id), strconv.FormatUint(userID, 10), ttl)
}

func (g *grantStore) Consume(ctx context.Context, id string, userID uint64) (bool, error) {
	if id == "" {
		return false, nil
	}
	v, ok, err := g.cache.Take(ctx, cache.Key(cache.KeyResetGrant, id))
	if err != nil || !ok {
		return false, err
	}
	return v == strconv.FormatUint(userID, 10), nil
}
