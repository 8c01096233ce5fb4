package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/terra-clan/mentor-engine/internal/models"
)

// CachingVerifier wraps a Verifier with a Redis cache of verified
// identities, so hot tokens do not hit the identity provider on every
// request. Keys are SHA-256 hashes of the token; the raw credential is
// never stored. Only identity is cached here, ticket state always goes
// to the store.
type CachingVerifier struct {
	inner Verifier
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCachingVerifier creates a caching wrapper around inner
func NewCachingVerifier(inner Verifier, rdb *redis.Client, ttl time.Duration) *CachingVerifier {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &CachingVerifier{
		inner: inner,
		rdb:   rdb,
		ttl:   ttl,
	}
}

// Verify returns a cached identity when present, otherwise defers to the
// inner verifier and caches the result. Cache failures degrade to a
// normal verification, never to a rejected request.
func (c *CachingVerifier) Verify(ctx context.Context, token string) (*models.UserIdentity, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	key := cacheKey(token)

	if data, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var user models.UserIdentity
		if err := json.Unmarshal(data, &user); err == nil && user.ID != "" {
			return &user, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		slog.Warn("auth cache read failed", "error", err)
	}

	user, err := c.inner.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(user); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			slog.Warn("auth cache write failed", "error", err)
		}
	}

	return user, nil
}

// Ping reports the health of the inner verifier. The cache itself has
// its own readiness check.
func (c *CachingVerifier) Ping(ctx context.Context) error {
	if p, ok := c.inner.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "auth:token:" + hex.EncodeToString(sum[:])
}
