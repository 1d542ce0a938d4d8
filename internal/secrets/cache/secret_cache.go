// Package cache implements the version-stamped cache in front of the
// encrypted-secret store. A per-project counter is folded into every cache
// key, so one increment makes all of a project's entries unreachable without
// enumerating them. The layer caches ciphertext as-is and never decrypts.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/keyloft/keyloft/internal/keyvalue"
	"github.com/keyloft/keyloft/internal/metrics"
	secretsDomain "github.com/keyloft/keyloft/internal/secrets/domain"
)

const (
	entryKeyPrefix   = "secret-cache:"
	versionKeyPrefix = "secret-cache-version:"
)

// Config holds the tuning knobs of the secret cache.
type Config struct {
	// ProductVersion is folded into every cache key so a deploy with a
	// different serialization format never reads old entries.
	ProductVersion string
	// EntryTTL is the lifetime of a cached payload, refreshed on hit.
	EntryTTL time.Duration
	// VersionTTL is the lifetime of the per-project version counter,
	// refreshed on every bump.
	VersionTTL time.Duration
	// MaxPayloadBytes is the ceiling above which payloads are not cached.
	MaxPayloadBytes int
}

// SecretCache is the coherency layer over a key-value store. Every backend
// failure is logged and swallowed; callers fall through to the primary store.
type SecretCache struct {
	store   keyvalue.Store
	metrics metrics.BusinessMetrics
	logger  *slog.Logger
	config  Config
}

// NewSecretCache creates a SecretCache on the given key-value store.
func NewSecretCache(
	store keyvalue.Store,
	m metrics.BusinessMetrics,
	logger *slog.Logger,
	config Config,
) *SecretCache {
	return &SecretCache{
		store:   store,
		metrics: m,
		logger:  logger,
		config:  config,
	}
}

// Stamp fixes the cache key for one read. The project version is read once;
// a miss-then-store sequence reuses the same key, so a concurrent version
// bump makes the stored entry unreachable rather than stale.
type Stamp struct {
	cacheKey string
	usable   bool
}

// Stamp reads the project's current version and computes the cache key for
// the query. On backend failure the stamp is unusable and both Get and Store
// become no-ops for this read.
func (c *SecretCache) Stamp(ctx context.Context, projectID uuid.UUID, querySignature string) Stamp {
	version, err := c.currentVersion(ctx, projectID)
	if err != nil {
		c.logger.Warn("secret cache version read failed",
			slog.String("project_id", projectID.String()),
			slog.String("error", err.Error()))
		c.metrics.RecordCacheEvent(ctx, "secrets", "error")
		return Stamp{}
	}

	digest := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%d|%s",
		c.config.ProductVersion, projectID, version, querySignature))

	return Stamp{
		cacheKey: entryKeyPrefix + hex.EncodeToString(digest[:]),
		usable:   true,
	}
}

// Get returns the cached rows for the stamp, refreshing the entry TTL on
// hit. The second return value reports whether the payload was served from
// cache.
func (c *SecretCache) Get(ctx context.Context, stamp Stamp) ([]*secretsDomain.Secret, bool) {
	if !stamp.usable {
		return nil, false
	}

	payload, found, err := c.store.Get(ctx, stamp.cacheKey)
	if err != nil {
		c.logger.Warn("secret cache get failed", slog.String("error", err.Error()))
		c.metrics.RecordCacheEvent(ctx, "secrets", "error")
		return nil, false
	}
	if !found {
		c.metrics.RecordCacheEvent(ctx, "secrets", "miss")
		return nil, false
	}

	var secrets []*secretsDomain.Secret
	if err := json.Unmarshal([]byte(payload), &secrets); err != nil {
		c.logger.Warn("secret cache payload corrupted", slog.String("error", err.Error()))
		c.metrics.RecordCacheEvent(ctx, "secrets", "error")
		return nil, false
	}

	if err := c.store.Expire(ctx, stamp.cacheKey, c.config.EntryTTL); err != nil {
		c.logger.Warn("secret cache ttl refresh failed", slog.String("error", err.Error()))
	}

	c.metrics.RecordCacheEvent(ctx, "secrets", "hit")
	return secrets, true
}

// Store caches the rows under the stamp's key. Payloads at or over the byte
// ceiling are skipped. Binary fields survive the text-based store via the
// base64 transcoding of encoding/json.
func (c *SecretCache) Store(ctx context.Context, stamp Stamp, secrets []*secretsDomain.Secret) {
	if !stamp.usable {
		return
	}

	payload, err := json.Marshal(secrets)
	if err != nil {
		c.logger.Warn("secret cache serialization failed", slog.String("error", err.Error()))
		return
	}
	if c.config.MaxPayloadBytes > 0 && len(payload) >= c.config.MaxPayloadBytes {
		c.metrics.RecordCacheEvent(ctx, "secrets", "skip")
		return
	}

	if err := c.store.SetWithTTL(ctx, stamp.cacheKey, string(payload), c.config.EntryTTL); err != nil {
		c.logger.Warn("secret cache store failed", slog.String("error", err.Error()))
		c.metrics.RecordCacheEvent(ctx, "secrets", "error")
	}
}

// Invalidate bumps the project's version counter and refreshes its TTL.
// All previously computed cache keys for the project become unreachable.
// Call only after the data transaction has committed.
func (c *SecretCache) Invalidate(ctx context.Context, projectID uuid.UUID) {
	key := versionKeyPrefix + projectID.String()

	if _, err := c.store.Increment(ctx, key); err != nil {
		c.logger.Warn("secret cache invalidation failed",
			slog.String("project_id", projectID.String()),
			slog.String("error", err.Error()))
		c.metrics.RecordCacheEvent(ctx, "secrets", "error")
		return
	}
	if err := c.store.Expire(ctx, key, c.config.VersionTTL); err != nil {
		c.logger.Warn("secret cache version ttl refresh failed", slog.String("error", err.Error()))
	}
}

// currentVersion reads the project's version counter; absent counts as 0.
func (c *SecretCache) currentVersion(ctx context.Context, projectID uuid.UUID) (int64, error) {
	value, found, err := c.store.Get(ctx, versionKeyPrefix+projectID.String())
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}

	version, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed version counter: %w", err)
	}
	return version, nil
}
