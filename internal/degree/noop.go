package degree

import (
	"context"
	"time"

	"github.com/credentia/degreechain/internal/ledger"
	"go.uber.org/zap"
)

// NoopCache satisfies Cache without storing anything. Used when no
// database is configured; every Get is a miss.
type NoopCache struct {
	logger *zap.Logger
}

// NewNoopCache creates a NoopCache.
func NewNoopCache(logger *zap.Logger) *NoopCache {
	return &NoopCache{logger: logger}
}

// Upsert implements Cache.
func (c *NoopCache) Upsert(_ context.Context, d *CachedDegree) error {
	c.logger.Debug("noop cache: skipping upsert", zap.String("degree_id", d.ID))
	return nil
}

// UpdateStatus implements Cache.
func (c *NoopCache) UpdateStatus(_ context.Context, id string, _ ledger.Status, _ string, _ time.Time) error {
	c.logger.Debug("noop cache: skipping status update", zap.String("degree_id", id))
	return nil
}

// Get implements Cache.
func (c *NoopCache) Get(_ context.Context, _ string) (*CachedDegree, error) {
	return nil, ErrCacheMiss
}
