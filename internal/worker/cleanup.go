// Package worker runs background maintenance jobs.
package worker

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/quizhall/backend/internal/store"
)

// Cleanup periodically deletes expired sessions and their unpacked media.
type Cleanup struct {
	store     *store.Store
	mediaRoot string
	interval  time.Duration
	logger    *zap.Logger
}

// NewCleanup creates the expired-session sweeper.
func NewCleanup(st *store.Store, mediaRoot string, interval time.Duration, logger *zap.Logger) *Cleanup {
	return &Cleanup{store: st, mediaRoot: mediaRoot, interval: interval, logger: logger}
}

// Run sweeps on the configured interval until ctx is cancelled. The first
// sweep happens immediately, so restarts don't postpone cleanup by a full
// interval.
func (c *Cleanup) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

func (c *Cleanup) sweep(ctx context.Context) {
	expired, err := c.store.DeleteExpired(ctx)
	if err != nil {
		c.logger.Error("cleanup sweep failed", zap.Error(err))
		return
	}
	if len(expired) == 0 {
		return
	}
	for _, e := range expired {
		if e.Token == "" {
			continue
		}
		dir := filepath.Join(c.mediaRoot, e.Variant, e.Token)
		if err := os.RemoveAll(dir); err != nil {
			c.logger.Warn("media cleanup failed", zap.String("dir", dir), zap.Error(err))
		}
	}
	c.logger.Info("expired sessions removed", zap.Int("count", len(expired)))
}
