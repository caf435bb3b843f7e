package core

// scheduler.go runs background maintenance for the catalog.
//
// Currently it expires datasets: tables loaded longer ago than the configured
// TTL are dropped from the catalog so a long-running server does not hold
// every file it ever loaded. The job is context-aware and stops on shutdown.

import (
	"context"
	"log/slog"
	"time"
)

// ExpiryConfig controls the dataset expiry job.
type ExpiryConfig struct {
	TTL           time.Duration // Maximum dataset age; zero disables expiry
	CheckInterval time.Duration // How often to sweep (default: TTL/4, at least 1s)
}

// interval returns the sweep period for cfg.
func (cfg ExpiryConfig) interval() time.Duration {
	if cfg.CheckInterval > 0 {
		return cfg.CheckInterval
	}
	return max(cfg.TTL/4, time.Second)
}

// EvictOlderThan removes every table loaded before cutoff and returns how
// many were removed.
func (c *Catalog) EvictOlderThan(cutoff time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, t := range c.tables {
		if t.LoadedAt.Before(cutoff) {
			delete(c.tables, id)
			removed++
		}
	}
	return removed
}

// StartExpiry sweeps the catalog every cfg.CheckInterval until ctx is done.
// It returns immediately when cfg.TTL is zero.
func (c *Catalog) StartExpiry(ctx context.Context, cfg ExpiryConfig) {
	if cfg.TTL <= 0 {
		return
	}

	slog.Info("dataset expiry started", "ttl", cfg.TTL.String(), "interval", cfg.interval().String())

	ticker := time.NewTicker(cfg.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("dataset expiry stopped")
			return
		case now := <-ticker.C:
			c.runExpiry(now, cfg.TTL)
		}
	}
}

// runExpiry performs one sweep.
func (c *Catalog) runExpiry(now time.Time, ttl time.Duration) {
	start := time.Now()
	removed := c.EvictOlderThan(now.Add(-ttl))
	if removed == 0 {
		slog.Debug("expiry sweep found nothing to evict")
		return
	}
	slog.Info("expired datasets",
		"removed", removed,
		"remaining", c.Count(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
