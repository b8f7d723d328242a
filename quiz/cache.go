package quiz

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/m3rciful/quizbot/core/logger"
)

// LoaderFunc reads the question bank for a named quiz stored at path.
type LoaderFunc func(name, path string) ([]Question, error)

// BankCache loads each quiz at most once per process and serves the cached bank afterwards.
// Concurrent first requests for the same quiz share a single load.
// Failed loads are not cached so a fixed file can be picked up without a restart.
type BankCache struct {
	catalog *Catalog
	load    LoaderFunc
	prepare func([]Question) []Question

	group singleflight.Group
	mu    sync.RWMutex
	banks map[string][]Question
}

// NewBankCache builds a cache over catalog. A nil load defaults to LoadFile.
// prepare, when set, transforms a freshly loaded bank once before it is cached.
func NewBankCache(catalog *Catalog, load LoaderFunc, prepare func([]Question) []Question) *BankCache {
	if load == nil {
		load = LoadFile
	}
	return &BankCache{
		catalog: catalog,
		load:    load,
		prepare: prepare,
		banks:   make(map[string][]Question),
	}
}

// Get returns the cached bank for name, loading it on first use.
// The returned slice is shared and must be treated as read-only.
func (c *BankCache) Get(ctx context.Context, name string) ([]Question, error) {
	c.mu.RLock()
	bank, ok := c.banks[name]
	c.mu.RUnlock()
	if ok {
		if logger.ShouldSampleDebug() {
			logger.LogEvent(ctx, logger.Quiz, slog.LevelDebug, "bank.get",
				slog.String("quiz", name),
				slog.String("cache", "hit"),
			)
		}
		return bank, nil
	}

	path, err := c.catalog.Path(name)
	if err != nil {
		return nil, err
	}

	v, err, _ := c.group.Do(name, func() (any, error) {
		c.mu.RLock()
		cached, ok := c.banks[name]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		start := time.Now()
		loaded, err := c.load(name, path)
		if err != nil {
			logger.LogEvent(ctx, logger.Quiz, slog.LevelWarn, "bank.load",
				slog.String("status", "fail"),
				slog.String("quiz", name),
				slog.String("path", path),
				slog.Any("err", err),
			)
			return nil, err
		}
		if c.prepare != nil {
			loaded = c.prepare(loaded)
		}

		c.mu.Lock()
		c.banks[name] = loaded
		c.mu.Unlock()

		logger.LogEvent(ctx, logger.Quiz, slog.LevelInfo, "bank.load",
			slog.String("status", "ok"),
			slog.String("quiz", name),
			slog.String("path", path),
			slog.Int("questions", len(loaded)),
			slog.Duration("duration", logger.Took(start)),
		)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Question), nil
}

// Len returns the number of cached banks.
func (c *BankCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.banks)
}
