package solver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	models "github.com/CodeAndHammer/padludo/internal/models"
	puzzle "github.com/CodeAndHammer/padludo/internal/puzzle"
	util "github.com/CodeAndHammer/padludo/internal/util"
)

// Cache memoizes solved daily puzzles per PuzzleKey. Concurrent requests
// for the same key share a single search via singleflight; repeat requests
// hit the map and never re-run the solver.
type Cache struct {
	mu      sync.RWMutex
	entries map[models.PuzzleKey]*models.DailyPuzzle
	group   singleflight.Group
}

func NewCache() *Cache {
	return &Cache{entries: make(map[models.PuzzleKey]*models.DailyPuzzle)}
}

func (c *Cache) get(key models.PuzzleKey) (*models.DailyPuzzle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry, ok
}

// Today returns the solved puzzle for the given wall-clock time and size,
// generating and solving it on first request.
func (c *Cache) Today(ctx context.Context, now time.Time, size int) (*models.DailyPuzzle, error) {
	key := puzzle.KeyFor(now, size)
	if entry, ok := c.get(key); ok {
		return entry, nil
	}

	v, err, shared := c.group.Do(fmt.Sprintf("%d:%d", key.Day, key.Size), func() (any, error) {
		if entry, ok := c.get(key); ok {
			return entry, nil
		}

		grid := puzzle.Generate(key)
		started := time.Now()

		// Once a search starts its result is wanted for scoring, so it is
		// detached from the first caller's cancellation.
		result, err := Solve(context.WithoutCancel(ctx), grid)
		if err != nil {
			return nil, err
		}
		util.LogInfo("Solved puzzle day=%d size=%d optimal=%d in %v", key.Day, key.Size, result.Length, time.Since(started))

		entry := &models.DailyPuzzle{Key: key, Grid: grid, Result: result}
		c.mu.Lock()
		c.entries[key] = entry
		c.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		util.LogInfo("Joined in-flight solve for puzzle day=%d size=%d", key.Day, key.Size)
	}
	return v.(*models.DailyPuzzle), nil
}

// Prune drops entries for days other than now's, keeping the cache at two
// live entries past midnight rollover.
func (c *Cache) Prune(now time.Time) {
	today := util.EpochDay(now)
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if key.Day != today {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		util.LogInfo("Pruned %d stale puzzle cache entries", removed)
	}
}
