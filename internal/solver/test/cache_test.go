package main

import (
	"context"
	"sync"
	"testing"
	"time"

	solver "github.com/CodeAndHammer/padludo/internal/solver"
)

func TestCacheMemoizesPerKey(t *testing.T) {
	cache := solver.NewCache()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	first, err := cache.Today(context.Background(), now, 5)
	if err != nil {
		t.Fatalf("Today returned error: %v", err)
	}
	second, err := cache.Today(context.Background(), now.Add(2*time.Hour), 5)
	if err != nil {
		t.Fatalf("Today returned error: %v", err)
	}
	if first != second {
		t.Error("Same-day requests should share one cached puzzle")
	}

	large, err := cache.Today(context.Background(), now, 7)
	if err != nil {
		t.Fatalf("Today returned error: %v", err)
	}
	if large == first {
		t.Error("Different sizes must not share a cache entry")
	}
	if large.Grid.Size != 7 || first.Grid.Size != 5 {
		t.Errorf("Wrong grid sizes: %d and %d", first.Grid.Size, large.Grid.Size)
	}
}

func TestCacheConcurrentRequestsAgree(t *testing.T) {
	cache := solver.NewCache()
	now := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)

	const callers = 8
	results := make([]int, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			daily, err := cache.Today(context.Background(), now, 7)
			if err != nil {
				t.Errorf("Today returned error: %v", err)
				return
			}
			results[i] = daily.Result.Length
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if results[i] != results[0] {
			t.Fatalf("Caller %d saw optimal %d, caller 0 saw %d", i, results[i], results[0])
		}
	}
}

func TestCachePruneDropsOldDays(t *testing.T) {
	cache := solver.NewCache()
	yesterday := time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)
	today := time.Date(2026, 3, 15, 1, 0, 0, 0, time.UTC)

	old, err := cache.Today(context.Background(), yesterday, 5)
	if err != nil {
		t.Fatalf("Today returned error: %v", err)
	}
	cache.Prune(today)

	fresh, err := cache.Today(context.Background(), today, 5)
	if err != nil {
		t.Fatalf("Today returned error: %v", err)
	}
	if fresh.Key.Day != old.Key.Day+1 {
		t.Errorf("Expected next-day key, got %d after %d", fresh.Key.Day, old.Key.Day)
	}

	// Pruning at the same instant must keep the current entry.
	cache.Prune(today)
	again, err := cache.Today(context.Background(), today, 5)
	if err != nil {
		t.Fatalf("Today returned error: %v", err)
	}
	if again != fresh {
		t.Error("Prune removed the current day's entry")
	}
}
