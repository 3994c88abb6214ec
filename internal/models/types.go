package models

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Position is a 0-indexed (row, col) cell coordinate.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Grid is the day's board: an N×N array of small values, never mutated
// after generation.
type Grid struct {
	Size  int     `json:"size"`
	Cells [][]int `json:"cells"`
}

func (g *Grid) At(p Position) int {
	return g.Cells[p.Row][p.Col]
}

func (g *Grid) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < g.Size && p.Col >= 0 && p.Col < g.Size
}

func (g *Grid) Center() Position {
	return Position{Row: g.Size / 2, Col: g.Size / 2}
}

// Neighbors8 returns the in-bounds 8-neighborhood of p in row-major order.
func (g *Grid) Neighbors8(p Position) []Position {
	out := make([]Position, 0, 8)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			n := Position{Row: p.Row + dr, Col: p.Col + dc}
			if g.InBounds(n) {
				out = append(out, n)
			}
		}
	}
	return out
}

// PuzzleKey identifies a daily puzzle: UTC epoch day plus grid size. Equal
// keys must yield bit-identical grids on every device.
type PuzzleKey struct {
	Day  int64 `json:"day"`
	Size int   `json:"size"`
}

// SolverResult holds the optimal path length for a grid and one witnessing
// path, cached per PuzzleKey.
type SolverResult struct {
	Length int        `json:"length"`
	Path   []Position `json:"path,omitempty"`
}

// DailyPuzzle bundles a generated grid with its solved result.
type DailyPuzzle struct {
	Key    PuzzleKey    `json:"key"`
	Grid   *Grid        `json:"grid"`
	Result SolverResult `json:"result"`
}

// PuzzleProvider serves solved daily puzzles. Implementations must memoize
// per PuzzleKey and collapse concurrent requests for the same key.
type PuzzleProvider interface {
	Today(ctx context.Context, now time.Time, size int) (*DailyPuzzle, error)
	Prune(now time.Time)
}

// Session is one play-through of a daily puzzle.
type Session struct {
	Grid           *Grid      `json:"grid"`
	Path           []Position `json:"path"`
	Status         string     `json:"status"`
	Attempt        int        `json:"attempt"`
	OptimalLength  int        `json:"optimalLength"`
	PuzzleDay      int64      `json:"puzzleDay"`
	StartedAt      time.Time  `json:"startedAt"`
	EndedAt        time.Time  `json:"endedAt,omitzero"`
	LastAccessTime time.Time  `json:"lastAccessTime"`
}

// GameResult is the immutable record archived from a finished session.
type GameResult struct {
	Day            int64     `json:"day"`
	GridSize       int       `json:"gridSize"`
	AchievedLength int       `json:"achievedLength"`
	OptimalLength  int       `json:"optimalLength"`
	Percentage     int       `json:"percentage"`
	Perfect        bool      `json:"perfect"`
	GaveUp         bool      `json:"gaveUp"`
	Attempts       int       `json:"attempts"`
	FinishedAt     time.Time `json:"finishedAt"`
}

type SizeStats struct {
	Played  int `json:"played"`
	Perfect int `json:"perfect"`
	GaveUp  int `json:"gaveUp"`
}

// GameStats is the cumulative aggregate folded from GameResults. Counters
// only grow; streaks follow calendar-day adjacency.
type GameStats struct {
	GamesPlayed   int               `json:"gamesPlayed"`
	PerfectGames  int               `json:"perfectGames"`
	GaveUpGames   int               `json:"gaveUpGames"`
	PercentageSum int               `json:"percentageSum"`
	CurrentStreak int               `json:"currentStreak"`
	BestStreak    int               `json:"bestStreak"`
	LastPlayedDay int64             `json:"lastPlayedDay"`
	BySize        map[int]SizeStats `json:"bySize"`
	History       []GameResult      `json:"history"`
}

// AveragePercentage is derived, never stored.
func (s GameStats) AveragePercentage() int {
	if s.GamesPlayed == 0 {
		return 0
	}
	return s.PercentageSum / s.GamesPlayed
}

type Achievement struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Target      int       `json:"target"`
	Progress    int       `json:"progress"`
	Unlocked    bool      `json:"unlocked"`
	UnlockedAt  time.Time `json:"unlockedAt,omitzero"`
}

// PlayerState is everything the server keeps for one browser session.
type PlayerState struct {
	Session        *Session
	Stats          GameStats
	Achievements   []Achievement
	LastAccessTime time.Time
}

type RateLimiterEntry struct {
	Limiter    *rate.Limiter
	LastAccess time.Time
}

type App struct {
	Puzzles        PuzzleProvider
	Players        map[string]*PlayerState
	SessionMutex   sync.RWMutex
	LimiterMap     map[string]*RateLimiterEntry
	LimiterMutex   sync.RWMutex
	IsProduction   bool
	StartTime      time.Time
	CookieMaxAge   time.Duration
	RateLimitRPS   int
	RateLimitBurst int
	RateLimiterTTL time.Duration
	SessionTTL     time.Duration
}
