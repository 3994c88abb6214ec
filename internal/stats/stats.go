package stats

import (
	"github.com/samber/lo"

	constants "github.com/CodeAndHammer/padludo/internal/constants"
	models "github.com/CodeAndHammer/padludo/internal/models"
)

// NewStats returns the empty aggregate every player starts from, and the
// state an explicit reset restores.
func NewStats() models.GameStats {
	return models.GameStats{
		BySize:  make(map[int]models.SizeStats),
		History: []models.GameResult{},
	}
}

// RecordResult folds one finished game into the aggregate. The input is
// not mutated; callers replace their stats with the returned value.
func RecordResult(stats models.GameStats, result models.GameResult) models.GameStats {
	next := stats

	next.GamesPlayed++
	next.PercentageSum += result.Percentage
	if result.Perfect {
		next.PerfectGames++
	}
	if result.GaveUp {
		next.GaveUpGames++
	}

	next.BySize = make(map[int]models.SizeStats, len(stats.BySize)+1)
	for size, s := range stats.BySize {
		next.BySize[size] = s
	}
	sizeStats := next.BySize[result.GridSize]
	sizeStats.Played++
	if result.Perfect {
		sizeStats.Perfect++
	}
	if result.GaveUp {
		sizeStats.GaveUp++
	}
	next.BySize[result.GridSize] = sizeStats

	switch {
	case stats.GamesPlayed == 0:
		next.CurrentStreak = 1
	case result.Day == stats.LastPlayedDay:
		// Re-entry on the same day keeps the streak.
	case result.Day == stats.LastPlayedDay+1:
		next.CurrentStreak++
	default:
		next.CurrentStreak = 1
	}
	next.BestStreak = max(next.BestStreak, next.CurrentStreak)
	next.LastPlayedDay = result.Day

	next.History = append([]models.GameResult{result}, stats.History...)
	if len(next.History) > constants.HistoryCap {
		next.History = next.History[:constants.HistoryCap]
	}

	return next
}

// PerSizePlayed reports how many games were recorded for a grid size.
func PerSizePlayed(stats models.GameStats, size int) int {
	return stats.BySize[size].Played
}

// PerfectRate is the share of perfect games in percent, derived on demand.
func PerfectRate(stats models.GameStats) int {
	if stats.GamesPlayed == 0 {
		return 0
	}
	return stats.PerfectGames * 100 / stats.GamesPlayed
}

// ResultsForDay filters the retained history down to one calendar day.
func ResultsForDay(stats models.GameStats, day int64) []models.GameResult {
	return lo.Filter(stats.History, func(r models.GameResult, _ int) bool {
		return r.Day == day
	})
}
