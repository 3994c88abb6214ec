package stats

import (
	"github.com/samber/lo"

	constants "github.com/CodeAndHammer/padludo/internal/constants"
	models "github.com/CodeAndHammer/padludo/internal/models"
)

// DefaultAchievements is the locked set every player starts with. Order is
// stable and part of the snapshot contract.
func DefaultAchievements() []models.Achievement {
	return []models.Achievement{
		{ID: constants.AchievementFirstGame, Name: "First Steps", Description: "Finish your first puzzle", Target: 1},
		{ID: constants.AchievementTenGames, Name: "Regular", Description: "Finish 10 puzzles", Target: 10},
		{ID: constants.AchievementFiftyGames, Name: "Devoted", Description: "Finish 50 puzzles", Target: 50},
		{ID: constants.AchievementFirstPerfect, Name: "Flawless", Description: "Find an optimal path", Target: 1},
		{ID: constants.AchievementTenPerfect, Name: "Pathfinder", Description: "Find 10 optimal paths", Target: 10},
		{ID: constants.AchievementStreakWeek, Name: "One Week", Description: "Play 7 days in a row", Target: 7},
		{ID: constants.AchievementStreakMonth, Name: "One Month", Description: "Play 30 days in a row", Target: 30},
		{ID: constants.AchievementEarlyBird, Name: "Early Bird", Description: "Finish a puzzle before 9am", Target: 1},
		{ID: constants.AchievementNightOwl, Name: "Night Owl", Description: "Finish a puzzle after 11pm", Target: 1},
		{ID: constants.AchievementPersistent, Name: "Persistent", Description: "Make 5 attempts in one day", Target: 5},
	}
}

// progressValue maps one folded result onto an achievement's metric. The
// aggregate passed in has already absorbed the result.
func progressValue(a models.Achievement, stats models.GameStats, result models.GameResult) int {
	switch a.ID {
	case constants.AchievementFirstGame, constants.AchievementTenGames, constants.AchievementFiftyGames:
		return stats.GamesPlayed
	case constants.AchievementFirstPerfect, constants.AchievementTenPerfect:
		return stats.PerfectGames
	case constants.AchievementStreakWeek, constants.AchievementStreakMonth:
		return stats.BestStreak
	case constants.AchievementEarlyBird:
		if !result.GaveUp && result.FinishedAt.Hour() < 9 {
			return 1
		}
	case constants.AchievementNightOwl:
		if !result.GaveUp && result.FinishedAt.Hour() >= 23 {
			return 1
		}
	case constants.AchievementPersistent:
		return result.Attempts
	}
	return 0
}

// UpdateAchievements ratchets progress from one recorded result. Progress
// never decreases and unlocking is one-way; the input slice is not mutated.
func UpdateAchievements(achievements []models.Achievement, stats models.GameStats, result models.GameResult) []models.Achievement {
	return lo.Map(achievements, func(a models.Achievement, _ int) models.Achievement {
		next := a
		next.Progress = max(a.Progress, progressValue(a, stats, result))
		if !next.Unlocked && next.Progress >= next.Target {
			next.Unlocked = true
			next.UnlockedAt = result.FinishedAt
		}
		return next
	})
}

// UnlockedCount reports how many achievements have been earned.
func UnlockedCount(achievements []models.Achievement) int {
	return lo.CountBy(achievements, func(a models.Achievement) bool { return a.Unlocked })
}
