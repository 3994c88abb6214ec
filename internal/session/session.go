package session

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	constants "github.com/CodeAndHammer/padludo/internal/constants"
	game "github.com/CodeAndHammer/padludo/internal/game"
	models "github.com/CodeAndHammer/padludo/internal/models"
	stats "github.com/CodeAndHammer/padludo/internal/stats"
	util "github.com/CodeAndHammer/padludo/internal/util"
)

func GetOrCreateSession(app *models.App, c *gin.Context) string {
	sessionID, err := c.Cookie(constants.SessionCookieName)
	if err != nil || len(sessionID) < 10 {
		sessionID = uuid.NewString()
		c.SetSameSite(http.SameSiteStrictMode)
		secure := app.IsProduction
		c.SetCookie(constants.SessionCookieName, sessionID, int(app.CookieMaxAge.Seconds()), "/", "", secure, true)
		util.LogInfo("Created new session: %s", sessionID)
	}
	return sessionID
}

// GetPlayer returns the state held for a session id, creating default
// stats and a locked achievement set on first sight.
func GetPlayer(app *models.App, sessionID string) *models.PlayerState {
	app.SessionMutex.RLock()
	player, exists := app.Players[sessionID]
	app.SessionMutex.RUnlock()
	if exists {
		app.SessionMutex.Lock()
		player.LastAccessTime = time.Now()
		app.SessionMutex.Unlock()
		return player
	}

	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()
	if player, exists = app.Players[sessionID]; exists {
		player.LastAccessTime = time.Now()
		return player
	}

	util.LogInfo("Creating player state for session: %s", sessionID)
	player = &models.PlayerState{
		Stats:          stats.NewStats(),
		Achievements:   stats.DefaultAchievements(),
		LastAccessTime: time.Now(),
	}
	app.Players[sessionID] = player
	return player
}

// CurrentSession returns the player's in-progress session for today's
// puzzle, starting attempt 1 if none matches the daily key.
func CurrentSession(app *models.App, ctx context.Context, sessionID string, daily *models.DailyPuzzle) *models.Session {
	player := GetPlayer(app, sessionID)

	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()

	sess := player.Session
	if sess != nil && sess.PuzzleDay == daily.Key.Day && sess.Grid.Size == daily.Key.Size {
		sess.LastAccessTime = time.Now()
		return sess
	}

	if reqID, _ := ctx.Value(constants.RequestIDKey).(string); reqID != "" {
		util.LogInfo("[request_id=%v] Starting session for %s: puzzle day=%d size=%d", reqID, sessionID, daily.Key.Day, daily.Key.Size)
	} else {
		util.LogInfo("Starting session for %s: puzzle day=%d size=%d", sessionID, daily.Key.Day, daily.Key.Size)
	}
	sess = game.NewSession(daily, 1)
	player.Session = sess
	return sess
}

// NewAttempt discards the active session and starts another on the same
// puzzle. The attempt counter carries forward within a calendar day and
// resets at day rollover (or when the puzzle changes).
func NewAttempt(app *models.App, ctx context.Context, sessionID string, daily *models.DailyPuzzle) *models.Session {
	player := GetPlayer(app, sessionID)

	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()

	attempt := 1
	if prev := player.Session; prev != nil && prev.PuzzleDay == daily.Key.Day && prev.Grid.Size == daily.Key.Size {
		attempt = prev.Attempt + 1
	}

	if reqID, _ := ctx.Value(constants.RequestIDKey).(string); reqID != "" {
		util.LogInfo("[request_id=%v] New attempt %d for %s: puzzle day=%d size=%d", reqID, attempt, sessionID, daily.Key.Day, daily.Key.Size)
	} else {
		util.LogInfo("New attempt %d for %s: puzzle day=%d size=%d", attempt, sessionID, daily.Key.Day, daily.Key.Size)
	}
	sess := game.NewSession(daily, attempt)
	player.Session = sess
	return sess
}

// RecordResult folds a finished game into the player's stats and ratchets
// achievements, returning the updated snapshots.
func RecordResult(app *models.App, sessionID string, result models.GameResult) (models.GameStats, []models.Achievement) {
	player := GetPlayer(app, sessionID)

	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()

	player.Stats = stats.RecordResult(player.Stats, result)
	player.Achievements = stats.UpdateAchievements(player.Achievements, player.Stats, result)
	player.LastAccessTime = time.Now()
	return player.Stats, player.Achievements
}

// ResetProgress restores stats and achievements to their defaults in one
// step; callers never observe one reset without the other.
func ResetProgress(app *models.App, sessionID string) {
	player := GetPlayer(app, sessionID)

	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()

	player.Stats = stats.NewStats()
	player.Achievements = stats.DefaultAchievements()
	player.Session = nil
	util.LogInfo("Reset progress for session: %s", sessionID)
}

func CleanupExpiredSessions(app *models.App) {
	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()

	now := time.Now()
	expiredCount := 0
	for sessionID, player := range app.Players {
		if now.Sub(player.LastAccessTime) > app.SessionTTL {
			delete(app.Players, sessionID)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		util.LogInfo("Cleaned up %d expired sessions", expiredCount)
	}
}
