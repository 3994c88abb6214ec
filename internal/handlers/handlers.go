package handlers

import (
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	constants "github.com/CodeAndHammer/padludo/internal/constants"
	game "github.com/CodeAndHammer/padludo/internal/game"
	models "github.com/CodeAndHammer/padludo/internal/models"
	session "github.com/CodeAndHammer/padludo/internal/session"
	stats "github.com/CodeAndHammer/padludo/internal/stats"
	util "github.com/CodeAndHammer/padludo/internal/util"
)

type moveRequest struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func parseSize(c *gin.Context) (int, error) {
	switch c.DefaultQuery("size", "small") {
	case "small":
		return constants.GridSizeSmall, nil
	case "large":
		return constants.GridSizeLarge, nil
	default:
		return 0, errors.New(constants.ErrorCodeInvalidSize)
	}
}

func sizeName(size int) string {
	if size == constants.GridSizeLarge {
		return "large"
	}
	return "small"
}

// sessionView is the snapshot the rendering layer consumes: the path plus
// the derived per-cell queries, never internal state.
func sessionView(sess *models.Session) gin.H {
	return gin.H{
		"status":        sess.Status,
		"path":          sess.Path,
		"pathLength":    len(sess.Path),
		"head":          game.Head(sess),
		"attempt":       sess.Attempt,
		"optimalLength": sess.OptimalLength,
		"puzzleDay":     sess.PuzzleDay,
		"legalMoves":    game.LegalMoves(sess),
		"hasLegalMove":  game.HasLegalMove(sess),
		"startedAt":     sess.StartedAt,
	}
}

func rejectJSON(c *gin.Context, code string) {
	c.JSON(http.StatusOK, gin.H{"accepted": false, "code": code})
}

// activeSession fetches the caller's current session, or an error code
// explaining why there is none.
func activeSession(app *models.App, c *gin.Context) (string, *models.Session, error) {
	sessionID := session.GetOrCreateSession(app, c)
	player := session.GetPlayer(app, sessionID)

	app.SessionMutex.RLock()
	sess := player.Session
	app.SessionMutex.RUnlock()

	if sess == nil {
		return sessionID, nil, errors.New(constants.ErrorCodeNotStarted)
	}
	return sessionID, sess, nil
}

// HomeHandler describes the service and which puzzles are "today's". The
// scheduling layer only ever needs these keys.
func HomeHandler(app *models.App, c *gin.Context) {
	now := time.Now()
	day := util.EpochDay(now)
	c.JSON(http.StatusOK, gin.H{
		"name": "Padludo - A Daily Path Puzzle",
		"puzzles": []gin.H{
			{"day": day, "size": "small"},
			{"day": day, "size": "large"},
		},
		"routes": []string{
			constants.RoutePuzzle,
			constants.RouteMove,
			constants.RouteUndo,
			constants.RouteGiveUp,
			constants.RouteComplete,
			constants.RouteNewAttempt,
			constants.RouteState,
			constants.RouteHint,
			constants.RouteStats,
		},
	})
}

// PuzzleHandler serves today's puzzle for the requested size, starting a
// session for the caller if needed.
func PuzzleHandler(app *models.App, c *gin.Context) {
	ctx := c.Request.Context()
	size, err := parseSize(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	daily, err := app.Puzzles.Today(ctx, time.Now(), size)
	if err != nil {
		util.LogWarn("Failed to produce daily puzzle: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "puzzle unavailable"})
		return
	}

	sessionID := session.GetOrCreateSession(app, c)
	sess := session.CurrentSession(app, ctx, sessionID, daily)

	c.JSON(http.StatusOK, gin.H{
		"day":           daily.Key.Day,
		"size":          sizeName(size),
		"grid":          daily.Grid,
		"optimalLength": daily.Result.Length,
		"session":       sessionView(sess),
	})
}

// MoveHandler applies one step. Rejected moves are a defined outcome and
// come back with 200 and a code, not an HTTP error.
func MoveHandler(app *models.App, c *gin.Context) {
	ctx := c.Request.Context()
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": constants.ErrorCodeBadRequest})
		return
	}

	_, sess, err := activeSession(app, c)
	if err != nil {
		rejectJSON(c, err.Error())
		return
	}

	app.SessionMutex.Lock()
	err = game.AttemptMove(ctx, sess, models.Position{Row: req.Row, Col: req.Col})
	app.SessionMutex.Unlock()
	if err != nil {
		rejectJSON(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"accepted": true, "session": sessionView(sess)})
}

func UndoHandler(app *models.App, c *gin.Context) {
	_, sess, err := activeSession(app, c)
	if err != nil {
		rejectJSON(c, err.Error())
		return
	}

	app.SessionMutex.Lock()
	err = game.UndoLastMove(sess)
	app.SessionMutex.Unlock()
	if err != nil {
		rejectJSON(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"accepted": true, "session": sessionView(sess)})
}

func finishHandler(app *models.App, c *gin.Context, giveUp bool) {
	ctx := c.Request.Context()
	sessionID, sess, err := activeSession(app, c)
	if err != nil {
		rejectJSON(c, err.Error())
		return
	}

	app.SessionMutex.Lock()
	var result models.GameResult
	if giveUp {
		result, err = game.GiveUp(ctx, sess)
	} else {
		result, err = game.Complete(ctx, sess)
	}
	app.SessionMutex.Unlock()
	if err != nil {
		rejectJSON(c, err.Error())
		return
	}

	playerStats, achievements := session.RecordResult(app, sessionID, result)

	c.JSON(http.StatusOK, gin.H{
		"accepted":     true,
		"result":       result,
		"session":      sessionView(sess),
		"stats":        statsView(playerStats),
		"achievements": achievements,
	})
}

func CompleteHandler(app *models.App, c *gin.Context) {
	finishHandler(app, c, false)
}

func GiveUpHandler(app *models.App, c *gin.Context) {
	finishHandler(app, c, true)
}

// NewAttemptHandler abandons nothing silently: it only starts a fresh
// attempt on today's puzzle, carrying the per-day attempt counter forward.
func NewAttemptHandler(app *models.App, c *gin.Context) {
	ctx := c.Request.Context()
	size, err := parseSize(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	daily, err := app.Puzzles.Today(ctx, time.Now(), size)
	if err != nil {
		util.LogWarn("Failed to produce daily puzzle: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "puzzle unavailable"})
		return
	}

	sessionID := session.GetOrCreateSession(app, c)
	sess := session.NewAttempt(app, ctx, sessionID, daily)

	c.JSON(http.StatusOK, gin.H{
		"grid":    daily.Grid,
		"session": sessionView(sess),
	})
}

func StateHandler(app *models.App, c *gin.Context) {
	_, sess, err := activeSession(app, c)
	if err != nil {
		rejectJSON(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"grid": sess.Grid, "session": sessionView(sess)})
}

// HintHandler reveals the next step of the cached witness path while the
// player is still on it.
func HintHandler(app *models.App, c *gin.Context) {
	ctx := c.Request.Context()
	_, sess, err := activeSession(app, c)
	if err != nil {
		rejectJSON(c, err.Error())
		return
	}

	daily, err := app.Puzzles.Today(ctx, time.Now(), sess.Grid.Size)
	if err != nil || daily.Key.Day != sess.PuzzleDay {
		rejectJSON(c, constants.ErrorCodeNoHint)
		return
	}

	app.SessionMutex.RLock()
	next, err := game.HintMove(sess, daily.Result.Path)
	app.SessionMutex.RUnlock()
	if err != nil {
		rejectJSON(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"accepted": true, "hint": next})
}

func statsView(s models.GameStats) gin.H {
	return gin.H{
		"gamesPlayed":       s.GamesPlayed,
		"perfectGames":      s.PerfectGames,
		"gaveUpGames":       s.GaveUpGames,
		"averagePercentage": s.AveragePercentage(),
		"perfectRate":       stats.PerfectRate(s),
		"currentStreak":     s.CurrentStreak,
		"bestStreak":        s.BestStreak,
		"bySize":            s.BySize,
		"history":           s.History,
	}
}

func StatsHandler(app *models.App, c *gin.Context) {
	sessionID := session.GetOrCreateSession(app, c)
	player := session.GetPlayer(app, sessionID)

	app.SessionMutex.RLock()
	playerStats := player.Stats
	achievements := player.Achievements
	app.SessionMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"stats":        statsView(playerStats),
		"achievements": achievements,
		"unlocked":     stats.UnlockedCount(achievements),
	})
}

func StatsResetHandler(app *models.App, c *gin.Context) {
	sessionID := session.GetOrCreateSession(app, c)
	session.ResetProgress(app, sessionID)

	player := session.GetPlayer(app, sessionID)
	app.SessionMutex.RLock()
	playerStats := player.Stats
	achievements := player.Achievements
	app.SessionMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"stats":        statsView(playerStats),
		"achievements": achievements,
	})
}

func HealthzHandler(app *models.App, c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(app.StartTime)

	app.SessionMutex.RLock()
	playerCount := len(app.Players)
	app.SessionMutex.RUnlock()

	app.LimiterMutex.RLock()
	limiterCount := len(app.LimiterMap)
	app.LimiterMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"env":             map[bool]string{true: "production", false: "development"}[app.IsProduction],
		"active_players":  playerCount,
		"active_limiters": limiterCount,
		"memory_alloc_mb": m.Alloc / 1024 / 1024,
		"memory_sys_mb":   m.Sys / 1024 / 1024,
		"memory_gc_count": m.NumGC,
		"uptime":          util.FormatUptime(uptime),
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})
}
