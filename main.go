package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"

	ginGzip "github.com/gin-contrib/gzip"

	"github.com/gin-gonic/gin"

	constants "github.com/CodeAndHammer/padludo/internal/constants"
	handlers "github.com/CodeAndHammer/padludo/internal/handlers"
	models "github.com/CodeAndHammer/padludo/internal/models"
	session "github.com/CodeAndHammer/padludo/internal/session"
	solver "github.com/CodeAndHammer/padludo/internal/solver"
	util "github.com/CodeAndHammer/padludo/internal/util"
)

func main() {
	_ = godotenv.Load()

	isProduction := os.Getenv("GIN_MODE") == "release" || os.Getenv("ENV") == "production"
	util.LogInfo("Starting Padludo in %s mode", map[bool]string{true: "production", false: "development"}[isProduction])

	app := &models.App{
		Puzzles:        solver.NewCache(),
		Players:        make(map[string]*models.PlayerState),
		LimiterMap:     make(map[string]*models.RateLimiterEntry),
		IsProduction:   isProduction,
		StartTime:      time.Now(),
		CookieMaxAge:   util.GetEnvDuration("COOKIE_MAX_AGE", 30*24*time.Hour),
		RateLimitRPS:   util.GetEnvInt("RATE_LIMIT_RPS", 5),
		RateLimitBurst: util.GetEnvInt("RATE_LIMIT_BURST", 10),
		RateLimiterTTL: util.GetEnvDuration("RATE_LIMITER_TTL", 1*time.Hour),
		SessionTTL:     util.GetEnvDuration("SESSION_TTL", 48*time.Hour),
	}

	prewarmPuzzles(app)

	router := gin.Default()

	router.Use(requestIDMiddleware())
	router.Use(securityHeadersMiddleware())

	router.Use(csrfMiddleware(app))
	router.Use(validateCSRFMiddleware())

	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		util.LogWarn("Failed to set trusted proxies: %v", err)
	}

	router.Use(func(c *gin.Context) {
		applyCacheHeaders(c)
	})

	router.GET(constants.RouteHome, func(c *gin.Context) { handlers.HomeHandler(app, c) })
	router.GET(constants.RoutePuzzle, func(c *gin.Context) { handlers.PuzzleHandler(app, c) })
	router.POST(constants.RouteMove, rateLimitMiddleware(app), func(c *gin.Context) { handlers.MoveHandler(app, c) })
	router.POST(constants.RouteUndo, rateLimitMiddleware(app), func(c *gin.Context) { handlers.UndoHandler(app, c) })
	router.POST(constants.RouteGiveUp, rateLimitMiddleware(app), func(c *gin.Context) { handlers.GiveUpHandler(app, c) })
	router.POST(constants.RouteComplete, rateLimitMiddleware(app), func(c *gin.Context) { handlers.CompleteHandler(app, c) })
	router.POST(constants.RouteNewAttempt, rateLimitMiddleware(app), func(c *gin.Context) { handlers.NewAttemptHandler(app, c) })
	router.GET(constants.RouteState, func(c *gin.Context) { handlers.StateHandler(app, c) })
	router.GET(constants.RouteHint, func(c *gin.Context) { handlers.HintHandler(app, c) })
	router.GET(constants.RouteStats, func(c *gin.Context) { handlers.StatsHandler(app, c) })
	router.POST(constants.RouteStatsReset, rateLimitMiddleware(app), func(c *gin.Context) { handlers.StatsResetHandler(app, c) })
	router.GET(constants.RouteHealthz, func(c *gin.Context) { handlers.HealthzHandler(app, c) })

	startCleanupRoutines(app)

	startServer(router)
}

// prewarmPuzzles solves today's grids once at boot so the first player of
// the day never waits on the search.
func prewarmPuzzles(app *models.App) {
	for _, size := range []int{constants.GridSizeSmall, constants.GridSizeLarge} {
		daily, err := app.Puzzles.Today(context.Background(), time.Now(), size)
		if err != nil {
			util.LogFatal("Failed to prewarm daily puzzle (size %d): %v", size, err)
		}
		util.LogInfo("Daily puzzle ready: day=%d size=%d optimal=%d", daily.Key.Day, daily.Key.Size, daily.Result.Length)
	}
}

func startServer(router *gin.Engine) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		util.LogInfo("Shutdown signal received, shutting down server gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			util.LogWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	util.LogInfo("Server starting on http://localhost:%s", port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		util.LogFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	util.LogInfo("Server shutdown complete")
}

// applyCacheHeaders marks every response no-store: puzzle state is per
// session and must never be cached by intermediaries.
func applyCacheHeaders(c *gin.Context) {
	cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	})(c)
}

func startCleanupRoutines(app *models.App) {
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			session.CleanupExpiredSessions(app)
			app.Puzzles.Prune(time.Now())
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			cleanupStaleRateLimiters(app)
		}
	}()

	util.LogInfo("Started cleanup routines for sessions, puzzles and rate limiters")
}

func cleanupStaleRateLimiters(app *models.App) {
	app.LimiterMutex.Lock()
	defer app.LimiterMutex.Unlock()

	cutoffTime := time.Now().Add(-app.RateLimiterTTL)
	removedCount := 0

	for key, entry := range app.LimiterMap {
		if entry.LastAccess.Before(cutoffTime) {
			delete(app.LimiterMap, key)
			removedCount++
		}
	}

	if len(app.LimiterMap) > 10000 {
		util.LogInfo("Rate limiter map too large (%d entries), performing emergency cleanup", len(app.LimiterMap))

		if len(app.LimiterMap) > 50000 {
			type limiterInfo struct {
				key        string
				lastAccess time.Time
			}

			var limiters []limiterInfo
			for key, entry := range app.LimiterMap {
				limiters = append(limiters, limiterInfo{key: key, lastAccess: entry.LastAccess})
			}

			sort.Slice(limiters, func(i, j int) bool {
				return limiters[i].lastAccess.Before(limiters[j].lastAccess)
			})

			entriesToRemove := len(limiters) / 2
			for i := 0; i < entriesToRemove; i++ {
				delete(app.LimiterMap, limiters[i].key)
				removedCount++
			}

			util.LogInfo("Removed %d oldest rate limiters", entriesToRemove)
		}
	}

	if removedCount > 0 {
		util.LogInfo("Cleaned up %d stale rate limiters", removedCount)
	}
}
