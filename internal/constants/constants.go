package constants

type ContextKey string

const (
	GridSizeSmall = 5
	GridSizeLarge = 7

	MinCellValue = 1
	MaxCellValue = 9

	// MaxValueGap is the largest allowed difference between the values of
	// two consecutive path cells.
	MaxValueGap = 1

	HistoryCap = 100
)

const (
	SeedDayFactor = 31
)

const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusGaveUp     = "gave_up"
)

const (
	SessionCookieName = "session_id"
)

const (
	RouteHome       = "/"
	RoutePuzzle     = "/api/puzzle"
	RouteMove       = "/api/move"
	RouteUndo       = "/api/undo"
	RouteGiveUp     = "/api/give-up"
	RouteComplete   = "/api/complete"
	RouteNewAttempt = "/api/new-attempt"
	RouteState      = "/api/state"
	RouteHint       = "/api/hint"
	RouteStats      = "/api/stats"
	RouteStatsReset = "/api/stats/reset"
	RouteHealthz    = "/healthz"
)

const (
	ErrorCodeGameOver       = "game_over"
	ErrorCodeNotStarted     = "not_started"
	ErrorCodeOutOfBounds    = "out_of_bounds"
	ErrorCodeNotAdjacent    = "not_adjacent"
	ErrorCodeValueGap       = "value_gap"
	ErrorCodeAlreadyVisited = "already_visited"
	ErrorCodeNothingToUndo  = "nothing_to_undo"
	ErrorCodeNoHint         = "no_hint_available"
	ErrorCodeInvalidSize    = "invalid_size"
	ErrorCodeBadRequest     = "bad_request"
)

const (
	AchievementFirstGame    = "first_game"
	AchievementTenGames     = "ten_games"
	AchievementFiftyGames   = "fifty_games"
	AchievementFirstPerfect = "first_perfect"
	AchievementTenPerfect   = "ten_perfect"
	AchievementStreakWeek   = "streak_week"
	AchievementStreakMonth  = "streak_month"
	AchievementEarlyBird    = "early_bird"
	AchievementNightOwl     = "night_owl"
	AchievementPersistent   = "persistent"
)

const (
	RequestIDKey ContextKey = "request_id"
)
