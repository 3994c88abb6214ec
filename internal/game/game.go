package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	constants "github.com/CodeAndHammer/padludo/internal/constants"
	models "github.com/CodeAndHammer/padludo/internal/models"
	util "github.com/CodeAndHammer/padludo/internal/util"
)

// NewSession starts a fresh attempt on the given daily puzzle. The path
// begins at the center cell and the session is immediately in progress.
func NewSession(daily *models.DailyPuzzle, attempt int) *models.Session {
	now := time.Now()
	return &models.Session{
		Grid:           daily.Grid,
		Path:           []models.Position{daily.Grid.Center()},
		Status:         constants.StatusInProgress,
		Attempt:        attempt,
		OptimalLength:  daily.Result.Length,
		PuzzleDay:      daily.Key.Day,
		StartedAt:      now,
		LastAccessTime: now,
	}
}

// Head returns the current end of the path.
func Head(sess *models.Session) models.Position {
	return sess.Path[len(sess.Path)-1]
}

func isNeighbor(a, b models.Position) bool {
	dr, dc := a.Row-b.Row, a.Col-b.Col
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	return dr <= 1 && dc <= 1 && (dr != 0 || dc != 0)
}

func valueCompatible(g *models.Grid, a, b models.Position) bool {
	diff := g.At(a) - g.At(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= constants.MaxValueGap
}

// PathIndex reports the 0-based position of p within the path, or false if
// p has not been visited.
func PathIndex(sess *models.Session, p models.Position) (int, bool) {
	i := lo.IndexOf(sess.Path, p)
	return i, i >= 0
}

func InPath(sess *models.Session, p models.Position) bool {
	_, ok := PathIndex(sess, p)
	return ok
}

func IsStart(sess *models.Session, p models.Position) bool {
	return p == sess.Path[0]
}

func IsHead(sess *models.Session, p models.Position) bool {
	return p == Head(sess)
}

// IsLegalMove reports whether p would be accepted by AttemptMove right now.
func IsLegalMove(sess *models.Session, p models.Position) bool {
	if sess.Status != constants.StatusInProgress || !sess.Grid.InBounds(p) {
		return false
	}
	head := Head(sess)
	return isNeighbor(head, p) && valueCompatible(sess.Grid, head, p) && !InPath(sess, p)
}

// LegalMoves lists every cell the player may step to from the current head.
func LegalMoves(sess *models.Session) []models.Position {
	if sess.Status != constants.StatusInProgress {
		return nil
	}
	head := Head(sess)
	return lo.Filter(sess.Grid.Neighbors8(head), func(p models.Position, _ int) bool {
		return valueCompatible(sess.Grid, head, p) && !InPath(sess, p)
	})
}

func HasLegalMove(sess *models.Session) bool {
	return len(LegalMoves(sess)) > 0
}

// AttemptMove validates and applies one step. A rejected move returns the
// rejection code as an error and leaves the session untouched; it is a
// defined outcome, not a fault.
func AttemptMove(ctx context.Context, sess *models.Session, p models.Position) error {
	reqID, _ := ctx.Value(constants.RequestIDKey).(string)

	if sess.Status != constants.StatusInProgress {
		if reqID != "" {
			util.LogWarn("[request_id=%v] Move attempted on %s session", reqID, sess.Status)
		} else {
			util.LogWarn("Move attempted on %s session", sess.Status)
		}
		return errors.New(constants.ErrorCodeGameOver)
	}
	if !sess.Grid.InBounds(p) {
		return errors.New(constants.ErrorCodeOutOfBounds)
	}
	head := Head(sess)
	if !isNeighbor(head, p) {
		return errors.New(constants.ErrorCodeNotAdjacent)
	}
	if !valueCompatible(sess.Grid, head, p) {
		return errors.New(constants.ErrorCodeValueGap)
	}
	if InPath(sess, p) {
		return errors.New(constants.ErrorCodeAlreadyVisited)
	}

	sess.Path = append(sess.Path, p)
	sess.LastAccessTime = time.Now()

	if reqID != "" {
		util.LogInfo("[request_id=%v] Move accepted to (%d,%d), path length now %d/%d", reqID, p.Row, p.Col, len(sess.Path), sess.OptimalLength)
	}
	return nil
}

// UndoLastMove pops the most recent step. The starting cell can never be
// removed.
func UndoLastMove(sess *models.Session) error {
	if sess.Status != constants.StatusInProgress {
		return errors.New(constants.ErrorCodeGameOver)
	}
	if len(sess.Path) <= 1 {
		return errors.New(constants.ErrorCodeNothingToUndo)
	}
	sess.Path = sess.Path[:len(sess.Path)-1]
	sess.LastAccessTime = time.Now()
	return nil
}

// Percentage scores an achieved length against the optimal one, rounded to
// the nearest whole percent.
func Percentage(achieved, optimal int) int {
	if optimal <= 0 {
		panic(fmt.Sprintf("game: non-positive optimal length %d", optimal))
	}
	return (achieved*100 + optimal/2) / optimal
}

func finish(sess *models.Session, status string, gaveUp bool) models.GameResult {
	now := time.Now()
	sess.Status = status
	sess.EndedAt = now
	sess.LastAccessTime = now

	achieved := len(sess.Path)
	return models.GameResult{
		Day:            sess.PuzzleDay,
		GridSize:       sess.Grid.Size,
		AchievedLength: achieved,
		OptimalLength:  sess.OptimalLength,
		Percentage:     Percentage(achieved, sess.OptimalLength),
		Perfect:        !gaveUp && achieved == sess.OptimalLength,
		GaveUp:         gaveUp,
		Attempts:       sess.Attempt,
		FinishedAt:     now,
	}
}

// Complete freezes the current path as the achieved result. Completion is
// always an explicit caller action, even when no legal moves remain.
func Complete(ctx context.Context, sess *models.Session) (models.GameResult, error) {
	reqID, _ := ctx.Value(constants.RequestIDKey).(string)

	if sess.Status != constants.StatusInProgress {
		return models.GameResult{}, errors.New(constants.ErrorCodeGameOver)
	}
	result := finish(sess, constants.StatusCompleted, false)
	if reqID != "" {
		util.LogInfo("[request_id=%v] Session completed: %d/%d (%d%%), perfect=%v", reqID, result.AchievedLength, result.OptimalLength, result.Percentage, result.Perfect)
	} else {
		util.LogInfo("Session completed: %d/%d (%d%%), perfect=%v", result.AchievedLength, result.OptimalLength, result.Percentage, result.Perfect)
	}
	return result, nil
}

// GiveUp abandons the attempt, freezing the current path with the gave-up
// flag set.
func GiveUp(ctx context.Context, sess *models.Session) (models.GameResult, error) {
	reqID, _ := ctx.Value(constants.RequestIDKey).(string)

	if sess.Status != constants.StatusInProgress {
		return models.GameResult{}, errors.New(constants.ErrorCodeGameOver)
	}
	result := finish(sess, constants.StatusGaveUp, true)
	if reqID != "" {
		util.LogInfo("[request_id=%v] Session gave up at %d/%d", reqID, result.AchievedLength, result.OptimalLength)
	} else {
		util.LogInfo("Session gave up at %d/%d", result.AchievedLength, result.OptimalLength)
	}
	return result, nil
}

// HintMove returns the next step of the cached witness path when the
// player's path is a prefix of it. Off the witness there is no cheap hint
// to give.
func HintMove(sess *models.Session, witness []models.Position) (models.Position, error) {
	if sess.Status != constants.StatusInProgress {
		return models.Position{}, errors.New(constants.ErrorCodeGameOver)
	}
	if len(sess.Path) >= len(witness) {
		return models.Position{}, errors.New(constants.ErrorCodeNoHint)
	}
	for i, p := range sess.Path {
		if witness[i] != p {
			return models.Position{}, errors.New(constants.ErrorCodeNoHint)
		}
	}
	return witness[len(sess.Path)], nil
}
