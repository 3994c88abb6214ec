package main

import (
	"context"
	"testing"

	constants "github.com/CodeAndHammer/padludo/internal/constants"
	game "github.com/CodeAndHammer/padludo/internal/game"
	models "github.com/CodeAndHammer/padludo/internal/models"
)

func testGrid() *models.Grid {
	// Uniform value 3 except (1,1), which no path may step onto.
	cells := make([][]int, 5)
	for r := range cells {
		row := make([]int, 5)
		for c := range row {
			row[c] = 3
		}
		cells[r] = row
	}
	cells[1][1] = 9
	return &models.Grid{Size: 5, Cells: cells}
}

func testPuzzle() *models.DailyPuzzle {
	return &models.DailyPuzzle{
		Key:    models.PuzzleKey{Day: 20600, Size: 5},
		Grid:   testGrid(),
		Result: models.SolverResult{Length: 24},
	}
}

func dummyContext() context.Context {
	return context.Background()
}

func TestNewSessionStartsAtCenter(t *testing.T) {
	sess := game.NewSession(testPuzzle(), 1)
	if sess.Status != constants.StatusInProgress {
		t.Errorf("Status = %q, want %q", sess.Status, constants.StatusInProgress)
	}
	if len(sess.Path) != 1 || sess.Path[0] != (models.Position{Row: 2, Col: 2}) {
		t.Errorf("Path should start as [center], got %v", sess.Path)
	}
	if sess.Attempt != 1 || sess.OptimalLength != 24 || sess.PuzzleDay != 20600 {
		t.Errorf("Session metadata wrong: %+v", sess)
	}
}

func TestAttemptMoveAcceptsLegalStep(t *testing.T) {
	sess := game.NewSession(testPuzzle(), 1)
	if err := game.AttemptMove(dummyContext(), sess, models.Position{Row: 2, Col: 3}); err != nil {
		t.Fatalf("Legal move rejected: %v", err)
	}
	if len(sess.Path) != 2 || game.Head(sess) != (models.Position{Row: 2, Col: 3}) {
		t.Errorf("Path not extended: %v", sess.Path)
	}
}

func TestAttemptMoveRejections(t *testing.T) {
	cases := []struct {
		name string
		pos  models.Position
		code string
	}{
		{"out of bounds", models.Position{Row: 5, Col: 5}, constants.ErrorCodeOutOfBounds},
		{"negative", models.Position{Row: -1, Col: 0}, constants.ErrorCodeOutOfBounds},
		{"not adjacent", models.Position{Row: 0, Col: 0}, constants.ErrorCodeNotAdjacent},
		{"value gap", models.Position{Row: 1, Col: 1}, constants.ErrorCodeValueGap},
		{"revisit current", models.Position{Row: 2, Col: 2}, constants.ErrorCodeAlreadyVisited},
	}
	for _, tc := range cases {
		sess := game.NewSession(testPuzzle(), 1)
		err := game.AttemptMove(dummyContext(), sess, tc.pos)
		if err == nil || err.Error() != tc.code {
			t.Errorf("%s: got %v, want code %q", tc.name, err, tc.code)
		}
		if len(sess.Path) != 1 {
			t.Errorf("%s: rejected move mutated the path: %v", tc.name, sess.Path)
		}
	}
}

func TestAttemptMoveRejectsVisitedCell(t *testing.T) {
	sess := game.NewSession(testPuzzle(), 1)
	if err := game.AttemptMove(dummyContext(), sess, models.Position{Row: 2, Col: 3}); err != nil {
		t.Fatal(err)
	}
	err := game.AttemptMove(dummyContext(), sess, models.Position{Row: 2, Col: 2})
	if err == nil || err.Error() != constants.ErrorCodeAlreadyVisited {
		t.Errorf("Revisiting the start should be rejected, got %v", err)
	}
	if len(sess.Path) != 2 {
		t.Errorf("Rejected move mutated the path: %v", sess.Path)
	}
}

func TestPathInvariantAfterMixedMoves(t *testing.T) {
	sess := game.NewSession(testPuzzle(), 1)
	attempts := []models.Position{
		{Row: 2, Col: 3}, // ok
		{Row: 2, Col: 3}, // revisit
		{Row: 4, Col: 0}, // not adjacent
		{Row: 1, Col: 3}, // ok
		{Row: 1, Col: 1}, // not adjacent from (1,3)
		{Row: 0, Col: 2}, // ok
	}
	for _, p := range attempts {
		_ = game.AttemptMove(dummyContext(), sess, p)
	}

	g := sess.Grid
	if sess.Path[0] != g.Center() {
		t.Fatalf("Path no longer starts at center: %v", sess.Path)
	}
	seen := make(map[models.Position]bool)
	for i, p := range sess.Path {
		if seen[p] {
			t.Fatalf("Duplicate position %v in path", p)
		}
		seen[p] = true
		if i > 0 {
			prev := sess.Path[i-1]
			dr := prev.Row - p.Row
			dc := prev.Col - p.Col
			if dr < -1 || dr > 1 || dc < -1 || dc > 1 || (dr == 0 && dc == 0) {
				t.Fatalf("Non-adjacent consecutive pair %v -> %v", prev, p)
			}
		}
	}
	if len(sess.Path) != 4 {
		t.Errorf("Expected 4 accepted positions, got %v", sess.Path)
	}
}

func TestUndoLastMove(t *testing.T) {
	sess := game.NewSession(testPuzzle(), 1)
	if err := game.UndoLastMove(sess); err == nil || err.Error() != constants.ErrorCodeNothingToUndo {
		t.Errorf("Undo at start should be rejected, got %v", err)
	}

	_ = game.AttemptMove(dummyContext(), sess, models.Position{Row: 2, Col: 3})
	if err := game.UndoLastMove(sess); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if len(sess.Path) != 1 || game.Head(sess) != sess.Grid.Center() {
		t.Errorf("Undo did not restore the path: %v", sess.Path)
	}
}

func TestCompleteFreezesResult(t *testing.T) {
	sess := game.NewSession(testPuzzle(), 2)
	_ = game.AttemptMove(dummyContext(), sess, models.Position{Row: 2, Col: 3})
	_ = game.AttemptMove(dummyContext(), sess, models.Position{Row: 1, Col: 3})

	result, err := game.Complete(dummyContext(), sess)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if sess.Status != constants.StatusCompleted {
		t.Errorf("Status = %q, want completed", sess.Status)
	}
	if result.AchievedLength != 3 || result.OptimalLength != 24 || result.Attempts != 2 {
		t.Errorf("Result wrong: %+v", result)
	}
	if result.Perfect || result.GaveUp {
		t.Errorf("Result flags wrong: %+v", result)
	}
	if result.Percentage != 13 { // round(3*100/24) = round(12.5)
		t.Errorf("Percentage = %d, want 13", result.Percentage)
	}

	if err := game.AttemptMove(dummyContext(), sess, models.Position{Row: 0, Col: 3}); err == nil || err.Error() != constants.ErrorCodeGameOver {
		t.Errorf("Move after completion should be rejected, got %v", err)
	}
}

func TestGiveUpIsTerminal(t *testing.T) {
	sess := game.NewSession(testPuzzle(), 1)
	result, err := game.GiveUp(dummyContext(), sess)
	if err != nil {
		t.Fatalf("GiveUp failed: %v", err)
	}
	if !result.GaveUp || result.Perfect {
		t.Errorf("Result flags wrong: %+v", result)
	}
	if result.AchievedLength != 1 {
		t.Errorf("AchievedLength = %d, want 1", result.AchievedLength)
	}

	if err := game.AttemptMove(dummyContext(), sess, models.Position{Row: 2, Col: 3}); err == nil || err.Error() != constants.ErrorCodeGameOver {
		t.Errorf("Move after give-up should be rejected, got %v", err)
	}
	if _, err := game.GiveUp(dummyContext(), sess); err == nil {
		t.Error("Second give-up should be rejected")
	}
	if _, err := game.Complete(dummyContext(), sess); err == nil {
		t.Error("Complete after give-up should be rejected")
	}
}

func TestPerfectFlag(t *testing.T) {
	daily := testPuzzle()
	daily.Result.Length = 3
	sess := game.NewSession(daily, 1)
	_ = game.AttemptMove(dummyContext(), sess, models.Position{Row: 2, Col: 3})
	_ = game.AttemptMove(dummyContext(), sess, models.Position{Row: 1, Col: 3})

	result, err := game.Complete(dummyContext(), sess)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Perfect || result.Percentage != 100 {
		t.Errorf("Expected perfect 100%%, got %+v", result)
	}
}

func TestDerivedQueries(t *testing.T) {
	sess := game.NewSession(testPuzzle(), 1)
	center := models.Position{Row: 2, Col: 2}
	next := models.Position{Row: 2, Col: 3}
	_ = game.AttemptMove(dummyContext(), sess, next)

	if !game.IsStart(sess, center) || game.IsStart(sess, next) {
		t.Error("IsStart wrong")
	}
	if !game.IsHead(sess, next) || game.IsHead(sess, center) {
		t.Error("IsHead wrong")
	}
	if !game.InPath(sess, center) || !game.InPath(sess, next) || game.InPath(sess, models.Position{Row: 0, Col: 0}) {
		t.Error("InPath wrong")
	}
	if i, ok := game.PathIndex(sess, next); !ok || i != 1 {
		t.Errorf("PathIndex = %d,%v, want 1,true", i, ok)
	}
	if _, ok := game.PathIndex(sess, models.Position{Row: 0, Col: 0}); ok {
		t.Error("PathIndex should miss for unvisited cell")
	}
	if game.IsLegalMove(sess, center) {
		t.Error("Visited cell reported legal")
	}
	if game.IsLegalMove(sess, models.Position{Row: 1, Col: 1}) {
		t.Error("Value-gap cell reported legal")
	}
	if !game.IsLegalMove(sess, models.Position{Row: 1, Col: 3}) {
		t.Error("Legal cell reported illegal")
	}

	moves := game.LegalMoves(sess)
	if len(moves) == 0 || !game.HasLegalMove(sess) {
		t.Error("Expected legal moves from (2,3)")
	}
	for _, m := range moves {
		if !game.IsLegalMove(sess, m) {
			t.Errorf("LegalMoves returned illegal move %v", m)
		}
	}
}

func TestHintMove(t *testing.T) {
	witness := []models.Position{
		{Row: 2, Col: 2}, {Row: 2, Col: 3}, {Row: 1, Col: 3}, {Row: 0, Col: 3},
	}
	sess := game.NewSession(testPuzzle(), 1)

	hint, err := game.HintMove(sess, witness)
	if err != nil {
		t.Fatalf("HintMove failed: %v", err)
	}
	if hint != (models.Position{Row: 2, Col: 3}) {
		t.Errorf("Hint = %v, want (2,3)", hint)
	}

	// Step off the witness: no hint available.
	_ = game.AttemptMove(dummyContext(), sess, models.Position{Row: 3, Col: 3})
	if _, err := game.HintMove(sess, witness); err == nil || err.Error() != constants.ErrorCodeNoHint {
		t.Errorf("Expected no_hint_available, got %v", err)
	}
}

func TestPercentageRounding(t *testing.T) {
	cases := []struct {
		achieved, optimal, want int
	}{
		{1, 1, 100},
		{1, 2, 50},
		{2, 3, 67},
		{1, 3, 33},
		{24, 24, 100},
		{3, 24, 13},
	}
	for _, c := range cases {
		if got := game.Percentage(c.achieved, c.optimal); got != c.want {
			t.Errorf("Percentage(%d,%d) = %d, want %d", c.achieved, c.optimal, got, c.want)
		}
	}
}
