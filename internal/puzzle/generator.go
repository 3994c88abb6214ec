package puzzle

import (
	"fmt"
	"math/rand"
	"time"

	constants "github.com/CodeAndHammer/padludo/internal/constants"
	models "github.com/CodeAndHammer/padludo/internal/models"
	util "github.com/CodeAndHammer/padludo/internal/util"
)

// Seed derives the deterministic generator seed for a puzzle key. The
// mapping is part of the cross-device contract: changing it changes every
// player's daily grid.
func Seed(key models.PuzzleKey) int64 {
	return key.Day*constants.SeedDayFactor + int64(key.Size)
}

// KeyFor normalizes a wall-clock time to the daily puzzle identity.
func KeyFor(t time.Time, size int) models.PuzzleKey {
	return models.PuzzleKey{Day: util.EpochDay(t), Size: size}
}

func validSize(size int) bool {
	return size == constants.GridSizeSmall || size == constants.GridSizeLarge
}

// Generate produces the daily grid for key. It is a pure function of the
// key: same (day, size) always yields the same cells. An unsupported size
// is a caller bug and panics.
func Generate(key models.PuzzleKey) *models.Grid {
	if !validSize(key.Size) {
		panic(fmt.Sprintf("puzzle: unsupported grid size %d", key.Size))
	}

	rng := rand.New(rand.NewSource(Seed(key)))
	span := constants.MaxCellValue - constants.MinCellValue + 1

	cells := make([][]int, key.Size)
	for r := range cells {
		row := make([]int, key.Size)
		for c := range row {
			row[c] = constants.MinCellValue + rng.Intn(span)
		}
		cells[r] = row
	}

	return &models.Grid{Size: key.Size, Cells: cells}
}
