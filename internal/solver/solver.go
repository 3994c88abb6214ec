package solver

import (
	"context"
	"slices"
	"sort"

	constants "github.com/CodeAndHammer/padludo/internal/constants"
	models "github.com/CodeAndHammer/padludo/internal/models"
)

// checkEvery controls how often the search polls the context. Polling on
// every node would dominate the cheap recursion.
const checkEvery = 1024

func compatible(a, b int) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= constants.MaxValueGap
}

type search struct {
	ctx       context.Context
	grid      *models.Grid
	size      int
	visited   []bool
	path      []models.Position
	best      []models.Position
	nodes     int
	cancelled bool
}

func (s *search) index(p models.Position) int {
	return p.Row*s.size + p.Col
}

// candidates returns the unvisited, value-compatible neighbors of head.
func (s *search) candidates(head models.Position) []models.Position {
	v := s.grid.At(head)
	out := make([]models.Position, 0, 8)
	for _, n := range s.grid.Neighbors8(head) {
		if !s.visited[s.index(n)] && compatible(v, s.grid.At(n)) {
			out = append(out, n)
		}
	}
	return out
}

// onwardOptions counts how many unvisited compatible neighbors p would have
// once stepped onto. Used to order exploration fewest-options-first so tight
// corridors are resolved before open areas.
func (s *search) onwardOptions(p models.Position) int {
	v := s.grid.At(p)
	count := 0
	for _, n := range s.grid.Neighbors8(p) {
		if !s.visited[s.index(n)] && compatible(v, s.grid.At(n)) {
			count++
		}
	}
	return count
}

// reachable counts the unvisited cells reachable from head by walking
// value-compatible adjacencies through unvisited cells. Any extension of
// the current path can only visit cells in this set, so
// len(path) + reachable(head) is a sound upper bound on the best length
// attainable from here.
func (s *search) reachable(head models.Position) int {
	seen := make([]bool, s.size*s.size)
	queue := make([]models.Position, 0, s.size*s.size)

	for _, n := range s.candidates(head) {
		i := s.index(n)
		if !seen[i] {
			seen[i] = true
			queue = append(queue, n)
		}
	}

	count := 0
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		count++
		v := s.grid.At(p)
		for _, n := range s.grid.Neighbors8(p) {
			i := s.index(n)
			if !seen[i] && !s.visited[i] && compatible(v, s.grid.At(n)) {
				seen[i] = true
				queue = append(queue, n)
			}
		}
	}
	return count
}

func (s *search) dfs(head models.Position) {
	s.nodes++
	if s.nodes%checkEvery == 0 && s.ctx.Err() != nil {
		s.cancelled = true
	}
	if s.cancelled {
		return
	}

	if len(s.path) > len(s.best) {
		s.best = slices.Clone(s.path)
	}

	cands := s.candidates(head)
	if len(cands) == 0 {
		return
	}

	if len(s.path)+s.reachable(head) <= len(s.best) {
		return
	}

	// Fewest onward options first; (row, col) tie-break keeps the witness
	// path stable across runs.
	sort.Slice(cands, func(i, j int) bool {
		oi, oj := s.onwardOptions(cands[i]), s.onwardOptions(cands[j])
		if oi != oj {
			return oi < oj
		}
		if cands[i].Row != cands[j].Row {
			return cands[i].Row < cands[j].Row
		}
		return cands[i].Col < cands[j].Col
	})

	for _, n := range cands {
		i := s.index(n)
		s.visited[i] = true
		s.path = append(s.path, n)

		s.dfs(n)

		s.path = s.path[:len(s.path)-1]
		s.visited[i] = false

		if s.cancelled {
			return
		}
	}
}

// Solve computes the longest simple path starting at the grid's center
// under the 8-neighbor ±1 value rule. It is a pure function of the grid's
// contents: the returned length and witness path are identical for
// identical grids. A single-cell path is always valid, so the result
// length is at least 1.
//
// The search honors ctx cancellation; on cancel it returns ctx.Err() and
// the best path found so far, which callers must not cache.
func Solve(ctx context.Context, grid *models.Grid) (models.SolverResult, error) {
	start := grid.Center()
	s := &search{
		ctx:     ctx,
		grid:    grid,
		size:    grid.Size,
		visited: make([]bool, grid.Size*grid.Size),
	}
	s.visited[s.index(start)] = true
	s.path = []models.Position{start}
	s.best = slices.Clone(s.path)

	s.dfs(start)

	result := models.SolverResult{Length: len(s.best), Path: s.best}
	if s.cancelled {
		return result, ctx.Err()
	}
	return result, nil
}
