package exploration

import (
	"context"
	"math/rand/v2"

	"degrees/domain/core/entities"

	"go.uber.org/zap"
)

// explore runs one bounded best-of search outward from start and returns the
// highest scoring person reached at minDegree or deeper, or nil. States that
// have reached maxDegree are dropped unseen, so every result stays below it.
//
// The queue is consumed first in, first out while every expansion is shuffled,
// so the walk is roughly breadth-first. It aims for a good journey rather than
// the shortest one.
func (e *Engine) explore(ctx context.Context, start *entities.Node, minDegree, maxDegree int, rng *rand.Rand) (*Journey, error) {
	queue := []PathState{NewPathState(start)}
	visited := NewVisitedSet()
	iterations := 0

	var best *Journey
	stats := func() SearchStats { return SearchStats{Iterations: iterations, Visited: visited.Len()} }

	for len(queue) > 0 &&
		visited.Len() < e.limits.ExplorerMaxVisited &&
		iterations < e.limits.ExplorerMaxIterations {
		if stopped(ctx) {
			break
		}

		state := queue[0]
		queue = queue[1:]
		iterations++

		current := state.Last()
		if visited.Has(current.ID()) || state.Degree() >= maxDegree {
			continue
		}
		visited.Add(current.ID())

		if current.IsPerson() && !current.ID().Equals(start.ID()) && state.Len() > 1 {
			score := Score(state)
			if state.Degree() >= minDegree {
				if best == nil || score > best.Score {
					candidate := newJourney(state, score, SearchStats{})
					best = &candidate
				}
				if score > e.limits.EarlyExitScore && state.Degree() >= e.limits.EarlyExitDegree {
					found := newJourney(state, score, stats())
					e.logger.Debug("Exploration stopped early",
						zap.String("start", start.ID().String()),
						zap.Int("score", score),
						zap.Int("degree", found.Degree),
						zap.Int("iterations", iterations),
					)
					return &found, nil
				}
			}
		}

		next, err := Expand(ctx, e.accessor, state, visited, rng)
		if err != nil {
			if stopped(ctx) {
				break
			}
			return nil, err
		}
		queue = append(queue, next...)
	}

	if best != nil {
		best.Stats = stats()
	}
	e.logger.Debug("Exploration finished",
		zap.String("start", start.ID().String()),
		zap.Bool("found", best != nil),
		zap.Int("iterations", iterations),
		zap.Int("visited", visited.Len()),
	)
	return best, nil
}
