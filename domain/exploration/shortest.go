package exploration

import (
	"context"
	"fmt"
	"math/rand/v2"

	"degrees/domain/core/valueobjects"
	pkgerrors "degrees/pkg/errors"

	"go.uber.org/zap"
)

// PathMode selects how the path finder orders its queue.
type PathMode string

const (
	// PathModeStrict is plain breadth-first search. The first path found is a
	// shortest one; randomizing only permutes siblings within a level.
	PathModeStrict PathMode = "strict"

	// PathModeExploratory periodically shuffles the whole queue when randomizing.
	// It returns a path within the degree cap, not necessarily a shortest one.
	PathModeExploratory PathMode = "exploratory"
)

// ParsePathMode parses a mode name; the empty string selects strict.
func ParsePathMode(s string) (PathMode, error) {
	switch PathMode(s) {
	case "", PathModeStrict:
		return PathModeStrict, nil
	case PathModeExploratory:
		return PathModeExploratory, nil
	}
	return "", pkgerrors.NewValidationError(fmt.Sprintf("unknown path mode %q", s))
}

// PathOptions bounds and shapes a single path search.
type PathOptions struct {
	MaxDegree int
	Randomize bool
	Mode      PathMode
}

// Validate checks the degree cap and mode.
func (o PathOptions) Validate() error {
	if o.MaxDegree < 1 {
		return pkgerrors.NewValidationError(fmt.Sprintf("max degree must be at least 1, got %d", o.MaxDegree))
	}
	if _, err := ParsePathMode(string(o.Mode)); err != nil {
		return err
	}
	return nil
}

func (e *Engine) findPath(ctx context.Context, source, target valueobjects.NodeID, opts PathOptions, rng *rand.Rand) (*Journey, error) {
	start, err := e.accessor.Node(ctx, source)
	if err != nil {
		if stopped(ctx) {
			return nil, nil
		}
		return nil, err
	}
	if start == nil {
		return nil, nil
	}

	shuffleQueue := opts.Mode == PathModeExploratory && rng != nil

	queue := []PathState{NewPathState(start)}
	visited := NewVisitedSet()
	iterations := 0

	for len(queue) > 0 &&
		visited.Len() < e.limits.PathMaxVisited &&
		iterations < e.limits.PathMaxIterations {
		if stopped(ctx) {
			break
		}

		if shuffleQueue && iterations%e.limits.ShuffleInterval == 0 && len(queue) > 1 {
			rng.Shuffle(len(queue), func(i, j int) { queue[i], queue[j] = queue[j], queue[i] })
		}

		state := queue[0]
		queue = queue[1:]
		iterations++

		current := state.Last()
		if visited.Has(current.ID()) || state.Degree() >= opts.MaxDegree {
			continue
		}
		visited.Add(current.ID())

		if current.ID().Equals(target) {
			found := newJourney(state, Score(state), SearchStats{Iterations: iterations, Visited: visited.Len()})
			e.logger.Debug("Path found",
				zap.String("source", source.String()),
				zap.String("target", target.String()),
				zap.Int("degree", found.Degree),
				zap.Int("iterations", iterations),
				zap.String("mode", string(opts.Mode)),
			)
			return &found, nil
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

	e.logger.Debug("No path within bounds",
		zap.String("source", source.String()),
		zap.String("target", target.String()),
		zap.Int("max_degree", opts.MaxDegree),
		zap.Int("iterations", iterations),
		zap.Int("visited", visited.Len()),
	)
	return nil, nil
}
