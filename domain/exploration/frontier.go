package exploration

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"degrees/domain/core/valueobjects"
)

// ErrMalformedNeighbor is returned when the accessor hands back an incident
// edge that does not join the current node to the reported neighbor.
var ErrMalformedNeighbor = errors.New("malformed neighbor")

// VisitedSet records the nodes a search has already settled.
type VisitedSet map[valueobjects.NodeID]struct{}

func NewVisitedSet() VisitedSet { return make(VisitedSet) }

func (v VisitedSet) Has(id valueobjects.NodeID) bool {
	_, ok := v[id]
	return ok
}

func (v VisitedSet) Add(id valueobjects.NodeID) { v[id] = struct{}{} }

func (v VisitedSet) Len() int { return len(v) }

// Expand returns one extension of state per incident edge whose far node is not
// in visited. With a non-nil rng the result is a uniform random permutation;
// otherwise it follows the accessor's order. Expand never marks nodes visited.
func Expand(ctx context.Context, accessor GraphAccessor, state PathState, visited VisitedSet, rng *rand.Rand) ([]PathState, error) {
	current := state.Last().ID()

	neighbors, err := accessor.Neighbors(ctx, current)
	if err != nil {
		return nil, err
	}

	next := make([]PathState, 0, len(neighbors))
	for _, n := range neighbors {
		if n.Edge == nil || n.Node == nil {
			return nil, fmt.Errorf("%w: missing edge or node next to %s", ErrMalformedNeighbor, current)
		}
		if !n.Edge.Connects(current, n.Node.ID()) {
			return nil, fmt.Errorf("%w: edge %s does not join %s and %s", ErrMalformedNeighbor, n.Edge.ID(), current, n.Node.ID())
		}
		if visited.Has(n.Node.ID()) {
			continue
		}
		next = append(next, state.Extend(n.Edge, n.Node))
	}

	if rng != nil {
		rng.Shuffle(len(next), func(i, j int) { next[i], next[j] = next[j], next[i] })
	}
	return next, nil
}
