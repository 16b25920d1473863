package services

import (
	"context"
	"math/rand/v2"

	"degrees/application/ports"
	"degrees/domain/core/entities"
	"degrees/domain/core/valueobjects"
	"degrees/domain/exploration"
)

// ScopedAccessor presents a graph store to the journey engine as seen by one viewer.
type ScopedAccessor struct {
	store ports.GraphReader
	scope entities.Scope
}

var _ exploration.GraphAccessor = (*ScopedAccessor)(nil)

// NewScopedAccessor limits store reads to scope. An empty scope sees public nodes only.
func NewScopedAccessor(store ports.GraphReader, scope entities.Scope) *ScopedAccessor {
	if len(scope) == 0 {
		scope = entities.PublicScope()
	}
	return &ScopedAccessor{store: store, scope: scope}
}

// Scope returns the tiers this accessor may see.
func (a *ScopedAccessor) Scope() entities.Scope {
	return a.scope
}

func (a *ScopedAccessor) Node(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	return a.store.GetNode(ctx, id, a.scope)
}

// RandomNode counts the candidates and fetches the one at a position drawn from rng,
// so the draw is uniform and reproducible for a seeded rng.
func (a *ScopedAccessor) RandomNode(ctx context.Context, kind entities.NodeKind, visibility entities.Visibility, rng *rand.Rand) (*entities.Node, error) {
	if !a.scope.Allows(visibility) {
		return nil, nil
	}
	filter := ports.NodeFilter{Kind: kind, Visibility: visibility, Scope: a.scope}

	count, err := a.store.CountNodes(ctx, filter)
	if err != nil || count == 0 {
		return nil, err
	}
	return a.store.NodeAt(ctx, filter, rng.IntN(count))
}

func (a *ScopedAccessor) Neighbors(ctx context.Context, id valueobjects.NodeID) ([]entities.Neighbor, error) {
	return a.store.Neighbors(ctx, id, a.scope)
}
