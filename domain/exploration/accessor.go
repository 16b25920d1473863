package exploration

import (
	"context"
	"math/rand/v2"

	"degrees/domain/core/entities"
	"degrees/domain/core/valueobjects"
)

// GraphAccessor is the read view of the graph a search runs against.
// Implementations apply access filtering: a node the caller may not see is
// never returned, neither directly nor as a neighbor.
type GraphAccessor interface {
	// Node returns the node with the given id, or nil when it is unknown or hidden.
	Node(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error)

	// RandomNode draws a node uniformly among those matching kind and
	// visibility, using rng for the draw. It returns nil when none match.
	RandomNode(ctx context.Context, kind entities.NodeKind, visibility entities.Visibility, rng *rand.Rand) (*entities.Node, error)

	// Neighbors returns every edge touching id, either endpoint, paired with the far node.
	Neighbors(ctx context.Context, id valueobjects.NodeID) ([]entities.Neighbor, error)
}
