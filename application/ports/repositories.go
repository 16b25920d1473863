package ports

import (
	"context"

	"degrees/domain/core/entities"
	"degrees/domain/core/valueobjects"
)

// NodeFilter selects nodes by kind and tier, restricted to what the scope allows.
type NodeFilter struct {
	Kind       entities.NodeKind
	Visibility entities.Visibility
	Scope      entities.Scope
}

// GraphReader is the read side of the graph store.
// Every method applies the scope: hidden nodes are never returned.
type GraphReader interface {
	// GetNode returns the node or nil when it does not exist or is hidden.
	GetNode(ctx context.Context, id valueobjects.NodeID, scope entities.Scope) (*entities.Node, error)

	// Neighbors returns every edge where id is either endpoint, with the far node resolved.
	Neighbors(ctx context.Context, id valueobjects.NodeID, scope entities.Scope) ([]entities.Neighbor, error)

	// CountNodes counts the nodes matching filter.
	CountNodes(ctx context.Context, filter NodeFilter) (int, error)

	// NodeAt returns the offset-th node matching filter in id order, or nil past the end.
	NodeAt(ctx context.Context, filter NodeFilter, offset int) (*entities.Node, error)
}

// GraphWriter is the write side of the graph store.
type GraphWriter interface {
	// SaveNode creates or replaces a node.
	SaveNode(ctx context.Context, node *entities.Node) error

	// SaveEdge creates or replaces an edge. Both endpoints must already exist.
	SaveEdge(ctx context.Context, edge *entities.Edge) error
}

// GraphStore is a complete graph backend.
type GraphStore interface {
	GraphReader
	GraphWriter

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases connections held by the backend.
	Close(ctx context.Context) error

	// Backend names the implementation, for logs and metrics.
	Backend() string
}
