package memory

import (
	"context"
	"errors"
	"sync"

	"degrees/application/ports"
	"degrees/domain/core/aggregates"
	"degrees/domain/core/entities"
	"degrees/domain/core/valueobjects"
	pkgerrors "degrees/pkg/errors"
)

// GraphStore keeps the whole graph in process memory.
// It backs local development, the CLI and tests.
type GraphStore struct {
	mu    sync.RWMutex
	graph *aggregates.Graph
}

var _ ports.GraphStore = (*GraphStore)(nil)

// NewGraphStore creates an empty store.
func NewGraphStore() *GraphStore {
	return &GraphStore{graph: aggregates.NewGraph()}
}

// NewGraphStoreFrom wraps an already built graph, typically a test fixture.
func NewGraphStoreFrom(graph *aggregates.Graph) *GraphStore {
	return &GraphStore{graph: graph}
}

func (s *GraphStore) Backend() string { return "memory" }

func (s *GraphStore) GetNode(ctx context.Context, id valueobjects.NodeID, scope entities.Scope) (*entities.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, err := s.graph.GetNode(id)
	if err != nil || !scope.Sees(node) {
		return nil, nil
	}
	return node, nil
}

func (s *GraphStore) Neighbors(ctx context.Context, id valueobjects.NodeID, scope entities.Scope) ([]entities.Neighbor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.graph.Neighbors(id, scope.Sees), nil
}

func (s *GraphStore) CountNodes(ctx context.Context, filter ports.NodeFilter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.graph.NodesMatching(matcher(filter))), nil
}

func (s *GraphStore) NodeAt(ctx context.Context, filter ports.NodeFilter, offset int) (*entities.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := s.graph.NodesMatching(matcher(filter))
	if offset < 0 || offset >= len(nodes) {
		return nil, nil
	}
	return nodes[offset], nil
}

func (s *GraphStore) SaveNode(ctx context.Context, node *entities.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.graph.AddNode(node)
}

func (s *GraphStore) SaveEdge(ctx context.Context, edge *entities.Edge) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.graph.AddEdge(edge)
	switch {
	case errors.Is(err, aggregates.ErrMissingNode):
		return pkgerrors.NewNotFoundError("edge endpoint").WithCause(err)
	case errors.Is(err, aggregates.ErrDuplicateEdge):
		return pkgerrors.NewConflictError("an edge of this kind already links these nodes").WithCause(err)
	}
	return err
}

func (s *GraphStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *GraphStore) Close(context.Context) error { return nil }

// Stats reports the node and edge counts.
func (s *GraphStore) Stats() (nodes, edges int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.NodeCount(), s.graph.EdgeCount()
}

func matcher(filter ports.NodeFilter) func(*entities.Node) bool {
	return func(n *entities.Node) bool {
		return n.Kind() == filter.Kind &&
			n.Visibility() == filter.Visibility &&
			filter.Scope.Sees(n)
	}
}
