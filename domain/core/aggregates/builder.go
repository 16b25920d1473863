package aggregates

import (
	"fmt"

	"degrees/domain/core/entities"
	"degrees/domain/core/valueobjects"
)

// GraphBuilder assembles small graphs for tests, fixtures and seeds.
// The first error sticks and is reported by Build.
type GraphBuilder struct {
	graph *Graph
	err   error
}

// NewGraphBuilder starts an empty graph.
func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{graph: NewGraph()}
}

// Node adds a public node of the given kind.
func (b *GraphBuilder) Node(id string, kind entities.NodeKind, name string) *GraphBuilder {
	return b.NodeWithVisibility(id, kind, entities.VisibilityPublic, name)
}

// Person adds a public person whose name defaults to the id.
func (b *GraphBuilder) Person(id string) *GraphBuilder {
	return b.Node(id, entities.NodeKindPerson, id)
}

// NodeWithVisibility adds a node with an explicit access tier.
func (b *GraphBuilder) NodeWithVisibility(id string, kind entities.NodeKind, visibility entities.Visibility, name string) *GraphBuilder {
	if b.err != nil {
		return b
	}
	nodeID, err := valueobjects.NewNodeIDFromString(id)
	if err != nil {
		b.err = err
		return b
	}
	node, err := entities.NewNode(nodeID, kind, visibility, name)
	if err != nil {
		b.err = err
		return b
	}
	b.err = b.graph.AddNode(node)
	return b
}

// Edge links two previously added nodes; the edge id is "source-target".
func (b *GraphBuilder) Edge(source, target string, kind entities.EdgeKind) *GraphBuilder {
	return b.EdgeWithID(fmt.Sprintf("%s-%s", source, target), source, target, kind)
}

// EdgeWithID links two previously added nodes under an explicit edge id.
func (b *GraphBuilder) EdgeWithID(id, source, target string, kind entities.EdgeKind) *GraphBuilder {
	if b.err != nil {
		return b
	}
	edgeID, err := valueobjects.NewEdgeIDFromString(id)
	if err != nil {
		b.err = err
		return b
	}
	sourceID, err := valueobjects.NewNodeIDFromString(source)
	if err != nil {
		b.err = err
		return b
	}
	targetID, err := valueobjects.NewNodeIDFromString(target)
	if err != nil {
		b.err = err
		return b
	}
	edge, err := entities.NewEdge(edgeID, sourceID, targetID, kind, nil)
	if err != nil {
		b.err = err
		return b
	}
	if err := b.graph.AddEdge(edge); err != nil {
		b.err = fmt.Errorf("edge %s: %w", id, err)
	}
	return b
}

// Build returns the graph or the first error met while building it.
func (b *GraphBuilder) Build() (*Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.graph, nil
}

// MustBuild is Build for fixtures that cannot fail.
func (b *GraphBuilder) MustBuild() *Graph {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}
