package aggregates

import (
	"testing"

	"degrees/domain/core/entities"
	"degrees/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chain() *Graph {
	return NewGraphBuilder().
		Person("A").Person("B").Person("C").Person("D").
		Edge("A", "B", entities.EdgeKindResidence).
		Edge("B", "C", entities.EdgeKindEmployment).
		Edge("C", "D", entities.EdgeKindFamily).
		MustBuild()
}

func TestGraph_NeighborsAreUndirected(t *testing.T) {
	g := chain()

	neighbors := g.Neighbors(valueobjects.MustNodeID("B"), nil)
	require.Len(t, neighbors, 2)
	assert.Equal(t, "A", neighbors[0].Node.ID().String())
	assert.Equal(t, "C", neighbors[1].Node.ID().String())
	assert.Equal(t, entities.EdgeKindResidence, neighbors[0].Edge.Kind())
}

func TestGraph_NeighborsFilter(t *testing.T) {
	g := NewGraphBuilder().
		Person("A").
		NodeWithVisibility("B", entities.NodeKindPerson, entities.VisibilityPrivate, "B").
		Edge("A", "B", entities.EdgeKindFamily).
		MustBuild()

	publicOnly := func(n *entities.Node) bool { return n.IsPublic() }
	assert.Empty(t, g.Neighbors(valueobjects.MustNodeID("A"), publicOnly))
	assert.Len(t, g.Neighbors(valueobjects.MustNodeID("A"), nil), 1)
}

func TestGraph_AddEdge(t *testing.T) {
	tests := []struct {
		name    string
		build   func() *GraphBuilder
		wantErr error
	}{
		{
			name: "missing endpoint",
			build: func() *GraphBuilder {
				return NewGraphBuilder().Person("A").Edge("A", "Z", entities.EdgeKindFamily)
			},
			wantErr: ErrMissingNode,
		},
		{
			name: "duplicate pair and kind",
			build: func() *GraphBuilder {
				return NewGraphBuilder().Person("A").Person("B").
					EdgeWithID("e1", "A", "B", entities.EdgeKindFamily).
					EdgeWithID("e2", "B", "A", entities.EdgeKindFamily)
			},
			wantErr: ErrDuplicateEdge,
		},
		{
			name: "same pair different kind",
			build: func() *GraphBuilder {
				return NewGraphBuilder().Person("A").Person("B").
					EdgeWithID("e1", "A", "B", entities.EdgeKindFamily).
					EdgeWithID("e2", "A", "B", entities.EdgeKindEmployment)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Build()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestGraph_ReplacingEdgeKeepsIndexConsistent(t *testing.T) {
	g := chain()
	edge, err := entities.NewEdge(valueobjects.MustEdgeID("A-B"), valueobjects.MustNodeID("A"), valueobjects.MustNodeID("C"), entities.EdgeKindCreated, nil)
	require.NoError(t, err)

	require.NoError(t, g.AddEdge(edge))
	require.NoError(t, g.Validate())
	assert.Equal(t, 3, g.EdgeCount())
	assert.Empty(t, g.Neighbors(valueobjects.MustNodeID("B"), func(n *entities.Node) bool { return n.ID().String() == "A" }))
}

func TestGraph_FindPath(t *testing.T) {
	g := chain()

	path, err := g.FindPath(valueobjects.MustNodeID("A"), valueobjects.MustNodeID("D"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, ids(path))
	assert.Equal(t, 3, g.Distance(valueobjects.MustNodeID("D"), valueobjects.MustNodeID("A")))

	require.NoError(t, g.AddNode(mustPerson(t, "E")))
	assert.Equal(t, -1, g.Distance(valueobjects.MustNodeID("A"), valueobjects.MustNodeID("E")))
}

func TestGraph_NodesMatchingIsOrdered(t *testing.T) {
	g := NewGraphBuilder().
		Person("c").Person("a").
		Node("b", entities.NodeKindPlace, "Bath").
		MustBuild()

	people := g.NodesMatching(func(n *entities.Node) bool { return n.IsPerson() })
	require.Len(t, people, 2)
	assert.Equal(t, "a", people[0].ID().String())
	assert.Equal(t, "c", people[1].ID().String())
}

func mustPerson(t *testing.T, id string) *entities.Node {
	t.Helper()
	node, err := entities.NewNode(valueobjects.MustNodeID(id), entities.NodeKindPerson, entities.VisibilityPublic, id)
	require.NoError(t, err)
	return node
}

func ids(path []valueobjects.NodeID) []string {
	out := make([]string, len(path))
	for i, id := range path {
		out[i] = id.String()
	}
	return out
}
