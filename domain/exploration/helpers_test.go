package exploration

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"testing"

	"degrees/domain/core/aggregates"
	"degrees/domain/core/entities"
	"degrees/domain/core/valueobjects"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errBoom = errors.New("store unreachable")

// graphAccessor serves a fixture graph, hiding private nodes.
type graphAccessor struct {
	graph         *aggregates.Graph
	neighborCalls atomic.Int64
	failNeighbors error
}

func newAccessor(g *aggregates.Graph) *graphAccessor {
	return &graphAccessor{graph: g}
}

func (a *graphAccessor) sees(n *entities.Node) bool {
	return n.Visibility() != entities.VisibilityPrivate
}

func (a *graphAccessor) Node(_ context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	node, err := a.graph.GetNode(id)
	if err != nil || !a.sees(node) {
		return nil, nil
	}
	return node, nil
}

func (a *graphAccessor) RandomNode(_ context.Context, kind entities.NodeKind, visibility entities.Visibility, rng *rand.Rand) (*entities.Node, error) {
	matches := a.graph.NodesMatching(func(n *entities.Node) bool {
		return n.Kind() == kind && n.Visibility() == visibility && a.sees(n)
	})
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[rng.IntN(len(matches))], nil
}

func (a *graphAccessor) Neighbors(ctx context.Context, id valueobjects.NodeID) ([]entities.Neighbor, error) {
	a.neighborCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.failNeighbors != nil {
		return nil, a.failNeighbors
	}
	return a.graph.Neighbors(id, a.sees), nil
}

func newTestEngine(g *aggregates.Graph, opts ...Option) *Engine {
	base := []Option{
		WithRandSource(SeededRandSource(7)),
		WithConcurrency(1),
		WithLogger(zap.NewNop()),
	}
	return NewEngine(newAccessor(g), append(base, opts...)...)
}

// scenarioGraph is A-B residence, B-C employment, C-D family.
func scenarioGraph() *aggregates.Graph {
	return aggregates.NewGraphBuilder().
		Person("A").Person("B").Person("C").Person("D").
		Edge("A", "B", entities.EdgeKindResidence).
		Edge("B", "C", entities.EdgeKindEmployment).
		Edge("C", "D", entities.EdgeKindFamily).
		MustBuild()
}

// randomGraph builds a connected-ish graph of mixed kinds from a fixed seed.
func randomGraph(t *testing.T, seed uint64, nodes, edges int) *aggregates.Graph {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed+1))
	kinds := entities.NodeKinds()
	edgeKinds := entities.EdgeKinds()

	b := aggregates.NewGraphBuilder()
	for i := 0; i < nodes; i++ {
		kind := entities.NodeKindPerson
		if i%3 != 0 {
			kind = kinds[rng.IntN(len(kinds))]
		}
		b.Node(fmt.Sprintf("n%02d", i), kind, fmt.Sprintf("Node %d", i))
	}
	for i := 0; i < edges; i++ {
		a, c := rng.IntN(nodes), rng.IntN(nodes)
		if a == c {
			continue
		}
		b.EdgeWithID(fmt.Sprintf("e%03d", i), fmt.Sprintf("n%02d", a), fmt.Sprintf("n%02d", c), edgeKinds[rng.IntN(len(edgeKinds))])
	}
	g, err := b.Build()
	if errors.Is(err, aggregates.ErrDuplicateEdge) {
		return randomGraph(t, seed+100, nodes, edges)
	}
	require.NoError(t, err)
	return g
}

func pathOf(t *testing.T, g *aggregates.Graph, ids ...string) PathState {
	t.Helper()
	first, err := g.GetNode(valueobjects.MustNodeID(ids[0]))
	require.NoError(t, err)
	path := NewPathState(first)
	for _, id := range ids[1:] {
		prev := path.Last().ID()
		var step *entities.Neighbor
		for _, n := range g.Neighbors(prev, nil) {
			if n.Node.ID().String() == id {
				n := n
				step = &n
				break
			}
		}
		require.NotNil(t, step, "no edge between %s and %s", prev, id)
		path = path.Extend(step.Edge, step.Node)
	}
	return path
}

func idStrings[T fmt.Stringer](ids []T) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func requireValidJourney(t *testing.T, j Journey) {
	t.Helper()
	require.NoError(t, j.Path().Validate())
	require.Equal(t, len(j.Edges), j.Degree)
	require.Equal(t, j.Nodes[0].ID(), j.Source)
	require.Equal(t, j.Nodes[len(j.Nodes)-1].ID(), j.Target)
	require.Equal(t, Score(j.Path()), j.Score)
}
