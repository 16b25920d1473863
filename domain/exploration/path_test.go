package exploration

import (
	"testing"

	"degrees/domain/core/entities"
	"degrees/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathState_ExtendCopies(t *testing.T) {
	g := scenarioGraph()
	base := pathOf(t, g, "A", "B")

	toC := g.Neighbors(id("B"), nil)[1]
	left := base.Extend(toC.Edge, toC.Node)
	right := base.Extend(toC.Edge, toC.Node)

	assert.Equal(t, 1, base.Degree())
	assert.Equal(t, 2, left.Degree())
	assert.Equal(t, 3, left.Len())
	assert.NotSame(t, &left.Nodes()[0], &right.Nodes()[0])
	require.NoError(t, left.Validate())
}

func TestPathState_Validate(t *testing.T) {
	g := scenarioGraph()
	a, _ := g.GetNode(id("A"))
	c, _ := g.GetNode(id("C"))
	ab, _ := g.GetEdge(valueobjects.MustEdgeID("A-B"))

	assert.Error(t, NewPathState(a).Extend(ab, c).Validate(), "edge must join consecutive nodes")

	loop := pathOf(t, g, "A", "B")
	back := loop.Extend(ab, a)
	assert.Error(t, back.Validate(), "nodes must be distinct")

	assert.NoError(t, pathOf(t, g, "A", "B", "C", "D").Validate())
}

func TestJourney_Identifiers(t *testing.T) {
	path := pathOf(t, scenarioGraph(), "D", "C", "B")
	journey := newJourney(path, Score(path), SearchStats{Iterations: 3})

	assert.Equal(t, "D", journey.Source.String())
	assert.Equal(t, "B", journey.Target.String())
	assert.Equal(t, []string{"D", "C", "B"}, idStrings(journey.NodeIDs()))
	assert.Equal(t, []string{"C-D", "B-C"}, idStrings(journey.EdgeIDs()))
	assert.Equal(t, 3, journey.NodeCount())
	assert.Equal(t, entities.NodeKindPerson, journey.Nodes[1].Kind())
}
