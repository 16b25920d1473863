package entities

import (
	"testing"
	"time"

	"degrees/domain/core/valueobjects"
	pkgerrors "degrees/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKinds(t *testing.T) {
	kind, err := ParseNodeKind(" Organization ")
	require.NoError(t, err)
	assert.Equal(t, NodeKindOrganisation, kind)

	edgeKind, err := ParseEdgeKind("member-of")
	require.NoError(t, err)
	assert.Equal(t, EdgeKindMemberOf, edgeKind)

	_, err = ParseEdgeKind("enemies")
	assert.True(t, pkgerrors.IsValidation(err))

	vis, err := ParseVisibility("")
	require.NoError(t, err)
	assert.Equal(t, VisibilityPublic, vis)
}

func TestEdgeKind_IsNotable(t *testing.T) {
	notable := map[EdgeKind]bool{
		EdgeKindCreated: true, EdgeKindFeatures: true, EdgeKindLocated: true,
		EdgeKindResidence: true, EdgeKindMemberOf: true, EdgeKindSubjectOf: true,
	}
	for _, kind := range EdgeKinds() {
		assert.True(t, kind.Valid())
		assert.Equal(t, notable[kind], kind.IsNotable(), string(kind))
	}
}

func TestNewNode(t *testing.T) {
	_, err := NewNode(valueobjects.MustNodeID("n1"), NodeKind("robot"), VisibilityPublic, "R2")
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewNode(valueobjects.MustNodeID("n1"), NodeKindPerson, VisibilityPublic, "  ")
	assert.True(t, pkgerrors.IsValidation(err))

	node, err := NewNode(valueobjects.MustNodeID("n1"), NodeKindPerson, VisibilityMembers, " Ada ")
	require.NoError(t, err)
	assert.Equal(t, "Ada", node.Name())
	assert.False(t, node.IsPublic())
	assert.True(t, node.IsPerson())
}

func TestNewEdge(t *testing.T) {
	a, b := valueobjects.MustNodeID("a"), valueobjects.MustNodeID("b")

	_, err := NewEdge(valueobjects.MustEdgeID("e"), a, a, EdgeKindFamily, nil)
	assert.True(t, pkgerrors.IsValidation(err), "self loops are rejected")

	start := time.Date(1840, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = NewEdge(valueobjects.MustEdgeID("e"), a, b, EdgeKindEmployment, &Period{Start: start, End: start.AddDate(-1, 0, 0)})
	assert.True(t, pkgerrors.IsValidation(err))

	edge, err := NewEdge(valueobjects.MustEdgeID("e"), a, b, EdgeKindEmployment, &Period{})
	require.NoError(t, err)
	assert.Nil(t, edge.Period(), "empty periods are dropped")

	other, ok := edge.Other(b)
	assert.True(t, ok)
	assert.Equal(t, a, other)
	assert.True(t, edge.Connects(b, a))
	_, ok = edge.Other(valueobjects.MustNodeID("c"))
	assert.False(t, ok)
}
