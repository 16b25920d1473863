// Package storetest holds the behaviour every ports.GraphStore must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"degrees/application/ports"
	"degrees/domain/core/entities"
	"degrees/domain/core/valueobjects"
	pkgerrors "degrees/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store; cleanup is registered on t.
type Factory func(t *testing.T) ports.GraphStore

// Seed writes the shared fixture: ada is public and knows a members-only
// babbage, created a private diary and lived in public london.
func Seed(t *testing.T, store ports.GraphStore) {
	t.Helper()
	ctx := context.Background()

	for _, n := range []struct {
		id   string
		kind entities.NodeKind
		vis  entities.Visibility
		name string
	}{
		{"ada", entities.NodeKindPerson, entities.VisibilityPublic, "Ada Lovelace"},
		{"babbage", entities.NodeKindPerson, entities.VisibilityMembers, "Charles Babbage"},
		{"diary", entities.NodeKindWork, entities.VisibilityPrivate, "Diary"},
		{"london", entities.NodeKindPlace, entities.VisibilityPublic, "London"},
		{"somerville", entities.NodeKindPerson, entities.VisibilityPublic, "Mary Somerville"},
	} {
		node, err := entities.NewNode(valueobjects.MustNodeID(n.id), n.kind, n.vis, n.name)
		require.NoError(t, err)
		require.NoError(t, store.SaveNode(ctx, node))
	}

	since := &entities.Period{Start: time.Date(1835, 7, 8, 0, 0, 0, 0, time.UTC)}
	for _, e := range []struct {
		source, target string
		kind           entities.EdgeKind
		period         *entities.Period
	}{
		{"ada", "babbage", entities.EdgeKindRelationship, nil},
		{"ada", "diary", entities.EdgeKindCreated, nil},
		{"ada", "london", entities.EdgeKindResidence, since},
	} {
		require.NoError(t, store.SaveEdge(ctx, edge(t, e.source, e.target, e.kind, e.period)))
	}
}

func edge(t *testing.T, source, target string, kind entities.EdgeKind, period *entities.Period) *entities.Edge {
	t.Helper()
	e, err := entities.NewEdge(
		valueobjects.MustEdgeID(source+"-"+target),
		valueobjects.MustNodeID(source),
		valueobjects.MustNodeID(target),
		kind,
		period,
	)
	require.NoError(t, err)
	return e
}

// Run exercises a store built by factory against the shared contract.
func Run(t *testing.T, factory Factory) {
	ada := valueobjects.MustNodeID("ada")

	t.Run("scope filters neighbors", func(t *testing.T) {
		store := factory(t)
		Seed(t, store)
		ctx := context.Background()

		public, err := store.Neighbors(ctx, ada, entities.PublicScope())
		require.NoError(t, err)
		require.Len(t, public, 1)
		assert.Equal(t, "london", public[0].Node.ID().String())
		assert.True(t, public[0].Edge.Connects(ada, public[0].Node.ID()))

		members, err := store.Neighbors(ctx, ada, entities.MembersScope())
		require.NoError(t, err)
		assert.Len(t, members, 2)

		all, err := store.Neighbors(ctx, ada, entities.FullScope())
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("neighbors are undirected", func(t *testing.T) {
		store := factory(t)
		Seed(t, store)

		back, err := store.Neighbors(context.Background(), valueobjects.MustNodeID("london"), entities.PublicScope())
		require.NoError(t, err)
		require.Len(t, back, 1)
		assert.Equal(t, "ada", back[0].Node.ID().String())
		assert.Equal(t, entities.EdgeKindResidence, back[0].Edge.Kind())
		require.NotNil(t, back[0].Edge.Period())
		assert.Equal(t, 1835, back[0].Edge.Period().Start.Year())
	})

	t.Run("get node honours scope", func(t *testing.T) {
		store := factory(t)
		Seed(t, store)
		ctx := context.Background()

		node, err := store.GetNode(ctx, ada, entities.PublicScope())
		require.NoError(t, err)
		require.NotNil(t, node)
		assert.Equal(t, "Ada Lovelace", node.Name())
		assert.Equal(t, entities.NodeKindPerson, node.Kind())

		hidden, err := store.GetNode(ctx, valueobjects.MustNodeID("diary"), entities.MembersScope())
		require.NoError(t, err)
		assert.Nil(t, hidden)

		missing, err := store.GetNode(ctx, valueobjects.MustNodeID("nobody"), entities.FullScope())
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("count and node at", func(t *testing.T) {
		store := factory(t)
		Seed(t, store)
		ctx := context.Background()
		filter := ports.NodeFilter{Kind: entities.NodeKindPerson, Visibility: entities.VisibilityPublic, Scope: entities.PublicScope()}

		count, err := store.CountNodes(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		first, err := store.NodeAt(ctx, filter, 0)
		require.NoError(t, err)
		assert.Equal(t, "ada", first.ID().String())

		second, err := store.NodeAt(ctx, filter, 1)
		require.NoError(t, err)
		assert.Equal(t, "somerville", second.ID().String())

		past, err := store.NodeAt(ctx, filter, 2)
		require.NoError(t, err)
		assert.Nil(t, past)

		outOfScope := ports.NodeFilter{Kind: entities.NodeKindPerson, Visibility: entities.VisibilityMembers, Scope: entities.PublicScope()}
		count, err = store.CountNodes(ctx, outOfScope)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("save node replaces", func(t *testing.T) {
		store := factory(t)
		Seed(t, store)
		ctx := context.Background()

		renamed, err := entities.NewNode(ada, entities.NodeKindPerson, entities.VisibilityPublic, "Augusta Ada King")
		require.NoError(t, err)
		require.NoError(t, store.SaveNode(ctx, renamed))

		node, err := store.GetNode(ctx, ada, entities.PublicScope())
		require.NoError(t, err)
		assert.Equal(t, "Augusta Ada King", node.Name())
	})

	t.Run("save edge errors", func(t *testing.T) {
		store := factory(t)
		Seed(t, store)
		ctx := context.Background()

		err := store.SaveEdge(ctx, edge(t, "ada", "ghost", entities.EdgeKindFamily, nil))
		assert.True(t, pkgerrors.IsNotFound(err), "got %v", err)

		reversed, rerr := entities.NewEdge(
			valueobjects.MustEdgeID("london-ada"),
			valueobjects.MustNodeID("london"),
			ada,
			entities.EdgeKindResidence,
			nil,
		)
		require.NoError(t, rerr)
		err = store.SaveEdge(ctx, reversed)
		assert.True(t, pkgerrors.IsConflict(err), "got %v", err)
	})

	t.Run("save edge replaces by id", func(t *testing.T) {
		store := factory(t)
		Seed(t, store)
		ctx := context.Background()

		moved := edge(t, "ada", "london", entities.EdgeKindLocated, nil)
		require.NoError(t, store.SaveEdge(ctx, moved))

		neighbors, err := store.Neighbors(ctx, ada, entities.PublicScope())
		require.NoError(t, err)
		require.Len(t, neighbors, 1)
		assert.Equal(t, entities.EdgeKindLocated, neighbors[0].Edge.Kind())
	})
}
