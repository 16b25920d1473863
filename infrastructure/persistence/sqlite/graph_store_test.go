package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"degrees/application/ports"
	"degrees/domain/core/entities"
	"degrees/domain/core/valueobjects"
	"degrees/infrastructure/persistence/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) ports.GraphStore {
	t.Helper()
	store, err := NewGraphStore(context.Background(), ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(context.Background()) })
	return store
}

func TestGraphStore_Contract(t *testing.T) {
	storetest.Run(t, newTestStore)
}

func TestGraphStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "graph.db")

	store, err := NewGraphStore(ctx, path, zap.NewNop())
	require.NoError(t, err)
	storetest.Seed(t, store)
	require.NoError(t, store.Close(ctx))

	reopened, err := NewGraphStore(ctx, path, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close(ctx)

	neighbors, err := reopened.Neighbors(ctx, valueobjects.MustNodeID("ada"), entities.FullScope())
	require.NoError(t, err)
	assert.Len(t, neighbors, 3)
	assert.NoError(t, reopened.Ping(ctx))
	assert.Equal(t, "sqlite", reopened.Backend())
}

func TestGraphStore_EmptyScopeSeesNothing(t *testing.T) {
	store := newTestStore(t)
	storetest.Seed(t, store)
	ctx := context.Background()

	node, err := store.GetNode(ctx, valueobjects.MustNodeID("ada"), entities.Scope{})
	require.NoError(t, err)
	assert.Nil(t, node)

	count, err := store.CountNodes(ctx, ports.NodeFilter{Kind: entities.NodeKindPerson, Visibility: entities.VisibilityPublic})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "NULL", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}
