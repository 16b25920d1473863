package neo4j

import (
	"context"
	"os"
	"testing"

	"degrees/application/ports"
	"degrees/domain/core/entities"
	"degrees/domain/core/valueobjects"
	"degrees/infrastructure/persistence/storetest"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func record(values map[string]any) *neo4j.Record {
	r := &neo4j.Record{}
	for k, v := range values {
		r.Keys = append(r.Keys, k)
		r.Values = append(r.Values, v)
	}
	return r
}

func TestNeighborFromRecord(t *testing.T) {
	r := record(map[string]any{
		"edge_id":    "ada-london",
		"source_id":  "ada",
		"target_id":  "london",
		"edge_kind":  "residence",
		"starts_on":  "1835-07-08T00:00:00Z",
		"ends_on":    nil,
		"id":         "london",
		"kind":       "place",
		"visibility": "public",
		"name":       "London",
		"created_at": "2024-01-02T03:04:05Z",
	})

	neighbor, err := neighborFromRecord(r)
	require.NoError(t, err)
	assert.Equal(t, "london", neighbor.Node.ID().String())
	assert.Equal(t, entities.NodeKindPlace, neighbor.Node.Kind())
	assert.Equal(t, entities.EdgeKindResidence, neighbor.Edge.Kind())
	require.NotNil(t, neighbor.Edge.Period())
	assert.Equal(t, 1835, neighbor.Edge.Period().Start.Year())
	assert.True(t, neighbor.Edge.Period().End.IsZero())
	assert.Equal(t, 2024, neighbor.Node.CreatedAt().Year())
}

func TestNodeFromRecord_RejectsNulls(t *testing.T) {
	_, err := nodeFromRecord(record(map[string]any{
		"id":         "ada",
		"kind":       "person",
		"visibility": nil,
		"name":       "Ada",
	}))
	assert.Error(t, err)
}

func TestEdgeParams_OmitsEmptyPeriod(t *testing.T) {
	params := edgeParams(mustEdge(t))
	assert.Nil(t, params["starts_on"])
	assert.Nil(t, params["ends_on"])
	assert.Equal(t, "residence", params["kind"])
}

// NEO4J_URI points at a disposable database; the contract wipes it between runs.
func TestGraphStore_Contract(t *testing.T) {
	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		t.Skip("NEO4J_URI not set")
	}

	storetest.Run(t, func(t *testing.T) ports.GraphStore {
		ctx := context.Background()
		store, err := NewGraphStore(ctx, Config{
			URI:      uri,
			Username: os.Getenv("NEO4J_USERNAME"),
			Password: os.Getenv("NEO4J_PASSWORD"),
		}, zap.NewNop())
		require.NoError(t, err)

		_, err = store.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, `MATCH (n:Entity) DETACH DELETE n`, nil)
			return nil, err
		})
		require.NoError(t, err)

		t.Cleanup(func() { store.Close(ctx) })
		return store
	})
}

func mustEdge(t *testing.T) *entities.Edge {
	t.Helper()
	e, err := entities.NewEdge(
		valueobjects.MustEdgeID("ada-london"),
		valueobjects.MustNodeID("ada"),
		valueobjects.MustNodeID("london"),
		entities.EdgeKindResidence,
		nil,
	)
	require.NoError(t, err)
	return e
}
