package handlers

import (
	"context"
	"sync"
	"testing"
	"time"

	"degrees/application/queries"
	"degrees/application/queries/bus"
	"degrees/domain/core/aggregates"
	"degrees/domain/core/entities"
	"degrees/domain/exploration"
	"degrees/infrastructure/persistence/memory"
	pkgerrors "degrees/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type searchRecord struct {
	operation string
	found     int
	err       error
}

type recordingObserver struct {
	mu      sync.Mutex
	records []searchRecord
}

func (r *recordingObserver) ObserveSearch(operation string, _ time.Duration, found, _ int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, searchRecord{operation, found, err})
}

// lovelace: ada - charles - london - mary, with a members-only shortcut ada - byron - mary.
func lovelaceGraph() *aggregates.Graph {
	return aggregates.NewGraphBuilder().
		Person("ada").
		Person("charles").
		Person("mary").
		Node("london", entities.NodeKindPlace, "London").
		NodeWithVisibility("byron", entities.NodeKindPerson, entities.VisibilityMembers, "Lord Byron").
		Edge("ada", "charles", entities.EdgeKindRelationship).
		Edge("charles", "london", entities.EdgeKindResidence).
		Edge("london", "mary", entities.EdgeKindResidence).
		Edge("ada", "byron", entities.EdgeKindFamily).
		Edge("byron", "mary", entities.EdgeKindRelationship).
		MustBuild()
}

func newHandler(obs *recordingObserver) *JourneyQueryHandler {
	return NewJourneyQueryHandler(
		memory.NewGraphStoreFrom(lovelaceGraph()),
		SearchSettings{
			Concurrency: 1,
			Timeout:     5 * time.Second,
			RandSource:  exploration.SeededRandSource(7),
		},
		obs,
		nil,
		zap.NewNop(),
	)
}

func TestJourneyQueryHandler_HandlePath(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		scope     entities.Scope
		maxDegree int
		wantNodes []string
	}{
		{"public route", entities.PublicScope(), 6, []string{"ada", "charles", "london", "mary"}},
		{"members shortcut", entities.MembersScope(), 6, []string{"ada", "byron", "mary"}},
		{"cap too tight", entities.PublicScope(), 2, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &recordingObserver{}
			result, err := newHandler(obs).HandlePath(ctx, queries.FindPathQuery{
				Source:    "ada",
				Target:    "mary",
				MaxDegree: tt.maxDegree,
				Scope:     tt.scope,
			})
			require.NoError(t, err)

			if tt.wantNodes == nil {
				assert.Nil(t, result.Journey)
				assert.Equal(t, 0, obs.records[0].found)
				return
			}
			require.NotNil(t, result.Journey)
			assert.Equal(t, tt.wantNodes, result.Journey.Nodes)
			assert.Equal(t, len(tt.wantNodes)-1, result.Journey.Degree)
			assert.Equal(t, "path", obs.records[0].operation)
		})
	}
}

func TestJourneyQueryHandler_StepsDescribeTheJourney(t *testing.T) {
	result, err := newHandler(&recordingObserver{}).HandlePath(context.Background(), queries.FindPathQuery{
		Source: "ada", Target: "london", MaxDegree: 3, Scope: entities.PublicScope(),
	})
	require.NoError(t, err)
	require.NotNil(t, result.Journey)

	steps := result.Journey.Steps
	require.Len(t, steps, 3)
	assert.Equal(t, queries.StepView{NodeID: "ada", NodeName: "ada", NodeKind: "person"}, steps[0])
	assert.Equal(t, "charles", steps[1].NodeID)
	assert.Equal(t, "relationship", steps[1].EdgeKind)
	assert.Equal(t, "ada-charles", steps[1].EdgeID)
	assert.Equal(t, "London", steps[2].NodeName)
	assert.Equal(t, "place", steps[2].NodeKind)
	assert.Equal(t, []string{"ada-charles", "charles-london"}, result.Journey.Edges)
	assert.Positive(t, result.Journey.Iterations)
}

func TestJourneyQueryHandler_HandleDiscover(t *testing.T) {
	obs := &recordingObserver{}
	result, err := newHandler(obs).HandleDiscover(context.Background(), queries.DiscoverJourneysQuery{
		MinDegree: 2, MaxDegree: 6, Limit: 3, Scope: entities.PublicScope(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Journeys)
	assert.LessOrEqual(t, len(result.Journeys), 3)

	for i, j := range result.Journeys {
		assert.GreaterOrEqual(t, j.Degree, 2)
		assert.GreaterOrEqual(t, j.Score, 20)
		assert.NotContains(t, j.Nodes, "byron", "members-only node leaked into a public journey")
		if i > 0 {
			assert.LessOrEqual(t, j.Score, result.Journeys[i-1].Score)
		}
	}
	assert.Equal(t, "discover", obs.records[0].operation)
	assert.Equal(t, len(result.Journeys), obs.records[0].found)
}

func TestJourneyQueryHandler_HandleRandom(t *testing.T) {
	result, err := newHandler(&recordingObserver{}).HandleRandom(context.Background(), queries.FindRandomJourneyQuery{
		MinDegree: 2, MaxDegree: 4, Scope: entities.PublicScope(),
	})
	require.NoError(t, err)
	require.NotNil(t, result.Journey)
	assert.Equal(t, result.Journey.Nodes[0], result.Journey.Source)
}

func TestJourneyQueryHandler_DeadlineLogsTimeout(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	obs := &recordingObserver{}
	h := NewJourneyQueryHandler(
		memory.NewGraphStoreFrom(lovelaceGraph()),
		SearchSettings{Concurrency: 1, Timeout: 5 * time.Second, RandSource: exploration.SeededRandSource(7)},
		obs,
		nil,
		zap.New(core),
	)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	result, err := h.HandleDiscover(ctx, queries.DiscoverJourneysQuery{
		MinDegree: 2, MaxDegree: 6, Limit: 3, Scope: entities.PublicScope(),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Journeys)
	require.Len(t, obs.records, 1)
	assert.NoError(t, obs.records[0].err)

	entries := logs.FilterMessage("Search stopped at deadline").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "discover", fields["operation"])
	assert.Contains(t, fields["error"], "TIMEOUT: discover timed out")
}

func TestJourneyQueryHandler_CancelIsNotATimeout(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	h := NewJourneyQueryHandler(memory.NewGraphStoreFrom(lovelaceGraph()), SearchSettings{Concurrency: 1}, nil, nil, zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.HandleDiscover(ctx, queries.DiscoverJourneysQuery{MinDegree: 2, MaxDegree: 6, Limit: 3})
	require.NoError(t, err)
	assert.Zero(t, logs.FilterMessage("Search stopped at deadline").Len())
	assert.Equal(t, 1, logs.FilterMessage("Search cancelled").Len())
}

func TestJourneyQueryHandler_EmptyGraph(t *testing.T) {
	h := NewJourneyQueryHandler(memory.NewGraphStore(), SearchSettings{}, nil, nil, nil)

	result, err := h.HandleDiscover(context.Background(), queries.DiscoverJourneysQuery{MinDegree: 2, MaxDegree: 6, Limit: 5})
	require.NoError(t, err)
	assert.NotNil(t, result.Journeys)
	assert.Empty(t, result.Journeys)
}

func TestJourneyQueryHandler_HandleGetNode(t *testing.T) {
	h := newHandler(&recordingObserver{})
	ctx := context.Background()

	_, err := h.HandleGetNode(ctx, queries.GetNodeQuery{NodeID: "byron"})
	assert.True(t, pkgerrors.IsNotFound(err))

	view, err := h.HandleGetNode(ctx, queries.GetNodeQuery{NodeID: "byron", Scope: entities.FullScope()})
	require.NoError(t, err)
	assert.Equal(t, "members", view.Visibility)

	_, err = h.HandleGetNode(ctx, queries.GetNodeQuery{NodeID: "has#hash"})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestJourneyQueryHandler_ThroughBus(t *testing.T) {
	b := bus.NewQueryBus(bus.LoggingMiddleware(zap.NewNop()))
	require.NoError(t, newHandler(&recordingObserver{}).Register(b))
	ctx := context.Background()

	result, err := bus.Ask[*queries.JourneyResult](ctx, b, queries.FindPathQuery{
		Source: "ada", Target: "mary", MaxDegree: 6,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Journey)

	_, err = bus.Ask[*queries.DiscoverJourneysResult](ctx, b, queries.DiscoverJourneysQuery{MinDegree: 5, MaxDegree: 2, Limit: 1})
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = bus.Ask[*queries.JourneyResult](ctx, b, queries.FindPathQuery{Source: "ada", Target: "mary", MaxDegree: 6, Mode: "sideways"})
	assert.True(t, pkgerrors.IsValidation(err))

	assert.Error(t, newHandler(nil).Register(b), "double registration")
}
