package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	commandbus "degrees/application/commands/bus"
	commandhandlers "degrees/application/commands/handlers"
	"degrees/application/queries"
	querybus "degrees/application/queries/bus"
	queryhandlers "degrees/application/queries/handlers"
	"degrees/domain/config"
	"degrees/domain/core/aggregates"
	"degrees/domain/core/entities"
	"degrees/domain/core/validators"
	"degrees/domain/exploration"
	"degrees/infrastructure/persistence/memory"
	"degrees/pkg/auth"
	"degrees/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "router-test-secret"

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type fixture struct {
	handler http.Handler
	store   *memory.GraphStore
	opts    Options
}

// ada - charles - london - mary, plus a members-only shortcut through byron.
func newFixture(t *testing.T, mutate func(*Options)) *fixture {
	t.Helper()

	store := memory.NewGraphStoreFrom(aggregates.NewGraphBuilder().
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
		MustBuild())

	qb := querybus.NewQueryBus()
	require.NoError(t, queryhandlers.NewJourneyQueryHandler(store, queryhandlers.SearchSettings{
		Concurrency: 1,
		Timeout:     5 * time.Second,
		RandSource:  exploration.SeededRandSource(3),
	}, nil, nil, zap.NewNop()).Register(qb))

	cb := commandbus.NewCommandBus()
	require.NoError(t, commandhandlers.NewGraphCommandHandler(store, validators.NewGraphValidator(config.DefaultDomainConfig()), zap.NewNop()).Register(cb))

	validator, err := auth.NewJWTValidator(auth.JWTConfig{SigningMethod: "HS256", SecretKey: secret, Issuer: "degrees"})
	require.NoError(t, err)

	opts := Options{
		CommandBus:         cb,
		QueryBus:           qb,
		Store:              store,
		Validator:          validator,
		Limiter:            auth.NewRateLimiter(100),
		Metrics:            observability.NewCollector(),
		Tracer:             observability.NewTracer("degrees", false),
		RateLimitPerMinute: 100,
		EnableCORS:         true,
	}
	if mutate != nil {
		mutate(&opts)
	}
	return &fixture{handler: NewRouter(opts, zap.NewNop()).Setup(), store: store, opts: opts}
}

func (f *fixture) do(t *testing.T, method, target, body string, roles ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if roles != nil {
		token, err := auth.IssueToken(secret, "degrees", "tester", roles, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeJourney(t *testing.T, rec *httptest.ResponseRecorder) *queries.JourneyView {
	t.Helper()
	var result queries.JourneyResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result.Journey
}

func TestRouter_Operational(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, APIVersion, rec.Header().Get("X-API-Version"))

	rec = f.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "degrees_http_requests_total")

	rec = f.do(t, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_ReadyReportsStoreOutage(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Store = failingPinger{} })

	rec := f.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_PathsFollowViewerScope(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name   string
		roles  []string
		degree int
		via    string
	}{
		{"anonymous takes the public route", nil, 3, "charles"},
		{"members take the shortcut", []string{auth.RoleMember}, 2, "byron"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, "/api/v2/paths?source=ada&target=mary&randomize=false", "", tt.roles...)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			journey := decodeJourney(t, rec)
			require.NotNil(t, journey)
			assert.Equal(t, tt.degree, journey.Degree)
			assert.Equal(t, tt.via, journey.Nodes[1])
			assert.Equal(t, "ada", journey.Steps[0].NodeID)
			assert.Empty(t, journey.Steps[0].EdgeID)
		})
	}
}

func TestRouter_PathNotFoundIsNull(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/v2/paths?source=ada&target=byron", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"journey":null}`, rec.Body.String())
}

func TestRouter_BadParameters(t *testing.T) {
	f := newFixture(t, nil)

	for _, target := range []string{
		"/api/v2/journeys/discover?min_degree=two",
		"/api/v2/journeys/discover?limit=0",
		"/api/v2/journeys/random?min_degree=5&max_degree=2",
		"/api/v2/paths?source=ada",
		"/api/v2/paths?source=ada&target=mary&mode=scenic",
		"/api/v2/paths?source=ada&target=mary&randomize=maybe",
	} {
		rec := f.do(t, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestRouter_Discover(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/v2/journeys/discover?min_degree=1&max_degree=3&limit=3", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result queries.DiscoverJourneysResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotNil(t, result.Journeys)
	assert.LessOrEqual(t, len(result.Journeys), 3)
	for _, j := range result.Journeys {
		assert.NotContains(t, j.Nodes, "byron")
	}
}

func TestRouter_GetNode(t *testing.T) {
	f := newFixture(t, nil)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v2/nodes/byron", "").Code)

	rec := f.do(t, http.MethodGet, "/api/v2/nodes/byron", "", auth.RoleMember)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"byron","kind":"person","visibility":"members","name":"Lord Byron"}`, rec.Body.String())
}

func TestRouter_InvalidTokenIsRejected(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v2/nodes/ada", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_WritesRequireAdmin(t *testing.T) {
	f := newFixture(t, nil)
	body := `{"id":"somerville","kind":"person","name":"Mary Somerville"}`

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPost, "/api/v2/nodes", body).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPost, "/api/v2/nodes", body, auth.RoleMember).Code)

	rec := f.do(t, http.MethodPost, "/api/v2/nodes", body, auth.RoleAdmin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/v2/edges", `{"source":"somerville","target":"ada","kind":"relationship","start":"1834"}`, auth.RoleAdmin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "somerville-ada-relationship")

	rec = f.do(t, http.MethodPost, "/api/v2/edges", `{"source":"somerville","target":"nobody","kind":"relationship"}`, auth.RoleAdmin)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	nodes, edges := f.store.Stats()
	assert.Equal(t, 6, nodes)
	assert.Equal(t, 6, edges)
}

func TestRouter_Import(t *testing.T) {
	f := newFixture(t, nil)
	doc := `
nodes:
  - id: turing
    kind: person
    name: Alan Turing
  - id: bletchley
    kind: place
    name: Bletchley Park
edges:
  - source: turing
    target: bletchley
    kind: employment
    start: "1939"
`
	rec := f.do(t, http.MethodPost, "/api/v2/import", doc, auth.RoleAdmin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"nodes":2,"edges":1}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/v2/import", "nodes: [", auth.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_RateLimitsSearches(t *testing.T) {
	f := newFixture(t, func(o *Options) {
		o.Limiter = auth.NewRateLimiter(1)
		o.RateLimitPerMinute = 1
	})

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v2/journeys/random", "").Code)

	rec := f.do(t, http.MethodGet, "/api/v2/journeys/random", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// Node lookups are not limited.
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v2/nodes/ada", "").Code)
}
