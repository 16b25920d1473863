package handlers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"degrees/application/ports"
	"degrees/application/queries"
	"degrees/application/queries/bus"
	"degrees/application/services"
	"degrees/domain/config"
	"degrees/domain/core/entities"
	"degrees/domain/core/valueobjects"
	"degrees/domain/exploration"
	pkgerrors "degrees/pkg/errors"
	"degrees/pkg/observability"

	"go.uber.org/zap"
)

// SearchSettings configures every engine the handler builds.
type SearchSettings struct {
	Limits      config.SearchLimits
	Concurrency int
	Timeout     time.Duration
	RandSource  exploration.RandSource
}

// JourneyQueryHandler answers journey, path and node queries for one viewer at a time.
type JourneyQueryHandler struct {
	store    ports.GraphReader
	settings SearchSettings
	observer ports.SearchObserver
	tracer   *observability.Tracer
	logger   *zap.Logger
}

// NewJourneyQueryHandler creates the handler. observer and tracer may be nil.
func NewJourneyQueryHandler(
	store ports.GraphReader,
	settings SearchSettings,
	observer ports.SearchObserver,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *JourneyQueryHandler {
	if settings.Limits == (config.SearchLimits{}) {
		settings.Limits = config.DefaultSearchLimits()
	}
	if settings.RandSource == nil {
		settings.RandSource = exploration.DefaultRandSource()
	}
	if observer == nil {
		observer = ports.NopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JourneyQueryHandler{
		store:    store,
		settings: settings,
		observer: observer,
		tracer:   tracer,
		logger:   logger,
	}
}

// Register binds every query the handler answers to b.
func (h *JourneyQueryHandler) Register(b *bus.QueryBus) error {
	registrations := []struct {
		query   bus.Query
		handler bus.QueryHandlerFunc
	}{
		{queries.DiscoverJourneysQuery{}, func(ctx context.Context, q bus.Query) (interface{}, error) {
			return h.HandleDiscover(ctx, q.(queries.DiscoverJourneysQuery))
		}},
		{queries.FindRandomJourneyQuery{}, func(ctx context.Context, q bus.Query) (interface{}, error) {
			return h.HandleRandom(ctx, q.(queries.FindRandomJourneyQuery))
		}},
		{queries.FindPathQuery{}, func(ctx context.Context, q bus.Query) (interface{}, error) {
			return h.HandlePath(ctx, q.(queries.FindPathQuery))
		}},
		{queries.GetNodeQuery{}, func(ctx context.Context, q bus.Query) (interface{}, error) {
			return h.HandleGetNode(ctx, q.(queries.GetNodeQuery))
		}},
	}
	for _, r := range registrations {
		if err := b.Register(r.query, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func (h *JourneyQueryHandler) engine(scope entities.Scope) *exploration.Engine {
	return exploration.NewEngine(
		services.NewScopedAccessor(h.store, scope),
		exploration.WithLimits(h.settings.Limits),
		exploration.WithConcurrency(h.settings.Concurrency),
		exploration.WithRandSource(h.settings.RandSource),
		exploration.WithLogger(h.logger),
	)
}

// search applies the deadline, tracing and metrics shared by every search.
// run reports how many journeys it found and the iterations they took.
func (h *JourneyQueryHandler) search(ctx context.Context, operation string, scope entities.Scope, run func(context.Context) (int, int, error)) error {
	if h.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.settings.Timeout)
		defer cancel()
	}

	start := time.Now()
	var found, iterations int
	err := h.tracer.Trace(ctx, operation, map[string]string{"scope": scopeLabel(scope)}, func(ctx context.Context) error {
		var err error
		found, iterations, err = run(ctx)
		h.tracer.Annotate(ctx, "found", strconv.Itoa(found))
		return err
	})
	elapsed := time.Since(start)

	h.observer.ObserveSearch(operation, elapsed, found, iterations, err)
	if ctx.Err() != nil && err == nil {
		fields := []zap.Field{
			zap.Error(pkgerrors.NewTimeoutError(operation)),
			zap.String("operation", operation),
			zap.Int("found", found),
			zap.Duration("elapsed", elapsed),
		}
		// Partial results still go back to the caller; only the log records the cut.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			h.logger.Warn("Search stopped at deadline", fields...)
		} else {
			h.logger.Debug("Search cancelled", fields...)
		}
	}
	return err
}

func (h *JourneyQueryHandler) HandleDiscover(ctx context.Context, q queries.DiscoverJourneysQuery) (*queries.DiscoverJourneysResult, error) {
	result := &queries.DiscoverJourneysResult{Journeys: []queries.JourneyView{}}

	err := h.search(ctx, "discover", q.Scope, func(ctx context.Context) (int, int, error) {
		journeys, err := h.engine(q.Scope).DiscoverJourneys(ctx, q.MinDegree, q.MaxDegree, q.Limit)
		if err != nil {
			return 0, 0, err
		}
		iterations := 0
		for _, j := range journeys {
			result.Journeys = append(result.Journeys, queries.NewJourneyView(j))
			iterations += j.Stats.Iterations
		}
		return len(journeys), iterations, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (h *JourneyQueryHandler) HandleRandom(ctx context.Context, q queries.FindRandomJourneyQuery) (*queries.JourneyResult, error) {
	result := &queries.JourneyResult{}

	err := h.search(ctx, "random", q.Scope, func(ctx context.Context) (int, int, error) {
		journey, err := h.engine(q.Scope).FindRandomJourney(ctx, q.MinDegree, q.MaxDegree)
		if err != nil || journey == nil {
			return 0, 0, err
		}
		view := queries.NewJourneyView(*journey)
		result.Journey = &view
		return 1, journey.Stats.Iterations, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (h *JourneyQueryHandler) HandlePath(ctx context.Context, q queries.FindPathQuery) (*queries.JourneyResult, error) {
	source, err := valueobjects.NewNodeIDFromString(q.Source)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	target, err := valueobjects.NewNodeIDFromString(q.Target)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	opts := exploration.PathOptions{
		MaxDegree: q.MaxDegree,
		Randomize: q.Randomize,
		Mode:      exploration.PathMode(q.Mode),
	}

	result := &queries.JourneyResult{}
	err = h.search(ctx, "path", q.Scope, func(ctx context.Context) (int, int, error) {
		journey, err := h.engine(q.Scope).FindPath(ctx, source, target, opts)
		if err != nil || journey == nil {
			return 0, 0, err
		}
		view := queries.NewJourneyView(*journey)
		result.Journey = &view
		return 1, journey.Stats.Iterations, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// HandleGetNode returns NOT_FOUND for unknown nodes and for nodes outside the scope.
func (h *JourneyQueryHandler) HandleGetNode(ctx context.Context, q queries.GetNodeQuery) (*queries.NodeView, error) {
	id, err := valueobjects.NewNodeIDFromString(q.NodeID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	scope := q.Scope
	if len(scope) == 0 {
		scope = entities.PublicScope()
	}

	node, err := h.store.GetNode(ctx, id, scope)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	view := queries.NewNodeView(node)
	return &view, nil
}

func scopeLabel(scope entities.Scope) string {
	switch len(scope) {
	case 0, 1:
		return "public"
	case 2:
		return "members"
	}
	return "full"
}
