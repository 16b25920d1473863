package exploration

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"degrees/domain/config"
	"degrees/domain/core/valueobjects"
	pkgerrors "degrees/pkg/errors"

	"go.uber.org/zap"
)

// Defaults for the engine entry points.
const (
	DefaultMinDegree = 2
	DefaultMaxDegree = 6
	DefaultLimit     = 5
	DefaultRandomize = true

	defaultConcurrency = 4
)

// RandSource hands out a fresh random generator. The engine calls it once per
// search, and once per discovery attempt, always from the calling goroutine.
type RandSource func() *rand.Rand

// DefaultRandSource seeds every generator from the runtime's random state.
func DefaultRandSource() RandSource {
	return func() *rand.Rand {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
}

// SeededRandSource derives every generator from seed, giving reproducible searches.
func SeededRandSource(seed uint64) RandSource {
	var mu sync.Mutex
	parent := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return func() *rand.Rand {
		mu.Lock()
		defer mu.Unlock()
		return rand.New(rand.NewPCG(parent.Uint64(), parent.Uint64()))
	}
}

// Engine finds journeys through the graph exposed by a GraphAccessor.
// An Engine holds no search state; concurrent calls do not interfere.
type Engine struct {
	accessor    GraphAccessor
	limits      config.SearchLimits
	acceptance  Acceptance
	rand        RandSource
	concurrency int
	logger      *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLimits overrides the search caps and thresholds.
func WithLimits(limits config.SearchLimits) Option {
	return func(e *Engine) {
		e.limits = limits
		e.acceptance = Acceptance{MinScore: limits.MinAcceptableScore, MaxNodes: limits.MaxJourneyNodes}
	}
}

// WithRandSource injects the random generator factory.
func WithRandSource(src RandSource) Option {
	return func(e *Engine) {
		if src != nil {
			e.rand = src
		}
	}
}

// WithConcurrency bounds how many discovery attempts run at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine over accessor.
func NewEngine(accessor GraphAccessor, opts ...Option) *Engine {
	e := &Engine{
		accessor:    accessor,
		rand:        DefaultRandSource(),
		concurrency: defaultConcurrency,
		logger:      zap.NewNop(),
	}
	WithLimits(config.DefaultSearchLimits())(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DiscoverJourneys runs up to the configured number of exploratory attempts from
// random public people and returns at most limit acceptable journeys, best first.
// An empty result is a normal outcome on small or sparse graphs.
func (e *Engine) DiscoverJourneys(ctx context.Context, minDegree, maxDegree, limit int) ([]Journey, error) {
	if err := validateDegrees(minDegree, maxDegree); err != nil {
		return nil, err
	}
	if limit < 1 {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("limit must be at least 1, got %d", limit))
	}
	return e.discover(ctx, minDegree, maxDegree, limit)
}

// FindRandomJourney returns the best journey of a single-result discovery, or nil.
func (e *Engine) FindRandomJourney(ctx context.Context, minDegree, maxDegree int) (*Journey, error) {
	journeys, err := e.DiscoverJourneys(ctx, minDegree, maxDegree, 1)
	if err != nil || len(journeys) == 0 {
		return nil, err
	}
	return &journeys[0], nil
}

// FindPathToSpan looks for a shortest path from source to target of fewer than
// maxDegree edges. Randomize only varies which of several equally short paths
// is returned.
func (e *Engine) FindPathToSpan(ctx context.Context, source, target valueobjects.NodeID, maxDegree int, randomize bool) (*Journey, error) {
	return e.FindPath(ctx, source, target, PathOptions{
		MaxDegree: maxDegree,
		Randomize: randomize,
		Mode:      PathModeStrict,
	})
}

// FindPath looks for a path from source to target under opts.
// It returns nil when source equals target, when source is unknown or hidden,
// and when the target is not reached within the caps.
func (e *Engine) FindPath(ctx context.Context, source, target valueobjects.NodeID, opts PathOptions) (*Journey, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.Mode, _ = ParsePathMode(string(opts.Mode))
	if source.Equals(target) {
		return nil, nil
	}
	var rng *rand.Rand
	if opts.Randomize {
		rng = e.rand()
	}
	return e.findPath(ctx, source, target, opts, rng)
}

func validateDegrees(minDegree, maxDegree int) error {
	switch {
	case minDegree < 0:
		return pkgerrors.NewValidationError(fmt.Sprintf("min degree cannot be negative, got %d", minDegree))
	case maxDegree < 1:
		return pkgerrors.NewValidationError(fmt.Sprintf("max degree must be at least 1, got %d", maxDegree))
	case minDegree > maxDegree:
		return pkgerrors.NewValidationError(fmt.Sprintf("min degree %d exceeds max degree %d", minDegree, maxDegree))
	}
	return nil
}

// stopped reports whether the caller gave up on the search. An accessor error
// seen after that point is a symptom of the cancellation, not a failure.
func stopped(ctx context.Context) bool {
	return ctx.Err() != nil
}
