package decorators

import (
	"context"
	"errors"
	"time"

	"degrees/application/ports"
	"degrees/domain/core/entities"
	"degrees/domain/core/valueobjects"
	pkgerrors "degrees/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// CircuitBreakerConfig controls when the breaker trips.
type CircuitBreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultCircuitBreakerConfig trips at 60% failures over at least five calls.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          15 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// BreakerStateFunc receives every state transition; 0 closed, 1 half-open, 2 open.
type BreakerStateFunc func(name string, state int)

// CircuitBreakerStore rejects store calls with an UNAVAILABLE error while
// the backend keeps failing.
type CircuitBreakerStore struct {
	next    ports.GraphStore
	breaker *gobreaker.CircuitBreaker
}

var _ ports.GraphStore = (*CircuitBreakerStore)(nil)

// NewCircuitBreakerStore wraps next. onState may be nil.
func NewCircuitBreakerStore(next ports.GraphStore, cfg CircuitBreakerConfig, logger *zap.Logger, onState BreakerStateFunc) *CircuitBreakerStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	name := next.Backend()

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if onState != nil {
				onState(name, stateValue(to))
			}
		},
		IsSuccessful: isSuccessful,
	})

	return &CircuitBreakerStore{next: next, breaker: breaker}
}

// Client-side outcomes and caller cancellation say nothing about backend health.
func isSuccessful(err error) bool {
	return err == nil ||
		errors.Is(err, context.Canceled) ||
		pkgerrors.IsNotFound(err) ||
		pkgerrors.IsConflict(err) ||
		pkgerrors.IsValidation(err)
}

func stateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return 0
}

// State reports the breaker state.
func (s *CircuitBreakerStore) State() gobreaker.State { return s.breaker.State() }

func guard[T any](s *CircuitBreakerStore, fn func() (T, error)) (T, error) {
	out, err := s.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, pkgerrors.NewUnavailableError(s.next.Backend(), err)
	}
	v, _ := out.(T)
	return v, err
}

func (s *CircuitBreakerStore) Backend() string { return s.next.Backend() }

func (s *CircuitBreakerStore) GetNode(ctx context.Context, id valueobjects.NodeID, scope entities.Scope) (*entities.Node, error) {
	return guard(s, func() (*entities.Node, error) { return s.next.GetNode(ctx, id, scope) })
}

func (s *CircuitBreakerStore) Neighbors(ctx context.Context, id valueobjects.NodeID, scope entities.Scope) ([]entities.Neighbor, error) {
	return guard(s, func() ([]entities.Neighbor, error) { return s.next.Neighbors(ctx, id, scope) })
}

func (s *CircuitBreakerStore) CountNodes(ctx context.Context, filter ports.NodeFilter) (int, error) {
	return guard(s, func() (int, error) { return s.next.CountNodes(ctx, filter) })
}

func (s *CircuitBreakerStore) NodeAt(ctx context.Context, filter ports.NodeFilter, offset int) (*entities.Node, error) {
	return guard(s, func() (*entities.Node, error) { return s.next.NodeAt(ctx, filter, offset) })
}

func (s *CircuitBreakerStore) SaveNode(ctx context.Context, node *entities.Node) error {
	_, err := guard(s, func() (struct{}, error) { return struct{}{}, s.next.SaveNode(ctx, node) })
	return err
}

func (s *CircuitBreakerStore) SaveEdge(ctx context.Context, edge *entities.Edge) error {
	_, err := guard(s, func() (struct{}, error) { return struct{}{}, s.next.SaveEdge(ctx, edge) })
	return err
}

// Ping bypasses the breaker so readiness reflects the backend itself.
func (s *CircuitBreakerStore) Ping(ctx context.Context) error { return s.next.Ping(ctx) }

func (s *CircuitBreakerStore) Close(ctx context.Context) error { return s.next.Close(ctx) }
