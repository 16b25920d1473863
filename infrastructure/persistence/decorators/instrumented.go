package decorators

import (
	"context"
	"time"

	"degrees/application/ports"
	"degrees/domain/core/entities"
	"degrees/domain/core/valueobjects"

	"go.uber.org/zap"
)

// InstrumentedStore times every call and logs the slow ones.
type InstrumentedStore struct {
	next     ports.GraphStore
	observer ports.StoreObserver
	logger   *zap.Logger
	slow     time.Duration
}

var _ ports.GraphStore = (*InstrumentedStore)(nil)

// NewInstrumentedStore wraps next. Calls slower than slow are logged at warn;
// a zero slow disables that.
func NewInstrumentedStore(next ports.GraphStore, observer ports.StoreObserver, logger *zap.Logger, slow time.Duration) *InstrumentedStore {
	if observer == nil {
		observer = ports.NopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedStore{next: next, observer: observer, logger: logger, slow: slow}
}

func (s *InstrumentedStore) observe(op string, start time.Time, err error) {
	elapsed := time.Since(start)
	s.observer.ObserveStoreOperation(s.next.Backend(), op, elapsed, err)

	if s.slow > 0 && elapsed > s.slow {
		s.logger.Warn("Slow graph store call",
			zap.String("backend", s.next.Backend()),
			zap.String("operation", op),
			zap.Duration("elapsed", elapsed),
		)
	}
}

func (s *InstrumentedStore) Backend() string { return s.next.Backend() }

func (s *InstrumentedStore) GetNode(ctx context.Context, id valueobjects.NodeID, scope entities.Scope) (node *entities.Node, err error) {
	defer func(start time.Time) { s.observe("get_node", start, err) }(time.Now())
	return s.next.GetNode(ctx, id, scope)
}

func (s *InstrumentedStore) Neighbors(ctx context.Context, id valueobjects.NodeID, scope entities.Scope) (out []entities.Neighbor, err error) {
	defer func(start time.Time) { s.observe("neighbors", start, err) }(time.Now())
	return s.next.Neighbors(ctx, id, scope)
}

func (s *InstrumentedStore) CountNodes(ctx context.Context, filter ports.NodeFilter) (n int, err error) {
	defer func(start time.Time) { s.observe("count_nodes", start, err) }(time.Now())
	return s.next.CountNodes(ctx, filter)
}

func (s *InstrumentedStore) NodeAt(ctx context.Context, filter ports.NodeFilter, offset int) (node *entities.Node, err error) {
	defer func(start time.Time) { s.observe("node_at", start, err) }(time.Now())
	return s.next.NodeAt(ctx, filter, offset)
}

func (s *InstrumentedStore) SaveNode(ctx context.Context, node *entities.Node) (err error) {
	defer func(start time.Time) { s.observe("save_node", start, err) }(time.Now())
	return s.next.SaveNode(ctx, node)
}

func (s *InstrumentedStore) SaveEdge(ctx context.Context, edge *entities.Edge) (err error) {
	defer func(start time.Time) { s.observe("save_edge", start, err) }(time.Now())
	return s.next.SaveEdge(ctx, edge)
}

func (s *InstrumentedStore) Ping(ctx context.Context) (err error) {
	defer func(start time.Time) { s.observe("ping", start, err) }(time.Now())
	return s.next.Ping(ctx)
}

func (s *InstrumentedStore) Close(ctx context.Context) error { return s.next.Close(ctx) }
