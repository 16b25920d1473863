// Package decorators layers cross-cutting behaviour over a ports.GraphStore.
package decorators

import (
	"time"

	"degrees/application/ports"

	"go.uber.org/zap"
)

// ChainConfig selects the layers Decorate applies.
type ChainConfig struct {
	CircuitBreaker        bool
	CircuitBreakerOptions CircuitBreakerConfig
	SlowCallThreshold     time.Duration
}

// Decorate wraps base as base -> circuit breaker -> instrumentation, so
// metrics also see calls the breaker rejected.
func Decorate(base ports.GraphStore, cfg ChainConfig, observer ports.StoreObserver, onState BreakerStateFunc, logger *zap.Logger) ports.GraphStore {
	decorated := base
	if cfg.CircuitBreaker {
		decorated = NewCircuitBreakerStore(decorated, cfg.CircuitBreakerOptions, logger, onState)
	}
	return NewInstrumentedStore(decorated, observer, logger, cfg.SlowCallThreshold)
}
