package ports

import "time"

// SearchObserver records the outcome of journey and path searches.
type SearchObserver interface {
	ObserveSearch(operation string, elapsed time.Duration, found, iterations int, err error)
}

// StoreObserver records individual graph store calls.
type StoreObserver interface {
	ObserveStoreOperation(backend, operation string, elapsed time.Duration, err error)
}

// NopObserver discards everything.
type NopObserver struct{}

func (NopObserver) ObserveSearch(string, time.Duration, int, int, error)       {}
func (NopObserver) ObserveStoreOperation(string, string, time.Duration, error) {}

// SearchObservers fans one observation out to several observers.
type SearchObservers []SearchObserver

func (o SearchObservers) ObserveSearch(operation string, elapsed time.Duration, found, iterations int, err error) {
	for _, obs := range o {
		obs.ObserveSearch(operation, elapsed, found, iterations, err)
	}
}
