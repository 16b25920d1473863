package exploration

import (
	"context"
	"math/rand/v2"
	"sort"
	"sync/atomic"

	"degrees/domain/core/entities"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// discover collects acceptable journeys from independent attempts and ranks them.
// Each attempt owns a generator drawn up front, and results are gathered in
// attempt order, so a run with concurrency 1 is reproducible under a seeded source.
func (e *Engine) discover(ctx context.Context, minDegree, maxDegree, limit int) ([]Journey, error) {
	attempts := e.limits.DiscoveryAttempts
	rngs := make([]*rand.Rand, attempts)
	for i := range rngs {
		rngs[i] = e.rand()
	}

	results := make([]*Journey, attempts)
	var collected atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	launched := 0
	for i := 0; i < attempts; i++ {
		if collected.Load() >= int64(limit) || stopped(gctx) {
			break
		}
		launched++
		g.Go(func() error {
			if collected.Load() >= int64(limit) {
				return nil
			}
			journey, err := e.attempt(gctx, minDegree, maxDegree, rngs[i])
			if err != nil {
				return err
			}
			if journey != nil && e.acceptance.Accepts(*journey, minDegree) {
				results[i] = journey
				collected.Add(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !stopped(ctx) {
		e.logger.Error("Journey discovery failed", zap.Error(err), zap.Int("attempts", launched))
		return nil, err
	}

	journeys := make([]Journey, 0, limit)
	for _, j := range results {
		if j != nil {
			journeys = append(journeys, *j)
		}
	}
	RankJourneys(journeys)
	if len(journeys) > limit {
		journeys = journeys[:limit]
	}

	e.logger.Debug("Journey discovery finished",
		zap.Int("attempts", launched),
		zap.Int("journeys", len(journeys)),
		zap.Int("min_degree", minDegree),
		zap.Int("max_degree", maxDegree),
	)
	return journeys, nil
}

// attempt explores from one random public person.
func (e *Engine) attempt(ctx context.Context, minDegree, maxDegree int, rng *rand.Rand) (*Journey, error) {
	start, err := e.accessor.RandomNode(ctx, entities.NodeKindPerson, entities.VisibilityPublic, rng)
	if err != nil {
		if stopped(ctx) {
			return nil, nil
		}
		return nil, err
	}
	if start == nil {
		return nil, nil
	}
	return e.explore(ctx, start, minDegree, maxDegree, rng)
}

// RankJourneys orders journeys by score, then degree, both descending.
// Equal journeys keep their relative order.
func RankJourneys(journeys []Journey) {
	sort.SliceStable(journeys, func(i, j int) bool {
		if journeys[i].Score != journeys[j].Score {
			return journeys[i].Score > journeys[j].Score
		}
		return journeys[i].Degree > journeys[j].Degree
	})
}
