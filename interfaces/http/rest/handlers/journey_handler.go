package handlers

import (
	"net/http"

	"degrees/application/queries"
	querybus "degrees/application/queries/bus"
	"degrees/domain/exploration"
	"degrees/pkg/auth"
	pkgerrors "degrees/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// JourneyHandler serves the read side: journeys, paths and single nodes.
// Every query runs with the scope of the requesting viewer.
type JourneyHandler struct {
	queryBus *querybus.QueryBus
	errors   *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

// NewJourneyHandler creates a new journey handler
func NewJourneyHandler(queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *JourneyHandler {
	return &JourneyHandler{queryBus: queryBus, errors: errs, logger: logger}
}

// Discover handles GET /journeys/discover
func (h *JourneyHandler) Discover(w http.ResponseWriter, r *http.Request) {
	minDegree, maxDegree, err := degreeParams(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	limit, err := intParam(r, "limit", exploration.DefaultLimit)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := querybus.Ask[*queries.DiscoverJourneysResult](r.Context(), h.queryBus, queries.DiscoverJourneysQuery{
		MinDegree: minDegree,
		MaxDegree: maxDegree,
		Limit:     limit,
		Scope:     auth.ViewerFrom(r.Context()).Scope,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

// Random handles GET /journeys/random
func (h *JourneyHandler) Random(w http.ResponseWriter, r *http.Request) {
	minDegree, maxDegree, err := degreeParams(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := querybus.Ask[*queries.JourneyResult](r.Context(), h.queryBus, queries.FindRandomJourneyQuery{
		MinDegree: minDegree,
		MaxDegree: maxDegree,
		Scope:     auth.ViewerFrom(r.Context()).Scope,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

// Path handles GET /paths?source=&target=
func (h *JourneyHandler) Path(w http.ResponseWriter, r *http.Request) {
	maxDegree, err := intParam(r, "max_degree", exploration.DefaultMaxDegree)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	randomize, err := boolParam(r, "randomize", exploration.DefaultRandomize)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	q := r.URL.Query()
	result, err := querybus.Ask[*queries.JourneyResult](r.Context(), h.queryBus, queries.FindPathQuery{
		Source:    q.Get("source"),
		Target:    q.Get("target"),
		MaxDegree: maxDegree,
		Randomize: randomize,
		Mode:      q.Get("mode"),
		Scope:     auth.ViewerFrom(r.Context()).Scope,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

// GetNode handles GET /nodes/{nodeID}
func (h *JourneyHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	result, err := querybus.Ask[*queries.NodeView](r.Context(), h.queryBus, queries.GetNodeQuery{
		NodeID: chi.URLParam(r, "nodeID"),
		Scope:  auth.ViewerFrom(r.Context()).Scope,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

func degreeParams(r *http.Request) (int, int, error) {
	minDegree, err := intParam(r, "min_degree", exploration.DefaultMinDegree)
	if err != nil {
		return 0, 0, err
	}
	maxDegree, err := intParam(r, "max_degree", exploration.DefaultMaxDegree)
	if err != nil {
		return 0, 0, err
	}
	return minDegree, maxDegree, nil
}
