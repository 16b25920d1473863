package handlers

import (
	"encoding/json"
	"net/http"

	"degrees/application/commands"
	"degrees/application/commands/bus"
	"degrees/infrastructure/seed"
	pkgerrors "degrees/pkg/errors"

	"go.uber.org/zap"
)

const maxImportBody = 8 << 20

// GraphHandler handles the write endpoints. Routes are admin only.
type GraphHandler struct {
	commandBus *bus.CommandBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(commandBus *bus.CommandBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{commandBus: commandBus, errors: errs, logger: logger}
}

// CreateNode handles POST /nodes
func (h *GraphHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CreateNodeCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, map[string]interface{}{
		"id":      cmd.NodeID,
		"message": "Node saved",
	})
}

// CreateEdge handles POST /edges
func (h *GraphHandler) CreateEdge(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CreateEdgeCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, map[string]interface{}{
		"id":      cmd.ID(),
		"message": "Edge saved",
	})
}

// Import handles POST /import with a JSON or YAML fixture body.
func (h *GraphHandler) Import(w http.ResponseWriter, r *http.Request) {
	doc, err := seed.Parse(http.MaxBytesReader(w, r.Body, maxImportBody))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if err := h.commandBus.Send(r.Context(), doc); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, map[string]interface{}{
		"nodes": len(doc.Nodes),
		"edges": len(doc.Edges),
	})
}
