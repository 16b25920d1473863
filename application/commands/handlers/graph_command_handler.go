package handlers

import (
	"context"
	"fmt"

	"degrees/application/commands"
	"degrees/application/commands/bus"
	"degrees/application/ports"
	"degrees/domain/core/entities"
	"degrees/domain/core/validators"
	"degrees/domain/core/valueobjects"
	pkgerrors "degrees/pkg/errors"

	"go.uber.org/zap"
)

// GraphCommandHandler applies writes to the graph store.
type GraphCommandHandler struct {
	store     ports.GraphStore
	validator *validators.GraphValidator
	logger    *zap.Logger
}

// NewGraphCommandHandler creates a handler writing to store.
func NewGraphCommandHandler(store ports.GraphStore, validator *validators.GraphValidator, logger *zap.Logger) *GraphCommandHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphCommandHandler{store: store, validator: validator, logger: logger}
}

// Register binds every command the handler accepts to b.
func (h *GraphCommandHandler) Register(b *bus.CommandBus) error {
	if err := b.Register(commands.CreateNodeCommand{}, bus.CommandHandlerFunc(func(ctx context.Context, cmd bus.Command) error {
		return h.HandleCreateNode(ctx, cmd.(commands.CreateNodeCommand))
	})); err != nil {
		return err
	}
	if err := b.Register(commands.CreateEdgeCommand{}, bus.CommandHandlerFunc(func(ctx context.Context, cmd bus.Command) error {
		return h.HandleCreateEdge(ctx, cmd.(commands.CreateEdgeCommand))
	})); err != nil {
		return err
	}
	return b.Register(commands.ImportGraphCommand{}, bus.CommandHandlerFunc(func(ctx context.Context, cmd bus.Command) error {
		return h.HandleImport(ctx, cmd.(commands.ImportGraphCommand))
	}))
}

func (h *GraphCommandHandler) HandleCreateNode(ctx context.Context, cmd commands.CreateNodeCommand) error {
	node, err := cmd.ToNode()
	if err != nil {
		return err
	}
	if err := h.validator.ValidateNode(node); err != nil {
		return err
	}
	return h.store.SaveNode(ctx, node)
}

func (h *GraphCommandHandler) HandleCreateEdge(ctx context.Context, cmd commands.CreateEdgeCommand) error {
	edge, err := cmd.ToEdge()
	if err != nil {
		return err
	}

	source, err := h.store.GetNode(ctx, edge.SourceID(), entities.FullScope())
	if err != nil {
		return err
	}
	target, err := h.store.GetNode(ctx, edge.TargetID(), entities.FullScope())
	if err != nil {
		return err
	}
	if err := h.validator.ValidateEdge(edge, source, target); err != nil {
		return err
	}
	return h.store.SaveEdge(ctx, edge)
}

// HandleImport checks the whole document before writing anything. Edge
// endpoints may be defined in the document or already stored.
func (h *GraphCommandHandler) HandleImport(ctx context.Context, cmd commands.ImportGraphCommand) error {
	if err := h.validator.ValidateImportSize(len(cmd.Nodes), len(cmd.Edges)); err != nil {
		return err
	}

	nodes := make(map[valueobjects.NodeID]*entities.Node, len(cmd.Nodes))
	ordered := make([]*entities.Node, 0, len(cmd.Nodes))
	for i, c := range cmd.Nodes {
		node, err := c.ToNode()
		if err == nil {
			err = h.validator.ValidateNode(node)
		}
		if err != nil {
			return pkgerrors.Wrapf(err, "nodes[%d]", i)
		}
		if _, dup := nodes[node.ID()]; !dup {
			ordered = append(ordered, node)
		}
		nodes[node.ID()] = node
	}

	edges := make([]*entities.Edge, 0, len(cmd.Edges))
	for i, c := range cmd.Edges {
		edge, err := c.ToEdge()
		if err != nil {
			return pkgerrors.Wrapf(err, "edges[%d]", i)
		}
		source, err := h.resolve(ctx, nodes, edge.SourceID())
		if err != nil {
			return err
		}
		target, err := h.resolve(ctx, nodes, edge.TargetID())
		if err != nil {
			return err
		}
		if err := h.validator.ValidateEdge(edge, source, target); err != nil {
			return pkgerrors.Wrapf(err, "edges[%d]", i)
		}
		edges = append(edges, edge)
	}

	for _, node := range ordered {
		// The last definition of a repeated id wins.
		if err := h.store.SaveNode(ctx, nodes[node.ID()]); err != nil {
			return pkgerrors.Wrapf(err, "saving node %s", node.ID())
		}
	}
	for _, edge := range edges {
		if err := h.store.SaveEdge(ctx, edge); err != nil {
			return pkgerrors.Wrapf(err, "saving edge %s", edge.ID())
		}
	}

	h.logger.Info("Imported graph",
		zap.Int("nodes", len(ordered)),
		zap.Int("edges", len(edges)),
		zap.String("backend", h.store.Backend()),
	)
	return nil
}

func (h *GraphCommandHandler) resolve(ctx context.Context, pending map[valueobjects.NodeID]*entities.Node, id valueobjects.NodeID) (*entities.Node, error) {
	if node, ok := pending[id]; ok {
		return node, nil
	}
	node, err := h.store.GetNode(ctx, id, entities.FullScope())
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", id, err)
	}
	return node, nil
}
