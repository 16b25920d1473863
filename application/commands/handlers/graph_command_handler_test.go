package handlers

import (
	"context"
	"testing"
	"time"

	"degrees/application/commands"
	"degrees/application/commands/bus"
	"degrees/domain/config"
	"degrees/domain/core/entities"
	"degrees/domain/core/validators"
	"degrees/domain/core/valueobjects"
	"degrees/infrastructure/persistence/memory"
	pkgerrors "degrees/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*GraphCommandHandler, *memory.GraphStore, *bus.CommandBus) {
	t.Helper()
	store := memory.NewGraphStore()
	h := NewGraphCommandHandler(store, validators.NewGraphValidator(config.DefaultDomainConfig()), zap.NewNop())
	b := bus.NewCommandBus()
	require.NoError(t, h.Register(b))
	return h, store, b
}

func TestGraphCommandHandler_CreateNodeAndEdge(t *testing.T) {
	_, store, b := newHandler(t)
	ctx := context.Background()

	require.NoError(t, b.Send(ctx, commands.CreateNodeCommand{NodeID: "ada", Kind: "person", Name: "Ada Lovelace"}))
	require.NoError(t, b.Send(ctx, commands.CreateNodeCommand{NodeID: "london", Kind: "place", Name: "London"}))
	require.NoError(t, b.Send(ctx, commands.CreateEdgeCommand{Source: "ada", Target: "london", Kind: "residence", Start: "1835-07"}))

	neighbors, err := store.Neighbors(ctx, valueobjects.MustNodeID("ada"), entities.PublicScope())
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	assert.Equal(t, "ada-london-residence", neighbors[0].Edge.ID().String())
	require.NotNil(t, neighbors[0].Edge.Period())
	assert.Equal(t, 1835, neighbors[0].Edge.Period().Start.Year())
}

func TestGraphCommandHandler_CreateEdgeErrors(t *testing.T) {
	_, _, b := newHandler(t)
	ctx := context.Background()
	require.NoError(t, b.Send(ctx, commands.CreateNodeCommand{NodeID: "ada", Kind: "person", Name: "Ada Lovelace"}))
	require.NoError(t, b.Send(ctx, commands.CreateNodeCommand{NodeID: "london", Kind: "place", Name: "London"}))

	tests := []struct {
		name  string
		cmd   commands.CreateEdgeCommand
		check func(error) bool
	}{
		{"missing endpoint", commands.CreateEdgeCommand{Source: "ada", Target: "paris", Kind: "residence"}, pkgerrors.IsNotFound},
		{"self loop", commands.CreateEdgeCommand{Source: "ada", Target: "ada", Kind: "family"}, pkgerrors.IsValidation},
		{"family with a place", commands.CreateEdgeCommand{Source: "ada", Target: "london", Kind: "family"}, pkgerrors.IsValidation},
		{"unknown kind", commands.CreateEdgeCommand{Source: "ada", Target: "london", Kind: "haunts"}, pkgerrors.IsValidation},
		{"bad date", commands.CreateEdgeCommand{Source: "ada", Target: "london", Kind: "residence", Start: "last spring"}, pkgerrors.IsValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.Send(ctx, tt.cmd)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestGraphCommandHandler_Import(t *testing.T) {
	h, store, _ := newHandler(t)
	ctx := context.Background()

	require.NoError(t, store.SaveNode(ctx, entities.ReconstructNode(valueobjects.MustNodeID("london"), entities.NodeKindPlace, entities.VisibilityPublic, "London", time.Now())))

	err := h.HandleImport(ctx, commands.ImportGraphCommand{
		Nodes: []commands.CreateNodeCommand{
			{NodeID: "ada", Kind: "person", Name: "Ada Lovelace"},
			{NodeID: "babbage", Kind: "person", Name: "Charles Babbage", Visibility: "members"},
		},
		Edges: []commands.CreateEdgeCommand{
			{Source: "ada", Target: "babbage", Kind: "relationship"},
			{Source: "ada", Target: "london", Kind: "residence"},
		},
	})
	require.NoError(t, err)

	nodes, edges := store.Stats()
	assert.Equal(t, 3, nodes)
	assert.Equal(t, 2, edges)
}

func TestGraphCommandHandler_ImportIsCheckedBeforeWriting(t *testing.T) {
	h, store, _ := newHandler(t)

	err := h.HandleImport(context.Background(), commands.ImportGraphCommand{
		Nodes: []commands.CreateNodeCommand{{NodeID: "ada", Kind: "person", Name: "Ada Lovelace"}},
		Edges: []commands.CreateEdgeCommand{{Source: "ada", Target: "nowhere", Kind: "residence"}},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))

	nodes, edges := store.Stats()
	assert.Zero(t, nodes)
	assert.Zero(t, edges)
}

func TestGraphCommandHandler_ImportReportsPosition(t *testing.T) {
	h, _, _ := newHandler(t)

	err := h.HandleImport(context.Background(), commands.ImportGraphCommand{
		Nodes: []commands.CreateNodeCommand{
			{NodeID: "ada", Kind: "person", Name: "Ada Lovelace"},
			{NodeID: "mystery", Kind: "ghost", Name: "Unknown"},
		},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Contains(t, err.Error(), "nodes[1]")
}

func TestGraphCommandHandler_ImportLimits(t *testing.T) {
	store := memory.NewGraphStore()
	cfg := config.DefaultDomainConfig()
	cfg.MaxImportNodes = 1
	h := NewGraphCommandHandler(store, validators.NewGraphValidator(cfg), nil)

	err := h.HandleImport(context.Background(), commands.ImportGraphCommand{
		Nodes: []commands.CreateNodeCommand{
			{NodeID: "ada", Kind: "person", Name: "Ada Lovelace"},
			{NodeID: "mary", Kind: "person", Name: "Mary Somerville"},
		},
	})
	assert.True(t, pkgerrors.IsValidation(err))
}
