package validators

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"degrees/domain/config"
	"degrees/domain/core/entities"
	pkgerrors "degrees/pkg/errors"
)

// GraphValidator applies the write-side business rules to nodes and edges.
type GraphValidator struct {
	minNameLength  int
	maxNameLength  int
	maxImportNodes int
	maxImportEdges int
}

// NewGraphValidator creates a validator from the domain configuration.
func NewGraphValidator(cfg *config.DomainConfig) *GraphValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &GraphValidator{
		minNameLength:  cfg.MinNameLength,
		maxNameLength:  cfg.MaxNameLength,
		maxImportNodes: cfg.MaxImportNodes,
		maxImportEdges: cfg.MaxImportEdges,
	}
}

// ValidateNode checks the display name; kind and visibility are enforced by the entity.
func (v *GraphValidator) ValidateNode(node *entities.Node) error {
	if node == nil {
		return pkgerrors.NewValidationError("node is required")
	}
	length := utf8.RuneCountInString(strings.TrimSpace(node.Name()))
	if length < v.minNameLength {
		return pkgerrors.NewValidationError(fmt.Sprintf("name must be at least %d characters", v.minNameLength)).
			WithDetails(map[string]interface{}{"node_id": node.ID().String()})
	}
	if length > v.maxNameLength {
		return pkgerrors.NewValidationError(fmt.Sprintf("name must be at most %d characters", v.maxNameLength)).
			WithDetails(map[string]interface{}{"node_id": node.ID().String()})
	}
	return nil
}

// ValidateEdge checks that the edge joins the two given nodes and that
// dated relationships only link kinds that can carry dates.
func (v *GraphValidator) ValidateEdge(edge *entities.Edge, source, target *entities.Node) error {
	if edge == nil {
		return pkgerrors.NewValidationError("edge is required")
	}
	if source == nil || target == nil {
		return pkgerrors.NewNotFoundError("edge endpoint").
			WithDetails(map[string]interface{}{"edge_id": edge.ID().String()})
	}
	if !edge.SourceID().Equals(source.ID()) || !edge.TargetID().Equals(target.ID()) {
		return pkgerrors.NewValidationError("edge endpoints do not match the given nodes")
	}
	if edge.Kind() == entities.EdgeKindFamily && (!source.IsPerson() || !target.IsPerson()) {
		return pkgerrors.NewValidationError("family edges must link two people").
			WithDetails(map[string]interface{}{"edge_id": edge.ID().String()})
	}
	return nil
}

// ValidateImportSize rejects imports larger than the configured limits.
func (v *GraphValidator) ValidateImportSize(nodes, edges int) error {
	if nodes > v.maxImportNodes {
		return pkgerrors.NewValidationError(fmt.Sprintf("import has %d nodes, limit is %d", nodes, v.maxImportNodes))
	}
	if edges > v.maxImportEdges {
		return pkgerrors.NewValidationError(fmt.Sprintf("import has %d edges, limit is %d", edges, v.maxImportEdges))
	}
	return nil
}
