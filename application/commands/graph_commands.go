package commands

import (
	"fmt"
	"strings"
	"time"

	"degrees/domain/core/entities"
	"degrees/domain/core/valueobjects"
	pkgerrors "degrees/pkg/errors"
	"degrees/pkg/utils"
)

// CreateNodeCommand creates or replaces a node.
type CreateNodeCommand struct {
	NodeID     string `json:"id" yaml:"id" validate:"required,max=128"`
	Kind       string `json:"kind" yaml:"kind" validate:"required"`
	Visibility string `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	Name       string `json:"name" yaml:"name" validate:"required,max=300"`
}

func (c CreateNodeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ToNode builds the entity the command describes.
func (c CreateNodeCommand) ToNode() (*entities.Node, error) {
	id, err := valueobjects.NewNodeIDFromString(c.NodeID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	kind, err := entities.ParseNodeKind(c.Kind)
	if err != nil {
		return nil, err
	}
	visibility, err := entities.ParseVisibility(c.Visibility)
	if err != nil {
		return nil, err
	}
	return entities.NewNode(id, kind, visibility, c.Name)
}

// CreateEdgeCommand creates or replaces an edge. Start and End accept
// "2006", "2006-01", "2006-01-02" or RFC 3339.
type CreateEdgeCommand struct {
	EdgeID string `json:"id,omitempty" yaml:"id,omitempty" validate:"omitempty,max=128"`
	Source string `json:"source" yaml:"source" validate:"required,max=128"`
	Target string `json:"target" yaml:"target" validate:"required,max=128,nefield=Source"`
	Kind   string `json:"kind" yaml:"kind" validate:"required"`
	Start  string `json:"start,omitempty" yaml:"start,omitempty"`
	End    string `json:"end,omitempty" yaml:"end,omitempty"`
}

func (c CreateEdgeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ID returns the explicit edge id, or "source-target-kind" when none was given.
func (c CreateEdgeCommand) ID() string {
	if c.EdgeID != "" {
		return c.EdgeID
	}
	return fmt.Sprintf("%s-%s-%s", c.Source, c.Target, strings.ToLower(c.Kind))
}

// ToEdge builds the entity the command describes.
func (c CreateEdgeCommand) ToEdge() (*entities.Edge, error) {
	id, err := valueobjects.NewEdgeIDFromString(c.ID())
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	source, err := valueobjects.NewNodeIDFromString(c.Source)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	target, err := valueobjects.NewNodeIDFromString(c.Target)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	kind, err := entities.ParseEdgeKind(c.Kind)
	if err != nil {
		return nil, err
	}

	start, err := ParseDate(c.Start)
	if err != nil {
		return nil, err
	}
	end, err := ParseDate(c.End)
	if err != nil {
		return nil, err
	}
	return entities.NewEdge(id, source, target, kind, &entities.Period{Start: start, End: end})
}

// ImportGraphCommand loads a whole fixture: every node, then every edge.
type ImportGraphCommand struct {
	Nodes []CreateNodeCommand `json:"nodes" yaml:"nodes" validate:"dive"`
	Edges []CreateEdgeCommand `json:"edges" yaml:"edges" validate:"dive"`
}

func (c ImportGraphCommand) Validate() error {
	if len(c.Nodes) == 0 && len(c.Edges) == 0 {
		return pkgerrors.NewValidationError("import contains no nodes or edges")
	}
	return utils.ValidateStruct(c)
}

var dateLayouts = []string{time.RFC3339, "2006-01-02", "2006-01", "2006"}

// ParseDate reads a full or partial date. The empty string gives the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, pkgerrors.NewValidationError(fmt.Sprintf("invalid date %q", s))
}
