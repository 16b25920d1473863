package queries

import (
	"fmt"

	"degrees/domain/core/entities"
	"degrees/domain/exploration"
	pkgerrors "degrees/pkg/errors"
)

// MaxDiscoverLimit caps how many journeys one discovery may return.
const MaxDiscoverLimit = 50

// DiscoverJourneysQuery asks for up to Limit interesting journeys.
type DiscoverJourneysQuery struct {
	MinDegree int
	MaxDegree int
	Limit     int
	Scope     entities.Scope
}

func (q DiscoverJourneysQuery) Validate() error {
	if err := validateDegrees(q.MinDegree, q.MaxDegree); err != nil {
		return err
	}
	if q.Limit < 1 || q.Limit > MaxDiscoverLimit {
		return pkgerrors.NewValidationError(fmt.Sprintf("limit must be between 1 and %d, got %d", MaxDiscoverLimit, q.Limit))
	}
	return nil
}

// FindRandomJourneyQuery asks for the single best journey of one discovery.
type FindRandomJourneyQuery struct {
	MinDegree int
	MaxDegree int
	Scope     entities.Scope
}

func (q FindRandomJourneyQuery) Validate() error {
	return validateDegrees(q.MinDegree, q.MaxDegree)
}

// FindPathQuery asks for a path between two named nodes.
type FindPathQuery struct {
	Source    string
	Target    string
	MaxDegree int
	Randomize bool
	Mode      string
	Scope     entities.Scope
}

func (q FindPathQuery) Validate() error {
	if q.Source == "" || q.Target == "" {
		return pkgerrors.NewValidationError("source and target are required")
	}
	if _, err := exploration.ParsePathMode(q.Mode); err != nil {
		return err
	}
	return exploration.PathOptions{MaxDegree: q.MaxDegree, Mode: exploration.PathMode(q.Mode)}.Validate()
}

// GetNodeQuery fetches one node as the viewer sees it.
type GetNodeQuery struct {
	NodeID string
	Scope  entities.Scope
}

func (q GetNodeQuery) Validate() error {
	if q.NodeID == "" {
		return pkgerrors.NewValidationError("node ID is required")
	}
	return nil
}

func validateDegrees(minDegree, maxDegree int) error {
	switch {
	case minDegree < 0:
		return pkgerrors.NewValidationError(fmt.Sprintf("min degree cannot be negative, got %d", minDegree))
	case maxDegree < 1:
		return pkgerrors.NewValidationError(fmt.Sprintf("max degree must be at least 1, got %d", maxDegree))
	case minDegree > maxDegree:
		return pkgerrors.NewValidationError(fmt.Sprintf("min degree %d exceeds max degree %d", minDegree, maxDegree))
	}
	return nil
}

// StepView is one hop of a journey: the node reached and the edge taken to reach it.
// The first step has no edge.
type StepView struct {
	NodeID   string `json:"node_id"`
	NodeName string `json:"node_name"`
	NodeKind string `json:"node_kind"`
	EdgeID   string `json:"edge_id,omitempty"`
	EdgeKind string `json:"edge_kind,omitempty"`
}

// JourneyView is the wire form of a journey.
type JourneyView struct {
	Source     string     `json:"source"`
	Target     string     `json:"target"`
	Nodes      []string   `json:"nodes"`
	Edges      []string   `json:"edges"`
	Degree     int        `json:"degree"`
	Score      int        `json:"score"`
	Steps      []StepView `json:"steps"`
	Iterations int        `json:"iterations"`
}

// NewJourneyView flattens a journey for output.
func NewJourneyView(j exploration.Journey) JourneyView {
	nodes := make([]string, len(j.Nodes))
	steps := make([]StepView, len(j.Nodes))
	for i, n := range j.Nodes {
		nodes[i] = n.ID().String()
		steps[i] = StepView{
			NodeID:   n.ID().String(),
			NodeName: n.Name(),
			NodeKind: string(n.Kind()),
		}
		if i > 0 {
			steps[i].EdgeID = j.Edges[i-1].ID().String()
			steps[i].EdgeKind = string(j.Edges[i-1].Kind())
		}
	}
	edges := make([]string, len(j.Edges))
	for i, e := range j.Edges {
		edges[i] = e.ID().String()
	}

	return JourneyView{
		Source:     j.Source.String(),
		Target:     j.Target.String(),
		Nodes:      nodes,
		Edges:      edges,
		Degree:     j.Degree,
		Score:      j.Score,
		Steps:      steps,
		Iterations: j.Stats.Iterations,
	}
}

// DiscoverJourneysResult holds journeys best first.
type DiscoverJourneysResult struct {
	Journeys []JourneyView `json:"journeys"`
}

// JourneyResult holds at most one journey; a nil Journey means none was found.
type JourneyResult struct {
	Journey *JourneyView `json:"journey"`
}

// NodeView is the wire form of a node.
type NodeView struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Visibility string `json:"visibility"`
	Name       string `json:"name"`
}

// NewNodeView converts a node for output.
func NewNodeView(n *entities.Node) NodeView {
	return NodeView{
		ID:         n.ID().String(),
		Kind:       string(n.Kind()),
		Visibility: string(n.Visibility()),
		Name:       n.Name(),
	}
}
