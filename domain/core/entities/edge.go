package entities

import (
	"fmt"
	"strings"
	"time"

	"degrees/domain/core/valueobjects"
	pkgerrors "degrees/pkg/errors"
)

// EdgeKind is the type of relationship an edge records.
type EdgeKind string

const (
	EdgeKindEmployment   EdgeKind = "employment"
	EdgeKindEducation    EdgeKind = "education"
	EdgeKindResidence    EdgeKind = "residence"
	EdgeKindFamily       EdgeKind = "family"
	EdgeKindMembership   EdgeKind = "membership"
	EdgeKindCreated      EdgeKind = "created"
	EdgeKindRelationship EdgeKind = "relationship"
	EdgeKindFeatures     EdgeKind = "features"
	EdgeKindLocated      EdgeKind = "located"
	EdgeKindMemberOf     EdgeKind = "member_of"
	EdgeKindSubjectOf    EdgeKind = "subject_of"
	EdgeKindAssociated   EdgeKind = "associated"
)

// EdgeKinds lists every known kind in a stable order.
func EdgeKinds() []EdgeKind {
	return []EdgeKind{
		EdgeKindEmployment, EdgeKindEducation, EdgeKindResidence, EdgeKindFamily,
		EdgeKindMembership, EdgeKindCreated, EdgeKindRelationship, EdgeKindFeatures,
		EdgeKindLocated, EdgeKindMemberOf, EdgeKindSubjectOf, EdgeKindAssociated,
	}
}

func (k EdgeKind) Valid() bool {
	switch k {
	case EdgeKindEmployment, EdgeKindEducation, EdgeKindResidence, EdgeKindFamily,
		EdgeKindMembership, EdgeKindCreated, EdgeKindRelationship, EdgeKindFeatures,
		EdgeKindLocated, EdgeKindMemberOf, EdgeKindSubjectOf, EdgeKindAssociated:
		return true
	}
	return false
}

// IsNotable reports whether the relationship earns the journey scoring bonus.
func (k EdgeKind) IsNotable() bool {
	switch k {
	case EdgeKindCreated, EdgeKindFeatures, EdgeKindLocated, EdgeKindResidence,
		EdgeKindMemberOf, EdgeKindSubjectOf:
		return true
	case EdgeKindEmployment, EdgeKindEducation, EdgeKindFamily, EdgeKindMembership,
		EdgeKindRelationship, EdgeKindAssociated:
		return false
	}
	return false
}

// ParseEdgeKind parses a kind name, accepting dashes and spaces for underscores.
func ParseEdgeKind(s string) (EdgeKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	k := EdgeKind(normalized)
	if !k.Valid() {
		return "", pkgerrors.NewValidationError(fmt.Sprintf("unknown edge kind %q", s))
	}
	return k, nil
}

// Period is an optional date range attached to a relationship.
// Either bound may be zero when unknown.
type Period struct {
	Start time.Time `json:"start,omitempty" yaml:"start,omitempty"`
	End   time.Time `json:"end,omitempty" yaml:"end,omitempty"`
}

// IsZero reports whether neither bound is known.
func (p Period) IsZero() bool {
	return p.Start.IsZero() && p.End.IsZero()
}

// Validate rejects ranges that end before they start.
func (p Period) Validate() error {
	if !p.Start.IsZero() && !p.End.IsZero() && p.End.Before(p.Start) {
		return pkgerrors.NewValidationError("period ends before it starts")
	}
	return nil
}

// Edge is a typed relationship between two nodes.
// It is stored from source to target but traversed in both directions.
type Edge struct {
	id       valueobjects.EdgeID
	sourceID valueobjects.NodeID
	targetID valueobjects.NodeID
	kind     EdgeKind
	period   *Period
}

// NewEdge creates an edge. Self-loops are rejected.
func NewEdge(id valueobjects.EdgeID, sourceID, targetID valueobjects.NodeID, kind EdgeKind, period *Period) (*Edge, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("edge id cannot be empty")
	}
	if sourceID.IsZero() || targetID.IsZero() {
		return nil, pkgerrors.NewValidationError("edge endpoints cannot be empty")
	}
	if sourceID.Equals(targetID) {
		return nil, pkgerrors.NewValidationError("edge cannot connect a node to itself")
	}
	if !kind.Valid() {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("unknown edge kind %q", kind))
	}
	if period != nil {
		if err := period.Validate(); err != nil {
			return nil, err
		}
		if period.IsZero() {
			period = nil
		}
	}

	return &Edge{id: id, sourceID: sourceID, targetID: targetID, kind: kind, period: period}, nil
}

// ReconstructEdge rebuilds an edge loaded from a store.
func ReconstructEdge(id valueobjects.EdgeID, sourceID, targetID valueobjects.NodeID, kind EdgeKind, period *Period) *Edge {
	if period != nil && period.IsZero() {
		period = nil
	}
	return &Edge{id: id, sourceID: sourceID, targetID: targetID, kind: kind, period: period}
}

func (e *Edge) ID() valueobjects.EdgeID { return e.id }
func (e *Edge) SourceID() valueobjects.NodeID { return e.sourceID }
func (e *Edge) TargetID() valueobjects.NodeID { return e.targetID }
func (e *Edge) Kind() EdgeKind { return e.kind }

// Period returns a copy of the temporal range, or nil.
func (e *Edge) Period() *Period {
	if e.period == nil {
		return nil
	}
	p := *e.period
	return &p
}

// Touches reports whether id is one of the endpoints.
func (e *Edge) Touches(id valueobjects.NodeID) bool {
	return e.sourceID.Equals(id) || e.targetID.Equals(id)
}

// Other returns the endpoint opposite to id.
func (e *Edge) Other(id valueobjects.NodeID) (valueobjects.NodeID, bool) {
	switch {
	case e.sourceID.Equals(id):
		return e.targetID, true
	case e.targetID.Equals(id):
		return e.sourceID, true
	}
	return valueobjects.NodeID{}, false
}

// Connects reports whether the edge joins a and b in either direction.
func (e *Edge) Connects(a, b valueobjects.NodeID) bool {
	return (e.sourceID.Equals(a) && e.targetID.Equals(b)) ||
		(e.sourceID.Equals(b) && e.targetID.Equals(a))
}

// Neighbor pairs an incident edge with the node on its far side.
type Neighbor struct {
	Edge *Edge
	Node *Node
}
