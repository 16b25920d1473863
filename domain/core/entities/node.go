package entities

import (
	"fmt"
	"strings"
	"time"

	"degrees/domain/core/valueobjects"
	pkgerrors "degrees/pkg/errors"
)

// NodeKind classifies the entity a node stands for.
type NodeKind string

const (
	NodeKindPerson       NodeKind = "person"
	NodeKindPlace        NodeKind = "place"
	NodeKindOrganisation NodeKind = "organisation"
	NodeKindEvent        NodeKind = "event"
	NodeKindWork         NodeKind = "work"
)

// NodeKinds lists every known kind in a stable order.
func NodeKinds() []NodeKind {
	return []NodeKind{NodeKindPerson, NodeKindPlace, NodeKindOrganisation, NodeKindEvent, NodeKindWork}
}

// Valid reports whether k is one of the known kinds.
func (k NodeKind) Valid() bool {
	switch k {
	case NodeKindPerson, NodeKindPlace, NodeKindOrganisation, NodeKindEvent, NodeKindWork:
		return true
	}
	return false
}

// ParseNodeKind accepts the canonical form plus the American spelling of organisation.
func ParseNodeKind(s string) (NodeKind, error) {
	k := NodeKind(strings.ToLower(strings.TrimSpace(s)))
	if k == "organization" {
		k = NodeKindOrganisation
	}
	if !k.Valid() {
		return "", pkgerrors.NewValidationError(fmt.Sprintf("unknown node kind %q", s))
	}
	return k, nil
}

// Visibility is the access tier of a node.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityMembers Visibility = "members"
	VisibilityPrivate Visibility = "private"
)

// Visibilities lists every tier from most to least open.
func Visibilities() []Visibility {
	return []Visibility{VisibilityPublic, VisibilityMembers, VisibilityPrivate}
}

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityMembers, VisibilityPrivate:
		return true
	}
	return false
}

// ParseVisibility parses a tier name; the empty string means public.
func ParseVisibility(s string) (Visibility, error) {
	v := Visibility(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return VisibilityPublic, nil
	}
	if !v.Valid() {
		return "", pkgerrors.NewValidationError(fmt.Sprintf("unknown visibility %q", s))
	}
	return v, nil
}

// Node is an entity of the biographical graph.
// Nodes are read-only once built; searches treat them as snapshots.
type Node struct {
	id         valueobjects.NodeID
	kind       NodeKind
	visibility Visibility
	name       string
	createdAt  time.Time
}

// NewNode creates a node after checking kind, visibility and name.
func NewNode(id valueobjects.NodeID, kind NodeKind, visibility Visibility, name string) (*Node, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("node id cannot be empty")
	}
	if !kind.Valid() {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("unknown node kind %q", kind))
	}
	if !visibility.Valid() {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("unknown visibility %q", visibility))
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.NewValidationError("node name cannot be empty")
	}

	return &Node{
		id:         id,
		kind:       kind,
		visibility: visibility,
		name:       name,
		createdAt:  time.Now().UTC(),
	}, nil
}

// ReconstructNode rebuilds a node loaded from a store without re-validating it.
func ReconstructNode(id valueobjects.NodeID, kind NodeKind, visibility Visibility, name string, createdAt time.Time) *Node {
	return &Node{
		id:         id,
		kind:       kind,
		visibility: visibility,
		name:       name,
		createdAt:  createdAt,
	}
}

func (n *Node) ID() valueobjects.NodeID { return n.id }
func (n *Node) Kind() NodeKind { return n.kind }
func (n *Node) Visibility() Visibility { return n.visibility }
func (n *Node) Name() string { return n.name }
func (n *Node) CreatedAt() time.Time { return n.createdAt }
func (n *Node) IsPerson() bool { return n.kind == NodeKindPerson }
func (n *Node) IsPublic() bool { return n.visibility == VisibilityPublic }

// String renders the node for logs.
func (n *Node) String() string {
	return fmt.Sprintf("%s(%s %q)", n.id, n.kind, n.name)
}

// Scope is the set of access tiers a viewer may see.
type Scope []Visibility

// PublicScope is what anonymous viewers see.
func PublicScope() Scope { return Scope{VisibilityPublic} }

// MembersScope is what signed-in members see.
func MembersScope() Scope { return Scope{VisibilityPublic, VisibilityMembers} }

// FullScope sees every tier.
func FullScope() Scope { return Scope(Visibilities()) }

// Allows reports whether nodes of tier v are visible within the scope.
func (s Scope) Allows(v Visibility) bool {
	for _, allowed := range s {
		if allowed == v {
			return true
		}
	}
	return false
}

// Sees reports whether node is visible within the scope.
func (s Scope) Sees(node *Node) bool {
	return node != nil && s.Allows(node.Visibility())
}

// Strings returns the tiers as plain strings, for store queries.
func (s Scope) Strings() []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = string(v)
	}
	return out
}
