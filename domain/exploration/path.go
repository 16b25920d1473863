package exploration

import (
	"fmt"

	"degrees/domain/core/entities"
	"degrees/domain/core/valueobjects"
)

// PathState is a loop-free walk through the graph: nodes[i] and nodes[i+1]
// are joined by edges[i]. Values are never mutated after construction.
type PathState struct {
	nodes []*entities.Node
	edges []*entities.Edge
}

// NewPathState starts a walk at a single node.
func NewPathState(start *entities.Node) PathState {
	return PathState{nodes: []*entities.Node{start}}
}

// Extend returns a new walk one edge longer. The receiver is left untouched,
// so sibling extensions never share backing arrays.
func (p PathState) Extend(edge *entities.Edge, next *entities.Node) PathState {
	nodes := make([]*entities.Node, len(p.nodes), len(p.nodes)+1)
	copy(nodes, p.nodes)
	edges := make([]*entities.Edge, len(p.edges), len(p.edges)+1)
	copy(edges, p.edges)
	return PathState{
		nodes: append(nodes, next),
		edges: append(edges, edge),
	}
}

// Degree is the number of edges walked.
func (p PathState) Degree() int { return len(p.edges) }

// Len is the number of nodes on the walk.
func (p PathState) Len() int { return len(p.nodes) }

// First returns the node the walk started from.
func (p PathState) First() *entities.Node { return p.nodes[0] }

// Last returns the node the walk currently stands on.
func (p PathState) Last() *entities.Node { return p.nodes[len(p.nodes)-1] }

// Nodes returns the walk's nodes. Callers must not modify the slice.
func (p PathState) Nodes() []*entities.Node { return p.nodes }

// Edges returns the walk's edges. Callers must not modify the slice.
func (p PathState) Edges() []*entities.Edge { return p.edges }

// Validate checks the structural invariants of a walk.
func (p PathState) Validate() error {
	if len(p.nodes) != len(p.edges)+1 {
		return fmt.Errorf("path has %d nodes for %d edges", len(p.nodes), len(p.edges))
	}
	seen := make(map[valueobjects.NodeID]struct{}, len(p.nodes))
	for i, node := range p.nodes {
		if _, dup := seen[node.ID()]; dup {
			return fmt.Errorf("node %s appears twice", node.ID())
		}
		seen[node.ID()] = struct{}{}
		if i == 0 {
			continue
		}
		if edge := p.edges[i-1]; !edge.Connects(p.nodes[i-1].ID(), node.ID()) {
			return fmt.Errorf("edge %s does not join %s and %s", edge.ID(), p.nodes[i-1].ID(), node.ID())
		}
	}
	return nil
}

// SearchStats describes how much work a search did before producing a result.
type SearchStats struct {
	Iterations int
	Visited    int
}

// Journey is a scored, completed path between a source and a target node.
type Journey struct {
	Source valueobjects.NodeID
	Target valueobjects.NodeID
	Nodes  []*entities.Node
	Edges  []*entities.Edge
	Degree int
	Score  int
	Stats  SearchStats
}

func newJourney(path PathState, score int, stats SearchStats) Journey {
	return Journey{
		Source: path.First().ID(),
		Target: path.Last().ID(),
		Nodes:  path.Nodes(),
		Edges:  path.Edges(),
		Degree: path.Degree(),
		Score:  score,
		Stats:  stats,
	}
}

// NodeCount is the number of nodes on the journey.
func (j Journey) NodeCount() int { return len(j.Nodes) }

// NodeIDs returns the ordered node identifiers.
func (j Journey) NodeIDs() []valueobjects.NodeID {
	ids := make([]valueobjects.NodeID, len(j.Nodes))
	for i, n := range j.Nodes {
		ids[i] = n.ID()
	}
	return ids
}

// EdgeIDs returns the ordered edge identifiers.
func (j Journey) EdgeIDs() []valueobjects.EdgeID {
	ids := make([]valueobjects.EdgeID, len(j.Edges))
	for i, e := range j.Edges {
		ids[i] = e.ID()
	}
	return ids
}

// Path rebuilds the walk the journey was made from.
func (j Journey) Path() PathState {
	return PathState{nodes: j.Nodes, edges: j.Edges}
}
