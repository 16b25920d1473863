package aggregates

import (
	"errors"
	"sort"

	"degrees/domain/core/entities"
	"degrees/domain/core/valueobjects"
)

var (
	ErrNodeNotFound  = errors.New("node not found")
	ErrMissingNode   = errors.New("both nodes must exist in graph")
	ErrDuplicateEdge = errors.New("edge already exists")
	ErrNilNode       = errors.New("node cannot be nil")
	ErrNilEdge       = errors.New("edge cannot be nil")
	ErrNoPath        = errors.New("no path exists between nodes")
)

// Graph is an in-memory adjacency view of the entity graph.
// It is not safe for concurrent mutation; stores guard it with a lock.
type Graph struct {
	nodes     map[valueobjects.NodeID]*entities.Node
	edges     map[valueobjects.EdgeID]*entities.Edge
	adjacency map[valueobjects.NodeID][]valueobjects.EdgeID
	pairs     map[string]valueobjects.EdgeID

	allowDuplicates bool
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:     make(map[valueobjects.NodeID]*entities.Node),
		edges:     make(map[valueobjects.EdgeID]*entities.Edge),
		adjacency: make(map[valueobjects.NodeID][]valueobjects.EdgeID),
		pairs:     make(map[string]valueobjects.EdgeID),
	}
}

// AllowDuplicateEdges lets the same pair be linked twice with the same kind.
func (g *Graph) AllowDuplicateEdges(allow bool) {
	g.allowDuplicates = allow
}

// AddNode inserts a node or replaces the snapshot stored under its id.
func (g *Graph) AddNode(node *entities.Node) error {
	if node == nil {
		return ErrNilNode
	}
	g.nodes[node.ID()] = node
	return nil
}

// AddEdge links two existing nodes. Re-adding an edge id replaces it.
func (g *Graph) AddEdge(edge *entities.Edge) error {
	if edge == nil {
		return ErrNilEdge
	}
	if !g.HasNode(edge.SourceID()) || !g.HasNode(edge.TargetID()) {
		return ErrMissingNode
	}

	key := pairKey(edge)
	if existing, ok := g.pairs[key]; ok && !existing.Equals(edge.ID()) && !g.allowDuplicates {
		return ErrDuplicateEdge
	}

	if old, ok := g.edges[edge.ID()]; ok {
		g.detach(old)
	}

	g.edges[edge.ID()] = edge
	g.pairs[key] = edge.ID()
	g.adjacency[edge.SourceID()] = append(g.adjacency[edge.SourceID()], edge.ID())
	g.adjacency[edge.TargetID()] = append(g.adjacency[edge.TargetID()], edge.ID())
	return nil
}

func (g *Graph) detach(edge *entities.Edge) {
	delete(g.pairs, pairKey(edge))
	for _, id := range []valueobjects.NodeID{edge.SourceID(), edge.TargetID()} {
		ids := g.adjacency[id]
		kept := ids[:0]
		for _, eid := range ids {
			if !eid.Equals(edge.ID()) {
				kept = append(kept, eid)
			}
		}
		g.adjacency[id] = kept
	}
}

// GetNode returns the node stored under id.
func (g *Graph) GetNode(nodeID valueobjects.NodeID) (*entities.Node, error) {
	node, ok := g.nodes[nodeID]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return node, nil
}

// HasNode checks if a node exists in the graph
func (g *Graph) HasNode(nodeID valueobjects.NodeID) bool {
	_, ok := g.nodes[nodeID]
	return ok
}

// GetEdge returns the edge stored under id, if any.
func (g *Graph) GetEdge(edgeID valueobjects.EdgeID) (*entities.Edge, bool) {
	edge, ok := g.edges[edgeID]
	return edge, ok
}

// Neighbors returns every edge touching nodeID, in insertion order, with the far node.
// Nodes rejected by keep are left out; a nil keep accepts everything.
func (g *Graph) Neighbors(nodeID valueobjects.NodeID, keep func(*entities.Node) bool) []entities.Neighbor {
	ids := g.adjacency[nodeID]
	out := make([]entities.Neighbor, 0, len(ids))
	for _, eid := range ids {
		edge := g.edges[eid]
		otherID, ok := edge.Other(nodeID)
		if !ok {
			continue
		}
		other := g.nodes[otherID]
		if other == nil || (keep != nil && !keep(other)) {
			continue
		}
		out = append(out, entities.Neighbor{Edge: edge, Node: other})
	}
	return out
}

// NodesMatching returns the nodes accepted by keep, ordered by id.
func (g *Graph) NodesMatching(keep func(*entities.Node) bool) []*entities.Node {
	out := make([]*entities.Node, 0)
	for _, node := range g.nodes {
		if keep == nil || keep(node) {
			out = append(out, node)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID().String() < out[j].ID().String() })
	return out
}

// GetNodes returns all nodes ordered by id.
func (g *Graph) GetNodes() []*entities.Node {
	return g.NodesMatching(nil)
}

// GetEdges returns all edges ordered by id.
func (g *Graph) GetEdges() []*entities.Edge {
	out := make([]*entities.Edge, 0, len(g.edges))
	for _, edge := range g.edges {
		out = append(out, edge)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID().String() < out[j].ID().String() })
	return out
}

func (g *Graph) NodeCount() int { return len(g.nodes) }
func (g *Graph) EdgeCount() int { return len(g.edges) }

// FindPath returns the node ids of a shortest undirected path between two nodes.
func (g *Graph) FindPath(startID, endID valueobjects.NodeID) ([]valueobjects.NodeID, error) {
	if !g.HasNode(startID) || !g.HasNode(endID) {
		return nil, ErrNodeNotFound
	}
	if startID.Equals(endID) {
		return []valueobjects.NodeID{startID}, nil
	}

	visited := map[valueobjects.NodeID]bool{startID: true}
	parent := make(map[valueobjects.NodeID]valueobjects.NodeID)
	queue := []valueobjects.NodeID{startID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, n := range g.Neighbors(current, nil) {
			next := n.Node.ID()
			if visited[next] {
				continue
			}
			visited[next] = true
			parent[next] = current
			if next.Equals(endID) {
				path := []valueobjects.NodeID{endID}
				for cur := endID; !cur.Equals(startID); {
					cur = parent[cur]
					path = append([]valueobjects.NodeID{cur}, path...)
				}
				return path, nil
			}
			queue = append(queue, next)
		}
	}

	return nil, ErrNoPath
}

// Distance is the edge count of a shortest path, or -1 when none exists.
func (g *Graph) Distance(startID, endID valueobjects.NodeID) int {
	path, err := g.FindPath(startID, endID)
	if err != nil {
		return -1
	}
	return len(path) - 1
}

// Validate checks the adjacency index against the edge set.
func (g *Graph) Validate() error {
	for _, edge := range g.edges {
		if !g.HasNode(edge.SourceID()) {
			return errors.New("edge references non-existent source node")
		}
		if !g.HasNode(edge.TargetID()) {
			return errors.New("edge references non-existent target node")
		}
	}
	refs := 0
	for _, ids := range g.adjacency {
		refs += len(ids)
	}
	if refs != 2*len(g.edges) {
		return errors.New("adjacency index out of sync with edges")
	}
	return nil
}

func pairKey(edge *entities.Edge) string {
	a, b := edge.SourceID().String(), edge.TargetID().String()
	if b < a {
		a, b = b, a
	}
	return a + "|" + b + "|" + string(edge.Kind())
}
