package exploration

import "degrees/domain/core/entities"

const (
	pointsPerEdge        = 15
	pointsPerEdgeKind    = 20
	pointsPerNodeKind    = 15
	pointsPerNotableEdge = 10
	shortPathPenalty     = 5
)

// Score rates how interesting a path is. It is a pure function of the path:
// longer and more varied chains score higher, direct links are penalised.
func Score(path PathState) int {
	edges := path.Edges()
	nodes := path.Nodes()

	edgeKinds := make(map[entities.EdgeKind]struct{}, len(edges))
	notable := 0
	for _, e := range edges {
		edgeKinds[e.Kind()] = struct{}{}
		if e.Kind().IsNotable() {
			notable++
		}
	}
	nodeKinds := make(map[entities.NodeKind]struct{}, len(nodes))
	for _, n := range nodes {
		nodeKinds[n.Kind()] = struct{}{}
	}

	score := pointsPerEdge*len(edges) +
		pointsPerEdgeKind*len(edgeKinds) +
		pointsPerNodeKind*len(nodeKinds) +
		lengthBonus(len(nodes)) +
		pointsPerNotableEdge*notable
	if len(nodes) <= 2 {
		score -= shortPathPenalty
	}
	return max(score, 0)
}

func lengthBonus(nodeCount int) int {
	switch {
	case nodeCount >= 5:
		return 50
	case nodeCount >= 4:
		return 30
	case nodeCount >= 3:
		return 15
	}
	return 0
}

// Acceptance is the filter a journey must pass to be returned by discovery.
type Acceptance struct {
	MinScore int
	MaxNodes int
}

// DefaultAcceptance requires a score of 20 and at most 10 nodes.
func DefaultAcceptance() Acceptance {
	return Acceptance{MinScore: 20, MaxNodes: 10}
}

// Accepts reports whether j is long enough, scores enough and is not overlong.
func (a Acceptance) Accepts(j Journey, minDegree int) bool {
	return j.Degree >= minDegree && j.Score >= a.MinScore && j.NodeCount() <= a.MaxNodes
}

// IsAcceptable applies the default acceptance filter.
func IsAcceptable(j Journey, minDegree int) bool {
	return DefaultAcceptance().Accepts(j, minDegree)
}
