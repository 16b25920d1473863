package dynamodb

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"degrees/domain/core/entities"
	"degrees/domain/core/valueobjects"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Single-table layout:
//
//	NODE#<id>            METADATA       the node itself, indexed on GSI1 by kind and tier
//	NODE#<id>            EDGE#<edgeID>  one adjacency item per endpoint of every edge
//	EDGE#<edgeID>        METADATA       the edge, used to find stale items on replacement
//	PAIR#<a>|<b>|<kind>  PAIR           uniqueness guard for the unordered pair
const (
	skMetadata = "METADATA"
	skPair     = "PAIR"
	gsi1Name   = "GSI1"

	entityNode      = "NODE"
	entityEdge      = "EDGE"
	entityAdjacency = "ADJACENCY"
	entityPair      = "PAIR"
)

func nodePK(id string) string { return "NODE#" + id }
func edgePK(id string) string { return "EDGE#" + id }
func adjacencySK(edgeID string) string { return "EDGE#" + edgeID }

func kindIndexKey(kind entities.NodeKind, vis entities.Visibility) string {
	return fmt.Sprintf("KIND#%s#VIS#%s", kind, vis)
}

func pairPK(a, b string, kind entities.EdgeKind) string {
	ends := []string{a, b}
	sort.Strings(ends)
	return "PAIR#" + strings.Join(ends, "|") + "|" + string(kind)
}

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

type nodeItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"EntityType"`
	NodeID     string `dynamodbav:"NodeID"`
	Kind       string `dynamodbav:"Kind"`
	Visibility string `dynamodbav:"Visibility"`
	Name       string `dynamodbav:"Name"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

func toNodeItem(node *entities.Node) nodeItem {
	id := node.ID().String()
	return nodeItem{
		PK:         nodePK(id),
		SK:         skMetadata,
		GSI1PK:     kindIndexKey(node.Kind(), node.Visibility()),
		GSI1SK:     id,
		EntityType: entityNode,
		NodeID:     id,
		Kind:       string(node.Kind()),
		Visibility: string(node.Visibility()),
		Name:       node.Name(),
		CreatedAt:  node.CreatedAt().UTC().Format(time.RFC3339Nano),
	}
}

func (it nodeItem) toNode() (*entities.Node, error) {
	id, err := valueobjects.NewNodeIDFromString(it.NodeID)
	if err != nil {
		return nil, err
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, it.CreatedAt)
	return entities.ReconstructNode(
		id,
		entities.NodeKind(it.Kind),
		entities.Visibility(it.Visibility),
		it.Name,
		createdAt,
	), nil
}

// edgeItem is stored once as EDGE#id/METADATA and once per endpoint as an
// adjacency item, where OtherID names the far side.
type edgeItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	EdgeID     string `dynamodbav:"EdgeID"`
	SourceID   string `dynamodbav:"SourceID"`
	TargetID   string `dynamodbav:"TargetID"`
	OtherID    string `dynamodbav:"OtherID,omitempty"`
	Kind       string `dynamodbav:"Kind"`
	StartsOn   string `dynamodbav:"StartsOn,omitempty"`
	EndsOn     string `dynamodbav:"EndsOn,omitempty"`
}

func toEdgeItems(edge *entities.Edge) (meta, fromSource, fromTarget edgeItem) {
	source, target := edge.SourceID().String(), edge.TargetID().String()
	meta = edgeItem{
		PK:         edgePK(edge.ID().String()),
		SK:         skMetadata,
		EntityType: entityEdge,
		EdgeID:     edge.ID().String(),
		SourceID:   source,
		TargetID:   target,
		Kind:       string(edge.Kind()),
	}
	if p := edge.Period(); p != nil {
		meta.StartsOn = formatDate(p.Start)
		meta.EndsOn = formatDate(p.End)
	}

	fromSource = meta
	fromSource.PK, fromSource.SK = nodePK(source), adjacencySK(meta.EdgeID)
	fromSource.EntityType, fromSource.OtherID = entityAdjacency, target

	fromTarget = fromSource
	fromTarget.PK, fromTarget.OtherID = nodePK(target), source
	return meta, fromSource, fromTarget
}

func (it edgeItem) toEdge() (*entities.Edge, error) {
	id, err := valueobjects.NewEdgeIDFromString(it.EdgeID)
	if err != nil {
		return nil, err
	}
	source, err := valueobjects.NewNodeIDFromString(it.SourceID)
	if err != nil {
		return nil, err
	}
	target, err := valueobjects.NewNodeIDFromString(it.TargetID)
	if err != nil {
		return nil, err
	}

	var period *entities.Period
	if it.StartsOn != "" || it.EndsOn != "" {
		period = &entities.Period{Start: parseDate(it.StartsOn), End: parseDate(it.EndsOn)}
	}
	return entities.ReconstructEdge(id, source, target, entities.EdgeKind(it.Kind), period), nil
}

type pairItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	EdgeID     string `dynamodbav:"EdgeID"`
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func marshal(v any) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item: %w", err)
	}
	return av, nil
}
