package neo4j

import (
	"fmt"
	"time"

	"degrees/domain/core/entities"
	"degrees/domain/core/valueobjects"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func nodeFromRecord(record *neo4j.Record) (*entities.Node, error) {
	values, err := stringValues(record, "id", "kind", "visibility", "name")
	if err != nil {
		return nil, err
	}
	id, err := valueobjects.NewNodeIDFromString(values[0])
	if err != nil {
		return nil, err
	}
	createdAt, _ := optionalTime(record, "created_at", time.RFC3339Nano)

	return entities.ReconstructNode(
		id,
		entities.NodeKind(values[1]),
		entities.Visibility(values[2]),
		values[3],
		createdAt,
	), nil
}

func neighborFromRecord(record *neo4j.Record) (entities.Neighbor, error) {
	node, err := nodeFromRecord(record)
	if err != nil {
		return entities.Neighbor{}, err
	}

	values, err := stringValues(record, "edge_id", "source_id", "target_id", "edge_kind")
	if err != nil {
		return entities.Neighbor{}, err
	}
	edgeID, err := valueobjects.NewEdgeIDFromString(values[0])
	if err != nil {
		return entities.Neighbor{}, err
	}
	source, err := valueobjects.NewNodeIDFromString(values[1])
	if err != nil {
		return entities.Neighbor{}, err
	}
	target, err := valueobjects.NewNodeIDFromString(values[2])
	if err != nil {
		return entities.Neighbor{}, err
	}

	var period *entities.Period
	start, hasStart := optionalTime(record, "starts_on", time.RFC3339)
	end, hasEnd := optionalTime(record, "ends_on", time.RFC3339)
	if hasStart || hasEnd {
		period = &entities.Period{Start: start, End: end}
	}

	edge := entities.ReconstructEdge(edgeID, source, target, entities.EdgeKind(values[3]), period)
	return entities.Neighbor{Edge: edge, Node: node}, nil
}

func stringValues(record *neo4j.Record, keys ...string) ([]string, error) {
	out := make([]string, len(keys))
	for i, key := range keys {
		v, isNil, err := neo4j.GetRecordValue[string](record, key)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", key, err)
		}
		if isNil {
			return nil, fmt.Errorf("reading %s: null value", key)
		}
		out[i] = v
	}
	return out, nil
}

func optionalTime(record *neo4j.Record, key, layout string) (time.Time, bool) {
	v, isNil, err := neo4j.GetRecordValue[string](record, key)
	if err != nil || isNil || v == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(layout, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
