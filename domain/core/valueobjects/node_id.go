package valueobjects

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// maxIDLength bounds identifiers coming from imports and HTTP input.
const maxIDLength = 128

// NodeID is a value object representing a stable node identifier.
// Identifiers are opaque: imported graphs keep their own keys, new nodes get a UUID.
type NodeID struct {
	value string
}

// NewNodeID creates a new random NodeID
func NewNodeID() NodeID {
	return NodeID{value: uuid.New().String()}
}

// NewNodeIDFromString creates a NodeID from an existing string
func NewNodeIDFromString(id string) (NodeID, error) {
	value, err := parseID("node", id)
	if err != nil {
		return NodeID{}, err
	}
	return NodeID{value: value}, nil
}

// MustNodeID is NewNodeIDFromString for fixtures and constants.
func MustNodeID(id string) NodeID {
	nodeID, err := NewNodeIDFromString(id)
	if err != nil {
		panic(err)
	}
	return nodeID
}

// String returns the string representation of the NodeID
func (id NodeID) String() string {
	return id.value
}

// Equals checks if two NodeIDs are equal
func (id NodeID) Equals(other NodeID) bool {
	return id.value == other.value
}

// IsZero checks if the NodeID is the zero value
func (id NodeID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id NodeID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (id *NodeID) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.New("NodeID must be a string")
	}
	if raw == nil {
		return nil
	}
	id.value = *raw
	return nil
}

// EdgeID identifies a relationship between two nodes.
type EdgeID struct {
	value string
}

// NewEdgeID creates a new random EdgeID
func NewEdgeID() EdgeID {
	return EdgeID{value: uuid.New().String()}
}

// NewEdgeIDFromString creates an EdgeID from an existing string
func NewEdgeIDFromString(id string) (EdgeID, error) {
	value, err := parseID("edge", id)
	if err != nil {
		return EdgeID{}, err
	}
	return EdgeID{value: value}, nil
}

// MustEdgeID is NewEdgeIDFromString for fixtures and constants.
func MustEdgeID(id string) EdgeID {
	edgeID, err := NewEdgeIDFromString(id)
	if err != nil {
		panic(err)
	}
	return edgeID
}

func (id EdgeID) String() string {
	return id.value
}

func (id EdgeID) Equals(other EdgeID) bool {
	return id.value == other.value
}

func (id EdgeID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id EdgeID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (id *EdgeID) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.New("EdgeID must be a string")
	}
	if raw == nil {
		return nil
	}
	id.value = *raw
	return nil
}

func parseID(kind, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.New(kind + " ID cannot be empty")
	}
	if len(id) > maxIDLength {
		return "", errors.New(kind + " ID is too long")
	}
	if strings.ContainsAny(id, "#|\n\t") {
		return "", errors.New(kind + " ID contains reserved characters")
	}
	return id, nil
}
