package seed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	pkgerrors "degrees/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lovelaceYAML = `
nodes:
  - id: ada
    kind: person
    name: Ada Lovelace
  - id: babbage
    kind: person
    name: Charles Babbage
    visibility: members
edges:
  - source: ada
    target: babbage
    kind: relationship
    start: "1833"
`

func TestParse_YAML(t *testing.T) {
	doc, err := Parse(strings.NewReader(lovelaceYAML))
	require.NoError(t, err)

	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, "members", doc.Nodes[1].Visibility)
	require.Len(t, doc.Edges, 1)
	assert.Equal(t, "ada-babbage-relationship", doc.Edges[0].ID())
	assert.Equal(t, "1833", doc.Edges[0].Start)
}

func TestParse_JSON(t *testing.T) {
	doc, err := Parse(strings.NewReader(`{"nodes":[{"id":"london","kind":"place","name":"London"}],"edges":[]}`))
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, "london", doc.Nodes[0].NodeID)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"unknown field", "nodes:\n  - id: ada\n    kind: person\n    name: Ada\n    born: 1815\n"},
		{"missing name", "nodes:\n  - id: ada\n    kind: person\n"},
		{"no content", "nodes: []\n"},
		{"not a mapping", "- ada\n- babbage\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err), "unexpected error: %v", err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lovelace.yaml")
	require.NoError(t, os.WriteFile(path, []byte(lovelaceYAML), 0o600))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, doc.Nodes, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
