// Package seed reads graph fixture documents.
package seed

import (
	"errors"
	"fmt"
	"io"
	"os"

	"degrees/application/commands"
	pkgerrors "degrees/pkg/errors"

	"gopkg.in/yaml.v3"
)

// Parse decodes a fixture document. JSON is accepted as the YAML subset it is.
// Unknown fields are rejected so typos in fixtures surface early.
func Parse(r io.Reader) (commands.ImportGraphCommand, error) {
	var doc commands.ImportGraphCommand

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return doc, pkgerrors.NewValidationError("fixture document is empty")
		}
		return doc, pkgerrors.NewValidationError(fmt.Sprintf("malformed fixture: %v", err))
	}
	if err := doc.Validate(); err != nil {
		return doc, err
	}
	return doc, nil
}

// LoadFile parses the fixture stored at path.
func LoadFile(path string) (commands.ImportGraphCommand, error) {
	f, err := os.Open(path)
	if err != nil {
		return commands.ImportGraphCommand{}, fmt.Errorf("failed to open fixture %s: %w", path, err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return doc, pkgerrors.Wrapf(err, "fixture %s", path)
	}
	return doc, nil
}
