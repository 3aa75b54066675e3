package extension

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalTree serializes a tree to YAML. Elements decode back with
// yaml.Unmarshal into []*Element.
func MarshalTree(tree []*Element) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(tree); err != nil {
		return nil, fmt.Errorf("failed to encode extension tree: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
