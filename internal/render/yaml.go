package render

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

func init() {
	Register(YAML{})
}

// YAML renders the same document as JSON.
type YAML struct{}

func (YAML) Name() string      { return "yaml" }
func (YAML) Extension() string { return "yaml" }

func (YAML) Render(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc.encodable()); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
