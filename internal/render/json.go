package render

import "github.com/bytedance/sonic"

func init() {
	Register(JSON{})
}

// Map keys are sorted so repeated runs produce identical statistics blocks.
var jsonAPI = sonic.Config{SortMapKeys: true}.Froze()

// JSON renders {metadata, models} with two-space indentation.
type JSON struct{}

func (JSON) Name() string      { return "json" }
func (JSON) Extension() string { return "json" }

func (JSON) Render(doc *Document) ([]byte, error) {
	data, err := jsonAPI.MarshalIndent(doc.encodable(), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
