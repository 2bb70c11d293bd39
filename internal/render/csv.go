package render

import (
	"bytes"
	"encoding/csv"
	"strings"
)

func init() {
	Register(CSV{})
}

var csvColumns = []string{
	"id",
	"name",
	"description",
	"context_length",
	"pricing_formatted",
	"architecture_summary",
	"top_provider_name",
	"top_provider_context",
	"created_formatted",
	"tags",
}

// CSV renders one row per model. An empty catalog renders as empty output,
// without a header.
type CSV struct{}

func (CSV) Name() string      { return "csv" }
func (CSV) Extension() string { return "csv" }

func (CSV) Render(doc *Document) ([]byte, error) {
	if len(doc.Models) == 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvColumns); err != nil {
		return nil, err
	}
	for _, m := range doc.Models {
		row := []string{
			m.ID,
			m.Name,
			m.Description,
			m.ContextLength.String(),
			m.PricingSummary,
			m.ArchitectureSummary,
			m.TopProviderName,
			m.TopProviderContext.String(),
			m.CreatedFormatted,
			strings.Join(m.Tags, ", "),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
