package render

import (
	"fmt"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/everstacklabs/orcatalog/internal/catalog"
	"github.com/google/uuid"
)

// Document is everything a renderer needs for one run.
type Document struct {
	Models    []catalog.Model
	Stats     catalog.Statistics
	Generated time.Time
	RunID     string
}

// NewDocument stamps models and stats with the current time and a fresh
// run id.
func NewDocument(models []catalog.Model, stats catalog.Statistics) *Document {
	return &Document{
		Models:    models,
		Stats:     stats,
		Generated: time.Now(),
		RunID:     uuid.NewString(),
	}
}

// jsonDocument is the on-disk form shared by the JSON and YAML renderers.
type jsonDocument struct {
	Metadata metadata        `json:"metadata" yaml:"metadata"`
	Models   []catalog.Model `json:"models" yaml:"models"`
}

type metadata struct {
	Timestamp   string             `json:"timestamp" yaml:"timestamp"`
	RunID       string             `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	TotalModels int                `json:"total_models" yaml:"total_models"`
	Statistics  catalog.Statistics `json:"statistics" yaml:"statistics"`
}

func (d *Document) encodable() jsonDocument {
	models := d.Models
	if models == nil {
		models = []catalog.Model{}
	}
	stats := d.Stats
	if stats.Modalities == nil {
		stats.Modalities = map[string]int{}
	}
	if stats.Tags == nil {
		stats.Tags = []string{}
	}
	return jsonDocument{
		Metadata: metadata{
			Timestamp:   d.Generated.Format(time.RFC3339),
			RunID:       d.RunID,
			TotalModels: len(models),
			Statistics:  stats,
		},
		Models: models,
	}
}

// LoadJSON reads a document previously written by the JSON renderer.
func LoadJSON(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var jd jsonDocument
	if err := sonic.Unmarshal(data, &jd); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	doc := &Document{
		Models: jd.Models,
		Stats:  jd.Metadata.Statistics,
		RunID:  jd.Metadata.RunID,
	}
	if doc.Models == nil {
		doc.Models = []catalog.Model{}
	}
	for i := range doc.Models {
		if doc.Models[i].Tags == nil {
			doc.Models[i].Tags = []string{}
		}
	}
	if ts, err := time.Parse(time.RFC3339, jd.Metadata.Timestamp); err == nil {
		doc.Generated = ts
	} else if ts, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", jd.Metadata.Timestamp, time.Local); err == nil {
		doc.Generated = ts
	}
	return doc, nil
}
