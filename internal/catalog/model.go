package catalog

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Unknown marks a field the upstream record did not carry (or carried in an
// unusable shape).
const Unknown = "Unknown"

// RawEntry is one catalog entry exactly as the listing API returned it.
// Entries are kept as JSON bytes so they can be cached verbatim.
type RawEntry json.RawMessage

// MarshalJSON emits the entry unchanged.
func (e RawEntry) MarshalJSON() ([]byte, error) {
	if len(e) == 0 {
		return []byte("null"), nil
	}
	return e, nil
}

// UnmarshalJSON stores a copy of the raw bytes.
func (e *RawEntry) UnmarshalJSON(data []byte) error {
	*e = append((*e)[:0], data...)
	return nil
}

// MarshalYAML decodes the entry into plain values so it renders as YAML
// rather than as a byte sequence.
func (e RawEntry) MarshalYAML() (any, error) {
	if len(e) == 0 || !gjson.ValidBytes(e) {
		return string(e), nil
	}
	return gjson.ParseBytes(e).Value(), nil
}

// ContextLength is a token count that may be unknown upstream. Unknown values
// are kept distinct from zero so they never skew aggregates.
type ContextLength struct {
	Tokens int
	Known  bool
}

// Tokens returns a known context length.
func Tokens(n int) ContextLength {
	return ContextLength{Tokens: n, Known: true}
}

func (c ContextLength) String() string {
	if !c.Known {
		return Unknown
	}
	return strconv.Itoa(c.Tokens)
}

// MarshalJSON emits the token count as a number, or "Unknown".
func (c ContextLength) MarshalJSON() ([]byte, error) {
	if !c.Known {
		return []byte(strconv.Quote(Unknown)), nil
	}
	return []byte(strconv.Itoa(c.Tokens)), nil
}

// UnmarshalJSON accepts an integer; anything else decodes as unknown.
func (c *ContextLength) UnmarshalJSON(data []byte) error {
	*c = contextLength(gjson.ParseBytes(data))
	return nil
}

// MarshalYAML mirrors MarshalJSON.
func (c ContextLength) MarshalYAML() (any, error) {
	if !c.Known {
		return Unknown, nil
	}
	return c.Tokens, nil
}

// Pricing holds per-token USD prices. A nil component could not be parsed
// as a number.
type Pricing struct {
	Prompt     *decimal.Decimal `json:"prompt" yaml:"prompt"`
	Completion *decimal.Decimal `json:"completion" yaml:"completion"`
}

// Architecture describes the model's modality and tokenizer.
type Architecture struct {
	Modality     string `json:"modality" yaml:"modality"`
	Tokenizer    string `json:"tokenizer" yaml:"tokenizer"`
	InstructType string `json:"instruct_type" yaml:"instruct_type"`
}

// Model is a normalized catalog entry. Every field is populated; missing
// upstream data is represented by defaults or the Unknown marker.
type Model struct {
	ID                  string        `json:"id" yaml:"id"`
	Name                string        `json:"name" yaml:"name"`
	Description         string        `json:"description" yaml:"description"`
	ContextLength       ContextLength `json:"context_length" yaml:"context_length"`
	Pricing             *Pricing      `json:"pricing,omitempty" yaml:"pricing,omitempty"`
	PricingSummary      string        `json:"pricing_formatted" yaml:"pricing_formatted"`
	Architecture        Architecture  `json:"architecture" yaml:"architecture"`
	ArchitectureSummary string        `json:"architecture_summary" yaml:"architecture_summary"`
	TopProviderName     string        `json:"top_provider_name" yaml:"top_provider_name"`
	TopProviderContext  ContextLength `json:"top_provider_context" yaml:"top_provider_context"`
	Created             int64         `json:"created,omitempty" yaml:"created,omitempty"`
	CreatedFormatted    string        `json:"created_formatted" yaml:"created_formatted"`
	Tags                []string      `json:"tags" yaml:"tags"`

	// Raw is set only on fallback records: entries that could not be
	// normalized and are passed through with their original shape.
	Raw RawEntry `json:"raw,omitempty" yaml:"raw,omitempty"`
}

// IsFallback reports whether the model came from an entry that could not be
// normalized.
func (m *Model) IsFallback() bool {
	return len(m.Raw) > 0
}

// Statistics summarises a list of models.
type Statistics struct {
	TotalModels          int            `json:"total_models" yaml:"total_models"`
	Modalities           map[string]int `json:"modalities" yaml:"modalities"`
	UniqueTags           int            `json:"unique_tags" yaml:"unique_tags"`
	Tags                 []string       `json:"tags" yaml:"tags"`
	AverageContextLength int            `json:"average_context_length" yaml:"average_context_length"`
	MaxContextLength     int            `json:"max_context_length" yaml:"max_context_length"`
}
