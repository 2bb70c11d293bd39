package analyze

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/everstacklabs/orcatalog/internal/catalog"
	"github.com/shopspring/decimal"
)

func testModels() []catalog.Model {
	return catalog.Normalize([]catalog.RawEntry{
		catalog.RawEntry(`{"id": "openai/gpt", "name": "GPT", "context_length": 128000,
			"pricing": {"prompt": "0.00001", "completion": "0.00003"},
			"architecture": {"modality": "text"}, "top_provider": {"name": "OpenAI"}, "tags": ["chat"]}`),
		catalog.RawEntry(`{"id": "meta/llama", "name": "Llama", "context_length": 8192,
			"pricing": {"prompt": "0.0000005", "completion": "0.0000015"},
			"architecture": {"modality": "text"}, "tags": ["chat", "open"]}`),
		catalog.RawEntry(`{"id": "google/gemini", "name": "Gemini", "context_length": 2000000,
			"pricing": {"prompt": "0", "completion": "0"},
			"architecture": {"modality": "multimodal"}}`),
		catalog.RawEntry(`{"id": "x/unpriced", "name": "Unpriced", "architecture": {"modality": "text"}}`),
	})
}

func names[T any](items []T, name func(T) string) string {
	var out []string
	for _, it := range items {
		out = append(out, name(it))
	}
	return strings.Join(out, ",")
}

func TestAnalyzePricing(t *testing.T) {
	r := Analyze(testModels(), time.Time{}, Sections{})
	pr := r.Pricing
	if pr == nil || pr.Priced != 3 {
		t.Fatalf("pricing = %+v", pr)
	}

	byName := func(e PriceEntry) string { return e.Name }
	if got := names(pr.Cheapest, byName); got != "Gemini,Llama,GPT" {
		t.Errorf("cheapest = %s", got)
	}
	if got := names(pr.MostExpensive, byName); got != "GPT,Llama,Gemini" {
		t.Errorf("most expensive = %s", got)
	}
	if !pr.MostExpensive[0].Average.Equal(decimal.NewFromInt(20)) {
		t.Errorf("GPT average = %s, want 20", pr.MostExpensive[0].Average)
	}
	if pr.AvgPrompt.StringFixed(2) != "3.50" || pr.AvgCompletion.StringFixed(2) != "10.50" {
		t.Errorf("averages = %s / %s", pr.AvgPrompt, pr.AvgCompletion)
	}
}

func TestAnalyzeContext(t *testing.T) {
	cr := Analyze(testModels(), time.Time{}, Sections{Context: true}).Context
	if cr == nil || cr.Known != 3 {
		t.Fatalf("context = %+v", cr)
	}
	if got := names(cr.Largest, func(e ContextEntry) string { return e.Name }); got != "Gemini,GPT,Llama" {
		t.Errorf("largest = %s", got)
	}

	want := map[string]int{"< 8K": 0, "8K - 32K": 1, "32K - 128K": 0, "128K - 1M": 1, "> 1M": 1}
	if len(cr.Ranges) != len(want) {
		t.Fatalf("ranges = %+v", cr.Ranges)
	}
	for _, s := range cr.Ranges {
		if s.Count != want[s.Label] {
			t.Errorf("range %q = %d, want %d", s.Label, s.Count, want[s.Label])
		}
	}
}

func TestRangeIndex(t *testing.T) {
	tests := []struct {
		tokens int
		want   string
	}{
		{0, "< 8K"},
		{7999, "< 8K"},
		{8000, "8K - 32K"},
		{32000, "32K - 128K"},
		{999_999, "128K - 1M"},
		{1_000_000, "> 1M"},
	}
	for _, tt := range tests {
		if got := contextRanges[rangeIndex(tt.tokens)].label; got != tt.want {
			t.Errorf("rangeIndex(%d) = %q, want %q", tt.tokens, got, tt.want)
		}
	}
}

func TestAnalyzeCounts(t *testing.T) {
	r := Analyze(testModels(), time.Time{}, Sections{Providers: true, Modalities: true, Tags: true})
	if r.Pricing != nil || r.Context != nil || r.Value != nil {
		t.Error("unrequested sections were computed")
	}

	label := func(s Share) string { return s.Label }
	if got := names(r.Providers, label); got != "OpenAI,google,meta,x" {
		t.Errorf("providers = %s", got)
	}
	if got := names(r.Modalities, label); got != "text,multimodal" {
		t.Errorf("modalities = %s", got)
	}
	if r.Modalities[0].Count != 3 || r.Modalities[0].Percent != 75 {
		t.Errorf("text share = %+v", r.Modalities[0])
	}
	if got := names(r.Tags, label); got != "chat,open" {
		t.Errorf("tags = %s", got)
	}
}

func TestAnalyzeValue(t *testing.T) {
	v := Analyze(testModels(), time.Time{}, Sections{Value: true}).Value
	if len(v) != 2 {
		t.Fatalf("value = %+v", v)
	}
	if v[0].Name != "Llama" || v[0].Value.StringFixed(0) != "8192" {
		t.Errorf("first = %+v", v[0])
	}
	if v[1].Name != "GPT" || v[1].Value.StringFixed(0) != "6400" {
		t.Errorf("second = %+v", v[1])
	}
}

func TestReportWrite(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	if err := Analyze(testModels(), ts, Sections{}).Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"OPENROUTER MODELS ANALYSIS",
		"Total Models: 4",
		"Data Timestamp: 2024-05-01T12:00:00Z",
		" 1. Gemini",
		"Average Prompt Price: $3.50/1M tokens",
		" 2,000,000 tokens",
		"  8K - 32K          1 models ( 33.3%) ████████████████",
		"BEST VALUE MODELS (Context per Dollar)",
		"Analysis complete!",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q\n%s", want, out)
		}
	}
}

func TestReportWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Analyze(nil, time.Time{}, Sections{}).Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"No pricing data available",
		"No context length data available",
		"Insufficient data for value analysis",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if strings.Contains(out, "Data Timestamp") {
		t.Error("zero timestamp should be omitted")
	}
}
