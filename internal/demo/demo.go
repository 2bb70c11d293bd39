// Package demo renders a small built-in catalog so the tool can be tried
// without an API key.
package demo

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/everstacklabs/orcatalog/internal/catalog"
	"github.com/everstacklabs/orcatalog/internal/render"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FilePrefix names the demo output files: demo_models.<ext>.
const FilePrefix = "demo_models"

var samples = []string{
	`{
		"id": "openai/gpt-4-turbo",
		"name": "GPT-4 Turbo",
		"description": "The latest GPT-4 Turbo model with improved instruction following, JSON mode, reproducible outputs, parallel function calling, and more. Maximum of 4096 output tokens.",
		"context_length": 128000,
		"pricing": {"prompt": "0.00001", "completion": "0.00003"},
		"top_provider": {"name": "OpenAI", "context_length": 128000},
		"architecture": {"modality": "text", "tokenizer": "GPT", "instruct_type": "chat"},
		"tags": ["featured", "chat", "functions"],
		"created": 1699564800
	}`,
	`{
		"id": "anthropic/claude-3-opus",
		"name": "Claude 3 Opus",
		"description": "Anthropic's most powerful model, offering best-in-class performance on highly complex tasks. Excels at research, advanced math, coding, and extended instruction following.",
		"context_length": 200000,
		"pricing": {"prompt": "0.000015", "completion": "0.000075"},
		"top_provider": {"name": "Anthropic", "context_length": 200000},
		"architecture": {"modality": "text", "tokenizer": "Claude", "instruct_type": "chat"},
		"tags": ["featured", "chat", "extended-context"],
		"created": 1709510400
	}`,
	`{
		"id": "meta-llama/llama-3-70b-instruct",
		"name": "Llama 3 70B Instruct",
		"description": "Meta's latest open-source large language model with 70 billion parameters. Optimized for instruction following and dialogue applications.",
		"context_length": 8192,
		"pricing": {"prompt": "0.0000009", "completion": "0.0000009"},
		"top_provider": {"name": "Together AI", "context_length": 8192},
		"architecture": {"modality": "text", "tokenizer": "Llama", "instruct_type": "instruct"},
		"tags": ["opensource", "chat", "free"],
		"created": 1713398400
	}`,
	`{
		"id": "mistralai/mixtral-8x7b-instruct",
		"name": "Mixtral 8x7B Instruct",
		"description": "A high-quality sparse mixture of experts model with 8 experts of 7B parameters each. Offers excellent performance with efficient compute usage.",
		"context_length": 32768,
		"pricing": {"prompt": "0.00000027", "completion": "0.00000027"},
		"top_provider": {"name": "Mistral AI", "context_length": 32768},
		"architecture": {"modality": "text", "tokenizer": "Mistral", "instruct_type": "instruct"},
		"tags": ["opensource", "chat", "moe"],
		"created": 1702339200
	}`,
	`{
		"id": "google/gemini-pro-1.5",
		"name": "Gemini Pro 1.5",
		"description": "Google's most capable multimodal model with a 1 million token context window. Excels at understanding and reasoning across text, images, video, and audio.",
		"context_length": 1000000,
		"pricing": {"prompt": "0.00000125", "completion": "0.000005"},
		"top_provider": {"name": "Google", "context_length": 1000000},
		"architecture": {"modality": "multimodal", "tokenizer": "Gemini", "instruct_type": "chat"},
		"tags": ["featured", "chat", "multimodal", "extended-context"],
		"created": 1707868800
	}`,
}

// Entries returns the sample catalog as raw listing entries.
func Entries() []catalog.RawEntry {
	entries := make([]catalog.RawEntry, len(samples))
	for i, s := range samples {
		entries[i] = catalog.RawEntry(s)
	}
	return entries
}

// Output is one rendered demo file.
type Output struct {
	Format string
	Path   string
	Bytes  int
}

// Example is a sample filter and the models it selected.
type Example struct {
	Label  string
	Filter catalog.FilterOptions
	Models []catalog.Model
}

// Result summarises a demo run.
type Result struct {
	Models   []catalog.Model
	Stats    catalog.Statistics
	Outputs  []Output
	Examples []Example
}

var examples = []struct {
	label  string
	filter catalog.FilterOptions
}{
	{"Free models", catalog.FilterOptions{Tags: []string{"free"}}},
	{"Models matching 'gpt'", catalog.FilterOptions{Search: "gpt"}},
	{"Models with 100K+ context", catalog.FilterOptions{MinContext: 100_000}},
}

// Run normalizes the sample catalog, writes it to dir in every registered
// format and applies the sample filters. Progress is printed to w.
func Run(dir string, w io.Writer) (*Result, error) {
	p := message.NewPrinter(language.English)

	fmt.Fprintln(w, "orcatalog demo: rendering the built-in sample catalog (no API key needed)")
	fmt.Fprintln(w)

	models := catalog.Normalize(Entries())
	stats := catalog.Aggregate(models)
	res := &Result{Models: models, Stats: stats}

	fmt.Fprintf(w, "Processed %d sample models\n", len(models))
	fmt.Fprintf(w, "  Total models:    %d\n", stats.TotalModels)
	fmt.Fprintf(w, "  Unique tags:     %d\n", stats.UniqueTags)
	fmt.Fprintf(w, "  Tags:            %s\n", strings.Join(stats.Tags, ", "))
	p.Fprintf(w, "  Average context: %d tokens\n", stats.AverageContextLength)
	p.Fprintf(w, "  Max context:     %d tokens\n", stats.MaxContextLength)
	fmt.Fprintln(w)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	doc := render.NewDocument(models, stats)
	fmt.Fprintln(w, "Generated files:")
	for _, name := range render.Formats() {
		r, err := render.Get(name)
		if err != nil {
			return nil, err
		}
		data, err := r.Render(doc)
		if err != nil {
			return nil, fmt.Errorf("rendering %s: %w", name, err)
		}
		path := filepath.Join(dir, FilePrefix+"."+r.Extension())
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		slog.Debug("demo output written", "format", name, "path", path, "bytes", len(data))
		res.Outputs = append(res.Outputs, Output{Format: name, Path: path, Bytes: len(data)})
		fmt.Fprintf(w, "  %-28s %s, %d bytes\n", path, name, len(data))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Sample filters:")
	for _, ex := range examples {
		selected := catalog.Filter(models, ex.filter)
		res.Examples = append(res.Examples, Example{Label: ex.label, Filter: ex.filter, Models: selected})
		fmt.Fprintf(w, "  %s: %d\n", ex.label, len(selected))
		for _, m := range selected {
			if ex.filter.MinContext > 0 {
				p.Fprintf(w, "    - %s (%d tokens)\n", m.Name, m.ContextLength.Tokens)
				continue
			}
			fmt.Fprintf(w, "    - %s\n", m.Name)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "To use the live catalog, set OPENROUTER_API_KEY (see https://openrouter.ai/keys) and run: orcatalog fetch")

	return res, nil
}
