package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/everstacklabs/orcatalog/internal/catalog"
	"github.com/everstacklabs/orcatalog/internal/config"
	"github.com/everstacklabs/orcatalog/internal/render"
)

// Exit codes for the CLI.
const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitChanges = 2 // Changes detected (diff mode)
)

// Pipeline chains retrieval, normalization, filtering, aggregation and
// rendering.
type Pipeline struct {
	cfg       *config.Config
	retriever *Retriever
	publisher Publisher
}

// Option configures the Pipeline.
type Option func(*Pipeline)

// WithPublisher overrides how rendered output is published.
func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// New creates a new Pipeline.
func New(cfg *config.Config, retriever *Retriever, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, retriever: retriever}
	for _, opt := range opts {
		opt(p)
	}
	if p.publisher == nil {
		p.publisher = NewGitPublisher(cfg)
	}
	return p
}

// RunOptions selects what one run produces.
type RunOptions struct {
	Format       string
	Output       string
	ForceRefresh bool
	Filter       catalog.FilterOptions
	Publish      bool
}

// RunResult summarises a completed run.
type RunResult struct {
	FromCache   bool
	TotalModels int
	Models      []catalog.Model
	Stats       catalog.Statistics
	OutputPath  string
	Published   *PublishResult
}

// Models retrieves and normalizes the full catalog.
func (p *Pipeline) Models(ctx context.Context, force bool) ([]catalog.Model, bool, error) {
	ret, err := p.retriever.Retrieve(ctx, force)
	if err != nil {
		return nil, false, err
	}
	return catalog.Normalize(ret.Entries), ret.FromCache, nil
}

// Run executes one full batch and writes the rendered file.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	format := opts.Format
	if format == "" {
		format = "markdown"
	}
	r, err := render.Get(format)
	if err != nil {
		return nil, err
	}
	output := opts.Output
	if output == "" {
		output = render.DefaultOutput(r)
	}

	models, fromCache, err := p.Models(ctx, opts.ForceRefresh)
	if err != nil {
		return nil, err
	}
	result := &RunResult{FromCache: fromCache, TotalModels: len(models), Models: models}

	if opts.Filter.Active() {
		result.Models = catalog.Filter(models, opts.Filter)
		slog.Info("models filtered", "before", len(models), "after", len(result.Models))
	}
	result.Stats = catalog.Aggregate(result.Models)

	data, err := r.Render(render.NewDocument(result.Models, result.Stats))
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", r.Name(), err)
	}
	if err := writeOutput(output, data); err != nil {
		return nil, err
	}
	result.OutputPath = output
	slog.Info("output written", "path", output, "format", r.Name(), "models", len(result.Models))

	if opts.Publish {
		pub, err := p.publisher.Publish(ctx, output)
		if err != nil {
			return nil, fmt.Errorf("publishing: %w", err)
		}
		result.Published = pub
	}

	return result, nil
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
