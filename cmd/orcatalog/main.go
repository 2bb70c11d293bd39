package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/everstacklabs/orcatalog/internal/analyze"
	"github.com/everstacklabs/orcatalog/internal/catalog"
	"github.com/everstacklabs/orcatalog/internal/demo"
	"github.com/everstacklabs/orcatalog/internal/diff"
	"github.com/everstacklabs/orcatalog/internal/httpclient"
	"github.com/everstacklabs/orcatalog/internal/pipeline"
	"github.com/everstacklabs/orcatalog/internal/render"
	"github.com/everstacklabs/orcatalog/internal/validate"
)

var (
	cfgFile string
	debug   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "orcatalog",
		Short:        "OpenRouter model catalog fetcher",
		Long:         "Fetches the OpenRouter model catalog, caches it, and renders it as Markdown, JSON, CSV or YAML.",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		fetchCmd(),
		cacheCmd(),
		demoCmd(),
		analyzeCmd(),
		diffCmd(),
		validateCmd(),
		modelCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	cleanup()
	if err != nil {
		if kind, ok := httpclient.KindOf(err); ok && kind == httpclient.KindAuth {
			fmt.Fprintln(os.Stderr, "Check OPENROUTER_API_KEY (get one at https://openrouter.ai/keys).")
		}
		os.Exit(pipeline.ExitFailure)
	}
}

func fetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the catalog (or use the cache) and write the rendered output",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			p, err := buildPipeline(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			force, _ := cmd.Flags().GetBool("force-refresh")
			tags, _ := cmd.Flags().GetStringSlice("tags")
			search, _ := cmd.Flags().GetString("search")
			minContext, _ := cmd.Flags().GetInt("min-context")
			publish, _ := cmd.Flags().GetBool("publish")

			res, err := p.Run(cmd.Context(), pipeline.RunOptions{
				Format:       format,
				Output:       output,
				ForceRefresh: force,
				Filter:       catalog.FilterOptions{Tags: tags, Search: search, MinContext: minContext},
				Publish:      publish,
			})
			if err != nil {
				return err
			}

			pr := message.NewPrinter(language.English)
			source := "fetched from API"
			if res.FromCache {
				source = "from cache"
			}
			fmt.Printf("Saved %d of %d models (%s)\n", len(res.Models), res.TotalModels, source)
			fmt.Printf("Output file: %s\n", res.OutputPath)
			fmt.Println("Statistics:")
			fmt.Printf("  Total models:    %d\n", res.Stats.TotalModels)
			fmt.Printf("  Unique tags:     %d\n", res.Stats.UniqueTags)
			pr.Printf("  Average context: %d tokens\n", res.Stats.AverageContextLength)
			pr.Printf("  Max context:     %d tokens\n", res.Stats.MaxContextLength)

			if pub := res.Published; pub != nil {
				switch {
				case pub.Unchanged:
					fmt.Println("Publish: catalog unchanged, nothing committed")
				case pub.PRNumber > 0:
					fmt.Printf("Publish: opened PR #%d %s\n", pub.PRNumber, pub.PRURL)
				default:
					fmt.Printf("Publish: committed %s on branch %s\n", pub.Commit, pub.Branch)
				}
			}
			return nil
		},
	}

	cmd.Flags().String("format", "markdown", "Output format: "+strings.Join(render.Formats(), ", "))
	cmd.Flags().String("output", "", "Output file path (default: or_models.<ext>)")
	cmd.Flags().Bool("force-refresh", false, "Bypass the cache")
	cmd.Flags().StringSlice("tags", nil, "Keep models carrying any of these tags")
	cmd.Flags().String("search", "", "Keep models whose name, description or id contains this text")
	cmd.Flags().Int("min-context", 0, "Keep models with at least this many context tokens")
	cmd.Flags().Bool("publish", false, "Commit the output to publish.repo_path and open a PR")

	return cmd
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the catalog cache",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show where the cache lives and whether it is fresh",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				c, err := openCache(cmd.Context(), cfg)
				if err != nil {
					return err
				}

				st := c.Status()
				fmt.Printf("Location: %s\n", st.Location)
				if !st.Exists {
					fmt.Println("Status:   empty")
					return nil
				}
				state := "expired"
				if st.Valid {
					state = "valid"
				}
				fmt.Printf("Status:   %s (age %s, ttl %s)\n", state, st.Age.Round(time.Second), cfg.CacheTTLDuration())
				fmt.Printf("Models:   %d\n", st.Models)
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete the cached catalog",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				c, err := openCache(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				if err := c.Clear(); err != nil {
					return fmt.Errorf("clearing cache: %w", err)
				}
				fmt.Println("Cache cleared")
				return nil
			},
		},
	)

	return cmd
}

func demoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Render the built-in sample catalog (no API key needed)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}
			dir, _ := cmd.Flags().GetString("dir")
			_, err := demo.Run(dir, os.Stdout)
			return err
		},
	}

	cmd.Flags().String("dir", ".", "Directory for the demo_models.* files")

	return cmd
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a JSON catalog written by fetch --format json",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}

			file, _ := cmd.Flags().GetString("file")
			doc, err := render.LoadJSON(file)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("%s not found, run 'orcatalog fetch --format json' first", file)
				}
				return err
			}

			var s analyze.Sections
			s.Pricing, _ = cmd.Flags().GetBool("pricing")
			s.Context, _ = cmd.Flags().GetBool("context")
			s.Providers, _ = cmd.Flags().GetBool("providers")
			s.Modalities, _ = cmd.Flags().GetBool("modalities")
			s.Tags, _ = cmd.Flags().GetBool("tags")
			s.Value, _ = cmd.Flags().GetBool("value")

			return analyze.Analyze(doc.Models, doc.Generated, s).Write(os.Stdout)
		},
	}

	cmd.Flags().String("file", "or_models.json", "JSON file to analyze")
	cmd.Flags().Bool("pricing", false, "Show only pricing analysis")
	cmd.Flags().Bool("context", false, "Show only context length analysis")
	cmd.Flags().Bool("providers", false, "Show only provider analysis")
	cmd.Flags().Bool("modalities", false, "Show only modality analysis")
	cmd.Flags().Bool("tags", false, "Show only tag analysis")
	cmd.Flags().Bool("value", false, "Show only best value models")

	return cmd
}

func diffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare a previous JSON output with the current catalog (exit 2 on changes)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			against, _ := cmd.Flags().GetString("against")
			prev, err := render.LoadJSON(against)
			if err != nil {
				return fmt.Errorf("loading previous catalog: %w", err)
			}

			p, err := buildPipeline(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force-refresh")
			models, _, err := p.Models(cmd.Context(), force)
			if err != nil {
				return err
			}

			trackDesc, _ := cmd.Flags().GetBool("track-description")
			cs := diff.Compute(prev.Models, models, diff.Options{TrackDescription: trackDesc})

			if md, _ := cmd.Flags().GetBool("markdown"); md {
				fmt.Print(diff.RenderMarkdown(cs))
			} else {
				fmt.Println(diff.RenderDiffSummary(cs))
			}

			if cs.HasChanges() {
				exit(pipeline.ExitChanges)
			}
			return nil
		},
	}

	cmd.Flags().String("against", "or_models.json", "Previous JSON output to compare with")
	cmd.Flags().Bool("force-refresh", false, "Bypass the cache")
	cmd.Flags().Bool("track-description", false, "Report description edits")
	cmd.Flags().Bool("markdown", false, "Print the changes as Markdown")

	return cmd
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Sanity-check the catalog (CI check, exit 1 on errors)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var models []catalog.Model
			if file, _ := cmd.Flags().GetString("file"); file != "" {
				doc, err := render.LoadJSON(file)
				if err != nil {
					return err
				}
				models = doc.Models
			} else {
				p, err := buildPipeline(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				if models, _, err = p.Models(cmd.Context(), false); err != nil {
					return err
				}
			}

			result := validate.ValidateCatalog(models)
			fmt.Println(validate.FormatResult(result))
			slog.Debug("validation finished", "models", len(models), "issues", len(result.Issues))

			if result.HasErrors() {
				exit(pipeline.ExitFailure)
			}
			return nil
		},
	}

	cmd.Flags().String("file", "", "Validate a JSON output file instead of the live catalog")

	return cmd
}

func modelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model <id>",
		Short: "Show one model from the live catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newAPIClient(cfg)
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("format")
			r, err := render.Get(format)
			if err != nil {
				return err
			}

			entry, err := client.ModelDetails(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			models := catalog.Normalize([]catalog.RawEntry{entry})
			data, err := r.Render(render.NewDocument(models, catalog.Aggregate(models)))
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}

	cmd.Flags().String("format", "yaml", "Output format: "+strings.Join(render.Formats(), ", "))

	return cmd
}
