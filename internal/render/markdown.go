package render

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/everstacklabs/orcatalog/internal/catalog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	Register(Markdown{})
}

// Markdown renders a statistics header, a summary table and one section per
// model.
type Markdown struct{}

func (Markdown) Name() string      { return "markdown" }
func (Markdown) Extension() string { return "md" }

func (Markdown) Render(doc *Document) ([]byte, error) {
	p := message.NewPrinter(language.English)
	var b bytes.Buffer
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("# OpenRouter Models")
	line("")
	line("*Last updated: %s*", doc.Generated.Format("2006-01-02 15:04:05"))
	line("")

	s := doc.Stats
	line("## Statistics")
	line("")
	line("- **Total Models**: %d", s.TotalModels)
	line("- **Unique Tags**: %d", s.UniqueTags)
	line("- **Average Context Length**: %s tokens", p.Sprintf("%d", s.AverageContextLength))
	line("- **Max Context Length**: %s tokens", p.Sprintf("%d", s.MaxContextLength))
	line("")

	if len(s.Modalities) > 0 {
		line("### Models by Modality")
		line("")
		for _, mc := range byCount(s.Modalities) {
			line("- **%s**: %d models", mc.name, mc.count)
		}
		line("")
	}

	if len(s.Tags) > 0 {
		line("### Available Tags")
		line("")
		line("%s", codeList(s.Tags))
		line("")
	}

	line("## Models")
	line("")
	line("| Model ID | Name | Context | Pricing | Top Provider |")
	line("|----------|------|---------|---------|--------------|")
	for _, m := range doc.Models {
		line("| `%s` | %s | %s | %s | %s |",
			m.ID, cell(m.Name), tokens(p, m.ContextLength), cell(m.PricingSummary), cell(m.TopProviderName))
	}
	line("")

	line("## Detailed Model Information")
	line("")
	for _, m := range doc.Models {
		line("### %s", m.Name)
		line("")
		line("**Model ID**: `%s`", m.ID)
		line("")
		line("**Description**: %s", m.Description)
		line("")
		line("**Context Length**: %s tokens", tokens(p, m.ContextLength))
		line("")
		line("**Pricing**: %s", m.PricingSummary)
		line("")
		line("**Architecture**: %s", m.ArchitectureSummary)
		line("")
		line("**Top Provider**: %s (Context: %s)", m.TopProviderName, tokens(p, m.TopProviderContext))
		line("")
		line("**Created**: %s", m.CreatedFormatted)
		line("")
		if len(m.Tags) > 0 {
			line("**Tags**: %s", codeList(m.Tags))
			line("")
		}
		line("---")
		line("")
	}

	return b.Bytes(), nil
}

type modalityCount struct {
	name  string
	count int
}

// byCount orders modalities by count, most common first, then by name.
func byCount(m map[string]int) []modalityCount {
	out := make([]modalityCount, 0, len(m))
	for name, count := range m {
		out = append(out, modalityCount{name, count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	return out
}

func tokens(p *message.Printer, c catalog.ContextLength) string {
	if !c.Known {
		return catalog.Unknown
	}
	return p.Sprintf("%d", c.Tokens)
}

func codeList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "`" + s + "`"
	}
	return strings.Join(quoted, ", ")
}

// cell escapes pipes so table columns stay aligned.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
