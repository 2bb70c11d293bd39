package analyze

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const ruleWidth = 70

// Write prints the report as aligned text.
func (r *Report) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	p := message.NewPrinter(language.English)
	rule := strings.Repeat("=", ruleWidth)

	section := func(title string) {
		fmt.Fprintf(bw, "\n%s\n%s\n%s\n", rule, title, rule)
	}

	fmt.Fprintf(bw, "%s\nOPENROUTER MODELS ANALYSIS\n%s\n", rule, rule)
	fmt.Fprintf(bw, "\nTotal Models: %d\n", r.TotalModels)
	if !r.Timestamp.IsZero() {
		fmt.Fprintf(bw, "Data Timestamp: %s\n", r.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
	}

	if pr := r.Pricing; pr != nil {
		section("PRICING ANALYSIS")
		if pr.Priced == 0 {
			fmt.Fprintln(bw, "No pricing data available")
		} else {
			fmt.Fprintln(bw, "\nMost Affordable Models (by average price per 1M tokens):")
			for i, e := range pr.Cheapest {
				fmt.Fprintf(bw, "%2d. %-40s $%s\n", i+1, e.Name, e.Average.StringFixed(2))
			}
			fmt.Fprintln(bw, "\nMost Expensive Models (by average price per 1M tokens):")
			for i, e := range pr.MostExpensive {
				fmt.Fprintf(bw, "%2d. %-40s $%s\n", i+1, e.Name, e.Average.StringFixed(2))
			}
			fmt.Fprintln(bw, "\nPricing Statistics:")
			fmt.Fprintf(bw, "  Average Prompt Price: $%s/1M tokens\n", pr.AvgPrompt.StringFixed(2))
			fmt.Fprintf(bw, "  Average Completion Price: $%s/1M tokens\n", pr.AvgCompletion.StringFixed(2))
		}
	}

	if cr := r.Context; cr != nil {
		section("CONTEXT LENGTH ANALYSIS")
		if cr.Known == 0 {
			fmt.Fprintln(bw, "No context length data available")
		} else {
			fmt.Fprintln(bw, "\nLargest Context Windows:")
			for i, e := range cr.Largest {
				fmt.Fprintf(bw, "%2d. %-40s %10s tokens\n", i+1, e.Name, p.Sprintf("%d", e.Context))
			}
			fmt.Fprintln(bw, "\nModels by Context Length Range:")
			for _, s := range cr.Ranges {
				fmt.Fprintf(bw, "  %-15s %3d models (%5.1f%%) %s\n", s.Label, s.Count, s.Percent, bar(s.Percent/2))
			}
		}
	}

	if r.Providers != nil {
		section("PROVIDER ANALYSIS")
		fmt.Fprintln(bw, "\nTop Providers by Model Count:")
		for i, s := range r.Providers {
			fmt.Fprintf(bw, "%2d. %-30s %3d models (%5.1f%%) %s\n", i+1, s.Label, s.Count, s.Percent, bar(s.Percent))
		}
	}

	if r.Modalities != nil {
		section("MODALITY ANALYSIS")
		fmt.Fprintln(bw, "\nModels by Modality:")
		for _, s := range r.Modalities {
			fmt.Fprintf(bw, "  %-20s %3d models (%5.1f%%) %s\n", s.Label, s.Count, s.Percent, bar(s.Percent/2))
		}
	}

	if r.Tags != nil {
		section("TAG ANALYSIS")
		fmt.Fprintln(bw, "\nMost Common Tags:")
		for i, s := range r.Tags {
			fmt.Fprintf(bw, "%2d. %-25s %3d models (%5.1f%%) %s\n", i+1, s.Label, s.Count, s.Percent, bar(s.Percent))
		}
	}

	if r.Value != nil {
		section("BEST VALUE MODELS (Context per Dollar)")
		if len(r.Value) == 0 {
			fmt.Fprintln(bw, "Insufficient data for value analysis")
		} else {
			fmt.Fprintln(bw, "\nTop 10 Best Value Models:")
			fmt.Fprintf(bw, "%-6s %-35s %-12s %-12s %-10s\n", "Rank", "Model", "Context", "Price/1M", "Value")
			fmt.Fprintln(bw, strings.Repeat("-", 85))
			for i, e := range r.Value {
				fmt.Fprintf(bw, "%-6d %-35s %10s $%9s %10s\n",
					i+1, e.Name, p.Sprintf("%d", e.Context), e.Price.StringFixed(2), e.Value.StringFixed(0))
			}
		}
	}

	fmt.Fprintf(bw, "\n%s\nAnalysis complete!\n%s\n\n", rule, rule)
	return bw.Flush()
}

func bar(width float64) string {
	if width < 1 {
		return ""
	}
	return strings.Repeat("█", int(width))
}
