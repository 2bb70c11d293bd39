// Package analyze produces a plain-text report over a rendered catalog:
// pricing extremes, context window distribution, provider, modality and tag
// counts, and the models offering the most context per dollar.
package analyze

import (
	"sort"
	"strings"
	"time"

	"github.com/everstacklabs/orcatalog/internal/catalog"
	"github.com/shopspring/decimal"
)

const (
	topPriced    = 10
	topContext   = 10
	topProviders = 15
	topTags      = 20
	topValue     = 10
)

var (
	million = decimal.NewFromInt(1_000_000)
	two     = decimal.NewFromInt(2)
)

// Sections selects which parts of the report to compute. The zero value
// selects everything.
type Sections struct {
	Pricing    bool
	Context    bool
	Providers  bool
	Modalities bool
	Tags       bool
	Value      bool
}

func (s Sections) all() bool {
	return !s.Pricing && !s.Context && !s.Providers && !s.Modalities && !s.Tags && !s.Value
}

// PriceEntry is one model's prices in USD per million tokens.
type PriceEntry struct {
	ID         string
	Name       string
	Prompt     decimal.Decimal
	Completion decimal.Decimal
	Average    decimal.Decimal
}

// PricingReport lists the cheapest and most expensive models by average
// price.
type PricingReport struct {
	Priced        int
	Cheapest      []PriceEntry
	MostExpensive []PriceEntry
	AvgPrompt     decimal.Decimal
	AvgCompletion decimal.Decimal
}

// ContextEntry is a model with a known context window.
type ContextEntry struct {
	ID      string
	Name    string
	Context int
}

// Share is a labelled count with its percentage of a total.
type Share struct {
	Label   string
	Count   int
	Percent float64
}

// ContextReport summarises known context windows.
type ContextReport struct {
	Known   int
	Largest []ContextEntry
	Ranges  []Share
}

// ValueEntry ranks a model by tokens of context per dollar of average price
// per million tokens.
type ValueEntry struct {
	ID      string
	Name    string
	Context int
	Price   decimal.Decimal
	Value   decimal.Decimal
}

// Report is the outcome of Analyze. Sections that were not requested are
// nil.
type Report struct {
	TotalModels int
	Timestamp   time.Time

	Pricing    *PricingReport
	Context    *ContextReport
	Providers  []Share
	Modalities []Share
	Tags       []Share
	Value      []ValueEntry
}

// Analyze computes the requested sections over models.
func Analyze(models []catalog.Model, generated time.Time, s Sections) *Report {
	all := s.all()
	r := &Report{TotalModels: len(models), Timestamp: generated}

	if all || s.Pricing {
		r.Pricing = pricing(models)
	}
	if all || s.Context {
		r.Context = contexts(models)
	}
	if all || s.Providers {
		r.Providers = top(count(models, provider), len(models), topProviders)
	}
	if all || s.Modalities {
		r.Modalities = top(count(models, func(m catalog.Model) []string {
			return []string{m.Architecture.Modality}
		}), len(models), 0)
	}
	if all || s.Tags {
		r.Tags = top(count(models, func(m catalog.Model) []string { return m.Tags }), len(models), topTags)
	}
	if all || s.Value {
		r.Value = value(models)
		if r.Value == nil {
			r.Value = []ValueEntry{}
		}
	}
	return r
}

// perMillion returns prompt, completion and their average per million
// tokens. ok is false when either component is missing.
func perMillion(m catalog.Model) (prompt, completion, avg decimal.Decimal, ok bool) {
	if m.Pricing == nil || m.Pricing.Prompt == nil || m.Pricing.Completion == nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, false
	}
	prompt = m.Pricing.Prompt.Mul(million)
	completion = m.Pricing.Completion.Mul(million)
	avg = prompt.Add(completion).Div(two)
	return prompt, completion, avg, true
}

func pricing(models []catalog.Model) *PricingReport {
	var entries []PriceEntry
	for _, m := range models {
		prompt, completion, avg, ok := perMillion(m)
		if !ok {
			continue
		}
		entries = append(entries, PriceEntry{ID: m.ID, Name: m.Name, Prompt: prompt, Completion: completion, Average: avg})
	}

	rep := &PricingReport{Priced: len(entries)}
	if len(entries) == 0 {
		return rep
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Average.LessThan(entries[j].Average) })

	rep.Cheapest = append([]PriceEntry(nil), entries[:min(topPriced, len(entries))]...)
	for i := len(entries) - 1; i >= max(0, len(entries)-topPriced); i-- {
		rep.MostExpensive = append(rep.MostExpensive, entries[i])
	}

	sumPrompt, sumCompletion := decimal.Zero, decimal.Zero
	for _, e := range entries {
		sumPrompt = sumPrompt.Add(e.Prompt)
		sumCompletion = sumCompletion.Add(e.Completion)
	}
	n := decimal.NewFromInt(int64(len(entries)))
	rep.AvgPrompt = sumPrompt.Div(n)
	rep.AvgCompletion = sumCompletion.Div(n)
	return rep
}

var contextRanges = []struct {
	label string
	below int
}{
	{"< 8K", 8_000},
	{"8K - 32K", 32_000},
	{"32K - 128K", 128_000},
	{"128K - 1M", 1_000_000},
	{"> 1M", 0},
}

func contexts(models []catalog.Model) *ContextReport {
	var entries []ContextEntry
	for _, m := range models {
		if m.ContextLength.Known {
			entries = append(entries, ContextEntry{ID: m.ID, Name: m.Name, Context: m.ContextLength.Tokens})
		}
	}

	rep := &ContextReport{Known: len(entries)}
	if len(entries) == 0 {
		return rep
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Context > entries[j].Context })
	rep.Largest = entries[:min(topContext, len(entries))]

	counts := make([]int, len(contextRanges))
	for _, e := range entries {
		counts[rangeIndex(e.Context)]++
	}
	for i, cr := range contextRanges {
		rep.Ranges = append(rep.Ranges, Share{
			Label:   cr.label,
			Count:   counts[i],
			Percent: percent(counts[i], len(entries)),
		})
	}
	return rep
}

func rangeIndex(tokens int) int {
	for i, cr := range contextRanges {
		if cr.below == 0 || tokens < cr.below {
			return i
		}
	}
	return len(contextRanges) - 1
}

// provider names the model's top provider, falling back to the vendor
// prefix of its ID.
func provider(m catalog.Model) []string {
	if m.TopProviderName != "" && m.TopProviderName != catalog.Unknown {
		return []string{m.TopProviderName}
	}
	if vendor, _, ok := strings.Cut(m.ID, "/"); ok && vendor != "" {
		return []string{vendor}
	}
	return []string{catalog.Unknown}
}

func count(models []catalog.Model, keys func(catalog.Model) []string) map[string]int {
	counts := make(map[string]int)
	for _, m := range models {
		for _, k := range keys(m) {
			counts[k]++
		}
	}
	return counts
}

// top orders counts by frequency, then label, keeping at most limit entries
// (all when limit is 0).
func top(counts map[string]int, total, limit int) []Share {
	shares := make([]Share, 0, len(counts))
	for label, n := range counts {
		shares = append(shares, Share{Label: label, Count: n, Percent: percent(n, total)})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].Label < shares[j].Label
	})
	if limit > 0 && len(shares) > limit {
		shares = shares[:limit]
	}
	return shares
}

func value(models []catalog.Model) []ValueEntry {
	var entries []ValueEntry
	for _, m := range models {
		if !m.ContextLength.Known {
			continue
		}
		_, _, avg, ok := perMillion(m)
		if !ok || !avg.IsPositive() {
			continue
		}
		entries = append(entries, ValueEntry{
			ID:      m.ID,
			Name:    m.Name,
			Context: m.ContextLength.Tokens,
			Price:   avg,
			Value:   decimal.NewFromInt(int64(m.ContextLength.Tokens)).Div(avg),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Value.GreaterThan(entries[j].Value) })
	if len(entries) > topValue {
		entries = entries[:topValue]
	}
	return entries
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
