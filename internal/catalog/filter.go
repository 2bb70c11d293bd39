package catalog

import (
	"slices"
	"sort"
	"strings"
)

// FilterOptions selects a subset of models. Zero values disable a predicate.
type FilterOptions struct {
	Tags       []string // keep models carrying any of these tags
	Search     string   // case-insensitive substring of name, description or id
	MinContext int      // keep models with a known context length >= MinContext
}

// Active reports whether any predicate is set.
func (o FilterOptions) Active() bool {
	return len(o.Tags) > 0 || o.Search != "" || o.MinContext > 0
}

// Filter returns the models matching every active predicate, in input order.
func Filter(models []Model, opts FilterOptions) []Model {
	search := strings.ToLower(opts.Search)
	out := make([]Model, 0, len(models))
	for _, m := range models {
		if len(opts.Tags) > 0 && !hasAnyTag(m.Tags, opts.Tags) {
			continue
		}
		if search != "" && !matches(m, search) {
			continue
		}
		if opts.MinContext > 0 && (!m.ContextLength.Known || m.ContextLength.Tokens < opts.MinContext) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func hasAnyTag(have, want []string) bool {
	for _, t := range want {
		if slices.Contains(have, t) {
			return true
		}
	}
	return false
}

func matches(m Model, lowered string) bool {
	return strings.Contains(strings.ToLower(m.Name), lowered) ||
		strings.Contains(strings.ToLower(m.Description), lowered) ||
		strings.Contains(strings.ToLower(m.ID), lowered)
}

// Aggregate computes statistics over exactly the models passed in. Average
// and maximum context length consider only known context lengths.
func Aggregate(models []Model) Statistics {
	stats := Statistics{
		TotalModels: len(models),
		Modalities:  make(map[string]int),
		Tags:        []string{},
	}

	seen := make(map[string]struct{})
	var sum, known int
	for _, m := range models {
		stats.Modalities[m.Architecture.Modality]++
		for _, t := range m.Tags {
			seen[t] = struct{}{}
		}
		if m.ContextLength.Known {
			if known == 0 || m.ContextLength.Tokens > stats.MaxContextLength {
				stats.MaxContextLength = m.ContextLength.Tokens
			}
			sum += m.ContextLength.Tokens
			known++
		}
	}

	for t := range seen {
		stats.Tags = append(stats.Tags, t)
	}
	sort.Strings(stats.Tags)
	stats.UniqueTags = len(stats.Tags)

	if known > 0 {
		stats.AverageContextLength = sum / known
	}
	return stats
}
