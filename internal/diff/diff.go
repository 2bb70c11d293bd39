package diff

import (
	"slices"
	"strings"

	"github.com/everstacklabs/orcatalog/internal/catalog"
	"github.com/shopspring/decimal"
)

// Options controls diff behavior.
type Options struct {
	// TrackDescription reports description edits. Upstream rewrites
	// descriptions often, so they are ignored by default.
	TrackDescription bool
}

var (
	contextTolerance = decimal.NewFromFloat(0.1)
	priceTolerance   = decimal.NewFromFloat(0.2)
)

// Compute compares the current catalog against a previous snapshot.
func Compute(previous, current []catalog.Model, opts Options) *ChangeSet {
	cs := &ChangeSet{}

	prevByID := make(map[string]*catalog.Model, len(previous))
	for i := range previous {
		prevByID[previous[i].ID] = &previous[i]
	}

	seen := make(map[string]bool, len(current))
	for i := range current {
		m := &current[i]
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true

		old, exists := prevByID[m.ID]
		if !exists {
			cs.New = append(cs.New, ModelChange{ID: m.ID, Model: m})
			continue
		}

		if changes := fieldChanges(old, m, opts); len(changes) > 0 {
			cs.Updated = append(cs.Updated, ModelUpdate{ID: m.ID, Model: m, Changes: changes})
		} else {
			cs.Unchanged++
		}
	}

	var disappeared []ModelChange
	for i := range previous {
		m := &previous[i]
		if !seen[m.ID] {
			seen[m.ID] = true
			disappeared = append(disappeared, ModelChange{ID: m.ID, Model: m})
		}
	}

	cs.PossibleRenames = detectRenames(cs.New, disappeared)

	renamed := make(map[string]bool, len(cs.PossibleRenames))
	for _, rp := range cs.PossibleRenames {
		renamed[rp.OldID] = true
	}
	for _, mc := range disappeared {
		if !renamed[mc.ID] {
			cs.Removed = append(cs.Removed, mc)
		}
	}

	return cs
}

func fieldChanges(old, cur *catalog.Model, opts Options) []FieldChange {
	var changes []FieldChange
	add := func(field, o, n string) {
		if o != n {
			changes = append(changes, FieldChange{Field: field, OldValue: o, NewValue: n})
		}
	}

	add("name", old.Name, cur.Name)
	if opts.TrackDescription {
		add("description", old.Description, cur.Description)
	}
	add("context_length", old.ContextLength.String(), cur.ContextLength.String())

	oldPrompt, oldCompletion := prices(old)
	curPrompt, curCompletion := prices(cur)
	if !samePrice(oldPrompt, curPrompt) {
		add("pricing.prompt", catalog.PerMillion(oldPrompt), catalog.PerMillion(curPrompt))
	}
	if !samePrice(oldCompletion, curCompletion) {
		add("pricing.completion", catalog.PerMillion(oldCompletion), catalog.PerMillion(curCompletion))
	}

	add("architecture.modality", old.Architecture.Modality, cur.Architecture.Modality)
	add("top_provider.name", old.TopProviderName, cur.TopProviderName)
	add("top_provider.context_length", old.TopProviderContext.String(), cur.TopProviderContext.String())

	if !equalStringSlices(old.Tags, cur.Tags) {
		changes = append(changes, FieldChange{
			Field:    "tags",
			OldValue: strings.Join(old.Tags, ", "),
			NewValue: strings.Join(cur.Tags, ", "),
		})
	}

	return changes
}

func prices(m *catalog.Model) (prompt, completion *decimal.Decimal) {
	if m.Pricing == nil {
		return nil, nil
	}
	return m.Pricing.Prompt, m.Pricing.Completion
}

// samePrice compares numerically, so "0.00001" and "1e-5" are equal.
func samePrice(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// equalStringSlices compares two string slices for equality (order-independent).
func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa := slices.Clone(a)
	sb := slices.Clone(b)
	slices.Sort(sa)
	slices.Sort(sb)
	return slices.Equal(sa, sb)
}

// detectRenames pairs disappeared and new models from the same vendor that
// share a display name, or whose context and prompt price are close.
func detectRenames(newModels, disappeared []ModelChange) []RenamePair {
	var renames []RenamePair
	matched := make(map[string]bool)

	for _, newM := range newModels {
		for _, oldM := range disappeared {
			if matched[oldM.ID] || vendor(newM.ID) == "" || vendor(newM.ID) != vendor(oldM.ID) {
				continue
			}

			if newM.Model.Name != catalog.Unknown && newM.Model.Name == oldM.Model.Name {
				renames = append(renames, RenamePair{OldID: oldM.ID, NewID: newM.ID, Reason: "same vendor and name"})
				matched[oldM.ID] = true
				break
			}

			if similarContext(oldM.Model, newM.Model) && similarPrice(oldM.Model, newM.Model) {
				renames = append(renames, RenamePair{OldID: oldM.ID, NewID: newM.ID, Reason: "same vendor, similar context/price"})
				matched[oldM.ID] = true
				break
			}
		}
	}

	return renames
}

func vendor(id string) string {
	v, _, ok := strings.Cut(id, "/")
	if !ok {
		return ""
	}
	return v
}

// similarContext requires both lengths known and within 10%.
func similarContext(a, b *catalog.Model) bool {
	if !a.ContextLength.Known || !b.ContextLength.Known || a.ContextLength.Tokens <= 0 {
		return false
	}
	return withinRatio(decimal.NewFromInt(int64(a.ContextLength.Tokens)), decimal.NewFromInt(int64(b.ContextLength.Tokens)), contextTolerance)
}

// similarPrice requires both prompt prices known and within 20%.
func similarPrice(a, b *catalog.Model) bool {
	pa, _ := prices(a)
	pb, _ := prices(b)
	if pa == nil || pb == nil {
		return false
	}
	if pa.IsZero() {
		return pb.IsZero()
	}
	return withinRatio(*pa, *pb, priceTolerance)
}

func withinRatio(old, cur, tolerance decimal.Decimal) bool {
	ratio := cur.Div(old)
	return ratio.Sub(decimal.NewFromInt(1)).Abs().LessThanOrEqual(tolerance)
}
