package diff

import (
	"fmt"
	"strings"
)

// RenderDiffSummary formats a changeset for the terminal.
func RenderDiffSummary(cs *ChangeSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Catalog diff: %d new, %d updated, %d removed, %d possible renames, %d unchanged\n",
		len(cs.New), len(cs.Updated), len(cs.Removed), len(cs.PossibleRenames), cs.Unchanged)

	for _, mc := range cs.New {
		fmt.Fprintf(&b, "  + %s\n", mc.ID)
	}
	for _, mu := range cs.Updated {
		fmt.Fprintf(&b, "  ~ %s\n", mu.ID)
		for _, fc := range mu.Changes {
			fmt.Fprintf(&b, "      %s: %s -> %s\n", fc.Field, fc.OldValue, fc.NewValue)
		}
	}
	for _, mc := range cs.Removed {
		fmt.Fprintf(&b, "  - %s\n", mc.ID)
	}
	for _, rp := range cs.PossibleRenames {
		fmt.Fprintf(&b, "  ? %s -> %s (%s)\n", rp.OldID, rp.NewID, rp.Reason)
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderMarkdown formats a changeset as a pull request body.
func RenderMarkdown(cs *ChangeSet) string {
	var b strings.Builder
	b.WriteString("## Catalog changes\n\n")
	if !cs.HasChanges() {
		b.WriteString("No changes.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "| | Count |\n|---|---|\n| New | %d |\n| Updated | %d |\n| Removed | %d |\n| Possible renames | %d |\n| Unchanged | %d |\n",
		len(cs.New), len(cs.Updated), len(cs.Removed), len(cs.PossibleRenames), cs.Unchanged)

	if len(cs.New) > 0 {
		b.WriteString("\n### New models\n\n")
		for _, mc := range cs.New {
			fmt.Fprintf(&b, "- `%s` %s\n", mc.ID, mc.Model.Name)
		}
	}
	if len(cs.Updated) > 0 {
		b.WriteString("\n### Updated models\n\n")
		for _, mu := range cs.Updated {
			fmt.Fprintf(&b, "- `%s`\n", mu.ID)
			for _, fc := range mu.Changes {
				fmt.Fprintf(&b, "  - %s: `%s` -> `%s`\n", fc.Field, fc.OldValue, fc.NewValue)
			}
		}
	}
	if len(cs.Removed) > 0 {
		b.WriteString("\n### Removed models\n\n")
		for _, mc := range cs.Removed {
			fmt.Fprintf(&b, "- `%s` %s\n", mc.ID, mc.Model.Name)
		}
	}
	if len(cs.PossibleRenames) > 0 {
		b.WriteString("\n### Possible renames\n\n")
		for _, rp := range cs.PossibleRenames {
			fmt.Fprintf(&b, "- `%s` -> `%s` (%s)\n", rp.OldID, rp.NewID, rp.Reason)
		}
	}
	return b.String()
}
