package diff

import "github.com/everstacklabs/orcatalog/internal/catalog"

// ChangeSet is the difference between a previous catalog snapshot and the
// current one.
type ChangeSet struct {
	New             []ModelChange
	Updated         []ModelUpdate
	Removed         []ModelChange
	PossibleRenames []RenamePair
	Unchanged       int
}

// ModelChange is a model that appeared or disappeared.
type ModelChange struct {
	ID    string
	Model *catalog.Model
}

// ModelUpdate is a model present in both snapshots with field changes.
type ModelUpdate struct {
	ID      string
	Model   *catalog.Model
	Changes []FieldChange
}

// FieldChange records one changed field, rendered for display.
type FieldChange struct {
	Field    string
	OldValue string
	NewValue string
}

// RenamePair is a removed model that probably reappeared under a new ID.
type RenamePair struct {
	OldID  string
	NewID  string
	Reason string
}

// HasChanges reports whether the changeset has any modifications.
func (cs *ChangeSet) HasChanges() bool {
	return len(cs.New) > 0 || len(cs.Updated) > 0 || len(cs.Removed) > 0 || len(cs.PossibleRenames) > 0
}

// TotalChanged returns the count of new + updated models.
func (cs *ChangeSet) TotalChanged() int {
	return len(cs.New) + len(cs.Updated)
}
