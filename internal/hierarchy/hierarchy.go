// Package hierarchy resolves the relationship between registered folder
// paths and plans how a newly-added path should be incorporated, per
// spec.md §3's Folder invariants ("registered folders must not duplicate
// and must not form exact overlaps... the newly-added inner path is
// recorded as a bookmark, not an independent index root").
package hierarchy

import (
	"path/filepath"
	"strings"
)

// Relation is the symmetric-under-swap classification spec.md §8 requires:
// relationship(a,a)=duplicate, relationship(a,b)=parent iff
// relationship(b,a)=child.
type Relation string

const (
	RelationDuplicate Relation = "duplicate"
	RelationParent    Relation = "parent"
	RelationChild     Relation = "child"
	RelationNone      Relation = "none"
)

// Normalize strips a trailing separator and cleans a path, matching the
// Folder identity rule in spec.md §3 ("normalized absolute path, no
// trailing slash").
func Normalize(path string) string {
	clean := filepath.Clean(path)
	if clean == "." {
		return clean
	}
	return strings.TrimSuffix(clean, string(filepath.Separator))
}

// Relationship classifies how a relates to b (RelationParent means a
// contains b). Both paths are normalized first.
func Relationship(a, b string) Relation {
	a, b = Normalize(a), Normalize(b)
	if a == b {
		return RelationDuplicate
	}
	if isUnder(b, a) {
		return RelationParent
	}
	if isUnder(a, b) {
		return RelationChild
	}
	return RelationNone
}

// isUnder reports whether child is a strict descendant of parent.
func isUnder(child, parent string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..")
}

// AddPlan describes how a newly-requested path should be incorporated
// given the set of already-registered folder paths.
type AddPlan struct {
	// IsBookmark is true when path is already contained by an existing
	// registered root; it is recorded but does not get its own index.
	IsBookmark bool
	// ParentPath is set when IsBookmark is true: the containing root.
	ParentPath string
	// Duplicate is true when path exactly matches an existing registration.
	Duplicate bool
	// Subsumes lists already-registered paths that path would now contain
	// (candidates to demote to bookmarks of the new root).
	Subsumes []string
}

// PlanAdd decides how to incorporate a newly requested path against the
// set of already-registered folder paths.
func PlanAdd(path string, registered []string) AddPlan {
	path = Normalize(path)
	var plan AddPlan
	for _, r := range registered {
		switch Relationship(r, path) {
		case RelationDuplicate:
			plan.Duplicate = true
		case RelationParent:
			plan.IsBookmark = true
			plan.ParentPath = r
		case RelationChild:
			plan.Subsumes = append(plan.Subsumes, r)
		}
	}
	return plan
}
