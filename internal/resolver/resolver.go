// Package resolver applies interpreted assignment commands to bill items.
//
// Matching is plain case-insensitive substring containment on the item name.
// The interpreter is asked for the closest item name, but the resolver itself
// does no fuzzy matching; that precision limit is deliberate.
package resolver

import (
	"strings"

	"github.com/mmynk/billchat/internal/models"
)

// Assign adds people to the assignment set of every item whose name contains
// search (case-insensitive). It returns a new item slice and the number of
// items that matched; the input is not modified. Assignment has set
// semantics: adding a person already on an item is a no-op, so re-applying
// the same command changes nothing.
//
// A zero match count is a valid outcome, not an error; the caller decides how
// to surface it.
func Assign(items []models.Item, people []string, search string) ([]models.Item, int) {
	return apply(items, search, func(assigned []string) []string {
		return union(assigned, people)
	})
}

// Unassign removes people from the assignment set of every matching item.
// People not on a matching item are ignored.
func Unassign(items []models.Item, people []string, search string) ([]models.Item, int) {
	return apply(items, search, func(assigned []string) []string {
		return difference(assigned, people)
	})
}

func apply(items []models.Item, search string, update func([]string) []string) ([]models.Item, int) {
	lowerSearch := strings.ToLower(search)
	out := make([]models.Item, len(items))
	matched := 0
	for i, item := range items {
		if strings.Contains(strings.ToLower(item.Name), lowerSearch) {
			item.AssignedTo = update(item.AssignedTo)
			matched++
		}
		out[i] = item
	}
	return out, matched
}

// union merges extra into assigned, preserving first-seen order and
// collapsing duplicates. Names are compared case-sensitively.
func union(assigned, extra []string) []string {
	seen := make(map[string]bool, len(assigned)+len(extra))
	merged := make([]string, 0, len(assigned)+len(extra))
	for _, name := range assigned {
		if !seen[name] {
			seen[name] = true
			merged = append(merged, name)
		}
	}
	for _, name := range extra {
		if !seen[name] {
			seen[name] = true
			merged = append(merged, name)
		}
	}
	return merged
}

// difference returns assigned without any of removed, preserving order.
func difference(assigned, removed []string) []string {
	drop := make(map[string]bool, len(removed))
	for _, name := range removed {
		drop[name] = true
	}
	var kept []string
	for _, name := range assigned {
		if !drop[name] {
			kept = append(kept, name)
		}
	}
	return kept
}
