package resolver

import (
	"reflect"
	"testing"

	"github.com/mmynk/billchat/internal/models"
)

func testItems() []models.Item {
	return []models.Item{
		{ID: "1", Name: "Nachos", Price: 10.00},
		{ID: "2", Name: "Pizza", Price: 20.00, AssignedTo: []string{"Alice"}},
	}
}

func TestAssign(t *testing.T) {
	tests := []struct {
		name        string
		people      []string
		search      string
		wantMatched int
		wantSets    [][]string
	}{
		{
			name:        "case-insensitive substring matches",
			people:      []string{"Bob"},
			search:      "za",
			wantMatched: 1,
			wantSets:    [][]string{nil, {"Alice", "Bob"}},
		},
		{
			name:        "no match leaves items unchanged",
			people:      []string{"Bob"},
			search:      "burger",
			wantMatched: 0,
			wantSets:    [][]string{nil, {"Alice"}},
		},
		{
			name:        "duplicate assignment is a no-op",
			people:      []string{"Alice"},
			search:      "pizza",
			wantMatched: 1,
			wantSets:    [][]string{nil, {"Alice"}},
		},
		{
			name:        "multiple people assigned together",
			people:      []string{"Bob", "Carol"},
			search:      "nachos",
			wantMatched: 1,
			wantSets:    [][]string{{"Bob", "Carol"}, {"Alice"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := testItems()
			got, matched := Assign(items, tt.people, tt.search)

			if matched != tt.wantMatched {
				t.Errorf("matched = %d, want %d", matched, tt.wantMatched)
			}
			for i, want := range tt.wantSets {
				if !reflect.DeepEqual(got[i].AssignedTo, want) {
					t.Errorf("item %d assigned = %v, want %v", i, got[i].AssignedTo, want)
				}
			}

			// Input must be untouched.
			if !reflect.DeepEqual(items, testItems()) {
				t.Error("Assign mutated its input")
			}
		})
	}
}

func TestAssign_MatchesAllItems(t *testing.T) {
	items := []models.Item{
		{ID: "1", Name: "House Salad", Price: 8.00},
		{ID: "2", Name: "Caesar Salad", Price: 9.00},
	}

	got, matched := Assign(items, []string{"Dave"}, "salad")

	if matched != 2 {
		t.Fatalf("matched = %d, want 2", matched)
	}
	for i, item := range got {
		if !reflect.DeepEqual(item.AssignedTo, []string{"Dave"}) {
			t.Errorf("item %d assigned = %v, want [Dave]", i, item.AssignedTo)
		}
	}
}

func TestAssign_Idempotent(t *testing.T) {
	items := testItems()

	once, _ := Assign(items, []string{"Bob"}, "pizza")
	twice, _ := Assign(once, []string{"Bob"}, "pizza")

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second assignment changed state: %v vs %v", once, twice)
	}
}

func TestAssign_NamesAreCaseSensitive(t *testing.T) {
	items := testItems()

	got, _ := Assign(items, []string{"alice"}, "pizza")

	want := []string{"Alice", "alice"}
	if !reflect.DeepEqual(got[1].AssignedTo, want) {
		t.Errorf("assigned = %v, want %v", got[1].AssignedTo, want)
	}
}

func TestUnassign(t *testing.T) {
	items := []models.Item{
		{ID: "1", Name: "Pizza", Price: 20.00, AssignedTo: []string{"Alice", "Bob", "Carol"}},
		{ID: "2", Name: "Nachos", Price: 10.00, AssignedTo: []string{"Bob"}},
	}

	got, matched := Unassign(items, []string{"Bob", "Dave"}, "pizza")

	if matched != 1 {
		t.Fatalf("matched = %d, want 1", matched)
	}
	if want := []string{"Alice", "Carol"}; !reflect.DeepEqual(got[0].AssignedTo, want) {
		t.Errorf("pizza assigned = %v, want %v", got[0].AssignedTo, want)
	}
	// Nachos did not match, so Bob stays on it.
	if want := []string{"Bob"}; !reflect.DeepEqual(got[1].AssignedTo, want) {
		t.Errorf("nachos assigned = %v, want %v", got[1].AssignedTo, want)
	}
}

func TestUnassign_NoMatch(t *testing.T) {
	items := testItems()

	got, matched := Unassign(items, []string{"Alice"}, "sushi")

	if matched != 0 {
		t.Errorf("matched = %d, want 0", matched)
	}
	if !reflect.DeepEqual(got, items) {
		t.Errorf("items changed on no match: %v", got)
	}
}
