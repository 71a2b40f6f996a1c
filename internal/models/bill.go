package models

import (
	"math"

	"github.com/google/uuid"
)

// Item represents a single line item on a receipt.
// Items can be shared among multiple participants.
type Item struct {
	// ID is the unique identifier for the item (UUID format).
	// Stable for the lifetime of the session.
	ID string

	// Name is the item description as extracted from the receipt (e.g., "Pizza").
	Name string

	// Price is the pre-tax price of this item. Always finite and non-negative.
	Price float64

	// AssignedTo is the set of participant names sharing this item, stored as
	// an ordered slice with no duplicates. If multiple people are assigned,
	// the item is split equally among them.
	AssignedTo []string
}

// Bill represents the receipt currently being split.
type Bill struct {
	// Items are the line items, in receipt order.
	Items []Item

	// Tax is the total tax on the bill.
	Tax float64

	// Tip is the total tip on the bill.
	Tip float64
}

// PersonSummary is one person's calculated share of a bill.
// This is the output of the allocation engine; it is derived state and is
// never stored.
type PersonSummary struct {
	Name     string
	Subtotal float64
	TaxShare float64
	TipShare float64
	Total    float64
}

// NewItem creates an item with a fresh ID, a sanitized price, and an empty
// assignment set.
func NewItem(name string, price float64) Item {
	if name == "" {
		name = "Unknown Item"
	}
	return Item{
		ID:    uuid.New().String(),
		Name:  name,
		Price: sanitizeAmount(price),
	}
}

// NewBill builds a bill from already-constructed items plus tax and tip.
// Negative or non-finite amounts are clamped to zero so upstream extraction
// noise never reaches the arithmetic.
func NewBill(items []Item, tax, tip float64) Bill {
	return Bill{
		Items: items,
		Tax:   sanitizeAmount(tax),
		Tip:   sanitizeAmount(tip),
	}
}

// Subtotal returns the sum of all item prices, assigned or not.
func (b Bill) Subtotal() float64 {
	var sum float64
	for _, item := range b.Items {
		sum += item.Price
	}
	return sum
}

// GrandTotal returns the subtotal plus tax and tip.
func (b Bill) GrandTotal() float64 {
	return b.Subtotal() + b.Tax + b.Tip
}

// ItemNames returns the item names in bill order. This is the item context
// handed to the command interpreter.
func (b Bill) ItemNames() []string {
	names := make([]string, len(b.Items))
	for i, item := range b.Items {
		names[i] = item.Name
	}
	return names
}

// sanitizeAmount clamps negative, NaN, and infinite amounts to zero.
func sanitizeAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
