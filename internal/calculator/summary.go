// Package calculator computes each participant's share of a bill.
package calculator

import (
	"github.com/mmynk/billchat/internal/models"
)

// Summaries computes one PersonSummary per distinct assignee on the bill.
//
// Each item contributes price/N to each of its N assignees. Tax and tip are
// then allocated proportionally to each person's share of the total item
// subtotal: tax_share = (person_subtotal / bill_subtotal) * tax. The
// denominator includes unassigned items, so unassigned cost dilutes everyone's
// tax fraction rather than vanishing from the proportional base.
//
// The function is pure: same bill in, same summaries out. Output order is
// first-appearance order over the bill's items, so it is stable across calls.
// If the total subtotal is zero there is nothing to apportion and the result
// is empty; this is a defined case, not an error.
func Summaries(bill models.Bill) []models.PersonSummary {
	totalSubtotal := bill.Subtotal()
	if totalSubtotal == 0 {
		return nil
	}

	// Collect distinct assignees in first-appearance order.
	var people []string
	seen := make(map[string]bool)
	for _, item := range bill.Items {
		for _, person := range item.AssignedTo {
			if !seen[person] {
				seen[person] = true
				people = append(people, person)
			}
		}
	}

	// Accumulate each person's subtotal from their assigned items.
	subtotals := make(map[string]float64, len(people))
	for _, item := range bill.Items {
		if len(item.AssignedTo) == 0 {
			continue
		}
		perPerson := item.Price / float64(len(item.AssignedTo))
		for _, person := range item.AssignedTo {
			subtotals[person] += perPerson
		}
	}

	summaries := make([]models.PersonSummary, 0, len(people))
	for _, person := range people {
		subtotal := subtotals[person]
		taxShare := (subtotal / totalSubtotal) * bill.Tax
		tipShare := (subtotal / totalSubtotal) * bill.Tip
		summaries = append(summaries, models.PersonSummary{
			Name:     person,
			Subtotal: subtotal,
			TaxShare: taxShare,
			TipShare: tipShare,
			Total:    subtotal + taxShare + tipShare,
		})
	}
	return summaries
}

// assignedSubtotal returns the portion of the bill's subtotal covered by items
// with at least one assignee. The conservation tests check person subtotals
// sum to exactly this.
func assignedSubtotal(bill models.Bill) float64 {
	var sum float64
	for _, item := range bill.Items {
		if len(item.AssignedTo) > 0 {
			sum += item.Price
		}
	}
	return sum
}
