package mirror

import (
	"sort"

	"github.com/dairydesk/dairydesk-golang/internal/models"
)

// ProductTally is the quantity sold of one product across a day's orders.
type ProductTally struct {
	ProductName string  `json:"productName"`
	Quantity    float64 `json:"quantity"`
}

// DailySummary is the derived dashboard view for one calendar date.
type DailySummary struct {
	Date            string         `json:"date"`
	OrderCount      int            `json:"orderCount"`
	TotalAmount     float64        `json:"totalAmount"`
	TotalCollection float64        `json:"totalCollection"`
	TotalPending    float64        `json:"totalPending"`
	ProductTotals   []ProductTally `json:"productTotals"`
}

// ComputeDailySummary derives the dashboard figures for one date from an
// order mirror snapshot. It is a pure function: callers re-run it whenever
// the order mirror changes.
func ComputeDailySummary(orders []models.Order, date string) DailySummary {
	summary := DailySummary{Date: date}

	tallies := make(map[string]float64)
	for _, o := range orders {
		if o.Date != date {
			continue
		}
		summary.OrderCount++
		summary.TotalAmount += o.TotalAmount
		summary.TotalCollection += o.AmountPaid
		for _, item := range o.Items {
			tallies[item.ProductName] += item.Quantity
		}
	}
	summary.TotalPending = summary.TotalAmount - summary.TotalCollection

	summary.ProductTotals = make([]ProductTally, 0, len(tallies))
	for name, qty := range tallies {
		summary.ProductTotals = append(summary.ProductTotals, ProductTally{ProductName: name, Quantity: qty})
	}
	// Highest-selling first; name breaks ties so the order is stable.
	sort.Slice(summary.ProductTotals, func(i, j int) bool {
		if summary.ProductTotals[i].Quantity != summary.ProductTotals[j].Quantity {
			return summary.ProductTotals[i].Quantity > summary.ProductTotals[j].Quantity
		}
		return summary.ProductTotals[i].ProductName < summary.ProductTotals[j].ProductName
	})

	return summary
}
