package domain

import "time"

// Summary is the sales aggregate view for one store, recomputed on demand
// from a snapshot of the sale collection. Cancelled sales are excluded from
// the money aggregates.
type Summary struct {
	TodayTotal  int64 `json:"todayTotal"`
	TodayProfit int64 `json:"todayProfit"`
	MonthTotal  int64 `json:"monthTotal"`
	PendingDebt int64 `json:"pendingDebt"`
	TotalSales  int   `json:"totalSales"`
}

// Summarize folds a sale snapshot into its aggregate view, relative to now.
func Summarize(sales []Sale, now time.Time) Summary {
	var s Summary
	s.TotalSales = len(sales)

	y, m, d := now.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	monthStart := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())

	for _, sale := range sales {
		if sale.Status == StatusCancelled {
			continue
		}
		if !sale.CreatedAt.Before(monthStart) {
			s.MonthTotal += sale.Total
		}
		if !sale.CreatedAt.Before(dayStart) {
			s.TodayTotal += sale.Total
			s.TodayProfit += sale.Profit
		}
		if sale.HasPendingDebt() {
			s.PendingDebt += sale.AmountDue
		}
	}
	return s
}
