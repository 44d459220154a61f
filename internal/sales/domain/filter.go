package domain

import (
	"sort"
	"strings"
	"time"
)

// FilterSales applies the filter to a snapshot of the collection. DateTo is
// inclusive through 23:59:59.999 of that day. With no explicit sort the
// result is ordered most recent first; explicit sorts are stable.
func FilterSales(sales []Sale, f SaleFilter) []Sale {
	result := make([]Sale, 0, len(sales))
	for _, s := range sales {
		if f.Search != "" && !matchesSearch(s, f.Search) {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if f.PaymentMethod != "" && s.PaymentMethod != f.PaymentMethod {
			continue
		}
		if f.DateFrom != nil && s.CreatedAt.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && s.CreatedAt.After(endOfDay(*f.DateTo)) {
			continue
		}
		result = append(result, s)
	}

	if f.SortBy == "" {
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		})
		return result
	}
	order := 1
	if f.SortOrder == SortDesc {
		order = -1
	}
	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		switch f.SortBy {
		case SortByDate:
			return order*compareTime(a.CreatedAt, b.CreatedAt) < 0
		case SortByTotal:
			return order*compareInt64(a.Total, b.Total) < 0
		case SortByCustomer:
			return order*strings.Compare(customerName(a), customerName(b)) < 0
		default:
			return false
		}
	})
	return result
}

func matchesSearch(s Sale, search string) bool {
	q := strings.ToLower(search)
	if strings.Contains(strings.ToLower(s.SaleNumber), q) {
		return true
	}
	return s.Customer != nil && strings.Contains(strings.ToLower(s.Customer.Name), q)
}

func customerName(s Sale) string {
	if s.Customer == nil {
		return ""
	}
	return s.Customer.Name
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 999_000_000, t.Location())
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
