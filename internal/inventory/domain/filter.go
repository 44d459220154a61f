package domain

import (
	"sort"
	"strings"
)

// FilterProducts applies the filter to a snapshot of the collection. The
// sort is stable: ties keep their original relative order.
func FilterProducts(products []Product, f ProductFilter) []Product {
	result := make([]Product, 0, len(products))
	for _, p := range products {
		if f.Search != "" && !matchesSearch(p, f.Search) {
			continue
		}
		if f.CategoryID != "" && p.CategoryID != f.CategoryID {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.LowStock && !p.HasLowStock() {
			continue
		}
		result = append(result, p)
	}

	if f.SortBy == "" {
		return result
	}
	order := 1
	if f.SortOrder == SortDesc {
		order = -1
	}
	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		switch f.SortBy {
		case SortByName:
			return order*strings.Compare(a.Name, b.Name) < 0
		case SortByPrice:
			return order*compareInt64(a.SalePrice, b.SalePrice) < 0
		case SortByStock:
			return order*compareInt(a.Stock, b.Stock) < 0
		case SortByCreated:
			return order*compareTime(a.CreatedAt, b.CreatedAt) < 0
		default:
			return false
		}
	})
	return result
}

func matchesSearch(p Product, search string) bool {
	s := strings.ToLower(search)
	return strings.Contains(strings.ToLower(p.Name), s) ||
		strings.Contains(strings.ToLower(p.SKU), s) ||
		strings.Contains(strings.ToLower(p.Barcode), s)
}
