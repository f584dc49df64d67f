package sales

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Apply filters records by the criteria and aggregates the result.
// It has no side effects and never fails: unsatisfiable criteria yield an empty summary.
func Apply(records []Sale, c Criteria) Summary {
	var from, to time.Time
	if c.From != nil {
		from = startOfDay(*c.From)
	}
	if c.To != nil {
		to = endOfDay(*c.To)
	}

	filtered := make([]Sale, 0, len(records))
	total := decimal.Zero
	byProduct := map[string]decimal.Decimal{}

	for _, sale := range records {
		if c.Product != "" && sale.Product != c.Product {
			continue
		}
		if c.Customer != "" && sale.Customer != c.Customer {
			continue
		}
		if c.From != nil && sale.Date.Before(from) {
			continue
		}
		if c.To != nil && sale.Date.After(to) {
			continue
		}

		filtered = append(filtered, sale)
		amount := decimal.NewFromFloat(sale.Amount)
		total = total.Add(amount)
		byProduct[sale.Product] = byProduct[sale.Product].Add(amount)
	}

	summary := Summary{
		Filtered:  filtered,
		Total:     total.InexactFloat64(),
		ByProduct: make(map[string]float64, len(byProduct)),
	}
	for product, sum := range byProduct {
		summary.ByProduct[product] = sum.InexactFloat64()
	}
	return summary
}

// SortByDateDesc orders sales most recent first. Ties keep their input order.
func SortByDateDesc(sales []Sale) {
	sort.SliceStable(sales, func(i, j int) bool {
		return sales[i].Date.After(sales[j].Date)
	})
}

// ProductTotals returns the per-product sums in order of first appearance in the filtered set.
func ProductTotals(s Summary) []ProductTotal {
	out := make([]ProductTotal, 0, len(s.ByProduct))
	seen := make(map[string]bool, len(s.ByProduct))
	for _, sale := range s.Filtered {
		if seen[sale.Product] {
			continue
		}
		seen[sale.Product] = true
		out = append(out, ProductTotal{Name: sale.Product, Total: s.ByProduct[sale.Product]})
	}
	return out
}

// Options lists distinct products and customers in first-seen order.
func Options(records []Sale) FilterOptions {
	opts := FilterOptions{Products: []string{}, Customers: []string{}}
	products := map[string]bool{}
	customers := map[string]bool{}
	for _, sale := range records {
		if !products[sale.Product] {
			products[sale.Product] = true
			opts.Products = append(opts.Products, sale.Product)
		}
		if !customers[sale.Customer] {
			customers[sale.Customer] = true
			opts.Customers = append(opts.Customers, sale.Customer)
		}
	}
	return opts
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
