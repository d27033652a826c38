package expense

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RecentWindow bounds the recent view. A record exactly this old is included.
const RecentWindow = 7 * 24 * time.Hour

// SortMostRecentFirst orders records by date descending, then id descending.
func SortMostRecentFirst(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}

		return compareIDs(b.ID, a.ID)
	})
}

// compareIDs orders numeric ids by value and everything else lexically.
func compareIDs(a, b string) int {
	if len(a) != len(b) {
		if _, okA := millisID(a); okA {
			if _, okB := millisID(b); okB {
				return len(a) - len(b)
			}
		}
	}

	return strings.Compare(a, b)
}

// Recent returns the records dated no more than RecentWindow before now.
// Future dates are kept.
func Recent(records []Record, now time.Time) []Record {
	out := make([]Record, 0, len(records))

	for _, r := range records {
		if now.Sub(r.Date) <= RecentWindow {
			out = append(out, r)
		}
	}

	return out
}

// Total sums the parseable amounts. Anything unparseable counts as zero.
func Total(records []Record) decimal.Decimal {
	total := decimal.Zero

	for _, r := range records {
		amount, err := ParseAmount(r.Amount)
		if err != nil {
			continue
		}

		total = total.Add(amount)
	}

	return total
}

// TotalsByCategory sums amounts per category. Empty categories are reported
// as Others.
func TotalsByCategory(records []Record) map[Category]decimal.Decimal {
	totals := make(map[Category]decimal.Decimal)

	for _, r := range records {
		amount, err := ParseAmount(r.Amount)
		if err != nil {
			continue
		}

		c := r.Category
		if c == "" {
			c = CategoryOthers
		}

		totals[c] = totals[c].Add(amount)
	}

	return totals
}
