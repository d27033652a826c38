package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
)

var header = []string{"Date", "Payee", "Category", "Amount", "PaidVia"}

// Filter bounds the export by date, both ends inclusive. A nil bound is open.
type Filter struct {
	StartDate *time.Time
	EndDate   *time.Time
}

func (f Filter) includes(t time.Time) bool {
	if f.StartDate != nil && t.Before(*f.StartDate) {
		return false
	}

	if f.EndDate != nil && t.After(*f.EndDate) {
		return false
	}

	return true
}

// Service exports a user's expenses to CSV.
type Service struct {
	store expense.Store
}

// NewService creates a new export Service.
func NewService(store expense.Store) *Service {
	return &Service{store: store}
}

// Select lists the user's expenses inside the filter, newest first.
func (s *Service) Select(ctx context.Context, sess expense.Session, filter Filter) ([]expense.Record, error) {
	records, err := s.store.ListExpenses(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}

	records = slices.DeleteFunc(records, func(r expense.Record) bool { return !filter.includes(r.Date) })
	expense.SortMostRecentFirst(records)

	return records, nil
}

// Export writes the selected expenses to outputDir and returns the file path
// together with the records written.
func (s *Service) Export(ctx context.Context, sess expense.Session, filter Filter, outputDir string) (string, []expense.Record, error) {
	records, err := s.Select(ctx, sess, filter)
	if err != nil {
		return "", nil, err
	}

	path, err := Save(records, filter, outputDir)
	if err != nil {
		return "", nil, err
	}

	return path, records, nil
}

// Save writes records already selected for filter into outputDir, creating
// the directory if needed, and returns the file path.
func Save(records []expense.Record, filter Filter, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(outputDir, fileName(filter, time.Now()))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, records); err != nil {
		return "", err
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing file: %w", err)
	}

	return path, nil
}

// WriteCSV writes records with a header row. Dates are written as
// YYYY-MM-DD in UTC.
func WriteCSV(w io.Writer, records []expense.Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.Date.UTC().Format("2006-01-02"),
			r.PayTo,
			string(r.Category),
			strings.TrimSpace(r.Amount),
			r.PaymentMethod(),
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %s: %w", r.ID, err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	return nil
}

// fileName is spendly_<start>_<end>.csv, using "all" for open bounds.
func fileName(filter Filter, now time.Time) string {
	start, end := "all", now.Format("20060102")

	if filter.StartDate != nil {
		start = filter.StartDate.Format("20060102")
	}

	if filter.EndDate != nil {
		end = filter.EndDate.Format("20060102")
	}

	return fmt.Sprintf("spendly_%s_%s.csv", start, end)
}

// CategoryTotal is the amount spent in one category.
type CategoryTotal struct {
	Category expense.Category
	Total    decimal.Decimal
}

// CategoryTotals returns the per-category totals, largest first.
func CategoryTotals(records []expense.Record) []CategoryTotal {
	totals := expense.TotalsByCategory(records)

	out := make([]CategoryTotal, 0, len(totals))
	for c, t := range totals {
		out = append(out, CategoryTotal{Category: c, Total: t})
	}

	slices.SortFunc(out, func(a, b CategoryTotal) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}

		return strings.Compare(string(a.Category), string(b.Category))
	})

	return out
}

// GenerateSummary renders the total and the per-category totals, largest
// category first.
func GenerateSummary(records []expense.Record) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%d expenses, total %s\n", len(records), expense.Total(records).StringFixed(2))

	for _, ct := range CategoryTotals(records) {
		fmt.Fprintf(&sb, "* %s | %s\n", ct.Category, ct.Total.StringFixed(2))
	}

	return sb.String()
}
