package importer

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
)

// Result reports what an import did. IDs are the cloud ids of the records
// created so far, in upload order.
type Result struct {
	IDs     []string
	Skipped int
}

func (r Result) Imported() int {
	return len(r.IDs)
}

type Service struct {
	dest   expense.Store
	logger *slog.Logger
}

func NewService(dest expense.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{dest: dest, logger: logger}
}

// Normalize maps the category onto the current set and fills a missing
// date from a millisecond id. The id itself is dropped; the destination
// assigns a new one.
func Normalize(r expense.Record) expense.Record {
	r.Category = expense.Canonicalize(string(r.Category))

	if r.Date.IsZero() {
		r.Date = expense.ResolveDate("", r.ID)
	}

	r.ID = ""

	return r
}

// Import uploads records oldest first. Invalid records are skipped and
// counted. The first store error stops the import; the result then holds
// what was uploaded before it.
func (s *Service) Import(ctx context.Context, sess expense.Session, records []expense.Record) (Result, error) {
	var res Result

	pending := make([]expense.Record, 0, len(records))

	for _, r := range records {
		n := Normalize(r)
		if err := n.Validate(); err != nil {
			s.logger.Warn("skipping invalid record", "id", r.ID, "error", err)
			res.Skipped++

			continue
		}

		pending = append(pending, n)
	}

	expense.SortMostRecentFirst(pending)
	slices.Reverse(pending)

	for i, r := range pending {
		id, err := s.dest.CreateExpense(ctx, sess, r)
		if err != nil {
			return res, fmt.Errorf("uploading record %d of %d: %w", i+1, len(pending), err)
		}

		res.IDs = append(res.IDs, id)
	}

	s.logger.Info("import finished", "imported", res.Imported(), "skipped", res.Skipped)

	return res, nil
}
