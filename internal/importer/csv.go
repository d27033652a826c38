package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	enc "github.com/MrJamesThe3rd/spendly/internal/encoding"
	"github.com/MrJamesThe3rd/spendly/internal/expense"
)

// CSVParser reads CSV backups. The layout is picked by matching the header
// row against the known profiles; rows above the header are ignored.
type CSVParser struct{}

func (CSVParser) Parse(r io.Reader) ([]expense.Record, error) {
	data, _, err := enc.ReadAllUTF8(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffComma(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, cols, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching CSV layout: expected Date, Payee/PayTo/Description and Amount or Debit/Credit columns")
	}

	return parseRows(profile, cols, rows[headerIdx+1:]), nil
}

// sniffComma prefers ';' when the first line has more of them than commas.
func sniffComma(data []byte) rune {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}

	return ','
}

// colIndex maps normalized column names to their index in the row.
type colIndex map[string]int

func normalizeHeader(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex, len(row))
		for i, cell := range row {
			cols[normalizeHeader(cell)] = i
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows keeps rows with a readable date. Amount and payee are passed
// through as written so validation can count the bad ones later.
func parseRows(p *Profile, cols colIndex, rows [][]string) []expense.Record {
	var records []expense.Record

	for _, row := range rows {
		date := expense.ResolveDate(cellValue(row, cols, p.DateCol), "")
		if date.IsZero() {
			continue
		}

		amount, ok := rowAmount(p, cols, row)
		if !ok {
			continue
		}

		records = append(records, expense.Record{
			Amount:   amount,
			PayTo:    cellValue(row, cols, p.PayeeCol),
			Category: expense.Category(cellValue(row, cols, p.CategoryCol)),
			Date:     date,
			PayVia:   cellValue(row, cols, p.PayViaCol),
		})
	}

	return records
}

func rowAmount(p *Profile, cols colIndex, row []string) (string, bool) {
	switch p.AmountMode {
	case amountSingle:
		return cleanAmount(cellValue(row, cols, p.AmountCol)), true
	case amountDebit:
		debit := cleanAmount(cellValue(row, cols, p.DebitCol))
		if debit == "" {
			return "", false
		}

		return strings.TrimPrefix(debit, "-"), true
	}

	return "", false
}

// cleanAmount strips the rupee sign and grouping commas ("₹1,23,456.50").
func cleanAmount(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "₹")
	s = strings.TrimPrefix(s, "Rs.")
	s = strings.ReplaceAll(s, ",", "")

	return strings.TrimSpace(s)
}

// cellValue returns the trimmed cell for a column name, or "" when the
// column or cell is missing.
func cellValue(row []string, cols colIndex, name string) string {
	if name == "" {
		return ""
	}

	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
