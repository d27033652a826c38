// Package importer moves expenses recorded before sign-in, or kept in backup
// files, into a user's cloud collection.
package importer

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Parser reads records from a backup file.
type Parser interface {
	Parse(r io.Reader) ([]expense.Record, error)
}

// DetectFormat picks the format from a file name's extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported backup file %q: expected .json or .csv", name)
	}
}

// ParserFor returns the parser for a format.
func ParserFor(f Format) (Parser, error) {
	switch f {
	case FormatJSON:
		return JSONParser{}, nil
	case FormatCSV:
		return CSVParser{}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s", f)
	}
}
