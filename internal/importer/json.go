package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	enc "github.com/MrJamesThe3rd/spendly/internal/encoding"
	"github.com/MrJamesThe3rd/spendly/internal/expense"
)

// JSONParser reads either the local array (objects carrying an id) or a
// collection dump mapping ids to documents.
type JSONParser struct{}

func (JSONParser) Parse(r io.Reader) ([]expense.Record, error) {
	data, _, err := enc.ReadAllUTF8(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data = bytes.TrimSpace(data)

	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		return nil, nil
	case data[0] == '[':
		var docs []expense.Document
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}

		records := make([]expense.Record, 0, len(docs))
		for _, d := range docs {
			records = append(records, d.Record(d.ID))
		}

		return records, nil
	case data[0] == '{':
		var docs map[string]expense.Document
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("decode object: %w", err)
		}

		records := make([]expense.Record, 0, len(docs))
		for id, d := range docs {
			records = append(records, d.Record(id))
		}

		return records, nil
	default:
		return nil, fmt.Errorf("backup is neither a JSON array nor an object")
	}
}
