package expense

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// isoLayout matches JavaScript's toISOString output.
const isoLayout = "2006-01-02T15:04:05.000Z"

// readLayouts are tried in order when decoding a stored date.
var readLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02",
	"2/1/2006",
}

// Text decodes from a JSON string or number. Null decodes to "".
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		*t = Text(s)

		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}

		*t = Text(n.String())

		return nil
	}
}

// Document is the stored JSON body of an expense. The id is never part of
// the body except in the local array, where ID carries it.
type Document struct {
	ID       string `json:"id,omitempty"`
	Amount   Text   `json:"amount"`
	PayTo    Text   `json:"payTo"`
	Category Text   `json:"category,omitempty"`
	Date     Text   `json:"date,omitempty"`
	PayVia   Text   `json:"payVia,omitempty"`
}

// NewDocument converts a record to its wire form without the id.
func NewDocument(r Record) Document {
	d := Document{
		Amount:   Text(r.Amount),
		PayTo:    Text(r.PayTo),
		Category: Text(r.Category),
		PayVia:   Text(r.PayVia),
	}

	if !r.Date.IsZero() {
		d.Date = Text(FormatDate(r.Date))
	}

	return d
}

// Record converts the document back, using id as the record id.
func (d Document) Record(id string) Record {
	return Record{
		ID:       id,
		Amount:   string(d.Amount),
		PayTo:    string(d.PayTo),
		Category: Category(d.Category),
		Date:     ResolveDate(string(d.Date), id),
		PayVia:   string(d.PayVia),
	}
}

// Merge returns d with the present fields of p written over it. Fields the
// patch leaves out keep their stored text.
func (d Document) Merge(p Patch) Document {
	if p.Amount != nil {
		d.Amount = Text(*p.Amount)
	}

	if p.PayTo != nil {
		d.PayTo = Text(*p.PayTo)
	}

	if p.Category != nil {
		d.Category = Text(*p.Category)
	}

	if p.Date != nil {
		d.Date = Text(FormatDate(*p.Date))
	}

	if p.PayVia != nil {
		d.PayVia = Text(*p.PayVia)
	}

	return d
}

// PatchDocument returns the JSON object holding only the fields present in p.
func PatchDocument(p Patch) map[string]string {
	fields := make(map[string]string, 5)

	if p.Amount != nil {
		fields["amount"] = *p.Amount
	}

	if p.PayTo != nil {
		fields["payTo"] = *p.PayTo
	}

	if p.Category != nil {
		fields["category"] = string(*p.Category)
	}

	if p.Date != nil {
		fields["date"] = FormatDate(*p.Date)
	}

	if p.PayVia != nil {
		fields["payVia"] = *p.PayVia
	}

	return fields
}

// FormatDate renders t in UTC with millisecond precision.
func FormatDate(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// ResolveDate parses a stored date. When the value is missing or unreadable
// and id is a Unix-millisecond timestamp, the id's time is returned instead.
func ResolveDate(value, id string) time.Time {
	value = strings.TrimSpace(value)

	for _, layout := range readLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}

	if ms, ok := millisID(id); ok {
		return time.UnixMilli(ms).UTC()
	}

	return time.Time{}
}

// millisID reports whether id looks like a creation-time millisecond stamp.
func millisID(id string) (int64, bool) {
	if len(id) < 12 || len(id) > 16 {
		return 0, false
	}

	ms, err := strconv.ParseInt(id, 10, 64)
	if err != nil || ms <= 0 {
		return 0, false
	}

	return ms, true
}
