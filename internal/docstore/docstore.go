// Package docstore keeps per-owner collections of JSON documents. Documents
// are addressed by collection, owner and a server-generated id.
package docstore

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrInvalidBody = errors.New("body must be a JSON object")
)

type Document struct {
	Collection string
	Owner      string
	ID         string
	Body       json.RawMessage
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}
