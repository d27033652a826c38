package expense

import (
	"context"
	"errors"
)

// ErrNotFound is returned when updating an id the collection does not hold.
var ErrNotFound = errors.New("expense not found")

//go:generate mockgen -source=store.go -destination=store_mock.go -package=expense
type Store interface {
	CreateExpense(ctx context.Context, sess Session, rec Record) (string, error)
	ListExpenses(ctx context.Context, sess Session) ([]Record, error)
	UpdateExpense(ctx context.Context, sess Session, id string, patch Patch) error
	DeleteExpense(ctx context.Context, sess Session, id string) error
}
