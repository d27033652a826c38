package expense

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalid is matched by every ValidationError.
var ErrInvalid = errors.New("invalid expense")

// ValidationError reports a malformed field caught before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

// ParseAmount parses decimal amount text, ignoring surrounding spaces.
func ParseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}

// Validate checks the fields that must be valid at create or update time.
func (r Record) Validate() error {
	if err := validateAmount(r.Amount); err != nil {
		return err
	}

	return validatePayTo(r.PayTo)
}

// Validate applies the record rules to the fields present in the patch.
func (p Patch) Validate() error {
	if p.Amount != nil {
		if err := validateAmount(*p.Amount); err != nil {
			return err
		}
	}

	if p.PayTo != nil {
		if err := validatePayTo(*p.PayTo); err != nil {
			return err
		}
	}

	return nil
}

func validateAmount(s string) error {
	amount, err := ParseAmount(s)
	if err != nil {
		return &ValidationError{Field: "amount", Reason: "must be a number"}
	}

	if !amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}

	return nil
}

func validatePayTo(s string) error {
	if strings.TrimSpace(s) == "" {
		return &ValidationError{Field: "payTo", Reason: "cannot be empty"}
	}

	return nil
}
