package expenselist

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/remote"
)

// UserMessage turns an error into a short message fit for an alert.
// A nil error yields "".
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		verr *expense.ValidationError
		aerr *remote.AuthError
		rerr *remote.RemoteError
	)

	switch {
	case errors.Is(err, remote.ErrNoConnectivity):
		return "You appear to be offline. Check your connection and try again."
	case errors.Is(err, remote.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "The server took too long to respond. Please try again."
	case errors.Is(err, context.Canceled):
		return "The request was cancelled."
	case errors.As(err, &verr):
		return validationMessage(verr)
	case errors.As(err, &aerr):
		return authMessage(aerr.Code)
	case errors.Is(err, expense.ErrNotFound):
		return "This expense no longer exists. Refresh to see the latest list."
	case errors.Is(err, ErrNotInList):
		return "This expense is no longer in the list."
	case errors.Is(err, ErrDeleteInFlight):
		return "This expense is already being deleted."
	case errors.As(err, &rerr) && (rerr.StatusCode == http.StatusUnauthorized || rerr.StatusCode == http.StatusForbidden):
		return "Your session has expired. Please sign in again."
	case errors.As(err, &rerr):
		return "Could not sync with the server. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

func validationMessage(err *expense.ValidationError) string {
	switch err.Field {
	case "amount":
		return "Please enter a valid amount greater than zero."
	case "payTo":
		return "Please enter who you paid."
	default:
		return "Please check the highlighted fields."
	}
}

func authMessage(code string) string {
	switch {
	case code == "EMAIL_EXISTS":
		return "An account with this email already exists."
	case code == "INVALID_LOGIN_CREDENTIALS", code == "INVALID_PASSWORD", code == "EMAIL_NOT_FOUND":
		return "Incorrect email or password."
	case code == "INVALID_EMAIL":
		return "Please enter a valid email address."
	case strings.HasPrefix(code, "WEAK_PASSWORD"):
		return "Password must be at least 6 characters."
	case strings.HasPrefix(code, "PASSWORD_TOO_LONG"):
		return "Password is too long."
	case strings.HasPrefix(code, "TOO_MANY_ATTEMPTS"):
		return "Too many attempts. Please try again later."
	default:
		return "Authentication failed. Please try again."
	}
}
