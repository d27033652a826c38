// Package identity signs users up and in with email and password and issues
// the id tokens that guard the document store.
package identity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password should be at least 6 characters")
	ErrPasswordTooLong    = errors.New("password should be at most 72 bytes")
	ErrInvalidToken       = errors.New("invalid id token")
	ErrNotFound           = errors.New("user not found")
)

const (
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 6
	// MaxPasswordLength is the most bcrypt will hash, in bytes.
	MaxPasswordLength = 72
)

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Session is what a successful sign-up or sign-in hands back.
type Session struct {
	IDToken   string
	LocalID   string
	Email     string
	ExpiresIn time.Duration
}
