package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=identity
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

type Service struct {
	repo   Repository
	tokens *Tokens
	cost   int
}

type Option func(*Service)

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.cost = cost
	}
}

func NewService(repo Repository, tokens *Tokens, opts ...Option) *Service {
	s := &Service{repo: repo, tokens: tokens, cost: bcrypt.DefaultCost}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SignUp registers a new user and signs them in.
func (s *Service) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)

	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	if len(password) > MaxPasswordLength {
		return nil, ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{ID: uuid.New(), Email: email, PasswordHash: hash}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}

		return nil, fmt.Errorf("creating user: %w", err)
	}

	return s.session(user)
}

// SignIn checks the password and issues a fresh token. Unknown emails and
// wrong passwords fail the same way.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)

	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("getting user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.session(user)
}

// Verify returns the user id a token was issued for.
func (s *Service) Verify(token string) (string, error) {
	return s.tokens.Verify(token)
}

func (s *Service) session(user *User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID.String())
	if err != nil {
		return nil, err
	}

	return &Session{
		IDToken:   token,
		LocalID:   user.ID.String(),
		Email:     user.Email,
		ExpiresIn: s.tokens.TTL(),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
