package identity_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrJamesThe3rd/spendly/internal/identity"
)

func newService(repo identity.Repository) *identity.Service {
	tokens := identity.NewTokens([]byte("test-secret"), "spendly-test", time.Hour)
	return identity.NewService(repo, tokens, identity.WithBcryptCost(bcrypt.MinCost))
}

func TestService_SignUp(t *testing.T) {
	type testCase struct {
		name      string
		email     string
		password  string
		setupMock func(m *identity.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name:     "Success",
			email:    "  Asha@Example.com ",
			password: "secret1",
			setupMock: func(m *identity.MockRepository) {
				m.EXPECT().
					CreateUser(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, u *identity.User) error {
						assert.Equal(t, "asha@example.com", u.Email)
						assert.NoError(t, bcrypt.CompareHashAndPassword(u.PasswordHash, []byte("secret1")))

						return nil
					})
			},
		},
		{name: "InvalidEmail", email: "asha.example.com", password: "secret1", wantErr: identity.ErrInvalidEmail},
		{name: "WeakPassword", email: "asha@example.com", password: "12345", wantErr: identity.ErrWeakPassword},
		{name: "PasswordTooLong", email: "asha@example.com", password: strings.Repeat("x", 73), wantErr: identity.ErrPasswordTooLong},
		{
			name:     "EmailExists",
			email:    "asha@example.com",
			password: "secret1",
			setupMock: func(m *identity.MockRepository) {
				m.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(identity.ErrEmailExists)
			},
			wantErr: identity.ErrEmailExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := identity.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := newService(repo)

			sess, err := svc.SignUp(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "asha@example.com", sess.Email)
			assert.Equal(t, time.Hour, sess.ExpiresIn)

			uid, err := svc.Verify(sess.IDToken)
			require.NoError(t, err)
			assert.Equal(t, sess.LocalID, uid)
		})
	}
}

func TestService_SignIn(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	stored := &identity.User{Email: "asha@example.com", PasswordHash: hash}

	type testCase struct {
		name      string
		password  string
		setupMock func(m *identity.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name:     "Success",
			password: "secret1",
			setupMock: func(m *identity.MockRepository) {
				m.EXPECT().GetUserByEmail(gomock.Any(), "asha@example.com").Return(stored, nil)
			},
		},
		{
			name:     "WrongPassword",
			password: "secret2",
			setupMock: func(m *identity.MockRepository) {
				m.EXPECT().GetUserByEmail(gomock.Any(), "asha@example.com").Return(stored, nil)
			},
			wantErr: identity.ErrInvalidCredentials,
		},
		{
			name:     "UnknownUser",
			password: "secret1",
			setupMock: func(m *identity.MockRepository) {
				m.EXPECT().GetUserByEmail(gomock.Any(), "asha@example.com").Return(nil, identity.ErrNotFound)
			},
			wantErr: identity.ErrInvalidCredentials,
		},
		{
			name:     "RepoError",
			password: "secret1",
			setupMock: func(m *identity.MockRepository) {
				m.EXPECT().GetUserByEmail(gomock.Any(), "asha@example.com").Return(nil, errors.New("db error"))
			},
			wantErr: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := identity.NewMockRepository(ctrl)
			tt.setupMock(repo)

			sess, err := newService(repo).SignIn(context.Background(), "ASHA@example.com", tt.password)
			if tt.wantErr != nil {
				require.Error(t, err)

				if !errors.Is(tt.wantErr, identity.ErrInvalidCredentials) {
					assert.NotErrorIs(t, err, identity.ErrInvalidCredentials)
				} else {
					assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
				}

				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, sess.IDToken)
		})
	}
}

func TestTokens_Verify(t *testing.T) {
	tokens := identity.NewTokens([]byte("secret"), "spendly", time.Minute)

	token, err := tokens.Issue("user-1")
	require.NoError(t, err)

	sub, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)

	other := identity.NewTokens([]byte("other-secret"), "spendly", time.Minute)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)

	expired := identity.NewTokens([]byte("secret"), "spendly", -time.Minute)
	old, err := expired.Issue("user-1")
	require.NoError(t, err)

	_, err = tokens.Verify(old)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)

	_, err = tokens.Verify("not-a-token")
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}
