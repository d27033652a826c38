package remote_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/expenselist"
	"github.com/MrJamesThe3rd/spendly/internal/remote"
)

func TestClient_Authenticate(t *testing.T) {
	type testCase struct {
		name     string
		mode     remote.Mode
		wantPath string
		status   int
		response string
		want     expense.Session
		wantCode string
	}

	tests := []testCase{
		{
			name:     "Login",
			mode:     remote.ModeLogin,
			wantPath: "/v1/accounts:signInWithPassword",
			status:   http.StatusOK,
			response: `{"idToken":"tok","localId":"uid","email":"a@b.c","expiresIn":"3600"}`,
			want:     expense.Session{Token: "tok", UserID: "uid"},
		},
		{
			name:     "Signup",
			mode:     remote.ModeSignup,
			wantPath: "/v1/accounts:signUp",
			status:   http.StatusOK,
			response: `{"idToken":"tok2","localId":"uid2"}`,
			want:     expense.Session{Token: "tok2", UserID: "uid2"},
		},
		{
			name:     "EmailExists",
			mode:     remote.ModeSignup,
			wantPath: "/v1/accounts:signUp",
			status:   http.StatusBadRequest,
			response: `{"error":{"code":400,"message":"EMAIL_EXISTS"}}`,
			wantCode: "EMAIL_EXISTS",
		},
		{
			name:     "BadCredentials",
			mode:     remote.ModeLogin,
			wantPath: "/v1/accounts:signInWithPassword",
			status:   http.StatusBadRequest,
			response: `{"error":{"code":400,"message":"INVALID_LOGIN_CREDENTIALS"}}`,
			wantCode: "INVALID_LOGIN_CREDENTIALS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, tt.wantPath, r.URL.Path)
				assert.Equal(t, "api-key", r.URL.Query().Get("key"))

				var body map[string]any
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "a@b.c", body["email"])
				assert.Equal(t, "secret1", body["password"])
				assert.Equal(t, true, body["returnSecureToken"])

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.response))
			}))
			defer srv.Close()

			client := remote.NewClient(remote.Config{IdentityURL: srv.URL, APIKey: "api-key"}, remote.Always)

			got, err := client.Authenticate(context.Background(), tt.mode, "a@b.c", "secret1")
			if tt.wantCode != "" {
				var aerr *remote.AuthError
				require.True(t, errors.As(err, &aerr))
				assert.Equal(t, tt.wantCode, aerr.Code)
				assert.Equal(t, expense.Session{}, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_AuthenticateServerFailure(t *testing.T) {
	type testCase struct {
		name     string
		status   int
		response string
	}

	tests := []testCase{
		{name: "Unavailable", status: http.StatusServiceUnavailable, response: "upstream down"},
		{name: "InternalWithCode", status: http.StatusInternalServerError, response: `{"error":{"code":500,"message":"INTERNAL_ERROR"}}`},
		{name: "NotFoundWithoutCode", status: http.StatusNotFound, response: "404 page not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.response))
			}))
			defer srv.Close()

			client := remote.NewClient(remote.Config{IdentityURL: srv.URL}, remote.Always)

			_, err := client.Authenticate(context.Background(), remote.ModeLogin, "a@b.c", "secret1")

			var aerr *remote.AuthError
			assert.False(t, errors.As(err, &aerr))

			var rerr *remote.RemoteError
			require.True(t, errors.As(err, &rerr))
			assert.Equal(t, tt.status, rerr.StatusCode)
			assert.Equal(t, "Could not sync with the server. Please try again.", expenselist.UserMessage(err))
		})
	}
}

func TestParseMode(t *testing.T) {
	mode, err := remote.ParseMode("signup")
	require.NoError(t, err)
	assert.Equal(t, remote.ModeSignup, mode)

	_, err = remote.ParseMode("register")
	assert.Error(t, err)
}

func TestDialProber(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}

			_ = conn.Close()
		}
	}()

	prober, err := remote.NewDialProber("http://"+ln.Addr().String(), 0)
	require.NoError(t, err)
	assert.NoError(t, prober.Reachable(context.Background()))

	require.NoError(t, ln.Close())
	assert.Error(t, prober.Reachable(context.Background()))
}

func TestNewDialProber_DefaultPorts(t *testing.T) {
	p, err := remote.NewDialProber("https://store.example.com/base", 0)
	require.NoError(t, err)
	assert.Equal(t, "store.example.com:443", p.Address)

	_, err = remote.NewDialProber("not a url", 0)
	assert.Error(t, err)
}
