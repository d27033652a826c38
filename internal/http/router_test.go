package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrJamesThe3rd/spendly/internal/docstore"
	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/expenselist"
	spendlyHttp "github.com/MrJamesThe3rd/spendly/internal/http"
	"github.com/MrJamesThe3rd/spendly/internal/http/documents"
	identityHandler "github.com/MrJamesThe3rd/spendly/internal/http/identity"
	"github.com/MrJamesThe3rd/spendly/internal/identity"
	"github.com/MrJamesThe3rd/spendly/internal/remote"
)

// memDocs is an in-memory docstore.Repository with top-level merge.
type memDocs struct {
	mu   sync.Mutex
	docs []*docstore.Document
}

func (m *memDocs) InsertDocument(_ context.Context, doc *docstore.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc.CreatedAt = time.Now()
	m.docs = append(m.docs, doc)

	return nil
}

func (m *memDocs) ListDocuments(_ context.Context, collection, owner string) ([]*docstore.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*docstore.Document

	for _, d := range m.docs {
		if d.Collection == collection && d.Owner == owner {
			out = append(out, d)
		}
	}

	return out, nil
}

func (m *memDocs) MergeDocument(_ context.Context, collection, owner, id string, patch json.RawMessage) (*docstore.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range m.docs {
		if d.Collection != collection || d.Owner != owner || d.ID != id {
			continue
		}

		var body, fields map[string]json.RawMessage
		if err := json.Unmarshal(d.Body, &body); err != nil {
			return nil, err
		}

		if err := json.Unmarshal(patch, &fields); err != nil {
			return nil, err
		}

		for k, v := range fields {
			body[k] = v
		}

		merged, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}

		d.Body = merged

		return d, nil
	}

	return nil, docstore.ErrNotFound
}

func (m *memDocs) DeleteDocument(_ context.Context, collection, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs = slices.DeleteFunc(m.docs, func(d *docstore.Document) bool {
		return d.Collection == collection && d.Owner == owner && d.ID == id
	})

	return nil
}

// memUsers is an in-memory identity.Repository.
type memUsers struct {
	mu    sync.Mutex
	users map[string]*identity.User
}

func (m *memUsers) CreateUser(_ context.Context, u *identity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.Email]; ok {
		return identity.ErrEmailExists
	}

	m.users[u.Email] = u

	return nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[email]
	if !ok {
		return nil, identity.ErrNotFound
	}

	return u, nil
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	tokens := identity.NewTokens([]byte("test-secret"), "spendly-test", time.Hour)
	identitySvc := identity.NewService(&memUsers{users: map[string]*identity.User{}}, tokens, identity.WithBcryptCost(bcrypt.MinCost))

	router := spendlyHttp.New(
		documents.NewHandler(docstore.NewService(&memDocs{}), identitySvc, "expenses"),
		identityHandler.NewHandler(identitySvc),
		spendlyHttp.NewMetrics(),
		[]string{"*"},
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv
}

func newClient(srv *httptest.Server) *remote.Client {
	return remote.NewClient(remote.Config{StoreURL: srv.URL, IdentityURL: srv.URL}, remote.Always)
}

func signUp(t *testing.T, client *remote.Client, email string) expense.Session {
	t.Helper()

	sess, err := client.Authenticate(context.Background(), remote.ModeSignup, email, "secret1")
	require.NoError(t, err)

	return sess
}

func TestServer_EndToEnd(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	client := newClient(srv)

	sess := signUp(t, client, "asha@example.com")

	again, err := client.Authenticate(ctx, remote.ModeLogin, "asha@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, again.UserID)

	id, err := client.CreateExpense(ctx, sess, expense.Record{Amount: "100", PayTo: "Store A", Category: "Food"})
	require.NoError(t, err)

	got, err := client.ListExpenses(ctx, sess)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, "100", got[0].Amount)
	assert.Equal(t, "Store A", got[0].PayTo)
	assert.Equal(t, expense.Category("Food"), got[0].Category)

	category := expense.CategoryFoodDrinks
	require.NoError(t, client.UpdateExpense(ctx, sess, id, expense.Patch{Category: &category}))

	got, err = client.ListExpenses(ctx, sess)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "100", got[0].Amount)
	assert.Equal(t, expense.CategoryFoodDrinks, got[0].Category)

	require.NoError(t, client.DeleteExpense(ctx, sess, id))
	require.NoError(t, client.DeleteExpense(ctx, sess, id))

	got, err = client.ListExpenses(ctx, sess)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestServer_ControllerAgainstServer(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	client := newClient(srv)
	sess := signUp(t, client, "ravi@example.com")

	for _, payee := range []string{"Tea", "Bus", "Books"} {
		_, err := client.CreateExpense(ctx, sess, expense.Record{Amount: "10", PayTo: payee})
		require.NoError(t, err)
	}

	c := expenselist.New(client, sess)
	require.NoError(t, c.Load(ctx))
	require.Len(t, c.Items(), 3)
	assert.Equal(t, "30", c.Total().String())

	victim := c.Items()[1].ID
	require.NoError(t, c.Delete(ctx, victim))
	require.NoError(t, c.Refresh(ctx))

	assert.Len(t, c.Items(), 2)
	assert.Equal(t, "20", c.Total().String())
}

func TestServer_IsolatesUsers(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	client := newClient(srv)

	alice := signUp(t, client, "alice@example.com")
	bob := signUp(t, client, "bob@example.com")

	_, err := client.CreateExpense(ctx, alice, expense.Record{Amount: "5", PayTo: "Cafe"})
	require.NoError(t, err)

	intruder := expense.Session{Token: bob.Token, UserID: alice.UserID}
	_, err = client.ListExpenses(ctx, intruder)

	var rerr *remote.RemoteError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, http.StatusUnauthorized, rerr.StatusCode)
	assert.Equal(t, "Permission denied", rerr.Message)

	got, err := client.ListExpenses(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestServer_AuthErrors(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	client := newClient(srv)

	signUp(t, client, "asha@example.com")

	type testCase struct {
		name     string
		mode     remote.Mode
		email    string
		password string
		wantCode string
	}

	tests := []testCase{
		{name: "EmailExists", mode: remote.ModeSignup, email: "asha@example.com", password: "secret1", wantCode: "EMAIL_EXISTS"},
		{name: "WrongPassword", mode: remote.ModeLogin, email: "asha@example.com", password: "secret2", wantCode: "INVALID_LOGIN_CREDENTIALS"},
		{name: "UnknownEmail", mode: remote.ModeLogin, email: "nobody@example.com", password: "secret1", wantCode: "INVALID_LOGIN_CREDENTIALS"},
		{name: "InvalidEmail", mode: remote.ModeSignup, email: "asha", password: "secret1", wantCode: "INVALID_EMAIL"},
		{name: "PasswordTooLong", mode: remote.ModeSignup, email: "ravi@example.com", password: strings.Repeat("p", 73), wantCode: "PASSWORD_TOO_LONG : Password should be at most 72 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Authenticate(ctx, tt.mode, tt.email, tt.password)

			var aerr *remote.AuthError
			require.True(t, errors.As(err, &aerr))
			assert.Equal(t, http.StatusBadRequest, aerr.StatusCode)
			assert.Equal(t, tt.wantCode, aerr.Code)
		})
	}
}

func TestServer_DocumentErrors(t *testing.T) {
	srv := newServer(t)
	client := newClient(srv)
	sess := signUp(t, client, "asha@example.com")

	type testCase struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}

	auth := "?auth=" + sess.Token

	tests := []testCase{
		{name: "EmptyList", method: http.MethodGet, path: "/expenses/" + sess.UserID + ".json" + auth, wantStatus: http.StatusOK, wantBody: "null"},
		{name: "PatchMissing", method: http.MethodPatch, path: "/expenses/" + sess.UserID + "/nope.json" + auth, body: `{"payTo":"x"}`, wantStatus: http.StatusNotFound},
		{name: "DeleteMissing", method: http.MethodDelete, path: "/expenses/" + sess.UserID + "/nope.json" + auth, wantStatus: http.StatusOK, wantBody: "null"},
		{name: "ArrayBody", method: http.MethodPost, path: "/expenses/" + sess.UserID + ".json" + auth, body: `[1]`, wantStatus: http.StatusBadRequest},
		{name: "NoToken", method: http.MethodGet, path: "/expenses/" + sess.UserID + ".json", wantStatus: http.StatusUnauthorized},
		{name: "NoSuffix", method: http.MethodGet, path: "/expenses/" + sess.UserID + auth, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}

			req, err := http.NewRequest(tt.method, srv.URL+tt.path, body)
			require.NoError(t, err)

			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantBody != "" {
				raw, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Equal(t, tt.wantBody, string(raw))
			}
		})
	}
}

func TestServer_HealthAndMetrics(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `spendly_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}
