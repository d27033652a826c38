package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/localstore"
)

const backup = `[
  {"id":"1710072000000","amount":"10","payTo":"Cafe","category":"food"},
  {"id":"1710072000001","amount":"abc","payTo":"Nowhere"}
]`

func writeBackup(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, os.WriteFile(path, []byte(backup), 0o600))

	return path
}

// newCloud serves just enough of the identity and document endpoints.
func newCloud(t *testing.T, created *atomic.Int32) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/accounts:signInWithPassword", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"idToken": "tok", "localId": "u1"})
	})
	mux.HandleFunc("POST /expenses/u1.json", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("auth") != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		n := created.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "doc-" + strconv.Itoa(int(n))})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	t.Setenv("SPENDLY_STORE_URL", srv.URL)
	t.Setenv("SPENDLY_IDENTITY_URL", srv.URL)
}

func TestParseFlags(t *testing.T) {
	type testCase struct {
		name    string
		args    []string
		wantErr string
	}

	tests := []testCase{
		{name: "LoginDefaults", args: []string{"-email", "a@b.c"}},
		{name: "DryRunWithoutEmail", args: []string{"-dry-run"}},
		{name: "MissingEmail", args: []string{}, wantErr: "missing or invalid -email"},
		{name: "BadMode", args: []string{"-email", "a@b.c", "-mode", "guest"}, wantErr: `unknown auth mode "guest"`},
		{name: "ClearWithFile", args: []string{"-email", "a@b.c", "-file", "x.json", "-clear"}, wantErr: "-clear only applies when importing from the local store"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseFlags(tt.args, io.Discard, "spendly.db")
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "spendly.db", opts.dbPath)
		})
	}
}

func TestRun_DryRun(t *testing.T) {
	var out bytes.Buffer

	err := run([]string{"-dry-run", "-file", writeBackup(t)}, strings.NewReader(""), &out, io.Discard)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out.String(), "2 expenses found, 1 would be imported, total 10.00.\n"))
	assert.Contains(t, out.String(), "* Food & Drinks | 10.00")
}

func TestRun_ImportsBackupFile(t *testing.T) {
	var created atomic.Int32
	newCloud(t, &created)

	var out bytes.Buffer

	err := run([]string{"-email", "a@b.c", "-file", writeBackup(t)}, strings.NewReader("secret1\n"), &out, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, int32(1), created.Load())
	assert.Contains(t, out.String(), "Imported 1 expenses, skipped 1 invalid.")
}

func TestRun_ImportsAndClearsLocalStore(t *testing.T) {
	var created atomic.Int32
	newCloud(t, &created)

	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "local.db")

	store, err := localstore.Open(dbPath)
	require.NoError(t, err)

	for _, payTo := range []string{"Tea", "Bus"} {
		_, err := store.CreateExpense(ctx, expense.Session{}, expense.Record{Amount: "5", PayTo: payTo})
		require.NoError(t, err)
	}

	require.NoError(t, store.Close())

	var out bytes.Buffer

	err = run([]string{"-email", "a@b.c", "-password", "secret1", "-db", dbPath, "-clear"}, strings.NewReader(""), &out, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, int32(2), created.Load())
	assert.Contains(t, out.String(), "Local store cleared.")

	store, err = localstore.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	left, err := store.ListExpenses(ctx, expense.Session{})
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestRun_MissingLocalStore(t *testing.T) {
	err := run([]string{"-dry-run", "-db", filepath.Join(t.TempDir(), "none.db")}, strings.NewReader(""), io.Discard, io.Discard)
	assert.ErrorContains(t, err, "none.db")
}
