package documents

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/spendly/internal/docstore"
)

const maxBodyBytes = 1 << 20

// Verifier resolves an id token to the user id it was issued for.
type Verifier interface {
	Verify(token string) (string, error)
}

// Handler serves one collection: /{owner}.json and /{owner}/{id}.json,
// authorized by the auth query parameter.
type Handler struct {
	svc        *docstore.Service
	auth       Verifier
	collection string
}

func NewHandler(svc *docstore.Service, auth Verifier, collection string) *Handler {
	return &Handler{svc: svc, auth: auth, collection: collection}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/*", h.push)
	r.Get("/*", h.list)
	r.Patch("/*", h.merge)
	r.Delete("/*", h.delete)
}

type target struct {
	owner string
	id    string
}

// parseTarget splits "owner.json" or "owner/id.json".
func parseTarget(rest string) (target, bool) {
	rest, ok := strings.CutSuffix(rest, ".json")
	if !ok || rest == "" {
		return target{}, false
	}

	parts := strings.Split(rest, "/")
	if len(parts) > 2 {
		return target{}, false
	}

	for i, p := range parts {
		v, err := url.PathUnescape(p)
		if err != nil || v == "" {
			return target{}, false
		}

		parts[i] = v
	}

	t := target{owner: parts[0]}
	if len(parts) == 2 {
		t.id = parts[1]
	}

	return t, true
}

// resolve parses the path and checks the token belongs to its owner.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, wantID bool) (target, bool) {
	t, ok := parseTarget(chi.URLParam(r, "*"))
	if !ok || (t.id != "") != wantID {
		writeError(w, http.StatusNotFound, "Not found")
		return target{}, false
	}

	uid, err := h.auth.Verify(r.URL.Query().Get("auth"))
	if err != nil || uid != t.owner {
		writeError(w, http.StatusUnauthorized, "Permission denied")
		return target{}, false
	}

	return t, true
}

func (h *Handler) push(w http.ResponseWriter, r *http.Request) {
	t, ok := h.resolve(w, r, false)
	if !ok {
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	id, err := h.svc.Push(r.Context(), h.collection, t.owner, body)
	if err != nil {
		h.fail(w, err)
		return
	}

	writeJSON(w, map[string]string{"name": id})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	t, ok := h.resolve(w, r, false)
	if !ok {
		return
	}

	docs, err := h.svc.List(r.Context(), h.collection, t.owner)
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if len(docs) == 0 {
		_, _ = w.Write([]byte("null"))
		return
	}

	// Encoded by hand so keys keep insertion order.
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, doc := range docs {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, _ := json.Marshal(doc.ID)
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(doc.Body)
	}

	buf.WriteByte('}')

	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func (h *Handler) merge(w http.ResponseWriter, r *http.Request) {
	t, ok := h.resolve(w, r, true)
	if !ok {
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	doc, err := h.svc.Merge(r.Context(), h.collection, t.owner, t.id, body)
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if _, err := w.Write(doc.Body); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	t, ok := h.resolve(w, r, true)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), h.collection, t.owner, t.id); err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte("null"))
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, docstore.ErrInvalidBody):
		writeError(w, http.StatusBadRequest, "Invalid data; couldn't parse JSON object")
	case errors.Is(err, docstore.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	default:
		slog.Error("document store request failed", "collection", h.collection, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
	}
}

func readBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "Payload too large")
		return nil, false
	}

	return body, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
