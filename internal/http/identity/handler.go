package identity

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/spendly/internal/identity"
)

type Handler struct {
	svc *identity.Service
}

func NewHandler(svc *identity.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/accounts:signUp", h.signUp)
	r.Post("/accounts:signInWithPassword", h.signIn)
}

type credentialsRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type sessionResponse struct {
	IDToken   string `json:"idToken,omitempty"`
	LocalID   string `json:"localId"`
	Email     string `json:"email"`
	ExpiresIn string `json:"expiresIn,omitempty"`
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, h.svc.SignUp)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, h.svc.SignIn)
}

func (h *Handler) authenticate(
	w http.ResponseWriter,
	r *http.Request,
	call func(ctx context.Context, email, password string) (*identity.Session, error),
) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON")
		return
	}

	sess, err := call(r.Context(), req.Email, req.Password)
	if err != nil {
		status, code := errorCode(err)
		if status == http.StatusInternalServerError {
			slog.Error("authentication failed", "error", err)
		}

		writeError(w, status, code)

		return
	}

	resp := sessionResponse{LocalID: sess.LocalID, Email: sess.Email}
	if req.ReturnSecureToken {
		resp.IDToken = sess.IDToken
		resp.ExpiresIn = strconv.Itoa(int(sess.ExpiresIn.Seconds()))
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func errorCode(err error) (int, string) {
	switch {
	case errors.Is(err, identity.ErrEmailExists):
		return http.StatusBadRequest, "EMAIL_EXISTS"
	case errors.Is(err, identity.ErrInvalidCredentials):
		return http.StatusBadRequest, "INVALID_LOGIN_CREDENTIALS"
	case errors.Is(err, identity.ErrInvalidEmail):
		return http.StatusBadRequest, "INVALID_EMAIL"
	case errors.Is(err, identity.ErrWeakPassword):
		return http.StatusBadRequest, "WEAK_PASSWORD : Password should be at least 6 characters"
	case errors.Is(err, identity.ErrPasswordTooLong):
		return http.StatusBadRequest, "PASSWORD_TOO_LONG : Password should be at most 72 bytes"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := map[string]errorBody{"error": {Code: status, Message: code}}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
