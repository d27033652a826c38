package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
)

// Mode selects the identity call.
type Mode int

const (
	ModeLogin Mode = iota
	ModeSignup
)

func (m Mode) String() string {
	if m == ModeSignup {
		return "signup"
	}

	return "login"
}

func (m Mode) path() string {
	if m == ModeSignup {
		return "/v1/accounts:signUp"
	}

	return "/v1/accounts:signInWithPassword"
}

type credentials struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type authResponse struct {
	IDToken string `json:"idToken"`
	LocalID string `json:"localId"`
}

// Authenticate signs in or signs up and returns the resulting session.
// Callers check the email and password shape beforehand.
func (c *Client) Authenticate(ctx context.Context, mode Mode, email, password string) (expense.Session, error) {
	op := "authenticate (" + mode.String() + ")"

	target := c.cfg.IdentityURL + mode.path()
	if c.cfg.APIKey != "" {
		target += "?" + url.Values{"key": {c.cfg.APIKey}}.Encode()
	}

	resp, err := c.send(ctx, op, http.MethodPost, target, credentials{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return expense.Session{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return expense.Session{}, rejection(op, resp)
	}

	var body authResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return expense.Session{}, &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: "malformed response", Err: classify(err)}
	}

	if body.IDToken == "" || body.LocalID == "" {
		return expense.Session{}, &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: "response has no session"}
	}

	_, _ = io.Copy(io.Discard, resp.Body)

	return expense.Session{Token: body.IDToken, UserID: body.LocalID}, nil
}

// rejection turns a failed identity answer into an error. Only a 4xx carrying
// an error code is a credential rejection; anything else is a server failure.
func rejection(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		if code := errorCode(raw); code != "" {
			return &AuthError{StatusCode: resp.StatusCode, Code: code}
		}
	}

	return &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(bytes.NewReader(raw))}
}

// errorCode reads the message code out of {"error":{"message":CODE}}.
func errorCode(raw []byte) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}

	return body.Error.Message
}

// ParseMode maps "login" and "signup" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "login", "":
		return ModeLogin, nil
	case "signup":
		return ModeSignup, nil
	default:
		return 0, fmt.Errorf("unknown auth mode %q", s)
	}
}
