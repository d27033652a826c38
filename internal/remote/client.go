package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
)

// DefaultTimeout bounds every request when Config.Timeout is unset.
const DefaultTimeout = 15 * time.Second

const maxErrorBody = 4 << 10

// Config locates the document store and identity endpoints.
type Config struct {
	StoreURL    string
	IdentityURL string
	APIKey      string
	Timeout     time.Duration
}

// Client talks to the document store and the identity endpoint. It holds no
// session state; every call takes the session it acts for.
type Client struct {
	cfg    Config
	http   *http.Client
	prober Prober
	logger *slog.Logger
}

var _ expense.Store = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its timeout is left as given.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a Client. A nil prober is treated as Always.
func NewClient(cfg Config, prober Prober, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	cfg.StoreURL = strings.TrimRight(cfg.StoreURL, "/")
	cfg.IdentityURL = strings.TrimRight(cfg.IdentityURL, "/")

	if prober == nil {
		prober = Always
	}

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		prober: prober,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type createResponse struct {
	Name string `json:"name"`
}

// CreateExpense validates rec and appends it to the user's collection,
// returning the id the server assigned.
func (c *Client) CreateExpense(ctx context.Context, sess expense.Session, rec expense.Record) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}

	rec = rec.WithDefaults(time.Now())

	var resp createResponse
	if err := c.do(ctx, "create expense", http.MethodPost, c.collectionURL(sess), expense.NewDocument(rec), &resp); err != nil {
		return "", err
	}

	if resp.Name == "" {
		return "", &RemoteError{Op: "create expense", StatusCode: http.StatusOK, Message: "response has no id"}
	}

	return resp.Name, nil
}

// ListExpenses fetches the whole collection, most recent first. An empty
// collection yields an empty slice.
func (c *Client) ListExpenses(ctx context.Context, sess expense.Session) ([]expense.Record, error) {
	var docs map[string]expense.Document
	if err := c.do(ctx, "list expenses", http.MethodGet, c.collectionURL(sess), nil, &docs); err != nil {
		return nil, err
	}

	records := make([]expense.Record, 0, len(docs))
	for id, doc := range docs {
		records = append(records, doc.Record(id))
	}

	expense.SortMostRecentFirst(records)

	return records, nil
}

// UpdateExpense merges the present fields of patch into the stored document.
func (c *Client) UpdateExpense(ctx context.Context, sess expense.Session, id string, patch expense.Patch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	return c.do(ctx, "update expense", http.MethodPatch, c.itemURL(sess, id), expense.PatchDocument(patch), nil)
}

// DeleteExpense removes a document. Unknown ids are not an error.
func (c *Client) DeleteExpense(ctx context.Context, sess expense.Session, id string) error {
	return c.do(ctx, "delete expense", http.MethodDelete, c.itemURL(sess, id), nil, nil)
}

func (c *Client) collectionURL(sess expense.Session) string {
	return c.cfg.StoreURL + "/expenses/" + url.PathEscape(sess.UserID) + ".json?" + authQuery(sess)
}

func (c *Client) itemURL(sess expense.Session, id string) string {
	return c.cfg.StoreURL + "/expenses/" + url.PathEscape(sess.UserID) + "/" + url.PathEscape(id) + ".json?" + authQuery(sess)
}

func authQuery(sess expense.Session) string {
	return url.Values{"auth": {sess.Token}}.Encode()
}

// send checks connectivity, then performs exactly one request.
func (c *Client) send(ctx context.Context, op, method, target string, body any) (*http.Response, error) {
	if err := c.prober.Reachable(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrNoConnectivity, err)
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encoding body: %w", op, err)
		}

		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", op, err)
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("remote request failed", "op", op, "duration", time.Since(start), "error", err)
		return nil, &RemoteError{Op: op, Err: classify(err)}
	}

	c.logger.Debug("remote request", "op", op, "status", resp.StatusCode, "duration", time.Since(start))

	return resp, nil
}

func (c *Client) do(ctx context.Context, op, method, target string, body, out any) error {
	resp, err := c.send(ctx, op, method, target, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
		if resp.StatusCode == http.StatusNotFound {
			rerr.Err = expense.ErrNotFound
		}

		return rerr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: "malformed response", Err: classify(err)}
	}

	return nil
}

// classify wraps timeouts with ErrTimeout.
func classify(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return err
}

// errorMessage extracts a readable message from an error body. Both
// {"error": "text"} and {"error": {"message": "text"}} shapes are understood.
func errorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var body struct {
		Error json.RawMessage `json:"error"`
	}

	if err := json.Unmarshal(raw, &body); err != nil || len(body.Error) == 0 {
		return strings.TrimSpace(string(raw))
	}

	var text string
	if err := json.Unmarshal(body.Error, &text); err == nil {
		return text
	}

	var detail struct {
		Message string `json:"message"`
	}

	if err := json.Unmarshal(body.Error, &detail); err == nil {
		return detail.Message
	}

	return strings.TrimSpace(string(raw))
}
