// Package expenselist keeps one screen's in-memory copy of a user's expenses
// and applies deletes optimistically, restoring the prior list when the store
// rejects them.
package expenselist

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
)

var (
	ErrNotInList         = errors.New("expense is not in the list")
	ErrDeleteInFlight    = errors.New("expense is already being deleted")
	ErrNothingPending    = errors.New("no delete awaiting confirmation")
	ErrAlreadyReconciled = errors.New("deletion already reconciled")
)

// State is a copy of the controller's observable state.
type State struct {
	Items         []expense.Record
	Loading       bool
	Refreshing    bool
	PendingDelete string
	Deleting      []string
	Err           error
}

type Controller struct {
	store  expense.Store
	sess   expense.Session
	now    func() time.Time
	logger *slog.Logger
	group  singleflight.Group

	mu         sync.Mutex
	items      []expense.Record
	loading    int
	refreshing int
	pending    string
	inFlight   map[string]struct{}
	started    uint64
	applied    uint64
	err        error
}

type Option func(*Controller)

// WithClock sets the clock used by Recent.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

func New(store expense.Store, sess expense.Session, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		sess:     sess,
		now:      time.Now,
		logger:   slog.Default(),
		inFlight: make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

const listKey = "list"

// Load fetches the list on first activation. Loading is set while it runs.
func (c *Controller) Load(ctx context.Context) error {
	return c.fetch(ctx, &c.loading, false)
}

// Refresh refetches the list on focus or on request. Refreshing is set while
// it runs. Calls overlapping a fetch in flight share its result.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.fetch(ctx, &c.refreshing, false)
}

// reload refetches after a write. It never joins a fetch that started before
// the write, since that one may not include it.
func (c *Controller) reload(ctx context.Context) error {
	return c.fetch(ctx, &c.refreshing, true)
}

func (c *Controller) fetch(ctx context.Context, flag *int, fresh bool) error {
	c.mu.Lock()
	*flag++
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		*flag--
		c.mu.Unlock()
	}()

	if fresh {
		c.group.Forget(listKey)
	}

	_, err, _ := c.group.Do(listKey, func() (any, error) {
		c.mu.Lock()
		c.started++
		gen := c.started
		c.mu.Unlock()

		records, err := c.store.ListExpenses(ctx, c.sess)

		c.mu.Lock()
		defer c.mu.Unlock()

		// A later fetch already landed; this result is older than what is shown.
		if gen <= c.applied {
			c.logger.Debug("dropping stale expense list", "generation", gen, "applied", c.applied)
			return nil, nil
		}

		if err != nil {
			c.err = err
			return nil, err
		}

		c.applied = gen
		c.err = nil
		c.items = slices.DeleteFunc(records, func(r expense.Record) bool {
			_, deleting := c.inFlight[r.ID]
			return deleting
		})

		return nil, nil
	})
	if err != nil {
		c.logger.Error("failed to fetch expenses", "error", err)
	}

	return err
}

// Create stores a new record and refreshes the list.
func (c *Controller) Create(ctx context.Context, rec expense.Record) (string, error) {
	id, err := c.store.CreateExpense(ctx, c.sess, rec)
	if err != nil {
		c.setErr(err)
		return "", err
	}

	return id, c.reload(ctx)
}

// Update merges patch into the stored record and refreshes the list.
func (c *Controller) Update(ctx context.Context, id string, patch expense.Patch) error {
	if err := c.store.UpdateExpense(ctx, c.sess, id, patch); err != nil {
		c.setErr(err)
		return err
	}

	return c.reload(ctx)
}

// RequestDelete asks for confirmation before deleting id.
func (c *Controller) RequestDelete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.inFlight[id]; busy {
		return ErrDeleteInFlight
	}

	if c.index(id) < 0 {
		return ErrNotInList
	}

	c.pending = id

	return nil
}

// CancelDelete drops the pending confirmation. Nothing else changes.
func (c *Controller) CancelDelete() {
	c.mu.Lock()
	c.pending = ""
	c.mu.Unlock()
}

// ConfirmDelete removes the pending record from the list before any network
// call is made. The returned Deletion performs the call.
func (c *Controller) ConfirmDelete() (*Deletion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.pending
	if id == "" {
		return nil, ErrNothingPending
	}

	c.pending = ""

	i := c.index(id)
	if i < 0 {
		return nil, ErrNotInList
	}

	snapshot := slices.Clone(c.items)
	c.items = slices.Delete(slices.Clone(c.items), i, i+1)
	c.inFlight[id] = struct{}{}

	return &Deletion{c: c, id: id, snapshot: snapshot}, nil
}

// Delete runs request, confirm and reconcile in one go.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if err := c.RequestDelete(id); err != nil {
		return err
	}

	d, err := c.ConfirmDelete()
	if err != nil {
		return err
	}

	return d.Reconcile(ctx)
}

// Deletion is a record that has been removed locally and not yet from the store.
type Deletion struct {
	c        *Controller
	id       string
	snapshot []expense.Record
	once     sync.Once
}

func (d *Deletion) ID() string {
	return d.id
}

// Reconcile deletes the record from the store. On failure the list is reset
// to exactly what it was before ConfirmDelete and the error is returned.
func (d *Deletion) Reconcile(ctx context.Context) error {
	err := ErrAlreadyReconciled

	d.once.Do(func() {
		err = d.c.store.DeleteExpense(ctx, d.c.sess, d.id)
		d.c.finishDelete(d, err)
	})

	return err
}

func (c *Controller) finishDelete(d *Deletion, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.inFlight, d.id)

	if err != nil {
		c.items = d.snapshot
		c.err = err
		c.logger.Error("failed to delete expense, restoring list", "id", d.id, "error", err)

		return
	}

	c.logger.Debug("deleted expense", "id", d.id)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	deleting := make([]string, 0, len(c.inFlight))
	for id := range c.inFlight {
		deleting = append(deleting, id)
	}

	slices.Sort(deleting)

	return State{
		Items:         slices.Clone(c.items),
		Loading:       c.loading > 0,
		Refreshing:    c.refreshing > 0,
		PendingDelete: c.pending,
		Deleting:      deleting,
		Err:           c.err,
	}
}

// Items returns the current list, including optimistic removals.
func (c *Controller) Items() []expense.Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.items)
}

// Recent returns the items dated within the recent window of now.
func (c *Controller) Recent() []expense.Record {
	return expense.Recent(c.Items(), c.now())
}

// Total sums the current items.
func (c *Controller) Total() decimal.Decimal {
	return expense.Total(c.Items())
}

// ClearError forgets the last reported error.
func (c *Controller) ClearError() {
	c.setErr(nil)
}

func (c *Controller) setErr(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

func (c *Controller) index(id string) int {
	return slices.IndexFunc(c.items, func(r expense.Record) bool { return r.ID == id })
}
