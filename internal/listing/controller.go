package listing

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
)

// Status is the lifecycle state of a list.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Fetch outcomes reported to Config.Observe.
const (
	OutcomeLoaded = "loaded"
	OutcomeFailed = "failed"
	OutcomeStale  = "stale"
)

// ErrStale is returned by Fetch when a newer state change superseded the
// request before its response arrived. The response was discarded.
var ErrStale = errors.New("listing: response superseded by a newer request")

// Source is the collection a controller lists from.
type Source[T any] interface {
	List(ctx context.Context, q Query) (Page[T], error)
	Delete(ctx context.Context, id string) error
}

// Persister stores the list state outside the controller, typically in the
// page URL. It is called after every state transition.
type Persister func(Query)

// Notifier surfaces a transient failure to the operator.
type Notifier func(error)

// Config parametrizes a Controller. Every field is optional.
type Config struct {
	// Defaults seed the state for parameters absent from the URL.
	Defaults Query
	Options  Options
	Persist  Persister
	Notify   Notifier
	// Observe receives one of the Outcome* values per completed fetch.
	Observe func(outcome string)
	Logger  *slog.Logger
}

// Snapshot is a consistent copy of a controller's state.
type Snapshot[T any] struct {
	Query  Query
	Page   Page[T]
	Status Status
	Err    error
}

// Controller keeps the list state of one resource screen, the last fetched
// page, and the externally persisted URL state consistent.
//
// Every state change resets or clamps the page as needed, persists the new
// state and refetches. Responses are sequenced: a fetch whose state was
// superseded while in flight is discarded, so a slow earlier response can
// never overwrite a later one.
//
// A failed fetch leaves the list empty with zero totals and the error kept in
// the snapshot. A Controller is safe for concurrent use.
type Controller[T any] struct {
	src Source[T]
	cfg Config

	mu     sync.Mutex
	query  Query
	page   Page[T]
	status Status
	err    error
	known  bool // totals reflect a successful load
	seq    uint64
}

// NewController creates a controller listing from src. The initial state is
// cfg.Defaults, normalized; call Initialize to seed it from a URL.
func NewController[T any](src Source[T], cfg Config) *Controller[T] {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Controller[T]{
		src:   src,
		cfg:   cfg,
		query: FromValues(nil, cfg.Defaults, cfg.Options),
		page:  NewPage[T](nil, 0, 0),
	}
}

// Initialize seeds the state from URL query values, preferring them over the
// configured defaults, and persists the normalized state.
func (c *Controller[T]) Initialize(values url.Values) Query {
	c.mu.Lock()
	c.seq++
	c.query = FromValues(values, c.cfg.Defaults, c.cfg.Options)
	c.page = NewPage[T](nil, 0, 0)
	c.status = StatusIdle
	c.err = nil
	c.known = false
	q := c.query.clone()
	c.mu.Unlock()

	c.persist(q)
	return q
}

// SetSearch replaces the search text, resets to page 1 and refetches.
func (c *Controller[T]) SetSearch(ctx context.Context, text string) error {
	c.mutate(func(q Query) Query { return q.WithSearch(text) })
	return c.Fetch(ctx)
}

// SetFilter sets one named filter, resets to page 1 and refetches. An empty
// value or FilterAll removes the constraint.
func (c *Controller[T]) SetFilter(ctx context.Context, name, value string) error {
	c.mutate(func(q Query) Query { return q.WithFilter(name, value) })
	return c.Fetch(ctx)
}

// SetPage moves to page n and refetches. Once totals are known n is clamped
// to [1, totalPages]; before that only the lower bound applies.
func (c *Controller[T]) SetPage(ctx context.Context, n int) error {
	c.mutate(func(q Query) Query {
		if c.known {
			n = min(n, max(c.page.TotalPages, 1))
		}
		return q.WithPage(n)
	})
	return c.Fetch(ctx)
}

// ClearFilters removes search text and filters, resets to page 1 and refetches.
func (c *Controller[T]) ClearFilters(ctx context.Context) error {
	c.mutate(func(q Query) Query { return q.Cleared() })
	return c.Fetch(ctx)
}

// Fetch loads the page described by the current state.
//
// On success the page replaces the previous one. When the requested page lies
// beyond the last page (the collection shrank), the state is clamped to the
// last page, persisted and fetched again, up to maxClampRefetches times; a
// collection still shrinking after that is shown as its last answer. On
// failure the list is emptied, totals are zeroed and the error is passed to
// the notifier.
func (c *Controller[T]) Fetch(ctx context.Context) error {
	return c.fetch(ctx, maxClampRefetches)
}

// maxClampRefetches bounds the refetches of one Fetch chasing a shrinking
// collection.
const maxClampRefetches = 3

// Delete removes the record with the given id and refetches the current page.
// A failed delete is reported and leaves the list untouched.
func (c *Controller[T]) Delete(ctx context.Context, id string) error {
	if err := c.src.Delete(ctx, id); err != nil {
		c.notify(err)
		return err
	}
	return c.Fetch(ctx)
}

// Query returns a copy of the current list state.
func (c *Controller[T]) Query() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query.clone()
}

// Snapshot returns a consistent copy of the controller state.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]T, len(c.page.Items))
	copy(items, c.page.Items)
	return Snapshot[T]{
		Query: c.query.clone(),
		Page: Page[T]{
			Items:      items,
			TotalItems: c.page.TotalItems,
			TotalPages: c.page.TotalPages,
		},
		Status: c.status,
		Err:    c.err,
	}
}

func (c *Controller[T]) fetch(ctx context.Context, clamps int) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	q := c.query.clone()
	c.status = StatusLoading
	c.mu.Unlock()

	page, err := c.src.List(ctx, q)

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.cfg.Logger.DebugContext(ctx, "discarding superseded list response",
			slog.Int("page", q.Page),
			slog.String("query", q.Encode()),
		)
		c.observe(OutcomeStale)
		return ErrStale
	}

	if err != nil {
		c.page = NewPage[T](nil, 0, q.Limit)
		c.status = StatusFailed
		c.err = err
		c.known = false
		c.mu.Unlock()
		c.observe(OutcomeFailed)
		c.notify(err)
		return err
	}

	if page.Items == nil {
		page.Items = []T{}
	}
	if page.TotalPages == 0 && page.TotalItems > 0 {
		page.TotalPages = TotalPages(page.TotalItems, q.Limit)
	}
	c.page = page
	c.status = StatusLoaded
	c.err = nil
	c.known = true

	switch {
	case page.TotalPages > 0 && q.Page > page.TotalPages && clamps > 0:
		c.query.Page = page.TotalPages
		clamped := c.query.clone()
		c.mu.Unlock()
		c.observe(OutcomeLoaded)
		c.persist(clamped)
		return c.fetch(ctx, clamps-1)
	case page.TotalPages == 0 && q.Page != 1:
		c.query.Page = 1
		reset := c.query.clone()
		c.mu.Unlock()
		c.observe(OutcomeLoaded)
		c.persist(reset)
		return nil
	}
	c.mu.Unlock()
	c.observe(OutcomeLoaded)
	return nil
}

// mutate applies fn to the state under the lock, invalidates in-flight
// fetches and persists the result.
func (c *Controller[T]) mutate(fn func(Query) Query) {
	c.mu.Lock()
	c.seq++
	c.query = fn(c.query.clone())
	q := c.query.clone()
	c.mu.Unlock()

	c.persist(q)
}

func (c *Controller[T]) persist(q Query) {
	if c.cfg.Persist != nil {
		c.cfg.Persist(q)
	}
}

func (c *Controller[T]) notify(err error) {
	if c.cfg.Notify != nil {
		c.cfg.Notify(err)
	}
}

func (c *Controller[T]) observe(outcome string) {
	if c.cfg.Observe != nil {
		c.cfg.Observe(outcome)
	}
}
