// Package pager keeps a paginated, server-backed list in sync with the
// page's URL query string.
//
// A Controller owns the current Query and the Result it produced. Every
// query change re-enters Loading and issues a fetch; only the most recently
// issued fetch may update the controller, whatever order responses arrive in.
package pager

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/parisxmas/OxiDB/OxiWL/internal/notify"
)

type State int

const (
	Idle State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for _, st := range []State{Idle, Loading, Loaded, Failed} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("pager: unknown state %q", b)
}

// FetchFunc loads one page. It is the controller's only suspension point.
type FetchFunc[T any] func(ctx context.Context, q Query) (Result[T], error)

// Navigator receives the encoded query after each successful fetch so the
// address bar always describes the page being displayed.
type Navigator interface {
	ReplaceQuery(rawQuery string)
}

type NavigatorFunc func(rawQuery string)

func (f NavigatorFunc) ReplaceQuery(rawQuery string) { f(rawQuery) }

// Options configure how a page surfaces loading and failures.
type Options struct {
	// Name identifies the list in log lines.
	Name string
	// ShowLoading exposes the in-flight state through View.Loading.
	ShowLoading bool
	// Notify sends fetch failures to Notifier; otherwise they are only logged.
	Notify    bool
	Notifier  notify.Notifier
	Navigator Navigator
}

// View is a snapshot of the controller.
type View[T any] struct {
	State   State     `json:"state"`
	Query   Query     `json:"query"`
	Result  Result[T] `json:"result"`
	Loading bool      `json:"loading"`
	Error   string    `json:"error,omitempty"`
	Seq     uint64    `json:"-"`
}

type Controller[T any] struct {
	fetch FetchFunc[T]
	opts  Options

	mu     sync.Mutex
	query  Query
	state  State
	result Result[T]
	err    error
	seq    uint64
	cancel context.CancelFunc
}

func NewController[T any](initial Query, fetch FetchFunc[T], opts Options) *Controller[T] {
	if opts.Name == "" {
		opts.Name = "list"
	}
	return &Controller[T]{
		fetch:  fetch,
		opts:   opts,
		query:  initial,
		result: Result[T]{Items: []T{}},
	}
}

// Mount issues the first fetch for the initial query.
func (c *Controller[T]) Mount(ctx context.Context) View[T] {
	c.mu.Lock()
	q := c.query
	c.mu.Unlock()
	return c.SetQuery(ctx, q)
}

// SetPage replaces only the page number and re-fetches, even when the page
// is unchanged.
func (c *Controller[T]) SetPage(ctx context.Context, page int) View[T] {
	c.mu.Lock()
	q := c.query.WithPage(page)
	c.mu.Unlock()
	return c.SetQuery(ctx, q)
}

// SetQuery makes q current and fetches it. It returns the controller's
// view once this fetch has been applied or superseded.
func (c *Controller[T]) SetQuery(ctx context.Context, q Query) View[T] {
	fetchCtx, seq := c.begin(ctx, q)
	res, err := c.fetch(fetchCtx, q)
	c.finish(seq, q, res, err)
	return c.View()
}

func (c *Controller[T]) begin(ctx context.Context, q Query) (context.Context, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	c.query = q
	c.state = Loading
	c.result = Result[T]{Items: []T{}}
	c.err = nil
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	return fetchCtx, c.seq
}

// finish applies a completed fetch. Navigator and Notifier are called with
// the lock held so a late response can never rewrite the URL after a newer
// one; they must not call back into the controller.
func (c *Controller[T]) finish(seq uint64, q Query, res Result[T], err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		log.Printf("pager: %s: discarding response for superseded request #%d", c.opts.Name, seq)
		return
	}
	c.cancel()
	c.cancel = nil
	if err != nil {
		c.state = Failed
		c.err = err
		log.Printf("pager: %s: fetch %s failed: %v", c.opts.Name, q.Encode(), err)
		if c.opts.Notify && c.opts.Notifier != nil {
			c.opts.Notifier.Error(notify.Message(err))
		}
		return
	}
	if res.Items == nil {
		res.Items = []T{}
	}
	c.state = Loaded
	c.result = res
	if c.opts.Navigator != nil {
		c.opts.Navigator.ReplaceQuery(q.Encode())
	}
}

func (c *Controller[T]) Query() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

func (c *Controller[T]) View() View[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := View[T]{
		State:  c.state,
		Query:  c.query,
		Result: c.result,
		Seq:    c.seq,
	}
	v.Loading = c.opts.ShowLoading && c.state == Loading
	if c.err != nil {
		v.Error = notify.Message(c.err)
	}
	return v
}
