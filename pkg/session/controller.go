/*
Package session owns the query/result pair of one interactive search
session and enforces last-requested-wins ordering on submissions.

The Controller is the only owner of the current Query and result set.
Every submission carries a generation token; a result resolving for a
superseded generation is discarded, so arrival order can never overwrite
the state of a more recent search. A failed search keeps the last good
result set on screen instead of clearing it.
*/
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/mvillard/docsearch/pkg/query"
	"github.com/mvillard/docsearch/pkg/results"
)

// ErrClosed indicates a submission after the session was torn down.
var ErrClosed = errors.New("session is closed")

// Status is the controller's request lifecycle state.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Response is what the backend returns for one search submission.
// Suggestions are the backend's "did you mean" words, present when the
// search matched nothing.
type Response struct {
	Items       []results.Item
	Suggestions []string
}

// Searcher is the search side of the indexing backend.
type Searcher interface {
	Search(ctx context.Context, q query.Query) (*Response, error)
}

// Info identifies the user session driving the controller. It replaces
// the ambient role/token lookups of the original console with an explicit
// value fixed at construction.
type Info struct {
	Role  string
	Token string
}

// DefaultPageSize is the result page length of the main search surface.
const DefaultPageSize = 5

// Controller orchestrates query changes and search submissions for one
// session.
type Controller struct {
	searcher Searcher
	info     Info
	pageSize int

	mu         sync.Mutex
	query      query.Query
	items      []results.Item
	didYouMean []string
	status     Status
	errMsg     string
	gen        uint64
	closed     bool

	ctx  context.Context
	stop context.CancelFunc
}

// Option configures a Controller.
type Option func(*Controller)

// WithPageSize sets the result page length. Surfaces observed use 5 and 8.
func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// NewController creates a controller bound to a backend and a session
// identity. Tear it down with Close.
func NewController(searcher Searcher, info Info, opts ...Option) *Controller {
	ctx, stop := context.WithCancel(context.Background())
	c := &Controller{
		searcher: searcher,
		info:     info,
		pageSize: DefaultPageSize,
		query:    query.New(),
		ctx:      ctx,
		stop:     stop,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Info returns the session identity the controller was constructed with.
func (c *Controller) Info() Info {
	return c.info
}

// Submit validates q and issues one search request for it. The request
// resolves asynchronously; use Status to observe the outcome, or
// SubmitWait to block until this submission settles.
func (c *Controller) Submit(q query.Query) error {
	_, err := c.submit(q)
	return err
}

// SubmitWait submits q and blocks until that submission resolves or ctx
// is done. When the submission settled in an error the controller's
// user-facing message is returned as an error.
func (c *Controller) SubmitWait(ctx context.Context, q query.Query) error {
	done, err := c.submit(q)
	if err != nil {
		return err
	}
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusError {
		return errors.New(c.errMsg)
	}
	return nil
}

func (c *Controller) submit(q query.Query) (<-chan struct{}, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.gen++
	gen := c.gen
	c.query = q
	c.status = StatusLoading
	c.errMsg = ""
	ctx := c.ctx
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		resp, err := c.searcher.Search(ctx, q)
		c.finish(gen, resp, err)
	}()
	return done, nil
}

// finish installs the outcome of one submission, unless a newer one
// superseded it or the session was torn down in the meantime.
func (c *Controller) finish(gen uint64, resp *Response, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen {
		log.Debugf("session: dropping stale search result (gen %d, current %d)", gen, c.gen)
		return
	}
	if err != nil {
		log.Warnf("session: search failed for %q: %v", c.query.Trimmed(), err)
		// Prior results stay on screen; losing them on a failed
		// refinement helps nobody.
		c.status = StatusError
		c.errMsg = "search failed; showing previous results"
		return
	}
	c.items = resp.Items
	c.didYouMean = append([]string(nil), resp.Suggestions...)
	c.query.Page = 1
	c.status = StatusReady
}

// Query returns the current query value.
func (c *Controller) Query() query.Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Status returns the request lifecycle state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// ErrorMessage returns the user-facing message of the last failure, empty
// when none is pending.
func (c *Controller) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// Results returns the current result set in backend order.
func (c *Controller) Results() []results.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]results.Item(nil), c.items...)
}

// DidYouMean returns the backend's spelling suggestions for the last
// empty search.
func (c *Controller) DidYouMean() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.didYouMean...)
}

// CurrentPage returns the visible slice of the result set.
func (c *Controller) CurrentPage() results.Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return results.Paginate(c.items, c.pageSize, c.query.Page)
}

// SetPage navigates within the current result set, clamped to the valid
// range.
func (c *Controller) SetPage(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query.Page = n
	c.query.ClampPage(results.Paginate(c.items, c.pageSize, 1).TotalPages)
}

// Update applies a partial query change without searching.
func (c *Controller) Update(p query.Patch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, err := c.query.Apply(p)
	if err != nil {
		return err
	}
	c.query = q
	return nil
}

// ClickWord appends a word-cloud word to the query text. It never submits
// a search by itself.
func (c *Controller) ClickWord(word string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query.Text = results.AppendWord(c.query.Text, word)
}

// Serialize returns the shareable flat representation of the session's
// query, suitable for bookmarking.
func (c *Controller) Serialize() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query.Values()
}

// Restore rebuilds the query from a shareable representation. It does not
// submit; callers decide whether a restored session searches immediately.
func (c *Controller) Restore(vals map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = query.FromValues(vals)
}

// Close tears the session down. In-flight requests are cancelled and
// their results discarded if they resolve after teardown.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stop()
}
