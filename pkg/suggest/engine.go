/*
Package suggest drives debounced autocomplete for the search box.

The Engine turns raw input snapshots into at most one suggestion request
per pause in typing. It moves through a small state machine:

	Idle -> Debouncing -> Fetching -> {Showing, Idle}

Each accepted input restarts the debounce window and bumps a generation
counter; only the most recently scheduled window may fire, and a provider
response whose generation has been superseded is discarded instead of
applied. Provider failures are swallowed: the list simply clears.

Keyboard navigation wraps around the list; accepting a suggestion only
replaces the text snapshot. Submitting a search is a separate, deliberate
action that belongs to the session controller.
*/
package suggest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Provider returns ranked suggestions for a text snapshot. An empty slice
// is a valid answer. Order is significant and preserved.
type Provider interface {
	Suggest(ctx context.Context, text string, limit int) ([]string, error)
}

// State is the engine's position in its input lifecycle.
type State int

const (
	StateIdle State = iota
	StateDebouncing
	StateFetching
	StateShowing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDebouncing:
		return "debouncing"
	case StateFetching:
		return "fetching"
	case StateShowing:
		return "showing"
	}
	return "unknown"
}

// Key is a navigation key routed to the engine while the list is open.
type Key int

const (
	KeyArrowDown Key = iota
	KeyArrowUp
	KeyEnter
	KeyEscape
)

const (
	// DefaultDebounce is the pause in typing that triggers a fetch.
	DefaultDebounce = 300 * time.Millisecond
	// DefaultMinPrefix is the shortest trimmed input worth completing.
	DefaultMinPrefix = 2
	// DefaultLimit caps the suggestion list length.
	DefaultLimit = 15
)

// Engine maintains the suggestion list and its active index for one input
// surface. Methods are safe for concurrent use; provider calls run off the
// caller's goroutine.
type Engine struct {
	provider  Provider
	sched     Scheduler
	debounce  time.Duration
	minPrefix int
	limit     int

	mu     sync.Mutex
	text   string
	state  State
	items  []string
	active int
	gen    uint64
	cancel CancelFunc
	closed bool

	ctx  context.Context
	stop context.CancelFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithScheduler replaces the wall-clock debounce scheduler.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

// WithDebounce sets the debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.debounce = d
		}
	}
}

// WithMinPrefix sets the minimum trimmed input length.
func WithMinPrefix(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.minPrefix = n
		}
	}
}

// WithLimit caps the number of suggestions requested from the provider.
func WithLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.limit = n
		}
	}
}

// NewEngine creates an idle engine over the given provider.
func NewEngine(provider Provider, opts ...Option) *Engine {
	ctx, stop := context.WithCancel(context.Background())
	e := &Engine{
		provider:  provider,
		sched:     TimerScheduler{},
		debounce:  DefaultDebounce,
		minPrefix: DefaultMinPrefix,
		limit:     DefaultLimit,
		active:    -1,
		ctx:       ctx,
		stop:      stop,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetText feeds the engine one input snapshot. Short input clears the
// list and idles; anything else restarts the debounce window. Only the
// text captured when a window was scheduled is ever sent to the provider.
func (e *Engine) SetText(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.text = text
	e.gen++
	e.cancelPendingLocked()

	if len(strings.TrimSpace(text)) < e.minPrefix {
		e.clearLocked()
		return
	}

	gen := e.gen
	snapshot := text
	e.state = StateDebouncing
	e.cancel = e.sched.Schedule(e.debounce, func() {
		e.fire(gen, snapshot)
	})
}

// fire issues the provider request for the snapshot captured at schedule
// time, unless a newer input already superseded it.
func (e *Engine) fire(gen uint64, snapshot string) {
	e.mu.Lock()
	if e.closed || gen != e.gen {
		e.mu.Unlock()
		return
	}
	e.state = StateFetching
	ctx := e.ctx
	e.mu.Unlock()

	items, err := e.provider.Suggest(ctx, strings.TrimSpace(snapshot), e.limit)
	e.apply(gen, items, err)
}

// apply installs a provider response, or drops it when stale.
func (e *Engine) apply(gen uint64, items []string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || gen != e.gen {
		log.Debugf("suggest: dropping stale response (gen %d, current %d)", gen, e.gen)
		return
	}
	if err != nil {
		// Autocomplete failures are non-fatal; the list just clears.
		log.Warnf("suggest: provider failed: %v", err)
		e.clearLocked()
		return
	}
	if len(items) == 0 {
		e.clearLocked()
		return
	}
	if len(items) > e.limit {
		items = items[:e.limit]
	}
	e.items = append([]string(nil), items...)
	e.active = -1
	e.state = StateShowing
}

// HandleKey routes a navigation key. It returns the accepted suggestion
// and true when Enter lands on a highlighted entry; accepting replaces
// the engine text and closes the list without scheduling a new fetch.
func (e *Engine) HandleKey(k Key) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateShowing || len(e.items) == 0 {
		return "", false
	}
	n := len(e.items)
	switch k {
	case KeyArrowDown:
		e.active = (e.active + 1) % n
	case KeyArrowUp:
		e.active = (e.active - 1 + n) % n
	case KeyEnter:
		if e.active < 0 {
			return "", false
		}
		word := e.items[e.active]
		e.text = word
		e.gen++
		e.cancelPendingLocked()
		e.clearLocked()
		return word, true
	case KeyEscape:
		e.clearLocked()
	}
	return "", false
}

// SetActive highlights the suggestion under the pointer. Out-of-range
// indexes are ignored.
func (e *Engine) SetActive(i int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateShowing || i < -1 || i >= len(e.items) {
		return
	}
	e.active = i
}

// Dismiss closes the list without mutating the text. Used when the user
// interacts outside the suggestion surface.
func (e *Engine) Dismiss() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.gen++
	e.cancelPendingLocked()
	e.clearLocked()
}

// Text returns the current input snapshot.
func (e *Engine) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Suggestions returns a copy of the current list in provider order.
func (e *Engine) Suggestions() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.items...)
}

// ActiveIndex returns the highlighted entry, -1 when none is.
func (e *Engine) ActiveIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Close tears the engine down: pending timers are cancelled and any
// response resolving afterwards is discarded.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.cancelPendingLocked()
	e.clearLocked()
	e.stop()
}

func (e *Engine) cancelPendingLocked() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

func (e *Engine) clearLocked() {
	e.items = nil
	e.active = -1
	e.state = StateIdle
}
