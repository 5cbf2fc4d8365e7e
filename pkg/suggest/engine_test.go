package suggest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualScheduler records scheduled callbacks so tests can drive the
// debounce window by hand.
type manualScheduler struct {
	mu    sync.Mutex
	calls []*manualCall
}

type manualCall struct {
	fn        func()
	cancelled bool
}

func (s *manualScheduler) Schedule(d time.Duration, fn func()) CancelFunc {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &manualCall{fn: fn}
	s.calls = append(s.calls, c)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		c.cancelled = true
	}
}

// fireDue runs every scheduled callback that was not cancelled, in order,
// as the wall clock would.
func (s *manualScheduler) fireDue() {
	s.mu.Lock()
	due := make([]*manualCall, 0, len(s.calls))
	for _, c := range s.calls {
		if !c.cancelled {
			due = append(due, c)
		}
	}
	s.calls = nil
	s.mu.Unlock()
	for _, c := range due {
		c.fn()
	}
}

// last pops the most recent scheduled callback, cancelled or not.
func (s *manualScheduler) last() *manualCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return nil
	}
	c := s.calls[len(s.calls)-1]
	s.calls = s.calls[:len(s.calls)-1]
	return c
}

// recordProvider answers from a fixed table and records every request.
type recordProvider struct {
	mu    sync.Mutex
	calls []string
	table map[string][]string
	err   error
}

func (p *recordProvider) Suggest(_ context.Context, text string, _ int) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, text)
	if p.err != nil {
		return nil, p.err
	}
	return p.table[text], nil
}

func (p *recordProvider) requests() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func newTestEngine(p Provider, sched Scheduler) *Engine {
	return NewEngine(p, WithScheduler(sched))
}

func TestShortInputIssuesNoRequest(t *testing.T) {
	sched := &manualScheduler{}
	p := &recordProvider{table: map[string][]string{}}
	e := newTestEngine(p, sched)
	defer e.Close()

	for _, text := range []string{"", "a", " a ", "\t"} {
		e.SetText(text)
		assert.Equal(t, StateIdle, e.State(), "input %q", text)
	}
	sched.fireDue()
	assert.Empty(t, p.requests())
	assert.Empty(t, e.Suggestions())
}

func TestDebounceCoalescing(t *testing.T) {
	sched := &manualScheduler{}
	p := &recordProvider{table: map[string][]string{
		"alph": {"alpha", "alphabet"},
	}}
	e := newTestEngine(p, sched)
	defer e.Close()

	// N keystrokes inside one debounce window.
	e.SetText("al")
	e.SetText("alp")
	e.SetText("alph")
	assert.Equal(t, StateDebouncing, e.State())

	sched.fireDue()

	// Exactly one request, carrying the text present at the end of the window.
	assert.Equal(t, []string{"alph"}, p.requests())
	assert.Equal(t, StateShowing, e.State())
	assert.Equal(t, []string{"alpha", "alphabet"}, e.Suggestions())
	assert.Equal(t, -1, e.ActiveIndex())
}

func TestZeroSuggestionsGoIdle(t *testing.T) {
	sched := &manualScheduler{}
	p := &recordProvider{table: map[string][]string{}}
	e := newTestEngine(p, sched)
	defer e.Close()

	e.SetText("nothing")
	sched.fireDue()
	assert.Equal(t, StateIdle, e.State())
	assert.Empty(t, e.Suggestions())
}

func TestProviderFailureIsSwallowed(t *testing.T) {
	sched := &manualScheduler{}
	p := &recordProvider{err: context.DeadlineExceeded}
	e := newTestEngine(p, sched)
	defer e.Close()

	e.SetText("alpha")
	sched.fireDue()
	assert.Equal(t, StateIdle, e.State())
	assert.Empty(t, e.Suggestions())
	// The text itself is untouched by the failure.
	assert.Equal(t, "alpha", e.Text())
}

func TestArrowNavigationWraps(t *testing.T) {
	sched := &manualScheduler{}
	p := &recordProvider{table: map[string][]string{
		"se": {"search", "session", "select"},
	}}
	e := newTestEngine(p, sched)
	defer e.Close()

	e.SetText("se")
	sched.fireDue()
	require.Equal(t, StateShowing, e.State())

	// From -1, k presses walk the whole list, one more wraps to the top.
	k := len(e.Suggestions())
	for i := 0; i < k; i++ {
		e.HandleKey(KeyArrowDown)
		assert.Equal(t, i, e.ActiveIndex())
	}
	e.HandleKey(KeyArrowDown)
	assert.Equal(t, 0, e.ActiveIndex())

	// ArrowUp wraps the other way.
	e.HandleKey(KeyArrowUp)
	assert.Equal(t, k-1, e.ActiveIndex())
}

func TestEnterAcceptsHighlightedSuggestion(t *testing.T) {
	sched := &manualScheduler{}
	p := &recordProvider{table: map[string][]string{
		"se": {"search", "session"},
	}}
	e := newTestEngine(p, sched)
	defer e.Close()

	e.SetText("se")
	sched.fireDue()

	// Enter with nothing highlighted is a no-op.
	_, ok := e.HandleKey(KeyEnter)
	assert.False(t, ok)

	e.HandleKey(KeyArrowDown)
	e.HandleKey(KeyArrowDown)
	word, ok := e.HandleKey(KeyEnter)
	require.True(t, ok)
	assert.Equal(t, "session", word)
	assert.Equal(t, "session", e.Text())
	assert.Equal(t, StateIdle, e.State())
	assert.Empty(t, e.Suggestions())

	// Accepting must not have scheduled a new fetch.
	sched.fireDue()
	assert.Equal(t, []string{"se"}, p.requests())
}

func TestEscapeClosesWithoutAccepting(t *testing.T) {
	sched := &manualScheduler{}
	p := &recordProvider{table: map[string][]string{
		"se": {"search"},
	}}
	e := newTestEngine(p, sched)
	defer e.Close()

	e.SetText("se")
	sched.fireDue()
	e.HandleKey(KeyArrowDown)
	e.HandleKey(KeyEscape)

	assert.Equal(t, StateIdle, e.State())
	assert.Equal(t, "se", e.Text())
	assert.Empty(t, e.Suggestions())
}

func TestDismissOutsideInteraction(t *testing.T) {
	sched := &manualScheduler{}
	p := &recordProvider{table: map[string][]string{
		"se": {"search"},
	}}
	e := newTestEngine(p, sched)
	defer e.Close()

	e.SetText("se")
	sched.fireDue()
	require.Equal(t, StateShowing, e.State())

	e.Dismiss()
	assert.Equal(t, StateIdle, e.State())
	assert.Equal(t, "se", e.Text())
}

func TestSupersededTimerNeverFires(t *testing.T) {
	sched := &manualScheduler{}
	p := &recordProvider{table: map[string][]string{
		"alpha": {"alpha-1"},
		"beta":  {"beta-1"},
	}}
	e := newTestEngine(p, sched)
	defer e.Close()

	e.SetText("alpha")
	stale := sched.last()
	require.NotNil(t, stale)

	e.SetText("beta")
	sched.fireDue()
	require.Equal(t, []string{"beta"}, p.requests())

	// A timer that somehow still fires for the old snapshot is ignored:
	// its generation was superseded before the request went out.
	stale.fn()
	assert.Equal(t, []string{"beta"}, p.requests())
	assert.Equal(t, []string{"beta-1"}, e.Suggestions())
}

// gateProvider blocks the request for its gated text until released,
// so tests can control resolution order.
type gateProvider struct {
	gated   string
	entered chan struct{}
	release chan struct{}
	table   map[string][]string
}

func (p *gateProvider) Suggest(_ context.Context, text string, _ int) ([]string, error) {
	if text == p.gated {
		close(p.entered)
		<-p.release
	}
	return p.table[text], nil
}

func TestLateResponseForChangedTextIsDiscarded(t *testing.T) {
	sched := &manualScheduler{}
	p := &gateProvider{
		gated:   "alpha",
		entered: make(chan struct{}),
		release: make(chan struct{}),
		table: map[string][]string{
			"alpha": {"alpha-1"},
			"beta":  {"beta-1"},
		},
	}
	e := newTestEngine(p, sched)
	defer e.Close()

	e.SetText("alpha")
	first := sched.last()
	require.NotNil(t, first)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		first.fn()
	}()
	<-p.entered

	// The text changes while the first request is in flight.
	e.SetText("beta")
	sched.fireDue()
	assert.Equal(t, []string{"beta-1"}, e.Suggestions())

	// The first request resolves late; its result must not be applied.
	close(p.release)
	wg.Wait()
	assert.Equal(t, []string{"beta-1"}, e.Suggestions())
	assert.Equal(t, StateShowing, e.State())
}

func TestCloseDropsEverything(t *testing.T) {
	sched := &manualScheduler{}
	p := &recordProvider{table: map[string][]string{"se": {"search"}}}
	e := newTestEngine(p, sched)

	e.SetText("se")
	e.Close()
	sched.fireDue()

	assert.Empty(t, p.requests())
	e.SetText("searching more")
	assert.Equal(t, StateIdle, e.State())
}
