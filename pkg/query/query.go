/*
Package query holds the canonical representation of a search request:
the raw text, the match mode, document-type filters and the current page.

A Query is a plain value. All mutation goes through Apply so the
page-reset rules stay in one place: changing the mode or the type filters
invalidates prior pagination, changing the text alone does not.
*/
package query

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects the match policy for multi-word queries.
// The underlying strings are the wire values the indexing backend accepts.
type Mode string

const (
	// ModeAnyWord matches documents containing at least one query word.
	ModeAnyWord Mode = "or"
	// ModeAllWords matches documents containing every query word.
	ModeAllWords Mode = "all_words_and"
	// ModeExactPhrase matches the query text as one contiguous phrase.
	ModeExactPhrase Mode = "exact"
)

var (
	// ErrEmptyQuery indicates the query text is empty after trimming.
	ErrEmptyQuery = errors.New("query text cannot be empty")

	// ErrInvalidMode indicates a mode outside the enumerated values.
	ErrInvalidMode = errors.New("invalid search mode")
)

// Valid reports whether m is one of the enumerated modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeAnyWord, ModeAllWords, ModeExactPhrase:
		return true
	}
	return false
}

// Query describes one search request.
type Query struct {
	Text  string
	Mode  Mode
	Types []string
	Page  int
}

// New returns a query with defaults applied: OR matching, no type
// filters (meaning all types), page 1.
func New() Query {
	return Query{Mode: ModeAnyWord, Page: 1}
}

// Patch is a partial update for Apply. Nil fields are left untouched.
type Patch struct {
	Text  *string
	Mode  *Mode
	Types *[]string
	Page  *int
}

// Apply returns a copy of q with the patch applied, or q unchanged and an
// error when the patch carries a mode outside the enumerated values.
func (q Query) Apply(p Patch) (Query, error) {
	out := q
	if p.Mode != nil {
		if !p.Mode.Valid() {
			return q, fmt.Errorf("%w: %q", ErrInvalidMode, *p.Mode)
		}
		out.Mode = *p.Mode
		out.Page = 1
	}
	if p.Types != nil {
		out.Types = append([]string(nil), (*p.Types)...)
		out.Page = 1
	}
	if p.Text != nil {
		out.Text = *p.Text
	}
	if p.Page != nil {
		out.Page = *p.Page
		if out.Page < 1 {
			out.Page = 1
		}
	}
	return out, nil
}

// Validate checks that the query can be submitted as a search.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return ErrEmptyQuery
	}
	if !q.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, q.Mode)
	}
	return nil
}

// Trimmed returns the query text without surrounding whitespace.
func (q Query) Trimmed() string {
	return strings.TrimSpace(q.Text)
}

// ClampPage forces the page into [1, totalPages]. Called whenever the
// backing result set changes size.
func (q *Query) ClampPage(totalPages int) {
	if totalPages < 1 {
		totalPages = 1
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > totalPages {
		q.Page = totalPages
	}
}

// Values returns the flat shareable representation of the query, suitable
// for bookmarking a session. Page is deliberately not part of it.
func (q Query) Values() map[string]string {
	return map[string]string{
		"q":     q.Text,
		"mode":  string(q.Mode),
		"types": strings.Join(q.Types, ","),
	}
}

// FromValues rebuilds a query from its shareable representation.
// An unknown mode falls back to the default rather than failing: a stale
// bookmark should still load a usable session.
func FromValues(vals map[string]string) Query {
	q := New()
	q.Text = vals["q"]
	if m := Mode(vals["mode"]); m.Valid() {
		q.Mode = m
	}
	for _, part := range strings.Split(vals["types"], ",") {
		if part = strings.TrimSpace(part); part != "" {
			q.Types = append(q.Types, part)
		}
	}
	return q
}
