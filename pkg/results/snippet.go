package results

import (
	"strings"

	"github.com/mvillard/docsearch/internal/utils"
)

const (
	// DefaultSnippetWindow is the number of words kept on each side of the
	// first matched word.
	DefaultSnippetWindow = 40
	// DefaultSnippetFallback bounds the excerpt when no word matches.
	DefaultSnippetFallback = 50
)

// Snippet returns a bounded excerpt of text around the first word whose
// case-insensitive form contains term. Without a match it degrades to the
// first fallback words. The ellipsis marker is always appended.
func Snippet(text, term string, window, fallback int) string {
	if window < 1 {
		window = DefaultSnippetWindow
	}
	if fallback < 1 {
		fallback = DefaultSnippetFallback
	}
	words := strings.Fields(text)
	idx := -1
	if term != "" {
		for i, w := range words {
			if utils.ContainsFold(w, term) {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		if len(words) > fallback {
			words = words[:fallback]
		}
		return strings.Join(words, " ") + "..."
	}
	lo := idx - window
	if lo < 0 {
		lo = 0
	}
	hi := idx + window + 1
	if hi > len(words) {
		hi = len(words)
	}
	return strings.Join(words[lo:hi], " ") + "..."
}

// Span is one segment of text produced by Highlight. Match marks segments
// equal to the term under case folding.
type Span struct {
	Text  string
	Match bool
}

// Highlight splits text on case-insensitive occurrences of term and tags
// the matched spans. The output is render-agnostic: the consuming surface
// decides how matched spans are emphasized. An empty term yields the text
// untagged.
func Highlight(text, term string) []Span {
	if term == "" || text == "" {
		return []Span{{Text: text}}
	}
	lower := strings.ToLower(text)
	needle := strings.ToLower(term)
	var spans []Span
	start := 0
	for start < len(text) {
		i := strings.Index(lower[start:], needle)
		if i < 0 {
			spans = append(spans, Span{Text: text[start:]})
			break
		}
		i += start
		if i > start {
			spans = append(spans, Span{Text: text[start:i]})
		}
		spans = append(spans, Span{Text: text[i : i+len(needle)], Match: true})
		start = i + len(needle)
	}
	if len(spans) == 0 {
		spans = []Span{{Text: text}}
	}
	return spans
}
