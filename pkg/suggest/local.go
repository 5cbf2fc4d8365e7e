package suggest

import (
	"context"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/hbollon/go-edlib"
	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/mvillard/docsearch/internal/utils"
)

const (
	// prefixCap bounds the exact prefix matches before corrections fill in.
	prefixCap = 10
	// maxCorrectionDistance is the edit distance still offered as a typo fix.
	maxCorrectionDistance = 2
)

// LocalProvider serves suggestions from an in-memory vocabulary: exact
// prefix matches from a patricia trie first, alphabetical, then
// Levenshtein corrections when the prefix matches run short. It lets the
// search box keep completing when no backend is reachable.
type LocalProvider struct {
	mu    sync.RWMutex
	trie  *patricia.Trie
	words map[string]int
}

// NewLocalProvider returns an empty provider. Feed it with AddWord or
// LoadVocabulary before use; an empty vocabulary just yields no results.
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{
		trie:  patricia.NewTrie(),
		words: make(map[string]int),
	}
}

// AddWord registers a vocabulary word with its occurrence count. Repeated
// words keep the highest count seen.
func (p *LocalProvider) AddWord(word string, count int) {
	w := utils.NormalizeWord(word)
	if w == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if prev, ok := p.words[w]; !ok || count > prev {
		p.words[w] = count
		p.trie.Set(patricia.Prefix(w), count)
	}
}

// Len returns the vocabulary size.
func (p *LocalProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.words)
}

// Suggest implements Provider. Ranking is the backend's: alphabetical
// prefix matches capped at ten, then corrections ordered by edit distance
// and alphabetically, up to limit.
func (p *LocalProvider) Suggest(ctx context.Context, text string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	prefix := utils.NormalizeWord(text)
	if prefix == "" || !utils.IsValidInput(prefix) {
		return nil, nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	var exact []string
	err := p.trie.VisitSubtree(patricia.Prefix(prefix), func(key patricia.Prefix, _ patricia.Item) error {
		word := string(key)
		if word != prefix {
			exact = append(exact, word)
		}
		return nil
	})
	if err != nil {
		log.Errorf("suggest: trie traversal failed for %q: %v", prefix, err)
		return nil, err
	}
	sort.Strings(exact)
	maxExact := prefixCap
	if limit < maxExact {
		maxExact = limit
	}
	if len(exact) > maxExact {
		exact = exact[:maxExact]
	}
	if len(exact) >= limit {
		return exact[:limit], nil
	}

	// Fill the remainder with spelling corrections.
	seen := make(map[string]bool, len(exact))
	for _, w := range exact {
		seen[w] = true
	}
	type correction struct {
		word string
		dist int
	}
	var fixes []correction
	for w := range p.words {
		if seen[w] || w == prefix {
			continue
		}
		dist := edlib.LevenshteinDistance(prefix, w)
		if dist > 0 && dist <= maxCorrectionDistance {
			fixes = append(fixes, correction{word: w, dist: dist})
		}
	}
	sort.Slice(fixes, func(i, j int) bool {
		if fixes[i].dist != fixes[j].dist {
			return fixes[i].dist < fixes[j].dist
		}
		return fixes[i].word < fixes[j].word
	})
	for _, f := range fixes {
		if len(exact) >= limit {
			break
		}
		exact = append(exact, f.word)
	}
	return exact, nil
}
