/*
Package results provides the derived views over a search result set:
fixed-size pages, bounded snippets with match spans, and word-cloud
display weights.

Everything here is pure: functions take the result set by read reference
and return derived, non-owning views. The set itself is owned by the
session controller and replaced atomically on every search.
*/
package results

import "sort"

// WordCount is one vocabulary entry of a document.
type WordCount struct {
	Word  string
	Count int
}

// Item is one matched document in a result set. Filename is the identity
// key within a set. Items are created fresh on every search response and
// never patched afterwards.
type Item struct {
	Filename         string
	Context          string
	Date             string
	Type             string
	TotalOccurrences int
	WordOccurrences  map[string]int
	Words            []WordCount
}

// TypeCounts tallies items per document type for the result header line.
// Items without a type count under "unknown".
func TypeCounts(items []Item) map[string]int {
	counts := make(map[string]int)
	for _, it := range items {
		t := it.Type
		if t == "" {
			t = "unknown"
		}
		counts[t]++
	}
	return counts
}

// TopOccurrences returns the n highest per-term occurrence counts of an
// item, ordered by descending count, ties broken alphabetically.
func TopOccurrences(it Item, n int) []WordCount {
	if n < 1 || len(it.WordOccurrences) == 0 {
		return nil
	}
	pairs := make([]WordCount, 0, len(it.WordOccurrences))
	for w, c := range it.WordOccurrences {
		pairs = append(pairs, WordCount{Word: w, Count: c})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Count != pairs[j].Count {
			return pairs[i].Count > pairs[j].Count
		}
		return pairs[i].Word < pairs[j].Word
	})
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}
