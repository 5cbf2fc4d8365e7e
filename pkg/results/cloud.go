package results

import (
	"math"
	"sort"
	"strings"
)

// CloudEntry is one word of a rendered cloud with its display weight.
// Entries are derived for rendering and discarded when the cloud closes.
type CloudEntry struct {
	Word   string
	Weight float64
}

// ScaleConfig controls how raw occurrence counts map to display weights.
// Different surfaces render clouds at different sizes, so the truncation
// and the scale/offset pair are configuration, not constants.
type ScaleConfig struct {
	TopN     int
	Exponent float64
	Scale    float64
	Offset   float64
}

// DefaultScaleConfig matches the main search surface: the top 30 words
// scaled into roughly [10, 110].
func DefaultScaleConfig() ScaleConfig {
	return ScaleConfig{TopN: 30, Exponent: 0.6, Scale: 100, Offset: 10}
}

// ScaleWeights normalizes raw word counts into bounded display weights,
// ordered by descending count. Weights are monotone in the count: the
// smallest count maps to Offset, the largest stays below Offset+Scale.
// An empty input yields nil.
func ScaleWeights(words []WordCount, cfg ScaleConfig) []CloudEntry {
	if len(words) == 0 {
		return nil
	}
	if cfg.TopN < 1 {
		cfg.TopN = DefaultScaleConfig().TopN
	}
	if cfg.Exponent <= 0 {
		cfg.Exponent = DefaultScaleConfig().Exponent
	}
	sorted := append([]WordCount(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})
	if len(sorted) > cfg.TopN {
		sorted = sorted[:cfg.TopN]
	}

	max := sorted[0].Count
	min := sorted[len(sorted)-1].Count

	out := make([]CloudEntry, len(sorted))
	for i, wc := range sorted {
		// The +1 keeps the denominator non-zero when every count is equal.
		normalized := float64(wc.Count-min) / float64(max-min+1)
		out[i] = CloudEntry{
			Word:   wc.Word,
			Weight: math.Pow(normalized, cfg.Exponent)*cfg.Scale + cfg.Offset,
		}
	}
	return out
}

// AppendWord implements the word-cloud click contract: the clicked word is
// appended to the query text, space-joined, without deduplication. The
// caller decides when a search is actually submitted; appending never
// triggers one.
func AppendWord(text, word string) string {
	if strings.TrimSpace(text) == "" {
		return word
	}
	return text + " " + word
}
