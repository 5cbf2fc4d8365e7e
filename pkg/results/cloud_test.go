package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleWeightsEmpty(t *testing.T) {
	assert.Nil(t, ScaleWeights(nil, DefaultScaleConfig()))
}

func TestScaleWeightsBoundsAndOrder(t *testing.T) {
	words := []WordCount{
		{"corpus", 3},
		{"document", 120},
		{"index", 45},
		{"search", 45},
		{"word", 1},
	}
	cfg := DefaultScaleConfig()
	entries := ScaleWeights(words, cfg)
	require.Len(t, entries, 5)

	// Descending by count; the rarest word sits at the offset floor.
	assert.Equal(t, "document", entries[0].Word)
	assert.Equal(t, "word", entries[4].Word)
	assert.InDelta(t, cfg.Offset, entries[4].Weight, 1e-9)

	for i, e := range entries {
		assert.GreaterOrEqual(t, e.Weight, cfg.Offset)
		assert.Less(t, e.Weight, cfg.Offset+cfg.Scale)
		if i > 0 {
			// Monotone non-increasing down the sorted list.
			assert.LessOrEqual(t, e.Weight, entries[i-1].Weight)
		}
	}
}

func TestScaleWeightsEqualCounts(t *testing.T) {
	words := []WordCount{{"a", 7}, {"b", 7}, {"c", 7}}
	cfg := ScaleConfig{TopN: 30, Exponent: 0.6, Scale: 290, Offset: 10}
	entries := ScaleWeights(words, cfg)
	require.Len(t, entries, 3)
	// All-equal counts collapse to the offset, no division by zero.
	for _, e := range entries {
		assert.InDelta(t, 10.0, e.Weight, 1e-9)
	}
}

func TestScaleWeightsTruncates(t *testing.T) {
	words := make([]WordCount, 50)
	for i := range words {
		words[i] = WordCount{Word: string(rune('a' + i%26)), Count: i + 1}
	}
	entries := ScaleWeights(words, ScaleConfig{TopN: 30, Exponent: 0.6, Scale: 100, Offset: 10})
	require.Len(t, entries, 30)
	// Truncation keeps the most frequent words; min/max come from the
	// truncated set, so the floor is still the offset.
	assert.Equal(t, string(rune('a'+49%26)), entries[0].Word)
	assert.InDelta(t, 10.0, entries[len(entries)-1].Weight, 1e-9)
}

func TestAppendWordClickContract(t *testing.T) {
	assert.Equal(t, "alpha beta", AppendWord("alpha", "beta"))
	assert.Equal(t, "beta", AppendWord("", "beta"))
	assert.Equal(t, "beta", AppendWord("   ", "beta"))
	// No deduplication.
	assert.Equal(t, "beta beta", AppendWord("beta", "beta"))
}

func TestTopOccurrences(t *testing.T) {
	it := Item{WordOccurrences: map[string]int{
		"alpha": 3, "beta": 9, "gamma": 1, "delta": 9,
	}}
	top := TopOccurrences(it, 3)
	require.Len(t, top, 3)
	assert.Equal(t, WordCount{"beta", 9}, top[0])
	assert.Equal(t, WordCount{"delta", 9}, top[1])
	assert.Equal(t, WordCount{"alpha", 3}, top[2])
}

func TestTypeCounts(t *testing.T) {
	items := []Item{{Type: "pdf"}, {Type: "pdf"}, {Type: ""}, {Type: "html"}}
	counts := TypeCounts(items)
	assert.Equal(t, map[string]int{"pdf": 2, "html": 1, "unknown": 1}, counts)
}
