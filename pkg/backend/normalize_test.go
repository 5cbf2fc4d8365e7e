package backend

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSearchResponseArrayForm(t *testing.T) {
	payload := `{
		"results": [
			{"filename": "a.txt", "context": "alpha beta", "date_import": "2024-01-02", "type": "pdf", "total_occurrences": 3, "word_occurrences": {"alpha": 2, "beta": 1}},
			{"name": "b.txt", "context": "gamma", "total_occurrences": 1}
		],
		"suggestions": []
	}`
	resp, err := parseSearchResponse(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "a.txt", resp.Items[0].Filename)
	assert.Equal(t, "pdf", resp.Items[0].Type)
	assert.Equal(t, 3, resp.Items[0].TotalOccurrences)
	assert.Equal(t, map[string]int{"alpha": 2, "beta": 1}, resp.Items[0].WordOccurrences)
	// "name" is accepted as the identity key when "filename" is absent.
	assert.Equal(t, "b.txt", resp.Items[1].Filename)
	assert.Empty(t, resp.Suggestions)
}

func TestParseSearchResponseObjectFormKeepsOrder(t *testing.T) {
	// The backend ranks by relevance and writes keys in that order; the
	// order must survive normalization even though it is a JSON object.
	payload := `{"results": {
		"zeta.txt":  {"context": "one",   "total_occurrences": 9},
		"alpha.txt": {"context": "two",   "total_occurrences": 5},
		"mid.txt":   {"context": "three", "total_occurrences": 2}
	}}`
	resp, err := parseSearchResponse(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, resp.Items, 3)
	assert.Equal(t, "zeta.txt", resp.Items[0].Filename)
	assert.Equal(t, "alpha.txt", resp.Items[1].Filename)
	assert.Equal(t, "mid.txt", resp.Items[2].Filename)
}

func TestParseSearchResponseWordTuples(t *testing.T) {
	payload := `{"results": [
		{"filename": "a.txt", "words": [["alpha", 4], ["beta", 2]]},
		{"filename": "b.txt", "words": [{"word": "gamma", "count": 7}]}
	]}`
	resp, err := parseSearchResponse(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	require.Len(t, resp.Items[0].Words, 2)
	assert.Equal(t, "alpha", resp.Items[0].Words[0].Word)
	assert.Equal(t, 4, resp.Items[0].Words[0].Count)
	assert.Equal(t, "gamma", resp.Items[1].Words[0].Word)
	assert.Equal(t, 7, resp.Items[1].Words[0].Count)
}

func TestParseSearchResponseSuggestions(t *testing.T) {
	payload := `{"results": [], "suggestions": ["document", "documents"]}`
	resp, err := parseSearchResponse(strings.NewReader(payload))
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.Equal(t, []string{"document", "documents"}, resp.Suggestions)
}

func TestParseSearchResponseDedupesByContext(t *testing.T) {
	payload := `{"results": [
		{"filename": "report_scanned_copy.txt", "context": "same passage"},
		{"filename": "report.txt", "context": "same passage"},
		{"filename": "other.txt", "context": "different passage"},
		{"filename": "no-context-1.txt"},
		{"filename": "no-context-2.txt"}
	]}`
	resp, err := parseSearchResponse(strings.NewReader(payload))
	require.NoError(t, err)
	// Duplicate contexts collapse to the shorter filename; items without
	// a context never collapse into each other.
	names := make([]string, len(resp.Items))
	for i, it := range resp.Items {
		names[i] = it.Filename
	}
	assert.Equal(t, []string{"report.txt", "other.txt", "no-context-1.txt", "no-context-2.txt"}, names)
}

func TestParseSearchResponseIgnoresUnknownFields(t *testing.T) {
	payload := `{"query_time_ms": 12, "results": [{"filename": "a.txt"}], "trace": {"spans": []}}`
	resp, err := parseSearchResponse(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
}

func TestParseSearchResponseMalformed(t *testing.T) {
	for name, payload := range map[string]string{
		"not json":        `<html>error</html>`,
		"top-level array": `[1, 2, 3]`,
		"results scalar":  `{"results": 42}`,
		"truncated":       `{"results": [{"filename": "a.txt"}`,
		"bad word tuple":  `{"results": [{"filename": "a.txt", "words": [["alpha"]]}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseSearchResponse(strings.NewReader(payload))
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestParseSearchResponseNullResults(t *testing.T) {
	resp, err := parseSearchResponse(strings.NewReader(`{"results": null}`))
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
}
