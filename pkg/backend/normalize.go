package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/mvillard/docsearch/pkg/results"
	"github.com/mvillard/docsearch/pkg/session"
)

// The search endpoint has answered in two dialects over time: results as
// an array of item objects, and results as an object keyed by filename.
// Both normalize to the same []results.Item, and the object form keeps
// the backend's key order, which carries its relevance ranking.

// wordPair decodes the backend's [word, count] tuples. Some payloads use
// {"word": ..., "count": ...} objects instead; both are accepted.
type wordPair results.WordCount

func (w *wordPair) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var pair []json.RawMessage
		if err := json.Unmarshal(trimmed, &pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("word tuple has %d elements, want 2", len(pair))
		}
		if err := json.Unmarshal(pair[0], &w.Word); err != nil {
			return err
		}
		return json.Unmarshal(pair[1], &w.Count)
	}
	var obj struct {
		Word  string `json:"word"`
		Count int    `json:"count"`
	}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return err
	}
	w.Word = obj.Word
	w.Count = obj.Count
	return nil
}

// itemFields is the wire shape of one matched document. "filename" and
// "name" are both seen in the wild for the identity key.
type itemFields struct {
	Filename         string         `json:"filename"`
	Name             string         `json:"name"`
	Context          string         `json:"context"`
	DateImport       string         `json:"date_import"`
	Type             string         `json:"type"`
	TotalOccurrences int            `json:"total_occurrences"`
	WordOccurrences  map[string]int `json:"word_occurrences"`
	Words            []wordPair     `json:"words"`
}

func (f *itemFields) toItem(key string) results.Item {
	name := f.Filename
	if name == "" {
		name = f.Name
	}
	if name == "" {
		name = key
	}
	words := make([]results.WordCount, len(f.Words))
	for i, w := range f.Words {
		words[i] = results.WordCount(w)
	}
	return results.Item{
		Filename:         name,
		Context:          f.Context,
		Date:             f.DateImport,
		Type:             f.Type,
		TotalOccurrences: f.TotalOccurrences,
		WordOccurrences:  f.WordOccurrences,
		Words:            words,
	}
}

// parseSearchResponse reads one search payload and normalizes it.
func parseSearchResponse(r io.Reader) (*session.Response, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrMalformedResponse)
	}

	resp := &session.Response{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		key, _ := keyTok.(string)
		switch key {
		case "results":
			items, err := parseResults(dec)
			if err != nil {
				return nil, err
			}
			resp.Items = items
		case "suggestions":
			if err := dec.Decode(&resp.Suggestions); err != nil {
				return nil, fmt.Errorf("%w: suggestions: %v", ErrMalformedResponse, err)
			}
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
			}
		}
	}
	resp.Items = dedupeByContext(resp.Items)
	return resp, nil
}

// parseResults handles both result dialects. The object form is walked
// token by token so filename keys come out in the order the backend wrote
// them; a plain map would shuffle the ranking.
func parseResults(dec *json.Decoder) ([]results.Item, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	d, ok := tok.(json.Delim)
	if !ok {
		if tok == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: results is neither array nor object", ErrMalformedResponse)
	}

	var items []results.Item
	switch d {
	case '[':
		for dec.More() {
			var f itemFields
			if err := dec.Decode(&f); err != nil {
				return nil, fmt.Errorf("%w: result entry: %v", ErrMalformedResponse, err)
			}
			items = append(items, f.toItem(""))
		}
	case '{':
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
			}
			key, _ := keyTok.(string)
			var f itemFields
			if err := dec.Decode(&f); err != nil {
				return nil, fmt.Errorf("%w: result %q: %v", ErrMalformedResponse, key, err)
			}
			items = append(items, f.toItem(key))
		}
	default:
		return nil, fmt.Errorf("%w: unexpected delimiter %q", ErrMalformedResponse, d)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return items, nil
}

// dedupeByContext drops documents repeating an already-seen context
// verbatim, keeping the shorter filename of each pair. Scanned copies of
// the same source show up under several names; one entry is enough.
func dedupeByContext(items []results.Item) []results.Item {
	if len(items) < 2 {
		return items
	}
	seen := make(map[string]int, len(items))
	out := items[:0]
	for _, it := range items {
		if it.Context == "" {
			out = append(out, it)
			continue
		}
		if idx, ok := seen[it.Context]; ok {
			if len(it.Filename) < len(out[idx].Filename) {
				log.Debugf("backend: duplicate context, replacing %q with %q", out[idx].Filename, it.Filename)
				out[idx] = it
			}
			continue
		}
		seen[it.Context] = len(out)
		out = append(out, it)
	}
	return out
}
