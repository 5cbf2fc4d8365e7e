package suggest

import (
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Vocabulary snapshots are msgpack files so a session's word lists can be
// carried between runs and the CLI can complete without a live backend.

const vocabVersion = 1

type vocabEntry struct {
	Word  string `msgpack:"w"`
	Count int    `msgpack:"c"`
}

type vocabFile struct {
	Version int          `msgpack:"v"`
	Entries []vocabEntry `msgpack:"e"`
}

// SaveVocabulary writes the provider's vocabulary to path.
func (p *LocalProvider) SaveVocabulary(path string) error {
	p.mu.RLock()
	entries := make([]vocabEntry, 0, len(p.words))
	for w, c := range p.words {
		entries = append(entries, vocabEntry{Word: w, Count: c})
	}
	p.mu.RUnlock()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Word < entries[j].Word })

	data, err := msgpack.Marshal(vocabFile{Version: vocabVersion, Entries: entries})
	if err != nil {
		return fmt.Errorf("encoding vocabulary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing vocabulary %s: %w", path, err)
	}
	log.Debugf("suggest: saved %d vocabulary words to %s", len(entries), path)
	return nil
}

// LoadVocabulary merges a snapshot file into the provider.
func (p *LocalProvider) LoadVocabulary(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading vocabulary %s: %w", path, err)
	}
	var vf vocabFile
	if err := msgpack.Unmarshal(data, &vf); err != nil {
		return fmt.Errorf("decoding vocabulary %s: %w", path, err)
	}
	if vf.Version != vocabVersion {
		return fmt.Errorf("unsupported vocabulary version %d in %s", vf.Version, path)
	}
	for _, e := range vf.Entries {
		p.AddWord(e.Word, e.Count)
	}
	log.Debugf("suggest: loaded %d vocabulary words from %s", len(vf.Entries), path)
	return nil
}
