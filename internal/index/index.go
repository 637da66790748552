package index

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog/log"
)

// Filename is the index file kept inside the output directory.
const Filename = "index.json"

// Record is one saved image, keyed in the index by its sha256 digest.
type Record struct {
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Timestamp   int64  `json:"timestamp"`
}

// Index maps content digests to saved files. Lookups and inserts are
// in-memory; Save persists the map as pretty-printed JSON.
type Index struct {
	path    string
	entries map[string]Record
}

// New returns a memory-only index that is never persisted.
func New() *Index {
	return &Index{entries: make(map[string]Record)}
}

// Load reads the index at path. A missing, unreadable or corrupt file
// yields an empty index so a fetch run can always proceed.
func Load(path string) *Index {
	idx := &Index{path: path, entries: make(map[string]Record)}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Str("op", "index").Err(err).Msgf("Could not read %s, starting empty", path)
		}
		return idx
	}
	if err := json.Unmarshal(data, &idx.entries); err != nil {
		log.Warn().Str("op", "index").Err(err).Msgf("Corrupt index at %s, starting empty", path)
		idx.entries = make(map[string]Record)
	}
	return idx
}

func (idx *Index) Lookup(digest string) (Record, bool) {
	record, ok := idx.entries[digest]
	return record, ok
}

func (idx *Index) Insert(digest string, record Record) {
	idx.entries[digest] = record
}

func (idx *Index) Len() int {
	return len(idx.entries)
}

// Digests returns all digests sorted for stable listings.
func (idx *Index) Digests() []string {
	digests := make([]string, 0, len(idx.entries))
	for digest := range idx.entries {
		digests = append(digests, digest)
	}
	sort.Strings(digests)
	return digests
}

// TotalSize sums the recorded sizes of all entries.
func (idx *Index) TotalSize() int64 {
	var total int64
	for _, record := range idx.entries {
		total += record.Size
	}
	return total
}

func (idx *Index) Path() string {
	return idx.path
}

// Save writes the index as indented JSON via a temp file and rename, so a
// crash mid-write never clobbers the previous copy.
func (idx *Index) Save() error {
	if idx.path == "" {
		return fmt.Errorf("index has no backing file")
	}
	data, err := json.MarshalIndent(idx.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding index: %v", err)
	}
	tempPath := idx.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("error writing index: %v", err)
	}
	if err := os.Rename(tempPath, idx.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("error renaming (finalizing) index file: %v", err)
	}
	return nil
}
