package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleRecord(name string) Record {
	return Record{
		Filename:    name,
		URL:         "https://example.com/" + name,
		ContentType: "image/png",
		Size:        1234,
		Timestamp:   1723600000,
	}
}

func TestLoadMissingFile(t *testing.T) {
	idx := Load(filepath.Join(t.TempDir(), Filename))
	require.Equal(t, 0, idx.Len())
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), Filename)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	idx := Load(path)
	require.Equal(t, 0, idx.Len())

	// A corrupt index must still accept new entries and save cleanly
	idx.Insert("aaa", sampleRecord("a.png"))
	require.NoError(t, idx.Save())
	reloaded := Load(path)
	require.Equal(t, 1, reloaded.Len())
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), Filename)
	idx := Load(path)
	idx.Insert("aaa", sampleRecord("a.png"))
	idx.Insert("bbb", sampleRecord("b.png"))
	require.NoError(t, idx.Save())

	// No temp file left behind
	_, err := os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))

	reloaded := Load(path)
	require.Equal(t, 2, reloaded.Len())
	record, ok := reloaded.Lookup("aaa")
	require.True(t, ok)
	require.Equal(t, "a.png", record.Filename)
	require.Equal(t, "https://example.com/a.png", record.URL)
	require.Equal(t, "image/png", record.ContentType)
	require.Equal(t, int64(1234), record.Size)
	require.Equal(t, int64(1723600000), record.Timestamp)
}

func TestSaveWritesIndentedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), Filename)
	idx := Load(path)
	idx.Insert("aaa", sampleRecord("a.png"))
	require.NoError(t, idx.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "\n  \"aaa\"")

	var entries map[string]Record
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 1)
}

func TestDigestsSorted(t *testing.T) {
	idx := New()
	idx.Insert("ccc", sampleRecord("c.png"))
	idx.Insert("aaa", sampleRecord("a.png"))
	idx.Insert("bbb", sampleRecord("b.png"))
	require.Equal(t, []string{"aaa", "bbb", "ccc"}, idx.Digests())
}

func TestTotalSize(t *testing.T) {
	idx := New()
	idx.Insert("aaa", Record{Filename: "a.png", Size: 100})
	idx.Insert("bbb", Record{Filename: "b.png", Size: 250})
	require.Equal(t, int64(350), idx.TotalSize())
}

func TestMemoryOnlySaveFails(t *testing.T) {
	idx := New()
	idx.Insert("aaa", sampleRecord("a.png"))
	require.ErrorContains(t, idx.Save(), "no backing file")
}

func TestInsertOverwrites(t *testing.T) {
	idx := New()
	idx.Insert("aaa", sampleRecord("a.png"))
	idx.Insert("aaa", sampleRecord("renamed.png"))
	require.Equal(t, 1, idx.Len())
	record, ok := idx.Lookup("aaa")
	require.True(t, ok)
	require.Equal(t, "renamed.png", record.Filename)
}
