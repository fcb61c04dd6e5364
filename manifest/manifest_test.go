package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonnes/chatview/core"
)

func entry(id string, first int64) core.ManifestEntry {
	return core.ManifestEntry{
		SessionID:      id,
		MessageCount:   2,
		FirstMessageID: first,
		Href:           "session-" + id + ".html",
	}
}

func TestReadFileNotExist(t *testing.T) {
	m, err := ReadFile(filepath.Join(t.TempDir(), "manifest.json"))
	require.NoError(t, err)
	assert.Empty(t, m.Entries)
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")

	m := &Manifest{
		GeneratedAt: time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC),
		Entries:     []core.ManifestEntry{entry("abc", 4)},
	}
	require.NoError(t, m.WriteFile(path))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, m.GeneratedAt, got.GeneratedAt)
	assert.Equal(t, m.Entries, got.Entries)
}

func TestReadFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := ReadFile(path)
	assert.Error(t, err)
}

func TestUpsertAppendAndReplace(t *testing.T) {
	m := &Manifest{}
	m.Upsert(entry("a", 1))
	m.Upsert(entry("b", 2))
	require.Len(t, m.Entries, 2)

	replaced := entry("a", 1)
	replaced.MessageCount = 10
	m.Upsert(replaced)
	require.Len(t, m.Entries, 2)
	assert.Equal(t, 10, m.Entries[1].MessageCount)
}

func TestUpsertSortsMostRecentFirst(t *testing.T) {
	m := &Manifest{}
	m.Upsert(entry("old", 5))
	m.Upsert(entry("new", 9))
	m.Upsert(entry("mid", 7))

	var ids []string
	for _, e := range m.Entries {
		ids = append(ids, e.SessionID)
	}
	assert.Equal(t, []string{"new", "mid", "old"}, ids)
}

func TestSummaries(t *testing.T) {
	m := &Manifest{Entries: []core.ManifestEntry{entry("x", 3)}}
	assert.Equal(t, []core.SessionSummary{{SessionID: "x", MessageCount: 2, FirstMessageID: 3}}, m.Summaries())
}

func TestWriteFileCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out", "manifest.json")
	require.NoError(t, (&Manifest{}).WriteFile(path))

	_, err := os.Stat(path)
	assert.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".manifest-*"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temp file should be renamed away")
}
