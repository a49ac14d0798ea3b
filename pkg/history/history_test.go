package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store, path
}

func entryAt(id, kind string, when time.Time) Entry {
	return Entry{
		ID:         id,
		Kind:       kind,
		When:       when,
		Duration:   250 * time.Millisecond,
		Outcome:    "killed by SIGABRT (core dumped)",
		CoreDumped: true,
		Passed:     true,
	}
}

func TestRecordAndList(t *testing.T) {
	store, _ := openTestStore(t)
	base := time.Date(2026, time.August, 20, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Record(
		entryAt("one", "abort", base.Add(2*time.Minute)),
		entryAt("two", "abort", base),
		entryAt("three", "null-deref", base.Add(time.Minute)),
	))

	aborts, err := store.List("abort")
	require.NoError(t, err)
	require.Len(t, aborts, 2)
	assert.Equal(t, "two", aborts[0].ID)
	assert.Equal(t, "one", aborts[1].ID)

	all, err := store.List("")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"two", "three", "one"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, 250*time.Millisecond, all[0].Duration)
	assert.True(t, all[0].CoreDumped)
}

func TestListUnknownKind(t *testing.T) {
	store, _ := openTestStore(t)
	entries, err := store.List("no-such-kind")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(entryAt("persisted", "panic", time.Now().UTC())))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()
	entries, err := store.List("panic")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "persisted", entries[0].ID)
}

func TestRecordFailureEntry(t *testing.T) {
	store, _ := openTestStore(t)
	entry := entryAt("bad", "oob-write", time.Now().UTC())
	entry.Passed = false
	entry.Failure = "exited with status 0 instead of dying from a signal"
	require.NoError(t, store.Record(entry))
	entries, err := store.List("oob-write")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Passed)
	assert.Contains(t, entries[0].Failure, "instead of dying")
}
