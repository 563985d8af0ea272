package logbook

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTailReturnsRecentLinesAndTotal(t *testing.T) {
	dir := t.TempDir()
	book, err := New(filepath.Join(dir, "journey.log"))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		book.Info("published snapshot %d", i)
	}
	lines, total := book.Tail(3)
	require.Equal(t, 5, total)
	require.Len(t, lines, 3)
	for idx, want := range []string{"snapshot 2", "snapshot 3", "snapshot 4"} {
		require.Contains(t, lines[idx], want)
		require.Contains(t, lines[idx], "["+book.Session()+"]")
	}
}

func TestLevelsAreRecorded(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "nested", "journey.log"))
	require.NoError(t, err)
	book.Warn("skipped image %d", 2)
	book.Error("storage unavailable")

	lines, total := book.Tail(10)
	require.Equal(t, 2, total)
	require.Contains(t, lines[0], "WARN ")
	require.Contains(t, lines[1], "ERROR")
}

func TestTailOnMissingFile(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "journey.log"))
	require.NoError(t, err)
	lines, total := book.Tail(3)
	require.Nil(t, lines)
	require.Zero(t, total)

	var nilBook *Logbook
	nilBook.Info("ignored")
	lines, total = nilBook.Tail(3)
	require.Nil(t, lines)
	require.Zero(t, total)
}
