package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kingrea/albaform/internal/config"
)

func TestPrintfAppendsTimestampedLine(t *testing.T) {
	projectDir := t.TempDir()
	logger, err := New(projectDir)
	require.NoError(t, err)
	logger.sink.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	logger.Printf("storage unavailable: %s\n", "quota")
	logger.For("draft").Printf("second")
	require.NoError(t, logger.Close())
	logger.For("draft").Printf("after close")

	data, err := os.ReadFile(filepath.Join(projectDir, config.AppDir, "logs", "albaform.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Equal(t, []string{
		"[2024-01-02T03:04:05Z] storage unavailable: quota",
		"[2024-01-02T03:04:05Z] draft: second",
	}, lines)
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Printf("ignored")
	logger.For("draft").Printf("ignored")
	require.NoError(t, logger.Close())
}
