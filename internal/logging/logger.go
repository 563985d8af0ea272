package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kingrea/albaform/internal/config"
)

// Logger appends timestamped lines to .albaform/logs/albaform.log so
// storage and codec failures the form swallows can still be inspected.
// Loggers derived with For share the file and tag each line with their
// component.
type Logger struct {
	sink      *sink
	component string
}

type sink struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
}

// New creates (or reuses) the log file for the current project directory.
func New(projectDir string) (*Logger, error) {
	logDir := filepath.Join(projectDir, config.AppDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logDir, "albaform.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return &Logger{sink: &sink{file: f, now: time.Now}}, nil
}

// For returns a logger that prefixes lines with component, e.g. "draft" or
// "storage". Closing the root logger closes every derived one.
func (l *Logger) For(component string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{sink: l.sink, component: component}
}

// Close releases the file handle. Lines written afterwards are dropped.
func (l *Logger) Close() error {
	if l == nil || l.sink == nil {
		return nil
	}
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if l.sink.file == nil {
		return nil
	}
	err := l.sink.file.Close()
	l.sink.file = nil
	return err
}

// Printf writes a single timestamped line to the log file.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.sink == nil {
		return
	}
	line := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	if l.component != "" {
		line = l.component + ": " + line
	}

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if l.sink.file == nil {
		return
	}
	timestamp := l.sink.now().Format(time.RFC3339)
	fmt.Fprintf(l.sink.file, "[%s] %s\n", timestamp, line)
}
