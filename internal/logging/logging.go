// v0
// internal/logging/logging.go
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// DualLogger writes structured logs to stdout and an append-only file
// so container output and on-disk history stay in sync.
type DualLogger struct {
	Logger *slog.Logger
	file   *os.File
}

// New creates the slog logger used by every component. An empty path
// disables the file sink.
func New(logPath string) (*DualLogger, error) {
	writers := []io.Writer{os.Stdout}

	var file *os.File
	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return nil, err
		}
		var err error
		file, err = os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		writers = append(writers, file)
	}

	handler := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{Level: slog.LevelInfo})
	return &DualLogger{Logger: slog.New(handler), file: file}, nil
}

// Close releases the file sink, if any.
func (d *DualLogger) Close() error {
	if d == nil || d.file == nil {
		return nil
	}
	return d.file.Close()
}
