// Package logging sets up the file-backed zerolog logger. The terminal
// owns stdout and stderr while the viewer runs, so logs go to a file
// only.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// LogFileName is the log file created inside the logs directory.
const LogFileName = "tsview.log"

// Setup opens the log file and returns a configured logger plus a close
// function. Unknown levels fall back to info.
func Setup(logsDir, level string) (zerolog.Logger, func(), error) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("create logs dir: %w", err)
	}

	path := filepath.Join(logsDir, LogFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("open log file: %w", err)
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	logger := zerolog.New(f).Level(lvl).With().Timestamp().Logger()
	return logger, func() { f.Close() }, nil
}
