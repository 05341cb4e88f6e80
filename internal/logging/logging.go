package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/wtldr/internal/model"
)

const fileTimeLayout = "2006-01-02_15-04-05"

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// FileName returns the per-run log file name for t.
func FileName(t time.Time) string {
	return "wtldr_log_" + t.Format(fileTimeLayout) + ".log"
}

// New configures a zerolog logger from cfg. With cfg.Dir set, JSON lines go
// to a per-run file in that directory and the returned closer closes it;
// otherwise a console writer on w is used.
func New(cfg model.LoggingConfig, w io.Writer) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if cfg.Dir == "" {
		out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
		logger := zerolog.New(out).With().Timestamp().Logger().Level(level)
		return logger, nopCloser{}, nil
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("creating log directory: %w", err)
	}

	path := filepath.Join(cfg.Dir, FileName(time.Now()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("opening log file: %w", err)
	}

	logger := zerolog.New(f).With().
		Timestamp().
		Str("service", "wtldr").
		Logger().
		Level(level)

	return logger, f, nil
}
