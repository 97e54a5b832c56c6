package logging

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const fileName = "eoreview.log"

// Logger is a JSON slog logger writing to a rotated file.
type Logger struct {
	*slog.Logger
	LogFile string
	Start   time.Time

	closer io.Closer
}

// ParseLevel maps debug|info|warn|error to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", level)
	}
}

// New logs to dir/eoreview.log. An invalid level falls back to info and is
// reported in the log itself.
func New(dir string, level string) *Logger {
	w := &lumberjack.Logger{
		Filename:   filepath.Join(dir, fileName),
		MaxSize:    32, // MB
		MaxBackups: 3,
		Compress:   true,
	}
	lvl, lvlErr := ParseLevel(level)
	if lvl == slog.LevelDebug {
		w.MaxSize = 256
	}

	l := &Logger{
		Logger:  slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})),
		LogFile: w.Filename,
		Start:   time.Now(),
		closer:  w,
	}
	if lvlErr != nil {
		l.Warn("logging level", slog.Any("error", lvlErr))
	}

	l.Info("start",
		slog.String("goos", runtime.GOOS),
		slog.String("goarch", runtime.GOARCH))
	if bi, ok := debug.ReadBuildInfo(); ok {
		l.Debug("build",
			slog.String("go", bi.GoVersion),
			slog.String("path", bi.Path),
			slog.String("version", bi.Main.Version))
	}
	return l
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler), Start: time.Now()}
}

func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	l.Info("exit", slog.Duration("uptime", time.Since(l.Start)))
	return l.closer.Close()
}

// Slog returns the embedded logger; nil receivers get a discarding one.
func (l *Logger) Slog() *slog.Logger {
	if l == nil || l.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.Logger
}
