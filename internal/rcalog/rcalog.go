// Package rcalog is a slog-backed structured logger with size-based file
// rotation, used for the Orchestrator's stage-transition logging and the
// indexer's diagnostic logging.
package rcalog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level is the minimum severity a logger emits.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

// Config shapes one Logger.
type Config struct {
	Level      Level
	OutputFile string // empty means stdout only
	MaxSize    int64  // bytes before rotation; defaults to 10MB
	MaxBackups int    // rotated files kept; defaults to 3
	JSONFormat bool
	AddSource  bool
}

// Logger wraps slog with rotation-aware file output. Loggers are cheap
// to derive via With; the file handle is shared across derived loggers.
type Logger struct {
	slog      *slog.Logger
	config    Config
	file      *os.File
	mu        sync.Mutex
	debugMode bool
}

// NewLogger opens the configured sinks and returns a ready Logger.
// Stdout is always included; OutputFile adds a rotating file sink.
func NewLogger(config Config) (*Logger, error) {
	if config.MaxSize == 0 {
		config.MaxSize = 10 << 20
	}
	if config.MaxBackups == 0 {
		config.MaxBackups = 3
	}

	l := &Logger{config: config, debugMode: config.Level == DEBUG}

	sinks := []io.Writer{os.Stdout}
	if config.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(config.OutputFile), 0o755); err != nil {
			return nil, fmt.Errorf("rcalog: create log directory: %w", err)
		}
		if err := l.rotateIfNeeded(); err != nil {
			return nil, fmt.Errorf("rcalog: rotate: %w", err)
		}
		f, err := os.OpenFile(config.OutputFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("rcalog: open %s: %w", config.OutputFile, err)
		}
		l.file = f
		sinks = append(sinks, f)
	}

	opts := &slog.HandlerOptions{Level: l.toSlogLevel(config.Level), AddSource: config.AddSource}
	out := io.MultiWriter(sinks...)
	if config.JSONFormat {
		l.slog = slog.New(slog.NewJSONHandler(out, opts))
	} else {
		l.slog = slog.New(slog.NewTextHandler(out, opts))
	}
	return l, nil
}

// rotateIfNeeded shifts OutputFile into numbered backups once it crosses
// MaxSize, dropping the oldest backup past MaxBackups. It runs only from
// NewLogger; a file that grows past MaxSize while open is not rotated.
func (l *Logger) rotateIfNeeded() error {
	if l.config.OutputFile == "" {
		return nil
	}
	info, err := os.Stat(l.config.OutputFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Size() < l.config.MaxSize {
		return nil
	}

	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	for i := l.config.MaxBackups - 1; i >= 1; i-- {
		from := fmt.Sprintf("%s.%d", l.config.OutputFile, i)
		if _, err := os.Stat(from); err == nil {
			os.Rename(from, fmt.Sprintf("%s.%d", l.config.OutputFile, i+1))
		}
	}
	return os.Rename(l.config.OutputFile, l.config.OutputFile+".1")
}

func (l *Logger) toSlogLevel(level Level) slog.Level {
	switch level {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR, FATAL:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// With derives a child logger carrying extra structured context, the way
// a run attaches trace_id/incident_id or the indexer attaches
// service/commit_sha.
func (l *Logger) With(args ...any) *Logger {
	child := *l
	child.slog = l.slog.With(args...)
	return &child
}

// IsDebugEnabled reports whether this logger was built at DEBUG level.
func (l *Logger) IsDebugEnabled() bool { return l.debugMode }

// Close releases the file sink, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// DefaultConfig is text-to-stdout-and-file at DEBUG for development, JSON
// at INFO otherwise. The file name carries a start timestamp so repeated
// runs don't interleave.
func DefaultConfig(debugMode bool) Config {
	level := INFO
	if debugMode {
		level = DEBUG
	}
	name := fmt.Sprintf("rcabrain_%s.log", time.Now().Format("2006-01-02_15-04-05"))
	return Config{
		Level:      level,
		OutputFile: filepath.Join("logs", name),
		MaxSize:    10 << 20,
		MaxBackups: 3,
		JSONFormat: !debugMode,
		AddSource:  debugMode,
	}
}

// ProductionConfig is tuned for a long-running Orchestrator process: JSON
// output with a larger rotation budget.
func ProductionConfig(logFile string) Config {
	return Config{
		Level:      INFO,
		OutputFile: logFile,
		MaxSize:    50 << 20,
		MaxBackups: 10,
		JSONFormat: true,
	}
}
