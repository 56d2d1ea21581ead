// Package logging sets up the session-rotated zap loggers shared across
// the intelligence core: one timestamped session directory per process
// run, one shared log file that every named subsystem logger writes to,
// and a dedicated quality-log sink
// for descriptors that fail the confidence/completeness floors.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const sessionTimeFormat = "2006-01-02_15-04-05"

// Manager owns the session directory for one process run and hands out
// namespaced loggers that all write into it.
type Manager struct {
	sessionDir string
	level      zapcore.Level
	main       *zap.Logger
	quality    *zap.Logger
}

// Setup creates a new timestamped session directory under logDir, prunes
// old sessions beyond maxSessionsToKeep, and returns a Manager whose
// Logger() and QualityLogger() are ready to use.
func Setup(logDir string, level zapcore.Level, maxSessionsToKeep int) (*Manager, error) {
	sessionDir := filepath.Join(logDir, time.Now().Format(sessionTimeFormat))
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return nil, fmt.Errorf("create session log directory: %w", err)
	}

	if err := pruneOldSessions(logDir, maxSessionsToKeep); err != nil {
		return nil, fmt.Errorf("prune old sessions: %w", err)
	}

	main, err := newFileLogger(filepath.Join(sessionDir, "styleforge.log"), level)
	if err != nil {
		return nil, err
	}

	quality, err := newFileLogger(filepath.Join(sessionDir, "quality.jsonl"), zapcore.InfoLevel)
	if err != nil {
		return nil, err
	}

	return &Manager{sessionDir: sessionDir, level: level, main: main, quality: quality}, nil
}

// Logger returns a namespaced logger for the given subsystem, e.g.
// "descriptor_extractor" or "prompt_builder".
func (m *Manager) Logger(name string) *zap.Logger {
	return m.main.Named(name)
}

// QualityLogger returns the dedicated sink for low-confidence/incomplete
// descriptors. Entries are structured JSONL for later review and retry
// metrics.
func (m *Manager) QualityLogger() *zap.Logger {
	return m.quality
}

// Sync flushes both loggers' buffered entries.
func (m *Manager) Sync() error {
	_ = m.main.Sync()
	_ = m.quality.Sync()
	return nil
}

func newFileLogger(path string, level zapcore.Level) (*zap.Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(f), level)

	return zap.New(core), nil
}

func pruneOldSessions(logDir string, keep int) error {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var sessions []string
	for _, e := range entries {
		if e.IsDir() {
			sessions = append(sessions, e.Name())
		}
	}

	sort.Strings(sessions)

	if len(sessions) <= keep {
		return nil
	}

	for _, s := range sessions[:len(sessions)-keep] {
		if err := os.RemoveAll(filepath.Join(logDir, s)); err != nil {
			return err
		}
	}

	return nil
}
