// Package logger adapts zap to the LoggerPort used across the module.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"signup-agent/internal/application/port/output"
)

var _ output.LoggerPort = (*Adapter)(nil)

type Adapter struct {
	sugar *zap.SugaredLogger
	base  *zap.Logger
}

// New builds a JSON logger writing to stderr and, when logDir is non-empty,
// to a timestamped file under it.
func New(debug bool, logDir string) (*Adapter, error) {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level),
	}

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		name := fmt.Sprintf("%s_run.log", time.Now().Format("2006-01-02_15-04-05"))
		file, err := os.Create(filepath.Join(logDir, name))
		if err != nil {
			return nil, fmt.Errorf("create log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(file), level))
	}

	base := zap.New(zapcore.NewTee(cores...))
	return &Adapter{sugar: base.Sugar(), base: base}, nil
}

// NewNop returns a logger that drops everything. Used in tests.
func NewNop() *Adapter {
	base := zap.NewNop()
	return &Adapter{sugar: base.Sugar(), base: base}
}

func (a *Adapter) Debug(msg string, args ...any) { a.sugar.Debugw(msg, args...) }
func (a *Adapter) Info(msg string, args ...any)  { a.sugar.Infow(msg, args...) }
func (a *Adapter) Warn(msg string, args ...any)  { a.sugar.Warnw(msg, args...) }
func (a *Adapter) Error(msg string, args ...any) { a.sugar.Errorw(msg, args...) }

func (a *Adapter) WithField(key string, value any) output.LoggerPort {
	return &Adapter{sugar: a.sugar.With(key, value), base: a.base}
}

func (a *Adapter) WithFields(fields map[string]any) output.LoggerPort {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Adapter{sugar: a.sugar.With(args...), base: a.base}
}

func (a *Adapter) Close() error {
	return a.base.Sync()
}
