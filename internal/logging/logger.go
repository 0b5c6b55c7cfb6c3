package logging

import (
	"log/slog"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

type ShutdownFunc func() error

// New builds a zap production logger exposed through slog. Logs go to stderr
// so stdout stays free for progress lines and reports.
func New(debug bool) (*slog.Logger, ShutdownFunc, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zapLog, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}
	core := zapLog.Core()
	return slog.New(zapslog.NewHandler(core, zapslog.WithCaller(true))), core.Sync, nil
}

func Fallback() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
