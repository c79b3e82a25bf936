package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LevelQuiet   = "quiet"
	LevelTerse   = "terse"
	LevelVerbose = "verbose"
)

// ParseLevel maps a verbosity name onto a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch level {
	case LevelVerbose:
		return zapcore.DebugLevel, nil
	case LevelTerse, "":
		return zapcore.InfoLevel, nil
	case LevelQuiet:
		return zapcore.WarnLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// New creates a console zap logger writing to w (stderr when nil) at the requested verbosity.
func New(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.TimeKey = "time"
	encoderCfg.LevelKey = "level"
	encoderCfg.MessageKey = "msg"

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(lvl),
	)
	return zap.New(core), nil
}
