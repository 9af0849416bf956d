// Package logger provides the process-wide leveled logger.
//
// The package exposes printf-style helpers backed by zap so call sites
// stay terse while output remains structured. The level can be changed
// at runtime; format (console or json) is fixed at Init time.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	sugar       *zap.SugaredLogger
)

func init() {
	rebuild("console", "")
}

func rebuild(format, output string) {
	var cfg zap.Config
	if strings.EqualFold(format, "json") {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cfg.Level = globalLevel
	cfg.DisableStacktrace = true
	if output != "" {
		cfg.OutputPaths = []string{output}
	}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		l = zap.NewNop()
	}
	sugar = l.Sugar()
}

// Init configures level, output format and destination. Format is "console"
// or "json"; anything else falls back to console. Output is "stdout",
// "stderr" or a file path; empty keeps zap's default.
func Init(level, format, output string) {
	SetLevel(level)
	rebuild(format, output)
}

// SetLevel changes the global log level at runtime. Unknown levels are
// ignored and the current level stays in effect.
func SetLevel(level string) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return
	}
	globalLevel.SetLevel(l)
}

// Sync flushes any buffered log entries. Call before process exit.
func Sync() error {
	return sugar.Sync()
}

func Debug(format string, v ...any) {
	sugar.Debugf(format, v...)
}

func Info(format string, v ...any) {
	sugar.Infof(format, v...)
}

func Warn(format string, v ...any) {
	sugar.Warnf(format, v...)
}

func Error(format string, v ...any) {
	sugar.Errorf(format, v...)
}

func Fatal(format string, v ...any) {
	sugar.Fatalf(format, v...)
}
