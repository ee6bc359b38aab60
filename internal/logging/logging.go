// Package logging builds the zap loggers used by the sitegest binaries.
//
// A logger is assembled from one or more plugins (zap cores): a stdout plugin
// for interactive use and a rotating file plugin backed by lumberjack.
package logging

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Plugin is a single log sink.
type Plugin = zapcore.Core

// NewLogger combines plugins into a logger with caller and error stack traces.
func NewLogger(plugins ...Plugin) *zap.Logger {
	if len(plugins) == 0 {
		return zap.NewNop()
	}
	return zap.New(zapcore.NewTee(plugins...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
}

// NewPlugin writes JSON entries to w for every level enabled by enabler.
func NewPlugin(w zapcore.WriteSyncer, enabler zapcore.LevelEnabler) Plugin {
	return zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), w, enabler)
}

func NewStdoutPlugin(enabler zapcore.LevelEnabler) Plugin {
	return NewPlugin(zapcore.Lock(zapcore.AddSync(os.Stdout)), enabler)
}

func NewStderrPlugin(enabler zapcore.LevelEnabler) Plugin {
	return NewPlugin(zapcore.Lock(zapcore.AddSync(os.Stderr)), enabler)
}

// NewFilePlugin writes to a size-rotated file. The returned closer releases
// the file handle and must be closed on shutdown.
func NewFilePlugin(path string, enabler zapcore.LevelEnabler) (Plugin, io.Closer) {
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}
	return NewPlugin(zapcore.AddSync(w), enabler), w
}

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New returns a logger writing to stdout and, when filePath is set, to a
// rotating file as well. The closer is a no-op without a file.
func New(level, filePath string) (*zap.Logger, io.Closer) {
	lvl := ParseLevel(level)
	plugins := []Plugin{NewStdoutPlugin(lvl)}
	var closer io.Closer = nopCloser{}
	if filePath != "" {
		p, c := NewFilePlugin(filePath, lvl)
		plugins = append(plugins, p)
		closer = c
	}
	return NewLogger(plugins...), closer
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return cfg
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
