// Package concordlog wraps a package-level *zap.Logger: a swappable global
// logger behind a small set of level functions, JSON-encoded with ISO8601
// timestamps and short caller locations.
package concordlog

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger   *zap.Logger
	loggerMu sync.RWMutex
)

func init() {
	SetLogger(true, "info")
}

// SetLogger reconfigures the global logger.
func SetLogger(showCaller bool, level string) {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		parseLevel(level),
	)

	l := zap.New(core)
	if showCaller {
		l = l.WithOptions(zap.AddCaller(), zap.AddCallerSkip(1))
	}
	logger = l
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// GetLogger returns the current global logger.
func GetLogger() *zap.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

func current() *zap.Logger {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	return l
}

func Debug(msg string, fields ...zap.Field) { current().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { current().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { current().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { current().Error(msg, fields...) }

// Event logs one conflict_* message identifier, carrying the structured
// {tender_id, rev, message_id, params?} shape downstream correlation
// expects. tenderID is the human-readable business identifier from the
// document payload, if any; absence is not an error.
func Event(messageID, id, tenderID, rev string, params ...zap.Field) {
	fields := make([]zap.Field, 0, len(params)+3)
	fields = append(fields, zap.String("message_id", messageID), zap.String("tender_id", id), zap.String("rev", rev))
	if tenderID != "" {
		fields = append(fields, zap.String("tenderID", tenderID))
	}
	fields = append(fields, params...)
	current().Info(messageID, fields...)
}
