package logger

import (
	"os"
	"strings"

	"github.com/samvad-hq/samvad-request/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// S is the process-wide logger, nil until Init runs.
var S *zap.SugaredLogger

// Logger is the structured logging surface handed to components. Each call
// logs obj as a single field named key.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

// Init builds the JSON stdout logger described by cfg and installs it as S.
func Init(cfg *config.Config) (*zap.SugaredLogger, error) {
	encoding := zap.NewProductionEncoderConfig()
	encoding.TimeKey = "ts"
	encoding.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoding),
		zapcore.Lock(os.Stdout),
		parseLevel(cfg.LogLevel),
	)
	base := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	S = base.Sugar().With("app", cfg.AppName, "env", cfg.Env)
	return S, nil
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Close flushes S.
func Close() error {
	if S == nil {
		return nil
	}
	return S.Sync()
}

func emit(z *zap.Logger, level zapcore.Level, msg, key string, obj interface{}) {
	if z == nil {
		return
	}
	if ce := z.Check(level, msg); ce != nil {
		ce.Write(zap.Any(key, obj))
	}
}

func global() *zap.Logger {
	if S == nil {
		return nil
	}
	// Skip the package helper frame so callers show up in "caller".
	return S.Desugar().WithOptions(zap.AddCallerSkip(1))
}

func InfoObj(msg, key string, obj interface{})  { emit(global(), zapcore.InfoLevel, msg, key, obj) }
func DebugObj(msg, key string, obj interface{}) { emit(global(), zapcore.DebugLevel, msg, key, obj) }
func WarnObj(msg, key string, obj interface{})  { emit(global(), zapcore.WarnLevel, msg, key, obj) }
func ErrorObj(msg, key string, obj interface{}) { emit(global(), zapcore.ErrorLevel, msg, key, obj) }

// Global returns a Logger that follows S, including a later Init.
func Global() Logger { return zapLogger{resolve: global} }

// New wraps a specific zap logger, mostly for tests that capture output.
func New(z *zap.Logger) Logger {
	if z == nil {
		return NopLogger()
	}
	return zapLogger{resolve: func() *zap.Logger { return z }}
}

type zapLogger struct {
	resolve func() *zap.Logger
}

func (l zapLogger) InfoObj(msg, key string, obj interface{}) {
	emit(l.resolve(), zapcore.InfoLevel, msg, key, obj)
}

func (l zapLogger) DebugObj(msg, key string, obj interface{}) {
	emit(l.resolve(), zapcore.DebugLevel, msg, key, obj)
}

func (l zapLogger) WarnObj(msg, key string, obj interface{}) {
	emit(l.resolve(), zapcore.WarnLevel, msg, key, obj)
}

func (l zapLogger) ErrorObj(msg, key string, obj interface{}) {
	emit(l.resolve(), zapcore.ErrorLevel, msg, key, obj)
}

// NopLogger discards everything.
func NopLogger() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) InfoObj(string, string, interface{})  {}
func (nopLogger) DebugObj(string, string, interface{}) {}
func (nopLogger) WarnObj(string, string, interface{})  {}
func (nopLogger) ErrorObj(string, string, interface{}) {}
