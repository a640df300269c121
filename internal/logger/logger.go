package logger

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	base        = zap.NewNop()
	serviceName = "options-intraday"
)

// Config selects the level and encoding of the process logger.
type Config struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // console | json
}

// Init builds the process logger. Until it runs, all log calls are no-ops.
func Init(cfg Config) error {
	level := zap.NewAtomicLevel()
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
			return errors.Wrapf(err, "log level %q", cfg.Level)
		}
	}

	zc := zap.NewProductionConfig()
	zc.Level = level
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	switch strings.ToLower(cfg.Format) {
	case "", "console":
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	case "json":
		zc.Encoding = "json"
	default:
		return errors.Errorf("log format %q", cfg.Format)
	}

	l, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return errors.Wrap(err, "build logger")
	}
	base = l.With(zap.String("service", serviceName))
	return nil
}

// Set replaces the process logger and returns a func restoring the previous one.
func Set(l *zap.Logger) (restore func()) {
	prev := base
	base = l
	return func() { base = prev }
}

// L returns the underlying structured logger.
func L() *zap.Logger { return base }

// Sync flushes buffered entries.
func Sync() { _ = base.Sync() }

func Debugf(format string, args ...interface{}) { base.Debug(fmt.Sprintf(format, args...)) }

func Infof(format string, args ...interface{}) { base.Info(fmt.Sprintf(format, args...)) }

func Warnf(format string, args ...interface{}) { base.Warn(fmt.Sprintf(format, args...)) }

func Errorf(format string, args ...interface{}) { base.Error(fmt.Sprintf(format, args...)) }

func Fatalf(format string, args ...interface{}) { base.Fatal(fmt.Sprintf(format, args...)) }
