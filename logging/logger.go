package logging

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps *zap.SugaredLogger with the periodic-logging interval every
// call site in the runtime that streams bulk work (BulkExec, YieldAll, ...)
// reads back out via Interval.
type Logger struct {
	*zap.SugaredLogger

	interval time.Duration
}

// NewLogger builds a Logger from a zapcore.Core/interval pair, the building
// block Logging (the Config-driven factory below) and ad hoc test loggers
// both go through.
func NewLogger(core zapcore.Core, interval time.Duration) *Logger {
	return &Logger{
		SugaredLogger: zap.New(core).Sugar(),
		interval:      interval,
	}
}

// Interval returns how often a periodic.Start loop driven by this Logger
// should tick, e.g. to flush a running row counter.
func (l *Logger) Interval() time.Duration {
	return l.interval
}

// Logging is a registry of named child Loggers sharing one Config, mirroring
// the teacher's "one core config fans out into per-component loggers with
// independent levels" design.
type Logging struct {
	mu       sync.Mutex
	core     zapcore.Core
	level    zap.AtomicLevel
	interval time.Duration
	options  Options
	loggers  map[string]*Logger
}

// NewLogging builds a Logging from Config, wiring Output ("", "console",
// "json", "journald" or "systemd-journald") into the appropriate
// zapcore.Core, as the teacher's main wires logging.Config today. Any other
// Output value, including a file path, is rejected with an error.
func NewLogging(name string, c Config) (*Logging, error) {
	level := zap.NewAtomicLevelAt(c.Level)

	core, err := newCore(name, c.Output, level)
	if err != nil {
		return nil, err
	}

	return &Logging{
		core:     core,
		level:    level,
		interval: c.Interval,
		options:  c.Options,
	}, nil
}

func newCore(name, output string, level zapcore.LevelEnabler) (zapcore.Core, error) {
	switch output {
	case "", "console":
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		return zapcore.NewCore(enc, zapcore.AddSync(zapcore.Lock(zapcore.AddSync(zapLogWriter{}))), level), nil
	case "json":
		enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		return zapcore.NewCore(enc, zapcore.AddSync(zapcore.Lock(zapcore.AddSync(zapLogWriter{}))), level), nil
	case "journald", "systemd-journald":
		return NewJournaldCore(name, level), nil
	default:
		return nil, errors.Errorf("unsupported logging output %q", output)
	}
}

// GetChildLogger returns (creating if necessary) the named child Logger,
// applying any per-name level override from Config.Options.
func (l *Logging) GetChildLogger(name string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loggers == nil {
		l.loggers = make(map[string]*Logger)
	}

	if existing, ok := l.loggers[name]; ok {
		return existing
	}

	core := l.core
	if lvl, ok := l.options[name]; ok {
		core = &levelOverrideCore{Core: core, level: lvl}
	}

	logger := NewLogger(core.With([]zapcore.Field{zap.String("component", name)}), l.interval)
	l.loggers[name] = logger
	return logger
}

// levelOverrideCore clamps a shared core to a stricter/looser level for one
// named child logger without disturbing the others' sinks.
type levelOverrideCore struct {
	zapcore.Core
	level zapcore.Level
}

func (c *levelOverrideCore) Enabled(lvl zapcore.Level) bool { return lvl >= c.level }

func (c *levelOverrideCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}
	return ce
}

// zapLogWriter adapts fmt.Print-style stdout for the console/json cores so
// the package carries no direct os.Stdout dependency outside this file.
type zapLogWriter struct{}

func (zapLogWriter) Write(p []byte) (int, error) {
	return fmt.Print(string(p))
}
