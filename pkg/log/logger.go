package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	koalaErrors "github.com/koalaml/koala-lightgbm/pkg/errors"
)

const (
	// ErrAttrKey is the key used for an error passed without an explicit key.
	ErrAttrKey = "error"
)

var (
	providerMu sync.RWMutex
	provider   LoggerProvider = NewZerologProvider(os.Stderr, LevelWarn)
)

func init() {
	koalaErrors.SetZerologWarnFunc(func(w error) {
		GetLoggerWithName("warnings").Warn(w.Error(), WarningKey, w)
	})
}

// GetLogger returns the default logger of the process-wide provider.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLogger()
}

// GetLoggerWithName returns a logger tagged with the given component name.
func GetLoggerWithName(name string) Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLoggerWithName(name)
}

// SetProvider replaces the process-wide provider and returns the previous one.
func SetProvider(p LoggerProvider) LoggerProvider {
	providerMu.Lock()
	defer providerMu.Unlock()
	prev := provider
	provider = p
	return prev
}

// SetLevel sets the minimum level of the process-wide provider.
func SetLevel(level Level) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	provider.SetLevel(level)
}

// SetupLogger installs a zerolog provider writing JSON to stderr at the given
// level ("debug", "info", "warn", "error", "silent").
func SetupLogger(loglevel string) error {
	level, err := ParseLevel(loglevel)
	if err != nil {
		return err
	}
	SetProvider(NewZerologProvider(os.Stderr, level))
	return nil
}

// ParseLevel converts a level name into a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "silent", "off":
		return LevelSilent, nil
	default:
		return LevelInfo, koalaErrors.NewValidationError("log_level", "unknown log level", level)
	}
}

// LevelForVerbosity maps the lifecycle's integer verbosity onto a level:
// negative is silent, 0 warnings only, 1 info, 2 and above debug.
func LevelForVerbosity(verbosity int) Level {
	switch {
	case verbosity < 0:
		return LevelSilent
	case verbosity == 0:
		return LevelWarn
	case verbosity == 1:
		return LevelInfo
	default:
		return LevelDebug
	}
}

// ZerologProvider hands out zerolog-backed loggers sharing one writer and level.
type ZerologProvider struct {
	mu    sync.RWMutex
	base  zerolog.Logger
	level *zerolog.Level
}

// NewZerologProvider creates a provider writing JSON lines to w.
func NewZerologProvider(w io.Writer, level Level) *ZerologProvider {
	lvl := toZerologLevel(level)
	return &ZerologProvider{
		base:  zerolog.New(w).With().Timestamp().Logger(),
		level: &lvl,
	}
}

// GetLogger implements LoggerProvider.
func (p *ZerologProvider) GetLogger() Logger {
	return &zerologLogger{zl: p.base, provider: p}
}

// GetLoggerWithName implements LoggerProvider.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	return &zerologLogger{zl: p.base.With().Str(ComponentKey, name).Logger(), provider: p}
}

// SetLevel implements LoggerProvider.
func (p *ZerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	*p.level = toZerologLevel(level)
}

func (p *ZerologProvider) currentLevel() zerolog.Level {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return *p.level
}

type zerologLogger struct {
	zl       zerolog.Logger
	provider *ZerologProvider
}

func (l *zerologLogger) logger() zerolog.Logger {
	return l.zl.Level(l.provider.currentLevel())
}

func (l *zerologLogger) Debug(msg string, fields ...any) {
	zl := l.logger()
	emit(zl.Debug(), msg, fields)
}

func (l *zerologLogger) Info(msg string, fields ...any) {
	zl := l.logger()
	emit(zl.Info(), msg, fields)
}

func (l *zerologLogger) Warn(msg string, fields ...any) {
	zl := l.logger()
	emit(zl.Warn(), msg, fields)
}

func (l *zerologLogger) Error(msg string, fields ...any) {
	zl := l.logger()
	emit(zl.Error(), msg, fields)
}

func (l *zerologLogger) With(fields ...any) Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if err, ok := fields[i+1].(error); ok {
			ctx = ctx.AnErr(key, err)
			continue
		}
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &zerologLogger{zl: ctx.Logger(), provider: l.provider}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return level != LevelSilent && toZerologLevel(level) >= l.provider.currentLevel()
}

// emit writes fields onto a zerolog event; e is nil when the level is disabled.
func emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	for i := 0; i < len(fields); i++ {
		if err, ok := fields[i].(error); ok {
			addError(e, ErrAttrKey, err)
			continue
		}
		if i+1 >= len(fields) {
			e.Interface("!BADKEY", fields[i])
			break
		}
		key := fmt.Sprint(fields[i])
		switch v := fields[i+1].(type) {
		case zerolog.LogObjectMarshaler:
			e.Object(key, v)
		case error:
			addError(e, key, v)
		default:
			e.Interface(key, v)
		}
		i++
	}
	e.Msg(msg)
}

func addError(e *zerolog.Event, key string, err error) {
	e.AnErr(key, err)
	if st := extractStacktrace(err); st != "" {
		e.Str(StacktraceKey, st)
	}
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level >= LevelSilent:
		return zerolog.Disabled
	case level >= LevelError:
		return zerolog.ErrorLevel
	case level >= LevelWarn:
		return zerolog.WarnLevel
	case level >= LevelInfo:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}

// WithVerbosity wraps l so that records below the level implied by verbosity
// are dropped, on top of whatever filtering l already applies.
func WithVerbosity(l Logger, verbosity int) Logger {
	return &verbosityLogger{next: l, min: LevelForVerbosity(verbosity)}
}

type verbosityLogger struct {
	next Logger
	min  Level
}

func (v *verbosityLogger) allowed(level Level) bool {
	return v.min != LevelSilent && level >= v.min
}

func (v *verbosityLogger) Debug(msg string, fields ...any) {
	if v.allowed(LevelDebug) {
		v.next.Debug(msg, fields...)
	}
}

func (v *verbosityLogger) Info(msg string, fields ...any) {
	if v.allowed(LevelInfo) {
		v.next.Info(msg, fields...)
	}
}

func (v *verbosityLogger) Warn(msg string, fields ...any) {
	if v.allowed(LevelWarn) {
		v.next.Warn(msg, fields...)
	}
}

func (v *verbosityLogger) Error(msg string, fields ...any) {
	if v.allowed(LevelError) {
		v.next.Error(msg, fields...)
	}
}

func (v *verbosityLogger) With(fields ...any) Logger {
	return &verbosityLogger{next: v.next.With(fields...), min: v.min}
}

func (v *verbosityLogger) Enabled(ctx context.Context, level Level) bool {
	return v.allowed(level) && v.next.Enabled(ctx, level)
}
