package log

import (
	"time"

	"github.com/orviagent/orvi/pkg/types"
	"github.com/rs/zerolog"
)

// ZerologAdapter implements types.Logger on top of zerolog.
type ZerologAdapter struct {
	logger zerolog.Logger
}

func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

func (z *ZerologAdapter) at(level zerolog.Level) types.Event {
	return &zerologEvent{e: z.logger.WithLevel(level)}
}

func (z *ZerologAdapter) Debug() types.Event { return z.at(zerolog.DebugLevel) }
func (z *ZerologAdapter) Info() types.Event  { return z.at(zerolog.InfoLevel) }
func (z *ZerologAdapter) Warn() types.Event  { return z.at(zerolog.WarnLevel) }
func (z *ZerologAdapter) Error() types.Event { return z.at(zerolog.ErrorLevel) }

// Fatal records a fatal event but never exits: a mission always ends with a
// returned result.
func (z *ZerologAdapter) Fatal() types.Event { return z.at(zerolog.FatalLevel) }

func (z *ZerologAdapter) With() types.Context {
	return zerologContext{c: z.logger.With()}
}

// ToZerologLevel is the inverse of ConvertZerologLevel.
func ToZerologLevel(l types.Level) zerolog.Level {
	switch l {
	case types.DebugLevel:
		return zerolog.DebugLevel
	case types.WarnLevel:
		return zerolog.WarnLevel
	case types.ErrorLevel:
		return zerolog.ErrorLevel
	case types.FatalLevel:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// A nil *zerolog.Event (level disabled) is safe to chain on.
type zerologEvent struct {
	e *zerolog.Event
}

func (ev *zerologEvent) Msg(msg string) { ev.e.Msg(msg) }

func (ev *zerologEvent) Msgf(format string, v ...any) { ev.e.Msgf(format, v...) }

func (ev *zerologEvent) Err(err error) types.Event {
	ev.e = ev.e.Err(err)
	return ev
}

func (ev *zerologEvent) Str(key, val string) types.Event {
	ev.e = ev.e.Str(key, val)
	return ev
}

func (ev *zerologEvent) Int(key string, val int) types.Event {
	ev.e = ev.e.Int(key, val)
	return ev
}

func (ev *zerologEvent) Bool(key string, val bool) types.Event {
	ev.e = ev.e.Bool(key, val)
	return ev
}

func (ev *zerologEvent) Dur(key string, val time.Duration) types.Event {
	ev.e = ev.e.Dur(key, val)
	return ev
}

func (ev *zerologEvent) Interface(key string, val any) types.Event {
	ev.e = ev.e.Interface(key, val)
	return ev
}

// zerologContext is a value so every With chain step copies it.
type zerologContext struct {
	c zerolog.Context
}

func (zc zerologContext) Str(key, val string) types.Context {
	return zerologContext{c: zc.c.Str(key, val)}
}

func (zc zerologContext) Int(key string, val int) types.Context {
	return zerologContext{c: zc.c.Int(key, val)}
}

func (zc zerologContext) Interface(key string, val any) types.Context {
	return zerologContext{c: zc.c.Interface(key, val)}
}

func (zc zerologContext) Timestamp() types.Context {
	return zerologContext{c: zc.c.Timestamp()}
}

func (zc zerologContext) Logger() types.Logger {
	return &ZerologAdapter{logger: zc.c.Logger()}
}
