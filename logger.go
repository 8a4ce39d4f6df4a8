package pop3

import (
	"log/slog"
	"os"
	"sync/atomic"
)

// Logger receives the client's diagnostics. Implementations must be safe for
// concurrent use.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	WithAttrs(args ...any) Logger
}

const logComponent = "pop3/client"

// loggerRef lets an interface value live behind an atomic.Pointer
type loggerRef struct{ Logger }

var packageLogger atomic.Pointer[loggerRef]

func stderrLogger() Logger {
	return SlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

// SetLogger sets the logger used by sessions without their own Logger.
// nil restores the stderr text logger.
func SetLogger(logger Logger) {
	if logger == nil {
		logger = stderrLogger()
	}
	packageLogger.Store(&loggerRef{logger.WithAttrs("component", logComponent)})
}

// SetSlogLogger is SetLogger for a *slog.Logger
func SetSlogLogger(logger *slog.Logger) {
	SetLogger(SlogLogger(logger))
}

// SlogLogger wraps a *slog.Logger; it returns nil for a nil logger.
func SlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		return nil
	}
	return slogLogger{logger}
}

type slogLogger struct{ l *slog.Logger }

func (s slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s slogLogger) WithAttrs(args ...any) Logger { return slogLogger{s.l.With(args...)} }

func getLogger() Logger {
	if ref := packageLogger.Load(); ref != nil {
		return ref.Logger
	}
	SetLogger(nil)
	return packageLogger.Load().Logger
}

// sessionLogger tags base, or the package logger when base is nil, with the
// session id and host. Empty values are left out.
func sessionLogger(base Logger, sessionID string, host string) Logger {
	if base == nil {
		base = getLogger()
	} else {
		base = base.WithAttrs("component", logComponent)
	}

	var args []any
	if sessionID != "" {
		args = append(args, "session", sessionID)
	}
	if host != "" {
		args = append(args, "host", host)
	}
	if len(args) == 0 {
		return base
	}
	return base.WithAttrs(args...)
}

// debugLog traces the protocol exchange; it is silent unless Verbose is set.
func (s *Session) debugLog(msg string, args ...any) {
	if Verbose {
		sessionLogger(s.Logger, s.id, s.host).Debug(msg, args...)
	}
}

func (s *Session) warnLog(msg string, args ...any) {
	sessionLogger(s.Logger, s.id, s.host).Warn(msg, args...)
}
