package gonwjs

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Option configures a session at Open time.
type Option func(s *Session)

// WithExecutable overrides the GUI executable path. Takes precedence
// over the NWJS environment variable.
func WithExecutable(path string) Option {
	return func(s *Session) {
		s.exec = path
	}
}

// WithLogger replaces the session's logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		s.log = l.Sugar().Named(loggerName)
	}
}

// WithLogLevel sets the minimum level of the session's diagnostics.
// The default logger is built at this level; combined with WithLogger
// it can only raise the supplied logger's own floor.
func WithLogLevel(l zapcore.Level) Option {
	return func(s *Session) {
		s.logLevel = l
		s.logLevelSet = true
	}
}

// WithGracePeriod sets how long Close waits after interrupting the GUI
// process before escalating to a kill.
func WithGracePeriod(d time.Duration) Option {
	return func(s *Session) {
		s.grace = d
	}
}

// WithTapAddr serves the debug event tap on addr for the lifetime of
// the session, mirroring every frame crossing the channel.
func WithTapAddr(addr string) Option {
	return func(s *Session) {
		s.tapAddr = addr
	}
}
