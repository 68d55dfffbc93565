package gonwjs

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gonwjs/gonwjs/channel"
	"github.com/gonwjs/gonwjs/events"
	"github.com/gonwjs/gonwjs/internal/fsutil"
	"github.com/gonwjs/gonwjs/proc"
	"github.com/gonwjs/gonwjs/tap"
	"github.com/gonwjs/gonwjs/wire"
)

const (
	loggerName = "gonwjs"

	// EnvExecutable names the environment variable overriding the GUI
	// executable path.
	EnvExecutable = "NWJS"

	// DefaultExecutable is used when no override is configured.
	DefaultExecutable = "nw"

	defaultGrace = 5 * time.Second
)

// Session is the single live binding between the host and one GUI
// process. It owns the child process, the channel directory with its
// two pipes, and the reader goroutine dispatching inbound events to
// the registry.
type Session struct {
	// ID uniquely names this session, for logs and the channel
	// directory.
	ID string

	log         *zap.SugaredLogger
	registry    *events.Registry
	exec        string
	grace       time.Duration
	tapAddr     string
	logLevel    zapcore.Level
	logLevelSet bool

	active atomic.Bool
	proc   *proc.Proc
	dir    string
	ch     *channel.Channel
	tap    *tap.Server

	readerDone chan struct{}
	closeOnce  sync.Once
	closeErr   error
	onClosed   func(*Session)
}

// openChannel is replaced in tests to exercise setup failures.
var openChannel = channel.Open

// openSession spawns the GUI process, sets up the channel, and starts
// the reader. Any failure rolls back whatever was created so far: no
// leaked process, no leaked directory.
func openSession(appRoot string, registry *events.Registry, onClosed func(*Session), opts ...Option) (*Session, error) {
	s := &Session{
		ID:         uuid.NewString(),
		registry:   registry,
		grace:      defaultGrace,
		logLevel:   zapcore.InfoLevel,
		readerDone: make(chan struct{}),
		onClosed:   onClosed,
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(s.logLevel)
		logger, err := cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("building logger: %w", err)
		}
		s.log = logger.Sugar().Named(loggerName)
	} else if s.logLevelSet {
		s.log = s.log.WithOptions(zap.IncreaseLevel(s.logLevel))
	}
	if s.exec == "" {
		s.exec = os.Getenv(EnvExecutable)
		if s.exec == "" {
			s.exec = DefaultExecutable
		}
	}

	dir, err := fsutil.ChannelDir(s.ID)
	if err != nil {
		return nil, err
	}
	s.dir = dir

	p, err := proc.Spawn(s.exec, appRoot, dir, s.log.Named("proc"))
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	s.proc = p

	ch, err := openChannel(dir, s.log.Named("channel"))
	if err != nil {
		p.Terminate(s.grace)
		os.RemoveAll(dir)
		return nil, err
	}
	s.ch = ch

	if s.tapAddr != "" {
		t, err := tap.Listen(s.tapAddr, s.log.Named("tap"))
		if err != nil {
			ch.Close()
			p.Terminate(s.grace)
			os.RemoveAll(dir)
			return nil, err
		}
		s.tap = t
	}

	s.active.Store(true)
	go s.readLoop()
	return s, nil
}

// Emit encodes the event and payload as one frame and writes it to the
// GUI. Reserved event names are rejected; emitting on a closed session
// returns ErrSessionClosed.
func (s *Session) Emit(event string, payload any) error {
	if err := events.ValidateName(event); err != nil {
		return err
	}
	return s.emit(event, payload)
}

func (s *Session) emit(event string, payload any) error {
	if !s.active.Load() {
		return ErrSessionClosed
	}
	frame, err := wire.Encode(event, payload)
	if err != nil {
		return err
	}

	s.log.Debugf("sending event: %s", event)
	if err := s.ch.WriteFrame(frame); err != nil {
		if errors.Is(err, channel.ErrClosed) {
			return ErrSessionClosed
		}
		return err
	}
	if s.tap != nil {
		s.tap.Publish(tap.Outbound, wire.Frame{Event: event, Payload: payload})
	}
	return nil
}

// Wait blocks until the GUI is closed, either by Close or by the user
// closing the window. Handlers keep firing on the reader goroutine
// while waiting.
func (s *Session) Wait() {
	<-s.readerDone
}

// Close shuts the session down: interrupt the GUI process, close the
// channel, join the reader, and remove the channel directory. Safe to
// call repeatedly. An event handler that wants to end the session
// must call Close from its own goroutine, since the reader cannot
// join itself mid-dispatch.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.log.Debug("closing session")
		s.active.Store(false)

		if err := s.proc.Terminate(s.grace); err != nil {
			s.log.Debugf("terminating process: %s", err)
		}
		if err := s.ch.Close(); err != nil {
			s.log.Debugf("closing channel: %s", err)
		}

		// The reader exits once the channel closes under it. When
		// Close is triggered by the reader itself (GUI-side exit),
		// readerDone is already closed and this returns immediately.
		<-s.readerDone

		if s.tap != nil {
			if err := s.tap.Close(); err != nil {
				s.log.Debugf("closing tap: %s", err)
			}
		}
		if err := os.RemoveAll(s.dir); err != nil {
			s.closeErr = fmt.Errorf("removing channel directory: %w", err)
		}
		if s.onClosed != nil {
			s.onClosed(s)
		}
		s.log.Debug("closed session")
	})
	return s.closeErr
}

// Active reports whether the session is open.
func (s *Session) Active() bool {
	return s.active.Load()
}

// readLoop is the dedicated reader: it owns all inbound reads and all
// dispatch invocations, and turns a GUI-side exit into a session
// close as if the host had called Close.
func (s *Session) readLoop() {
	s.log.Debug("started event reader")
	for s.active.Load() {
		line, readErr := s.ch.ReadLine()
		// a final line without its terminator still carries a frame
		if len(line) > 0 && !s.handleLine(line) {
			break
		}
		if readErr != nil {
			// end of stream, or the channel was closed under us
			break
		}
	}
	s.log.Debug("stopped event reader")

	// End-of-stream on the inbound pipe normally means the GUI
	// process is on its way out; wait for the exit so Wait callers
	// stay blocked as long as the GUI is alive. A close in progress
	// has already arranged for the process to exit.
	if s.active.Load() {
		<-s.proc.Exited()
	}

	// Unblock Wait and any Close in progress before self-closing, so
	// the join in Close never waits on this goroutine's own close.
	close(s.readerDone)
	if s.active.Load() {
		s.Close()
	}
}

// handleLine decodes and dispatches one inbound line. It reports false
// when a malformed line coincides with the GUI process having exited,
// which ends the read loop like an end-of-stream.
func (s *Session) handleLine(line []byte) bool {
	frame, err := wire.Decode(line)
	if err != nil {
		if !s.proc.Alive() {
			return false
		}
		if s.active.Load() {
			s.log.Warnf("discarding malformed frame: %s (data: %q)", err, line)
		}
		return true
	}
	s.log.Debugf("received event: %s", frame.Event)
	if s.tap != nil {
		s.tap.Publish(tap.Inbound, frame)
	}
	s.registry.Dispatch(frame.Event, frame.Payload)
	return true
}
