package gonwjs

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/gonwjs/gonwjs/events"
)

// bridge is the process-wide state behind the package-level API: the
// callback registry, which outlives sessions, and the single current
// session.
type bridge struct {
	registry *events.Registry

	mut     sync.Mutex
	session *Session
}

func newBridge() *bridge {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("error constructing default logger: %s", err))
	}
	return &bridge{
		registry: events.NewRegistry(logger.Sugar().Named(loggerName)),
	}
}

var defaultBridge = newBridge()

func (b *bridge) open(appRoot string, opts ...Option) (*Session, error) {
	b.mut.Lock()
	defer b.mut.Unlock()
	if b.session != nil {
		return nil, ErrDuplicateSession
	}
	s, err := openSession(appRoot, b.registry, b.drop, opts...)
	if err != nil {
		return nil, err
	}
	b.session = s
	return s, nil
}

// drop forgets the session once it has closed. Runs inside the
// session's close path, so it must not call back into the session.
func (b *bridge) drop(s *Session) {
	b.mut.Lock()
	defer b.mut.Unlock()
	if b.session == s {
		b.session = nil
	}
}

func (b *bridge) current() (*Session, error) {
	b.mut.Lock()
	defer b.mut.Unlock()
	if b.session == nil {
		return nil, ErrSessionClosed
	}
	return b.session, nil
}

// close closes the current session without holding the bridge lock,
// since the session's close path calls drop.
func (b *bridge) close() error {
	s, err := b.current()
	if err != nil {
		return nil
	}
	return s.Close()
}

// Open launches the GUI app rooted at appRoot (the folder containing
// its package.json) and returns the session. Only one session can be
// open at a time.
func Open(appRoot string, opts ...Option) (*Session, error) {
	return defaultBridge.open(appRoot, opts...)
}

// Run opens the app, invokes fn with the session, and guarantees the
// session is closed on every return path. A session that was already
// closed when fn returns, for example because the user closed the
// window, is a normal exit.
func Run(appRoot string, fn func(s *Session) error, opts ...Option) error {
	s, err := defaultBridge.open(appRoot, opts...)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// Emit sends the event with the payload to the open GUI.
func Emit(event string, payload any) error {
	s, err := defaultBridge.current()
	if err != nil {
		return err
	}
	return s.Emit(event, payload)
}

// Emitter returns a function that emits the event each time it is
// invoked, for wiring as a callback:
//
//	gonwjs.On("ping", func(payload any) { gonwjs.Emitter("pong")(payload) })
func Emitter(event string) func(payload any) error {
	return func(payload any) error {
		return Emit(event, payload)
	}
}

// On registers a handler for the event. Each event can have multiple
// handlers, invoked in registration order. Registrations persist
// across sessions until cleared.
func On(event string, h events.Handler) error {
	return defaultBridge.registry.Register(event, h)
}

// AddEventListener registers a handler for an HTML DOM event forwarded
// from the GUI, identified by the element ID and the DOM event name.
// The GUI side must forward the event for it to arrive here.
func AddEventListener(id, htmlEvent string, h events.Handler) {
	defaultBridge.registry.RegisterInternal(events.ListenerEvent(id, htmlEvent), h)
}

// Clear removes all handlers of one event.
func Clear(event string) error {
	return defaultBridge.registry.Clear(event)
}

// ClearAll removes every registered handler, including DOM listeners.
func ClearAll() {
	defaultBridge.registry.ClearAll()
}

// EmitResult wraps fn so that every non-nil value it returns is also
// emitted to the GUI under the event name. A closed session swallows
// the emit; the wrapped function still returns fn's result.
func EmitResult(event string, fn func() (any, error)) (func() (any, error), error) {
	if err := events.ValidateName(event); err != nil {
		return nil, err
	}
	return func() (any, error) {
		v, err := fn()
		if err != nil || v == nil {
			return v, err
		}
		if emitErr := Emit(event, v); emitErr != nil && !errors.Is(emitErr, ErrSessionClosed) {
			return v, emitErr
		}
		return v, nil
	}, nil
}

// Wait blocks until the GUI is closed, either explicitly or by the
// user closing the window. Returns immediately if no session is open.
func Wait() {
	s, err := defaultBridge.current()
	if err != nil {
		return
	}
	s.Wait()
}

// Close closes the currently open session, if any.
func Close() error {
	return defaultBridge.close()
}
