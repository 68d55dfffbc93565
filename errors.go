package gonwjs

import (
	"errors"

	"github.com/gonwjs/gonwjs/events"
)

var (
	// ErrSessionClosed is returned when an operation requires an open
	// session and there is none.
	ErrSessionClosed = errors.New("cannot emit event on closed session")

	// ErrDuplicateSession is returned by Open while another session is
	// still running; close it first.
	ErrDuplicateSession = errors.New("a session is already running, close it first")

	// ErrInvalidEventName is returned when a user-facing call names an
	// event in the reserved namespace.
	ErrInvalidEventName = events.ErrInvalidEventName
)
