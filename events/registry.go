// Package events holds the callback registry: the mapping from event
// names to the handlers invoked when the GUI emits them.
package events

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ReservedPrefix marks the namespace of internal event names, used for
// forwarded HTML DOM events. The user-facing register, clear and emit
// paths reject names in this namespace.
const ReservedPrefix = "__"

// ErrInvalidEventName is returned when a user-facing call names an
// event inside the reserved namespace.
var ErrInvalidEventName = errors.New("invalid event name, may only start with letters")

// Handler is a callback invoked with the payload of its event.
type Handler func(payload any)

// ValidateName rejects event names in the reserved namespace.
func ValidateName(event string) error {
	if strings.HasPrefix(event, ReservedPrefix) {
		return fmt.Errorf("%w: %s", ErrInvalidEventName, event)
	}
	return nil
}

// ListenerEvent builds the internal event name under which an HTML DOM
// event is forwarded, from the element ID and the DOM event name.
func ListenerEvent(id, event string) string {
	return fmt.Sprintf("%sevent__.%s.%s", ReservedPrefix, id, event)
}

// Registry maps event names to handlers in registration order. Lookups
// return a snapshot, so the reader goroutine can dispatch while other
// goroutines register or clear.
type Registry struct {
	log *zap.SugaredLogger

	mut      sync.RWMutex
	handlers map[string][]Handler
}

func NewRegistry(log *zap.SugaredLogger) *Registry {
	return &Registry{
		log:      log,
		handlers: map[string][]Handler{},
	}
}

// Register appends a handler for the event. Reserved names are
// rejected; use RegisterInternal for DOM event listeners.
func (r *Registry) Register(event string, h Handler) error {
	if err := ValidateName(event); err != nil {
		return err
	}
	r.append(event, h)
	return nil
}

// RegisterInternal appends a handler without the reserved-name check.
// DOM event listeners deliberately live in the reserved namespace.
func (r *Registry) RegisterInternal(event string, h Handler) {
	r.append(event, h)
}

func (r *Registry) append(event string, h Handler) {
	r.mut.Lock()
	defer r.mut.Unlock()
	r.handlers[event] = append(r.handlers[event], h)
}

// Clear removes all handlers of one event. Clearing an event with no
// handlers is a no-op.
func (r *Registry) Clear(event string) error {
	if err := ValidateName(event); err != nil {
		return err
	}
	r.mut.Lock()
	defer r.mut.Unlock()
	delete(r.handlers, event)
	return nil
}

// ClearAll resets the registry, including internal DOM listeners.
func (r *Registry) ClearAll() {
	r.mut.Lock()
	defer r.mut.Unlock()
	r.handlers = map[string][]Handler{}
}

// Lookup returns a stable snapshot of the event's handlers in
// registration order.
func (r *Registry) Lookup(event string) []Handler {
	r.mut.RLock()
	defer r.mut.RUnlock()
	hs := r.handlers[event]
	out := make([]Handler, len(hs))
	copy(out, hs)
	return out
}

// Dispatch invokes the event's handlers in registration order. A
// panicking handler is logged and does not stop later handlers or the
// dispatching goroutine.
func (r *Registry) Dispatch(event string, payload any) {
	for _, h := range r.Lookup(event) {
		r.invoke(event, h, payload)
	}
}

func (r *Registry) invoke(event string, h Handler, payload any) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Warnf("handler for event %q panicked: %v", event, rec)
		}
	}()
	h(payload)
}
