package notify

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

var (
	ErrNilListener       = errors.New("listener is nil")
	ErrDuplicateListener = errors.New("listener already attached")
	ErrUnknownHandle     = errors.New("unknown listener handle")
)

// Listener reacts to messages fanned out by a Hub.
type Listener interface {
	Receive(message string) error
}

// ListenerFunc adapts a plain function to the Listener interface.
type ListenerFunc func(message string) error

// Receive calls f(message).
func (f ListenerFunc) Receive(message string) error {
	return f(message)
}

// Handle identifies one registration on a Hub. Handles are never reused.
type Handle uint64

type registration struct {
	handle   Handle
	listener Listener
}

// Option configures a Hub.
type Option func(*Hub)

// WithStrictRegistration makes Attach reject a listener that is already
// registered. Listeners whose dynamic type is not comparable (ListenerFunc)
// are never treated as duplicates.
func WithStrictRegistration() Option {
	return func(h *Hub) { h.strict = true }
}

// Hub dispatches messages to its listeners synchronously, in the order they
// were attached. It holds non-owning references and never closes a listener.
//
// The mutex is held for the whole dispatch so every listener observes the
// same membership. A listener must not call back into its own hub.
type Hub struct {
	mu     sync.Mutex
	regs   []registration
	last   Handle
	strict bool
}

// NewHub creates an empty Hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Attach appends l to the registration sequence and returns its handle.
func (h *Hub) Attach(l Listener) (Handle, error) {
	if l == nil {
		return 0, ErrNilListener
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.strict {
		for _, r := range h.regs {
			if sameListener(r.listener, l) {
				return 0, ErrDuplicateListener
			}
		}
	}

	h.last++
	h.regs = append(h.regs, registration{handle: h.last, listener: l})
	return h.last, nil
}

// Detach removes the registration identified by id. The remaining listeners
// keep their relative order.
func (h *Hub) Detach(id Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, r := range h.regs {
		if r.handle == id {
			h.regs = append(h.regs[:i:i], h.regs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("detaching listener %d: %w", id, ErrUnknownHandle)
}

// Notify delivers message to every listener in registration order. The first
// listener error stops the dispatch and is returned; later listeners are not
// called. Panics propagate to the caller the same way.
func (h *Hub) Notify(message string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, r := range h.regs {
		if err := r.listener.Receive(message); err != nil {
			return fmt.Errorf("listener %d: %w", r.handle, err)
		}
	}
	return nil
}

// Len returns the number of registrations.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.regs)
}

func sameListener(a, b Listener) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
