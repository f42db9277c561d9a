package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/btouchard/canelink/internal/notify"
)

// DefaultDeviceName is advertised when Begin is called with an empty name.
const DefaultDeviceName = "SmartCane"

var ErrAlreadyStarted = errors.New("transport already started")

// Transport is the wireless serial link supplied by the platform.
type Transport interface {
	Begin(name string) error
	HasConnectedPeer() bool
	WriteLine(message string) error
}

// State is the lifecycle state of a Manager.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateDisconnected  State = "disconnected"
	StateConnected     State = "connected"
)

// Stats counts what happened to the messages handed to SendData.
type Stats struct {
	Sent    uint64 `json:"sent"`
	Dropped uint64 `json:"dropped"`
	Failed  uint64 `json:"failed"`
}

// Manager sends messages over a Transport and, once the transport accepted a
// message, fans it out to the listeners of its Hub.
type Manager struct {
	transport Transport
	hub       *notify.Hub

	mu      sync.Mutex
	started bool
	device  string

	// sendMu keeps the wire order and the listener order identical across
	// concurrent callers.
	sendMu sync.Mutex

	sent    atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewManager creates a Manager over t. A nil hub is replaced by a new
// permissive hub.
func NewManager(t Transport, hub *notify.Hub) *Manager {
	if hub == nil {
		hub = notify.NewHub()
	}
	return &Manager{
		transport: t,
		hub:       hub,
	}
}

// Hub returns the hub messages are fanned out to.
func (m *Manager) Hub() *notify.Hub {
	return m.hub
}

// Attach registers l on the manager's hub.
func (m *Manager) Attach(l notify.Listener) (notify.Handle, error) {
	return m.hub.Attach(l)
}

// Begin starts the transport advertising under deviceName. It may only be
// called once.
func (m *Manager) Begin(deviceName string) error {
	if deviceName == "" {
		deviceName = DefaultDeviceName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return fmt.Errorf("beginning %q: %w", deviceName, ErrAlreadyStarted)
	}
	if err := m.transport.Begin(deviceName); err != nil {
		return fmt.Errorf("beginning %q: %w", deviceName, err)
	}

	m.started = true
	m.device = deviceName
	slog.Info("transport started, waiting for connection", "device", deviceName)
	return nil
}

// DeviceName returns the advertised name, empty before Begin.
func (m *Manager) DeviceName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.device
}

// IsConnected reports whether a peer is linked.
func (m *Manager) IsConnected() bool {
	return m.transport.HasConnectedPeer()
}

// State derives the lifecycle state from Begin and the peer link.
func (m *Manager) State() State {
	m.mu.Lock()
	started := m.started
	m.mu.Unlock()

	switch {
	case !started:
		return StateUninitialized
	case m.IsConnected():
		return StateConnected
	default:
		return StateDisconnected
	}
}

// Stats returns the message counters.
func (m *Manager) Stats() Stats {
	return Stats{
		Sent:    m.sent.Load(),
		Dropped: m.dropped.Load(),
		Failed:  m.failed.Load(),
	}
}

// SendData writes message to the connected peer and then notifies every
// listener with the same message. Without a peer the message is dropped and
// nil is returned. Listeners are only notified when the write succeeded.
func (m *Manager) SendData(message string) error {
	_, err := m.TrySend(message)
	return err
}

// TrySend behaves like SendData and also reports whether the message was
// written to the transport. Concurrent sends are serialized.
func (m *Manager) TrySend(message string) (bool, error) {
	m.sendMu.Lock()
	defer m.sendMu.Unlock()

	if !m.IsConnected() {
		m.dropped.Add(1)
		slog.Debug("no peer connected, message dropped", "device", m.DeviceName())
		return false, nil
	}

	if err := m.transport.WriteLine(message); err != nil {
		m.failed.Add(1)
		return false, fmt.Errorf("writing to transport: %w", err)
	}
	m.sent.Add(1)

	if err := m.hub.Notify(message); err != nil {
		return true, fmt.Errorf("notifying listeners: %w", err)
	}
	return true, nil
}
