package transport

import (
	"sync"
)

// MemoryTransport is a process-local transport used for simulation, log
// replay and tests. The peer link is driven by Connect and Disconnect.
type MemoryTransport struct {
	mu        sync.RWMutex
	name      string
	begins    int
	connected bool
	lines     []string
	writeErr  error
}

// NewMemoryTransport creates a MemoryTransport with no peer.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{}
}

func (m *MemoryTransport) Begin(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.name = name
	m.begins++
	return nil
}

func (m *MemoryTransport) HasConnectedPeer() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

func (m *MemoryTransport) WriteLine(message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.lines = append(m.lines, message)
	return nil
}

// Connect simulates a peer linking.
func (m *MemoryTransport) Connect() {
	m.mu.Lock()
	m.connected = true
	m.mu.Unlock()
}

// Disconnect simulates the peer going away.
func (m *MemoryTransport) Disconnect() {
	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()
}

// FailWrites makes every following WriteLine return err. A nil err restores
// normal behaviour.
func (m *MemoryTransport) FailWrites(err error) {
	m.mu.Lock()
	m.writeErr = err
	m.mu.Unlock()
}

// Name returns the name passed to the last Begin.
func (m *MemoryTransport) Name() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.name
}

// Begins returns how many times Begin was called.
func (m *MemoryTransport) Begins() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.begins
}

// Lines returns a copy of every line written so far.
func (m *MemoryTransport) Lines() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.lines...)
}
