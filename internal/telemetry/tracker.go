package telemetry

import (
	"sync"
	"time"
)

// Snapshot is the latest known state of the cane. Nil fields were never
// reported.
type Snapshot struct {
	DistanceCM *int      `json:"distance"`
	Zone       *Zone     `json:"zone"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Tracker is a listener that remembers the last distance and the last zone.
// Split lines update their own field only.
type Tracker struct {
	mu   sync.RWMutex
	last Snapshot
	now  func() time.Time
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// Receive updates the snapshot from message. Unrecognised messages are
// ignored.
func (t *Tracker) Receive(message string) error {
	r, ok := Parse(message)
	if !ok {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if r.HasDistance {
		d := r.DistanceCM
		t.last.DistanceCM = &d
	}
	if r.HasZone {
		z := r.Zone
		t.last.Zone = &z
	}
	t.last.UpdatedAt = t.now()
	return nil
}

// Latest returns a copy of the current snapshot.
func (t *Tracker) Latest() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := Snapshot{UpdatedAt: t.last.UpdatedAt}
	if t.last.DistanceCM != nil {
		d := *t.last.DistanceCM
		snap.DistanceCM = &d
	}
	if t.last.Zone != nil {
		z := *t.last.Zone
		snap.Zone = &z
	}
	return snap
}
