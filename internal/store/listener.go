package store

import (
	"time"

	"github.com/btouchard/canelink/internal/telemetry"
)

// HistoryListener records every notified message in a Store.
type HistoryListener struct {
	store  Store
	device string
	now    func() time.Time
}

// NewHistoryListener creates a HistoryListener tagging records with device.
func NewHistoryListener(s Store, device string) *HistoryListener {
	return &HistoryListener{store: s, device: device, now: time.Now}
}

// Receive persists message. Distance and zone are extracted when the
// message is a cane reading.
func (h *HistoryListener) Receive(message string) error {
	rec := &MessageRecord{
		Device:    h.device,
		Body:      message,
		CreatedAt: h.now(),
	}
	if r, ok := telemetry.Parse(message); ok {
		if r.HasDistance {
			d := r.DistanceCM
			rec.DistanceCM = &d
		}
		if r.HasZone {
			rec.Zone = string(r.Zone)
		}
	}
	return h.store.AddMessage(rec)
}
