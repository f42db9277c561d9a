package notify

import (
	"log/slog"
)

// MobileAppListener is the listener facing the companion mobile app. It logs
// every message and hands it to OnMessage, the hook for UI, sound or LED
// feedback.
type MobileAppListener struct {
	logger *slog.Logger

	// OnMessage is optional. It runs synchronously inside the hub dispatch.
	OnMessage func(message string)
}

// NewMobileAppListener creates a MobileAppListener logging to logger, or to
// the default slog logger when logger is nil.
func NewMobileAppListener(logger *slog.Logger) *MobileAppListener {
	if logger == nil {
		logger = slog.Default()
	}
	return &MobileAppListener{logger: logger}
}

// Receive logs the message and runs the OnMessage hook.
func (m *MobileAppListener) Receive(message string) error {
	m.logger.Info("Mobile App Module received: "+message, "listener", "mobile_app")
	if m.OnMessage != nil {
		m.OnMessage(message)
	}
	return nil
}
