package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btouchard/canelink/internal/store"
	"github.com/btouchard/canelink/internal/telemetry"
	"github.com/btouchard/canelink/internal/transport"
)

type emptyHistory struct{}

func (emptyHistory) ListMessages(store.MessageFilter) ([]store.MessageRecord, error) {
	return nil, nil
}

func listTools(t *testing.T, deps *Deps) string {
	t.Helper()
	s := NewServer(deps)

	resp := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	return string(raw)
}

func TestNewServer_RegistersTools(t *testing.T) {
	t.Parallel()

	out := listTools(t, &Deps{
		Manager: transport.NewManager(transport.NewMemoryTransport(), nil),
		Tracker: telemetry.NewTracker(),
		History: emptyHistory{},
		Version: "test",
	})

	for _, name := range []string{"device_status", "send_message", "latest_reading", "list_messages"} {
		assert.Contains(t, out, `"`+name+`"`)
	}
}

func TestNewServer_WithoutHistory_SkipsListMessages(t *testing.T) {
	t.Parallel()

	out := listTools(t, &Deps{
		Manager: transport.NewManager(transport.NewMemoryTransport(), nil),
		Tracker: telemetry.NewTracker(),
		Version: "test",
	})

	assert.Contains(t, out, `"send_message"`)
	assert.NotContains(t, out, `"list_messages"`)
}
