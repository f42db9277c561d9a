package handlers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btouchard/canelink/internal/notify"
	"github.com/btouchard/canelink/internal/store"
	"github.com/btouchard/canelink/internal/telemetry"
	"github.com/btouchard/canelink/internal/transport"
)

func makeReq(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	return result.Content[0].(mcp.TextContent).Text
}

func newTestManager(t *testing.T) (*transport.Manager, *transport.MemoryTransport) {
	t.Helper()
	mt := transport.NewMemoryTransport()
	m := transport.NewManager(mt, notify.NewHub())
	require.NoError(t, m.Begin("SmartCane"))
	return m, mt
}

// --- DeviceStatus tests ---

func TestDeviceStatus_BeforeBegin_ShowsNotStarted(t *testing.T) {
	t.Parallel()
	m := transport.NewManager(transport.NewMemoryTransport(), nil)

	result, err := DeviceStatus(m)(context.Background(), makeReq(nil))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "(not started)")
	assert.Contains(t, text, "uninitialized")
}

func TestDeviceStatus_WhenConnected_ShowsCounters(t *testing.T) {
	t.Parallel()
	m, mt := newTestManager(t)
	mt.Connect()

	_, err := m.TrySend("hello")
	require.NoError(t, err)

	result, err := DeviceStatus(m)(context.Background(), makeReq(nil))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "SmartCane")
	assert.Contains(t, text, "connected")
	assert.Contains(t, text, "Sent: 1")
	assert.Contains(t, text, "Dropped: 0")
}

// --- SendMessage tests ---

func TestSendMessage_WhenConnected_WritesAndNotifies(t *testing.T) {
	t.Parallel()
	m, mt := newTestManager(t)
	mt.Connect()

	var got []string
	_, err := m.Attach(notify.ListenerFunc(func(msg string) error {
		got = append(got, msg)
		return nil
	}))
	require.NoError(t, err)

	result, err := SendMessage(m)(context.Background(), makeReq(map[string]any{
		"message": "Distance: 42 cm Zone: WARNING",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	assert.Contains(t, resultText(t, result), "Sent to SmartCane")
	assert.Equal(t, []string{"Distance: 42 cm Zone: WARNING"}, mt.Lines())
	assert.Equal(t, []string{"Distance: 42 cm Zone: WARNING"}, got)
}

func TestSendMessage_WhenDisconnected_ReportsDrop(t *testing.T) {
	t.Parallel()
	m, mt := newTestManager(t)

	result, err := SendMessage(m)(context.Background(), makeReq(map[string]any{
		"message": "hello",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	assert.Contains(t, resultText(t, result), "dropped")
	assert.Empty(t, mt.Lines())
	assert.Equal(t, uint64(1), m.Stats().Dropped)
}

func TestSendMessage_WhenMissingMessage_ReturnsError(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(t)

	result, err := SendMessage(m)(context.Background(), makeReq(map[string]any{}))
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "message is required")
}

func TestSendMessage_WhenTooLong_ReturnsError(t *testing.T) {
	t.Parallel()
	m, mt := newTestManager(t)
	mt.Connect()

	result, err := SendMessage(m)(context.Background(), makeReq(map[string]any{
		"message": strings.Repeat("x", transport.MaxMessageSize+1),
	}))
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Empty(t, mt.Lines())
}

func TestSendMessage_WhenWriteFails_ReturnsError(t *testing.T) {
	t.Parallel()
	m, mt := newTestManager(t)
	mt.Connect()
	mt.FailWrites(errors.New("link lost"))

	result, err := SendMessage(m)(context.Background(), makeReq(map[string]any{
		"message": "hello",
	}))
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "link lost")
}

func TestSendMessage_WhenMultiline_ReturnsError(t *testing.T) {
	t.Parallel()
	m, mt := newTestManager(t)
	mt.Connect()

	result, err := SendMessage(m)(context.Background(), makeReq(map[string]any{
		"message": "hello\nworld",
	}))
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "single line")
	assert.Empty(t, mt.Lines())
}

func TestSendMessage_WhenListenerFails_ReportsSent(t *testing.T) {
	t.Parallel()
	m, mt := newTestManager(t)
	mt.Connect()
	_, err := m.Attach(notify.ListenerFunc(func(string) error {
		return errors.New("redis down")
	}))
	require.NoError(t, err)

	result, err := SendMessage(m)(context.Background(), makeReq(map[string]any{
		"message": "hello",
	}))
	require.NoError(t, err)

	assert.False(t, result.IsError, "the line reached the phone")
	text := resultText(t, result)
	assert.Contains(t, text, "Sent to SmartCane")
	assert.Contains(t, text, "redis down")
	assert.Equal(t, []string{"hello"}, mt.Lines())
}

// --- LatestReading tests ---

func TestLatestReading_WhenEmpty_SaysSo(t *testing.T) {
	t.Parallel()

	result, err := LatestReading(telemetry.NewTracker())(context.Background(), makeReq(nil))
	require.NoError(t, err)

	assert.Contains(t, resultText(t, result), "No reading")
}

func TestLatestReading_ShowsDistanceAndZone(t *testing.T) {
	t.Parallel()
	tr := telemetry.NewTracker()
	require.NoError(t, tr.Receive("Distance: 15 cm Zone: DANGER"))

	result, err := LatestReading(tr)(context.Background(), makeReq(nil))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Distance: 15 cm")
	assert.Contains(t, text, "DANGER")
}

// --- ListMessages tests ---

type stubLister struct {
	msgs   []store.MessageRecord
	err    error
	filter store.MessageFilter
}

func (s *stubLister) ListMessages(f store.MessageFilter) ([]store.MessageRecord, error) {
	s.filter = f
	return s.msgs, s.err
}

func TestListMessages_DefaultsLimit(t *testing.T) {
	t.Parallel()
	lister := &stubLister{}

	result, err := ListMessages(lister)(context.Background(), makeReq(map[string]any{}))
	require.NoError(t, err)

	assert.Equal(t, 20, lister.filter.Limit)
	assert.Contains(t, resultText(t, result), "No messages found")
}

func TestListMessages_CapsLimitAndFiltersZone(t *testing.T) {
	t.Parallel()
	lister := &stubLister{}

	_, err := ListMessages(lister)(context.Background(), makeReq(map[string]any{
		"limit": float64(10000),
		"zone":  "danger",
	}))
	require.NoError(t, err)

	assert.Equal(t, maxListLimit, lister.filter.Limit)
	assert.Equal(t, "DANGER", lister.filter.Zone)
}

func TestListMessages_RejectsUnknownZone(t *testing.T) {
	t.Parallel()

	result, err := ListMessages(&stubLister{})(context.Background(), makeReq(map[string]any{
		"zone": "PURPLE",
	}))
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "unknown zone")
}

func TestListMessages_FormatsRecords(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 5, 4, 8, 30, 0, 0, time.UTC)
	lister := &stubLister{msgs: []store.MessageRecord{
		{Device: "SmartCane", Body: "Distance: 15 cm Zone: DANGER", Zone: "DANGER", CreatedAt: at},
		{Device: "SmartCane", Body: "hello", CreatedAt: at},
	}}

	result, err := ListMessages(lister)(context.Background(), makeReq(nil))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "2 found")
	assert.Contains(t, text, "2026-05-04T08:30:00Z [SmartCane] Distance: 15 cm Zone: DANGER")
	assert.Contains(t, text, "hello")
}

func TestListMessages_WhenStoreFails_ReturnsError(t *testing.T) {
	t.Parallel()

	result, err := ListMessages(&stubLister{err: errors.New("disk full")})(context.Background(), makeReq(nil))
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "disk full")
}
