//go:build !linux

package transport

import "errors"

var ErrBLEUnsupported = errors.New("ble transport requires linux with BlueZ")

// BLETransport is unavailable on this platform; Begin always fails.
type BLETransport struct {
	OnReceive func(data []byte)
}

// NewBLETransport returns a transport whose Begin reports ErrBLEUnsupported.
func NewBLETransport() *BLETransport {
	return &BLETransport{}
}

func (b *BLETransport) Begin(string) error { return ErrBLEUnsupported }
func (b *BLETransport) HasConnectedPeer() bool { return false }
func (b *BLETransport) WriteLine(string) error { return ErrBLEUnsupported }
func (b *BLETransport) Close() error { return nil }
