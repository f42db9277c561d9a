//go:build linux

package transport

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
	"tinygo.org/x/bluetooth"
)

// BLETransport advertises the Nordic UART Service and streams lines to the
// connected phone as TX notifications.
type BLETransport struct {
	adapter   *bluetooth.Adapter
	tx        bluetooth.Characteristic
	chunkSize int
	links     *peerLinks
	bus       *dbus.Conn

	// OnReceive is called with bytes written by the phone on the RX
	// characteristic. Optional.
	OnReceive func(data []byte)
}

// NewBLETransport creates a BLETransport on the default BlueZ adapter.
func NewBLETransport() *BLETransport {
	return &BLETransport{
		adapter:   bluetooth.DefaultAdapter,
		chunkSize: defaultChunkSize,
		links:     newPeerLinks(),
	}
}

func (b *BLETransport) Begin(name string) error {
	if err := b.adapter.Enable(); err != nil {
		return fmt.Errorf("enabling adapter: %w", err)
	}
	if err := b.watchLinks(); err != nil {
		return err
	}

	err := b.adapter.AddService(&bluetooth.Service{
		UUID: bluetooth.ServiceUUIDNordicUART,
		Characteristics: []bluetooth.CharacteristicConfig{
			{
				UUID:  bluetooth.CharacteristicUUIDUARTRX,
				Flags: bluetooth.CharacteristicWritePermission | bluetooth.CharacteristicWriteWithoutResponsePermission,
				WriteEvent: func(_ bluetooth.Connection, _ int, value []byte) {
					if b.OnReceive != nil {
						b.OnReceive(append([]byte(nil), value...))
					}
				},
			},
			{
				Handle: &b.tx,
				UUID:   bluetooth.CharacteristicUUIDUARTTX,
				Flags:  bluetooth.CharacteristicNotifyPermission | bluetooth.CharacteristicReadPermission,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("adding UART service: %w", err)
	}

	adv := b.adapter.DefaultAdvertisement()
	if err := adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    name,
		ServiceUUIDs: []bluetooth.UUID{bluetooth.ServiceUUIDNordicUART},
	}); err != nil {
		return fmt.Errorf("configuring advertisement: %w", err)
	}
	if err := adv.Start(); err != nil {
		return fmt.Errorf("starting advertisement: %w", err)
	}

	return nil
}

// watchLinks follows BlueZ Device1 Connected changes. The adapter connect
// handler only fires for links this host dials out.
func (b *BLETransport) watchLinks() error {
	bus, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("connecting to system bus: %w", err)
	}

	if err := bus.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus.Properties"),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchArg(0, bluezDevice1),
	); err != nil {
		_ = bus.Close()
		return fmt.Errorf("subscribing to bluez signals: %w", err)
	}

	signals := make(chan *dbus.Signal, 16)
	bus.Signal(signals)
	b.bus = bus

	var objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	err = bus.Object("org.bluez", "/").
		Call("org.freedesktop.DBus.ObjectManager.GetManagedObjects", 0).
		Store(&objects)
	if err != nil {
		slog.Warn("listing bluez devices failed, starting with no peer", "error", err)
	} else {
		b.links.seed(objects)
	}

	go func() {
		for sig := range signals {
			if linked, ok := b.links.apply(sig); ok {
				slog.Info("ble peer link changed", "path", sig.Path, "connected", linked)
			}
		}
	}()
	return nil
}

func (b *BLETransport) HasConnectedPeer() bool {
	return b.links.connected()
}

// Close stops following link changes.
func (b *BLETransport) Close() error {
	if b.bus == nil {
		return nil
	}
	err := b.bus.Close()
	b.bus = nil
	return err
}

func (b *BLETransport) WriteLine(message string) error {
	for _, chunk := range frameLine(message, b.chunkSize) {
		if _, err := b.tx.Write(chunk); err != nil {
			return fmt.Errorf("notifying TX characteristic: %w", err)
		}
	}
	return nil
}
