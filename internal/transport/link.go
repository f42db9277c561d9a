package transport

import (
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	bluezDevice1      = "org.bluez.Device1"
	propertiesChanged = "org.freedesktop.DBus.Properties.PropertiesChanged"
)

// peerLinks tracks which BlueZ devices are linked to the adapter, fed from
// Device1 PropertiesChanged signals. A phone connecting to our peripheral
// only shows up there.
type peerLinks struct {
	mu    sync.RWMutex
	paths map[dbus.ObjectPath]struct{}
}

func newPeerLinks() *peerLinks {
	return &peerLinks{paths: make(map[dbus.ObjectPath]struct{})}
}

// connected reports whether at least one device is linked.
func (p *peerLinks) connected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.paths) > 0
}

func (p *peerLinks) set(path dbus.ObjectPath, linked bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if linked {
		p.paths[path] = struct{}{}
	} else {
		delete(p.paths, path)
	}
}

// seed records devices already linked, from an ObjectManager
// GetManagedObjects reply.
func (p *peerLinks) seed(objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant) {
	for path, ifaces := range objects {
		props, ok := ifaces[bluezDevice1]
		if !ok {
			continue
		}
		if v, ok := props["Connected"]; ok {
			if linked, ok := v.Value().(bool); ok {
				p.set(path, linked)
			}
		}
	}
}

// apply updates the link set from sig. It returns the new link state of the
// signal's device and whether the signal carried one.
func (p *peerLinks) apply(sig *dbus.Signal) (linked, ok bool) {
	if sig == nil || sig.Name != propertiesChanged || len(sig.Body) < 2 {
		return false, false
	}
	if iface, _ := sig.Body[0].(string); iface != bluezDevice1 {
		return false, false
	}
	changed, _ := sig.Body[1].(map[string]dbus.Variant)
	v, found := changed["Connected"]
	if !found {
		return false, false
	}
	linked, ok = v.Value().(bool)
	if !ok {
		return false, false
	}
	p.set(sig.Path, linked)
	return linked, true
}
