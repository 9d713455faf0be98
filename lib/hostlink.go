package lib

import (
	"fmt"
	"net"
)

// HostLink is the LinkDriver for a host whose network attachment is managed
// by the operating system (wired Ethernet or an OS-managed wireless stack).
// "Associating" means finding a usable non-loopback IPv4 address, optionally
// restricted to one interface; association is lost when that address goes
// away. The radio itself stays outside this process.
type HostLink struct {
	iface string // optional interface name filter, empty means any
	addr  string // address recorded by the last successful Associate
}

func NewHostLink(iface string) *HostLink {
	return &HostLink{iface: iface}
}

func (h *HostLink) DisconnectAndReset() {
	h.addr = ""
}

func (h *HostLink) Associate() error {
	addr, err := h.findAddress()
	if err != nil {
		return err
	}
	h.addr = addr
	return nil
}

func (h *HostLink) IsAssociated() bool {
	if h.addr == "" {
		return false
	}
	addr, err := h.findAddress()
	return err == nil && addr == h.addr
}

func (h *HostLink) LocalAddress() string {
	return h.addr
}

// SignalStrength is 0 for an OS-managed attachment; there is no RSSI to read.
func (h *HostLink) SignalStrength() int {
	return 0
}

// findAddress picks the first usable IPv4 address on the allowed interfaces.
func (h *HostLink) findAddress() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("listing interfaces: %w", err)
	}

	for _, iface := range ifaces {
		if h.iface != "" && iface.Name != h.iface {
			continue
		}
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			if ip4 := ipNet.IP.To4(); ip4 != nil {
				return ip4.String(), nil
			}
		}
	}

	if h.iface != "" {
		return "", fmt.Errorf("no usable IPv4 address on interface %s", h.iface)
	}
	return "", fmt.Errorf("no usable IPv4 address on any interface")
}
