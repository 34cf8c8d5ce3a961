package driven

import (
	"errors"
	"net"
)

// ErrAlreadyAdvertising is returned by HostAdvertiser.Start when a responder
// is already running.
var ErrAlreadyAdvertising = errors.New("host advertisement already running")

// HostAdvertiser defines the driven port for announcing the device's hostname
// on the local network.
type HostAdvertiser interface {
	Start(ips []net.IP) error
	Shutdown() error
}
