package driven

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/ericfisherdev/atomicserver/internal/domain/model"
)

// ErrJoinTimeout is returned by NetworkJoiner.Join when no link came up
// before the deadline.
var ErrJoinTimeout = errors.New("wifi connect timeout")

// LinkMonitor reports the current network address of the device.
type LinkMonitor interface {
	// LocalIP returns the first usable IPv4 address, or false when the
	// device has no link.
	LocalIP() (net.IP, bool)
}

// NetworkJoiner defines the driven port for associating with a WiFi network.
// Join makes exactly one association attempt and waits up to timeout for an
// address. It returns ErrJoinTimeout when the deadline passes.
type NetworkJoiner interface {
	LinkMonitor
	Join(ctx context.Context, creds model.WiFiCredentials, timeout time.Duration) (net.IP, error)
}
