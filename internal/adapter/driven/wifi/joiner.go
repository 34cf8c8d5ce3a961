// Package wifi associates the host with a WiFi network through the system
// network manager and watches interface addresses for the resulting link.
package wifi

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"os/exec"
	"strings"
	"time"

	"github.com/ericfisherdev/atomicserver/internal/domain/model"
	"github.com/ericfisherdev/atomicserver/internal/domain/port/driven"
)

// CommandNone disables the association helper.
const CommandNone = "none"

// Compile-time interface satisfaction check.
var _ driven.NetworkJoiner = (*Joiner)(nil)

// CommandRunner runs an external program and returns its combined output.
// stdin, when non-nil, is fed to the program's standard input.
type CommandRunner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)
}

// ExecRunner is the os/exec backed CommandRunner.
type ExecRunner struct{}

// Run executes name with args, killing it when ctx is done.
func (ExecRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	return cmd.CombinedOutput()
}

// Config holds Joiner settings.
type Config struct {
	// Command is the association helper, "nmcli" or CommandNone.
	Command string
	// Interface restricts association and link detection to one device.
	// Empty means the helper picks the WiFi device.
	Interface string
	// PollInterval is how often addresses are checked while joining.
	PollInterval time.Duration
}

// Joiner is the host implementation of the NetworkJoiner port.
type Joiner struct {
	cfg    Config
	run    CommandRunner
	addrs  func(iface string) ([]net.Addr, error)
	logger *slog.Logger
}

// NewJoiner creates a Joiner that shells out through ExecRunner and reads
// addresses from the kernel.
func NewJoiner(cfg Config, logger *slog.Logger) *Joiner {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}

	return &Joiner{
		cfg:    cfg,
		run:    ExecRunner{},
		addrs:  systemAddrs,
		logger: logger,
	}
}

// Join runs one association attempt and then polls for an address until the
// deadline. Once the helper has run, only an address on the device it
// targeted counts. If the helper failed and that device is unknown, no
// address counts and Join times out.
func (j *Joiner) Join(ctx context.Context, creds model.WiFiCredentials, timeout time.Duration) (net.IP, error) {
	joinCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	j.logger.Info("connecting to wifi", "ssid", creds.SSID, "interface", j.cfg.Interface, "timeout", timeout)

	watch, acceptAny := j.cfg.Interface, true
	if j.helperEnabled() {
		if watch == "" {
			watch = j.wifiDevice(joinCtx)
		}

		args, stdin := joinArgs(creds, watch)
		out, err := j.run.Run(joinCtx, stdin, j.cfg.Command, args...)
		if err != nil {
			j.logger.Warn("wifi join command failed",
				"command", j.cfg.Command,
				"device", watch,
				"error", err,
				"output", strings.TrimSpace(string(out)),
			)
			acceptAny = false
		}
	}

	ticker := time.NewTicker(j.cfg.PollInterval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		if watch != "" || acceptAny {
			if ip, ok := j.ipOn(watch); ok {
				j.logger.Info("wifi ok", "ip", ip.String(), "device", watch, "elapsed", time.Since(start).Round(time.Millisecond))
				return ip, nil
			}
		}

		j.logger.Debug("waiting for link", "attempt", attempt, "device", watch)

		select {
		case <-joinCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w after %s", driven.ErrJoinTimeout, timeout)
		case <-ticker.C:
		}
	}
}

// LocalIP returns the first global-unicast IPv4 address on the configured
// interface, or on any interface when none is configured.
func (j *Joiner) LocalIP() (net.IP, bool) {
	return j.ipOn(j.cfg.Interface)
}

func (j *Joiner) ipOn(iface string) (net.IP, bool) {
	addrs, err := j.addrs(iface)
	if err != nil {
		j.logger.Debug("list interface addresses", "interface", iface, "error", err)
		return nil, false
	}

	return firstUsableIPv4(addrs)
}

func (j *Joiner) helperEnabled() bool {
	return j.cfg.Command != "" && j.cfg.Command != CommandNone
}

// wifiDevice asks the network manager for the first WiFi device. It returns
// "" when there is none or the query fails.
func (j *Joiner) wifiDevice(ctx context.Context) string {
	out, err := j.run.Run(ctx, nil, j.cfg.Command, "-t", "-f", "DEVICE,TYPE", "device")
	if err != nil {
		j.logger.Warn("list wifi devices", "command", j.cfg.Command, "error", err)
		return ""
	}

	device := parseWiFiDevice(string(out))
	if device == "" {
		j.logger.Warn("no wifi device found")
	}
	return device
}

// parseWiFiDevice picks the first "wifi" entry from terse
// "nmcli -t -f DEVICE,TYPE device" output.
func parseWiFiDevice(out string) string {
	for _, line := range strings.Split(out, "\n") {
		name, kind, ok := strings.Cut(strings.TrimSpace(line), ":")
		if ok && kind == "wifi" && name != "" {
			return name
		}
	}
	return ""
}

func systemAddrs(iface string) ([]net.Addr, error) {
	if iface == "" {
		return net.InterfaceAddrs()
	}

	dev, err := net.InterfaceByName(iface)
	if err != nil {
		return nil, fmt.Errorf("interface %q: %w", iface, err)
	}
	if dev.Flags&net.FlagUp == 0 {
		return nil, nil
	}
	return dev.Addrs()
}

// joinArgs builds the nmcli argument list and its standard input. A secured
// network's password is answered on stdin through --ask so it never appears
// in the process list. Open networks get neither.
func joinArgs(creds model.WiFiCredentials, iface string) ([]string, []byte) {
	var args []string
	var stdin []byte
	if !creds.IsOpen() {
		args = append(args, "--ask")
		stdin = []byte(creds.Password + "\n")
	}

	args = append(args, "device", "wifi", "connect", creds.SSID)
	if iface != "" {
		args = append(args, "ifname", iface)
	}
	return args, stdin
}

func firstUsableIPv4(addrs []net.Addr) (net.IP, bool) {
	for _, addr := range addrs {
		var ip net.IP
		switch a := addr.(type) {
		case *net.IPNet:
			ip = a.IP
		case *net.IPAddr:
			ip = a.IP
		default:
			continue
		}

		ip4 := ip.To4()
		if ip4 == nil || ip4.IsLoopback() || ip4.IsLinkLocalUnicast() || ip4.IsUnspecified() {
			continue
		}
		return ip4, true
	}
	return nil, false
}

