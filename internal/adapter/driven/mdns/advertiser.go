// Package mdns announces the device hostname on the local link so it is
// reachable as <host>.local without a DNS server.
package mdns

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	hashimdns "github.com/hashicorp/mdns"

	"github.com/ericfisherdev/atomicserver/internal/domain/port/driven"
)

// ServiceType is the DNS-SD service type published alongside the host records.
const ServiceType = "_http._tcp"

// Domain is the multicast DNS top-level domain.
const Domain = "local."

// Compile-time interface satisfaction check.
var _ driven.HostAdvertiser = (*Advertiser)(nil)

// Advertiser runs an mDNS responder answering A queries for <host>.local and
// DNS-SD queries for the HTTP service.
type Advertiser struct {
	host   string
	port   int
	iface  *net.Interface
	logger *slog.Logger

	mu     sync.Mutex
	server *hashimdns.Server
}

// NewAdvertiser creates an Advertiser for host (a single DNS label) serving
// HTTP on port. iface may be nil to listen on the system default multicast
// interface.
func NewAdvertiser(host string, port int, iface *net.Interface, logger *slog.Logger) *Advertiser {
	return &Advertiser{
		host:   host,
		port:   port,
		iface:  iface,
		logger: logger,
	}
}

// FQDN returns the advertised fully qualified hostname, e.g. "aria.local.".
func (a *Advertiser) FQDN() string {
	return a.host + "." + Domain
}

// Start begins answering queries for the given addresses.
func (a *Advertiser) Start(ips []net.IP) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		return driven.ErrAlreadyAdvertising
	}

	zone, err := a.zone(ips)
	if err != nil {
		return err
	}

	server, err := hashimdns.NewServer(&hashimdns.Config{Zone: zone, Iface: a.iface})
	if err != nil {
		return fmt.Errorf("start mdns responder: %w", err)
	}
	a.server = server

	a.logger.Info("mdns responder listening", "host", a.FQDN(), "service", ServiceType, "port", a.port)
	return nil
}

// Shutdown stops the responder. It is a no-op if Start was never called.
func (a *Advertiser) Shutdown() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return nil
	}

	err := a.server.Shutdown()
	a.server = nil
	if err != nil {
		return fmt.Errorf("stop mdns responder: %w", err)
	}
	return nil
}

// zone builds the record set. Explicit addresses are required because the
// library otherwise resolves the hostname through the system resolver, which
// cannot answer for a .local name we have not announced yet.
func (a *Advertiser) zone(ips []net.IP) (*hashimdns.MDNSService, error) {
	if len(ips) == 0 {
		return nil, errors.New("mdns: at least one address is required")
	}

	svc, err := hashimdns.NewMDNSService(
		a.host,
		ServiceType,
		Domain,
		a.FQDN(),
		a.port,
		ips,
		[]string{"path=/"},
	)
	if err != nil {
		return nil, fmt.Errorf("build mdns zone: %w", err)
	}
	return svc, nil
}
