package application

import "github.com/ericfisherdev/atomicserver/internal/domain/port/driven"

// UnspecifiedIP is reported while the device has no link.
const UnspecifiedIP = "0.0.0.0"

// Status is the device's externally visible identity.
type Status struct {
	IP   string
	Host string
}

// StatusService reports the live network status. The address is read on
// every call so a link that comes up after boot is reflected.
type StatusService struct {
	link     driven.LinkMonitor
	hostname string
}

// NewStatusService creates a new StatusService with the required dependencies.
func NewStatusService(link driven.LinkMonitor, hostname string) *StatusService {
	return &StatusService{
		link:     link,
		hostname: hostname,
	}
}

// Current returns the current status.
func (s *StatusService) Current() Status {
	ip := UnspecifiedIP
	if addr, ok := s.link.LocalIP(); ok {
		ip = addr.String()
	}

	return Status{IP: ip, Host: s.hostname}
}
