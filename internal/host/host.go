package host

import (
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type State int

const (
	StateAvailable State = iota // Eligible for selection
	StateDisabled               // Waiting out the failover timeout
)

func (s State) String() string {
	switch s {
	case StateAvailable:
		return "AVAILABLE"
	case StateDisabled:
		return "DISABLED"
	default:
		return "UNKNOWN"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(s.String())), nil
}

// Host is a point-in-time view of one configured endpoint.
// DisabledAt is zero unless State is StateDisabled.
type Host struct {
	Name       string    `json:"host"`
	Port       int       `json:"port"`
	State      State     `json:"state"`
	DisabledAt time.Time `json:"disabled_at,omitzero"`
}

// New returns an available host for the given name and port.
func New(name string, port int) Host {
	return Host{
		Name:  name,
		Port:  port,
		State: StateAvailable,
	}
}

// Address returns the host:port form used to dial the endpoint.
func (h Host) Address() string {
	return net.JoinHostPort(h.Name, strconv.Itoa(h.Port))
}

// URL returns the base URL of the endpoint for the given scheme.
// An empty scheme defaults to http.
func (h Host) URL(scheme string) *url.URL {
	if scheme == "" {
		scheme = "http"
	}
	return &url.URL{Scheme: scheme, Host: h.Address()}
}

// IsAvailable reports whether the host may be selected.
func (h Host) IsAvailable() bool {
	return h.State == StateAvailable
}

func (h Host) String() string {
	return h.Address()
}
