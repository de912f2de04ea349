package dispatcher

import (
	"errors"
	"fmt"

	"github.com/angeloszaimis/influx-failover/internal/host"
	"github.com/angeloszaimis/influx-failover/internal/registry"
)

var (
	// ErrNoHostsAvailable is returned when no host could be selected before
	// any attempt was made.
	ErrNoHostsAvailable = registry.ErrNoHostsAvailable

	// ErrAllHostsExhausted is matched by every ExhaustedError.
	ErrAllHostsExhausted = errors.New("all hosts exhausted")

	errEmptyResponse = errors.New("transport returned no response")
)

// TransportError records a single attempt that could not reach or complete
// against a host.
type TransportError struct {
	Host host.Host
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure on %s: %v", e.Host.Address(), e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ExhaustedError is returned when every attempt of a dispatch failed at the
// transport level. Last is the most recent failure.
type ExhaustedError struct {
	Attempts int
	Last     *TransportError
}

func (e *ExhaustedError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("%s after %d attempts", ErrAllHostsExhausted, e.Attempts)
	}
	return fmt.Sprintf("%s after %d attempts: %v", ErrAllHostsExhausted, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() []error {
	if e.Last == nil {
		return []error{ErrAllHostsExhausted}
	}
	return []error{ErrAllHostsExhausted, e.Last}
}
