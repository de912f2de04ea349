package influxdb

import (
	"fmt"

	"github.com/angeloszaimis/influx-failover/internal/dispatcher"
)

var (
	ErrNoHostsAvailable  = dispatcher.ErrNoHostsAvailable
	ErrAllHostsExhausted = dispatcher.ErrAllHostsExhausted
)

// APIError is a response from a reachable host with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("influxdb: HTTP %d", e.StatusCode)
	}
	return e.Body
}
