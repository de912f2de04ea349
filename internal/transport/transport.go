package transport

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/angeloszaimis/influx-failover/internal/host"
)

// Request describes one logical call independent of the host it is sent to.
type Request struct {
	Method string
	Path   string
	// RawPath is the escaped form of Path. When set it wins, so an escaped
	// slash inside a segment reaches the host unchanged.
	RawPath string
	Query   url.Values
	Header  http.Header
	Body    []byte

	// Pool names the connection group used for the call. Empty selects the
	// default pool.
	Pool string

	// Timeout overrides the dispatcher's per-attempt timeout when positive.
	Timeout time.Duration
}

// Response is the raw application response of a completed exchange.
type Response struct {
	Host       host.Host
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport sends a request to a single host. A non-nil error means no
// application response could be obtained.
type Transport interface {
	RoundTrip(ctx context.Context, h host.Host, req *Request) (*Response, error)
}
