package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/angeloszaimis/influx-failover/internal/host"
)

const DefaultPool = "default"

// HTTPTransport is the net/http implementation of Transport. Each pool name
// gets its own http.Client and connection set.
type HTTPTransport struct {
	scheme    string
	mutex     sync.Mutex
	pools     map[string]*http.Client
	newClient func() *http.Client
}

type Option func(*HTTPTransport)

// WithScheme sets the URL scheme used to reach hosts (http by default).
func WithScheme(scheme string) Option {
	return func(t *HTTPTransport) {
		t.scheme = scheme
	}
}

// WithClientFactory replaces the constructor used for new pools.
func WithClientFactory(factory func() *http.Client) Option {
	return func(t *HTTPTransport) {
		t.newClient = factory
	}
}

func NewHTTPTransport(opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		scheme:    "http",
		pools:     make(map[string]*http.Client),
		newClient: defaultClient,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

func defaultClient() *http.Client {
	return &http.Client{
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
	}
}

// RoundTrip implements Transport.
func (t *HTTPTransport) RoundTrip(ctx context.Context, h host.Host, req *Request) (*Response, error) {
	target := h.URL(t.scheme)
	target.Path = "/" + strings.TrimLeft(req.Path, "/")
	if req.RawPath != "" {
		raw := "/" + strings.TrimLeft(req.RawPath, "/")
		decoded, err := url.PathUnescape(raw)
		if err != nil {
			return nil, fmt.Errorf("creating request: invalid path %q: %w", req.RawPath, err)
		}
		target.Path = decoded
		target.RawPath = raw
	}
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	res, err := t.client(req.Pool).Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return &Response{
		Host:       h,
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       payload,
	}, nil
}

// Pools returns the names of the connection pools created so far.
func (t *HTTPTransport) Pools() []string {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	names := make([]string, 0, len(t.pools))
	for name := range t.pools {
		names = append(names, name)
	}
	return names
}

// CloseIdleConnections closes idle connections in every pool.
func (t *HTTPTransport) CloseIdleConnections() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	for _, c := range t.pools {
		c.CloseIdleConnections()
	}
}

func (t *HTTPTransport) client(pool string) *http.Client {
	if pool == "" {
		pool = DefaultPool
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	c, ok := t.pools[pool]
	if !ok {
		c = t.newClient()
		t.pools[pool] = c
	}
	return c
}
