package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/angeloszaimis/influx-failover/internal/dispatcher"
	"github.com/angeloszaimis/influx-failover/internal/host"
	"github.com/angeloszaimis/influx-failover/internal/transport"
)

const (
	// PoolHeader selects the upstream connection pool for a request.
	PoolHeader = "X-Influx-Pool"
	// BackendHeader names the host that produced the response.
	BackendHeader = "X-Backend-Server"

	maxBodyBytes = 32 << 20
)

// forwardedHeaders are copied from the client request to the upstream one.
var forwardedHeaders = []string{"Content-Type", "Accept", "Accept-Encoding", "Authorization"}

// Dispatcher is the part of dispatcher.Dispatcher the relay needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *transport.Request) (*transport.Response, error)
	HostsAvailable() []host.Host
	HostsDisabled() []host.Host
}

type RelayHandler struct {
	logger     *slog.Logger
	dispatcher Dispatcher
}

type hostsResponse struct {
	Available []host.Host `json:"available"`
	Disabled  []host.Host `json:"disabled"`
}

func NewRelayHandler(logger *slog.Logger, d Dispatcher) *RelayHandler {
	return &RelayHandler{
		logger:     logger,
		dispatcher: d,
	}
}

func (rh *RelayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientIP := extractClientIP(r)

	rh.logger.Info("Received request",
		slog.String("from", clientIP),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("proto", r.Proto),
		slog.String("user_agent", r.UserAgent()))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Request body too large or unreadable", http.StatusRequestEntityTooLarge)
		return
	}

	req := &transport.Request{
		Method:  r.Method,
		Path:    r.URL.Path,
		RawPath: r.URL.EscapedPath(),
		Query:   r.URL.Query(),
		Header:  http.Header{},
		Pool:    r.Header.Get(PoolHeader),
	}
	if len(body) > 0 {
		req.Body = body
	}
	for _, key := range forwardedHeaders {
		if v := r.Header.Values(key); len(v) > 0 {
			req.Header[key] = v
		}
	}

	res, err := rh.dispatcher.Dispatch(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		rh.logger.Warn("Dispatch failed",
			slog.String("client", clientIP),
			slog.Int("status", status),
			slog.Any("err", err))
		http.Error(w, http.StatusText(status), status)
		return
	}

	for key, values := range res.Header {
		if key == "Content-Length" || key == "Connection" || key == "Transfer-Encoding" {
			continue
		}
		w.Header()[key] = values
	}
	w.Header().Set(BackendHeader, res.Host.Address())
	w.WriteHeader(res.StatusCode)

	if _, err := w.Write(res.Body); err != nil {
		rh.logger.Debug("Writing response failed",
			slog.String("client", clientIP),
			slog.Any("err", err))
	}
}

// Hosts reports the available and disabled partitions as JSON.
func (rh *RelayHandler) Hosts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	payload := hostsResponse{
		Available: nonNil(rh.dispatcher.HostsAvailable()),
		Disabled:  nonNil(rh.dispatcher.HostsDisabled()),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf("encoding hosts: %v", err), http.StatusInternalServerError)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, dispatcher.ErrAllHostsExhausted):
		return http.StatusBadGateway
	case errors.Is(err, dispatcher.ErrNoHostsAvailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func nonNil(hosts []host.Host) []host.Host {
	if hosts == nil {
		return []host.Host{}
	}
	return hosts
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	return host
}
