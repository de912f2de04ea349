package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angeloszaimis/influx-failover/internal/host"
	"github.com/angeloszaimis/influx-failover/internal/metrics"
	"github.com/angeloszaimis/influx-failover/internal/registry"
	"github.com/angeloszaimis/influx-failover/internal/transport"
)

type Dispatcher struct {
	registry  *registry.Registry
	transport transport.Transport
	logger    *slog.Logger
	collector *metrics.Collector
	clock     func() time.Time

	mutex  sync.RWMutex
	config Config
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithCollector routes attempt and host events to a metrics collector.
func WithCollector(collector *metrics.Collector) Option {
	return func(d *Dispatcher) {
		d.collector = collector
	}
}

// WithClock replaces time.Now for disable stamps and recovery sweeps.
func WithClock(clock func() time.Time) Option {
	return func(d *Dispatcher) {
		d.clock = clock
	}
}

// WithRegistry shares an existing registry instead of creating an empty
// round-robin one.
func WithRegistry(reg *registry.Registry) Option {
	return func(d *Dispatcher) {
		d.registry = reg
	}
}

func New(tr transport.Transport, cfg Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		transport: tr,
		config:    cfg,
		clock:     time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.registry == nil {
		d.registry = registry.New(nil)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}

	return d
}

// Dispatch sends req to the next available host, failing over on transport
// errors until the retry budget is spent. Any application response, whatever
// its status code, is returned unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	cfg := d.Config()
	dispatchID := uuid.NewString()

	log := d.logger.With(
		slog.String("dispatch_id", dispatchID),
		slog.String("method", req.Method),
		slog.String("path", req.Path))

	d.sweep(cfg.FailoverTimeout, log)

	timeout := cfg.RequestTimeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	attemptsAllowed := cfg.attemptsAllowed()
	attempts := 0
	var last *TransportError

	for attempts < attemptsAllowed {
		h, err := d.registry.NextAvailable()
		if err != nil {
			if attempts == 0 {
				log.Warn("No hosts available")
				return nil, ErrNoHostsAvailable
			}
			break
		}
		attempts++

		res, err := d.attempt(ctx, dispatchID, h, req, timeout, log.With(slog.Int("attempt", attempts)))
		if err == nil {
			return res, nil
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("dispatch cancelled: %w", ctx.Err())
		}

		last = &TransportError{Host: h, Err: err}
		d.disable(dispatchID, h, err, log)
	}

	exhausted := &ExhaustedError{Attempts: attempts, Last: last}

	log.Error("All hosts exhausted",
		slog.Int("attempts", attempts),
		slog.Any("err", last))

	d.collector.Emit(metrics.MetricEvent{
		Type:       metrics.EventDispatchExhausted,
		Timestamp:  d.clock(),
		DispatchID: dispatchID,
	})

	return nil, exhausted
}

func (d *Dispatcher) attempt(
	ctx context.Context,
	dispatchID string,
	h host.Host,
	req *transport.Request,
	timeout time.Duration,
	log *slog.Logger,
) (*transport.Response, error) {
	attemptCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	log.Debug("Sending attempt", slog.String("host", h.Address()))

	d.collector.Emit(metrics.MetricEvent{
		Type:       metrics.EventAttemptStarted,
		Timestamp:  d.clock(),
		DispatchID: dispatchID,
		Host:       h.Address(),
	})

	start := time.Now()
	res, err := d.transport.RoundTrip(attemptCtx, h, req)
	if err == nil && res == nil {
		err = errEmptyResponse
	}

	if err != nil {
		d.collector.Emit(metrics.MetricEvent{
			Type:       metrics.EventAttemptFailed,
			Timestamp:  d.clock(),
			DispatchID: dispatchID,
			Host:       h.Address(),
			Duration:   time.Since(start),
		})
		return nil, err
	}

	d.collector.Emit(metrics.MetricEvent{
		Type:       metrics.EventResponseCompleted,
		Timestamp:  d.clock(),
		DispatchID: dispatchID,
		Host:       h.Address(),
		Duration:   time.Since(start),
		StatusCode: res.StatusCode,
	})

	return res, nil
}

func (d *Dispatcher) disable(dispatchID string, h host.Host, cause error, log *slog.Logger) {
	now := d.clock()
	if !d.registry.Disable(h, now) {
		return
	}

	log.Warn("Host disabled",
		slog.String("host", h.Address()),
		slog.Any("err", cause))

	d.collector.Emit(metrics.MetricEvent{
		Type:       metrics.EventHostDisabled,
		Timestamp:  now,
		DispatchID: dispatchID,
		Host:       h.Address(),
	})
}

// Sweep returns disabled hosts whose failover timeout has elapsed to the
// available partition and reports them.
func (d *Dispatcher) Sweep() []host.Host {
	return d.sweep(d.Config().FailoverTimeout, d.logger)
}

func (d *Dispatcher) sweep(failoverTimeout time.Duration, log *slog.Logger) []host.Host {
	now := d.clock()
	recovered := d.registry.RecoverEligible(now, failoverTimeout)

	for _, h := range recovered {
		log.Info("Host recovered", slog.String("host", h.Address()))

		d.collector.Emit(metrics.MetricEvent{
			Type:      metrics.EventHostRecovered,
			Timestamp: now,
			Host:      h.Address(),
		})
	}

	return recovered
}

// AddHost registers a backend endpoint.
func (d *Dispatcher) AddHost(name string, port int) host.Host {
	return d.registry.AddHost(name, port)
}

// HostsAvailable returns the hosts currently eligible for selection.
func (d *Dispatcher) HostsAvailable() []host.Host {
	return d.registry.ListAvailable()
}

// HostsDisabled returns the hosts currently waiting out their failover
// timeout.
func (d *Dispatcher) HostsDisabled() []host.Host {
	return d.registry.ListDisabled()
}

// Config returns a copy of the live configuration.
func (d *Dispatcher) Config() Config {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.config
}

// SetRequestTimeout changes the per-attempt deadline for later dispatches.
func (d *Dispatcher) SetRequestTimeout(timeout time.Duration) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.config.RequestTimeout = timeout
}

// SetFailoverTimeout changes the disable cooldown for later sweeps.
func (d *Dispatcher) SetFailoverTimeout(timeout time.Duration) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.config.FailoverTimeout = timeout
}

// SetMaxRetries changes the retry budget for later dispatches.
func (d *Dispatcher) SetMaxRetries(retries int) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.config.MaxRetries = retries
}
