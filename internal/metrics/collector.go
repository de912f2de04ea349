package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventAttemptStarted    EventType = "attempt_started"
	EventAttemptFailed     EventType = "attempt_failed"
	EventResponseCompleted EventType = "response_completed"
	EventHostDisabled      EventType = "host_disabled"
	EventHostRecovered     EventType = "host_recovered"
	EventDispatchExhausted EventType = "dispatch_exhausted"
)

type MetricEvent struct {
	Type       EventType
	Timestamp  time.Time
	DispatchID string
	Host       string
	Duration   time.Duration
	StatusCode int
}

type Collector struct {
	eventCh chan MetricEvent
	metrics *Metrics
	logger  *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}

	return &Collector{
		eventCh: make(chan MetricEvent, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

// Emit queues an event without blocking. Events are dropped when the
// buffer is full. A nil collector discards everything.
func (c *Collector) Emit(event MetricEvent) {
	if c == nil {
		return
	}

	select {
	case c.eventCh <- event:
	default:
	}
}

// Run processes events until ctx is cancelled, then drains what is left.
func (c *Collector) Run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventAttemptStarted:
		c.metrics.RecordAttempt(event.Host)

	case EventAttemptFailed:
		c.metrics.RecordFailure(event.Host)

	case EventResponseCompleted:
		c.metrics.RecordResponse(event.Host, event.Duration, event.StatusCode)

	case EventHostDisabled:
		c.metrics.RecordDisabled(event.Host)

	case EventHostRecovered:
		c.metrics.RecordRecovered(event.Host)

	case EventDispatchExhausted:
		c.metrics.RecordExhausted()
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot(strategy string) Snapshot {
	return c.metrics.Snapshot(strategy)
}
