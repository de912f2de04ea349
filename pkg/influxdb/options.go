package influxdb

import (
	"log/slog"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	DefaultPort            = 8086
	DefaultUsername        = "root"
	DefaultPassword        = "root"
	DefaultFailoverTimeout = 60 * time.Second
	DefaultMaxRetries      = 2
)

// HostConfig names one cluster member. A zero Port falls back to
// Options.Port.
type HostConfig struct {
	Host string
	Port int
}

type Options struct {
	// Host is used only when Hosts is empty.
	Host  string
	Hosts []HostConfig
	Port  int

	Username string
	Password string
	Database string

	FailoverTimeout time.Duration
	RequestTimeout  time.Duration
	MaxRetries      int
}

func DefaultOptions() Options {
	return Options{
		Port:            DefaultPort,
		Username:        DefaultUsername,
		Password:        DefaultPassword,
		FailoverTimeout: DefaultFailoverTimeout,
		MaxRetries:      DefaultMaxRetries,
	}
}

func (o Options) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Host, is.Host),
		validation.Field(&o.Hosts, validation.Each(validation.By(validateHostConfig))),
		validation.Field(&o.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&o.FailoverTimeout, validation.Min(time.Duration(0))),
		validation.Field(&o.RequestTimeout, validation.Min(time.Duration(0))),
		validation.Field(&o.MaxRetries, validation.Min(0)),
	)
}

func validateHostConfig(value interface{}) error {
	hc, ok := value.(HostConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a HostConfig")
	}

	return validation.ValidateStruct(&hc,
		validation.Field(&hc.Host, validation.Required, is.Host),
		validation.Field(&hc.Port, validation.Min(0), validation.Max(65535)),
	)
}

// ResolvedHosts returns the configured endpoints with port fallbacks
// applied.
func (o Options) ResolvedHosts() []HostConfig {
	if len(o.Hosts) == 0 {
		if o.Host == "" {
			return nil
		}
		return []HostConfig{{Host: o.Host, Port: o.Port}}
	}

	resolved := make([]HostConfig, 0, len(o.Hosts))
	for _, hc := range o.Hosts {
		if hc.Port == 0 {
			hc.Port = o.Port
		}
		resolved = append(resolved, hc)
	}
	return resolved
}

type settings struct {
	logger        *slog.Logger
	strategy      string
	scheme        string
	clientFactory func() *http.Client
	clock         func() time.Time
}

type Option func(*settings)

func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithStrategy selects the host rotation by name ("round-robin" or
// "random").
func WithStrategy(name string) Option {
	return func(s *settings) {
		s.strategy = name
	}
}

// WithScheme sets the URL scheme used to reach hosts.
func WithScheme(scheme string) Option {
	return func(s *settings) {
		s.scheme = scheme
	}
}

// WithHTTPClientFactory builds the http.Client behind each connection pool.
func WithHTTPClientFactory(factory func() *http.Client) Option {
	return func(s *settings) {
		s.clientFactory = factory
	}
}

// WithClock replaces time.Now for failover bookkeeping.
func WithClock(clock func() time.Time) Option {
	return func(s *settings) {
		s.clock = clock
	}
}
