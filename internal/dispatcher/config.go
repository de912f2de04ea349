package dispatcher

import "time"

const (
	DefaultMaxRetries      = 2
	DefaultFailoverTimeout = 60 * time.Second
)

// Config holds the live retry settings of a dispatcher.
type Config struct {
	// MaxRetries bounds the attempts made after the first one.
	MaxRetries int

	// FailoverTimeout is how long a disabled host waits before it may be
	// selected again.
	FailoverTimeout time.Duration

	// RequestTimeout bounds each attempt. Zero leaves the deadline to the
	// transport and the caller's context.
	RequestTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:      DefaultMaxRetries,
		FailoverTimeout: DefaultFailoverTimeout,
	}
}

func (c Config) attemptsAllowed() int {
	if c.MaxRetries < 0 {
		return 1
	}
	return 1 + c.MaxRetries
}
