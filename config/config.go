package config

import (
	"log/slog"
	"net"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"

	"github.com/angeloszaimis/influx-failover/internal/strategy"
	"github.com/angeloszaimis/influx-failover/pkg/influxdb"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

type ServerConfig struct {
	Address      string `mapstructure:"address"`
	Environment  string `mapstructure:"environment"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type HostConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type InfluxConfig struct {
	Host            string       `mapstructure:"host"`
	Hosts           []HostConfig `mapstructure:"hosts"`
	Port            int          `mapstructure:"port"`
	Scheme          string       `mapstructure:"scheme"`
	Username        string       `mapstructure:"username"`
	Password        string       `mapstructure:"password"`
	Database        string       `mapstructure:"database"`
	FailoverTimeout string       `mapstructure:"failover_timeout"`
	RequestTimeout  string       `mapstructure:"request_timeout"`
	MaxRetries      int          `mapstructure:"max_retries"`
}

type StrategyConfig struct {
	Type string `mapstructure:"type"`
}

type SweepConfig struct {
	Interval string `mapstructure:"interval"`
}

type MetricsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Influx   InfluxConfig   `mapstructure:"influx"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.write_timeout", "3m")
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("influx.host", "")
	v.SetDefault("influx.port", influxdb.DefaultPort)
	v.SetDefault("influx.scheme", "http")
	v.SetDefault("influx.username", influxdb.DefaultUsername)
	v.SetDefault("influx.password", influxdb.DefaultPassword)
	v.SetDefault("influx.database", "")
	v.SetDefault("influx.failover_timeout", influxdb.DefaultFailoverTimeout.String())
	v.SetDefault("influx.request_timeout", "")
	v.SetDefault("influx.max_retries", influxdb.DefaultMaxRetries)
	v.SetDefault("strategy.type", strategy.TypeRoundRobin)
	v.SetDefault("sweep.interval", "5s")
	v.SetDefault("metrics.buffer_size", 1000)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Warn("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
					validation.Field(&sc.WriteTimeout,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.Influx,
			validation.Required,
			validation.By(validateInfluxConfig),
		),
		validation.Field(&c.Strategy,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(StrategyConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a StrategyConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Type,
						validation.Required,
						validation.In(strategy.TypeRoundRobin, strategy.TypeRandom),
					),
				)
			}),
		),
		validation.Field(&c.Sweep,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(SweepConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a SweepConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Interval,
						validation.Required,
						validation.By(validatePositiveDuration),
					),
				)
			}),
		),
		validation.Field(&c.Metrics,
			validation.By(func(value interface{}) error {
				mc, ok := value.(MetricsConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a MetricsConfig")
				}
				return validation.ValidateStruct(&mc,
					validation.Field(&mc.BufferSize, validation.Min(0)),
				)
			}),
		),
	)
}

// ClientOptions converts the influx section into client options. Call it
// on a validated Config.
func (c *Config) ClientOptions() influxdb.Options {
	opts := influxdb.DefaultOptions()
	opts.Host = c.Influx.Host
	opts.Port = c.Influx.Port
	opts.Username = c.Influx.Username
	opts.Password = c.Influx.Password
	opts.Database = c.Influx.Database
	opts.MaxRetries = c.Influx.MaxRetries
	opts.FailoverTimeout = parseDuration(c.Influx.FailoverTimeout)
	opts.RequestTimeout = parseDuration(c.Influx.RequestTimeout)

	for _, hc := range c.Influx.Hosts {
		opts.Hosts = append(opts.Hosts, influxdb.HostConfig{Host: hc.Host, Port: hc.Port})
	}

	return opts
}

// SweepInterval returns the parsed recovery sweep interval.
func (c *Config) SweepInterval() time.Duration {
	return parseDuration(c.Sweep.Interval)
}

// WriteTimeout returns the parsed server write timeout, zero when unset.
func (c *Config) WriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout)
}

func parseDuration(value string) time.Duration {
	if value == "" {
		return 0
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func validateInfluxConfig(value interface{}) error {
	ic, ok := value.(InfluxConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be an InfluxConfig")
	}

	if ic.Host == "" && len(ic.Hosts) == 0 {
		return validation.NewError("validation_no_hosts", "at least one of host or hosts must be set")
	}

	return validation.ValidateStruct(&ic,
		validation.Field(&ic.Host, is.Host),
		validation.Field(&ic.Hosts, validation.Each(validation.By(validateHostConfig))),
		validation.Field(&ic.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&ic.Scheme, validation.Required, validation.In("http", "https")),
		validation.Field(&ic.FailoverTimeout, validation.Required, validation.By(validateDuration)),
		validation.Field(&ic.RequestTimeout, validation.By(validateDuration)),
		validation.Field(&ic.MaxRetries, validation.Min(0)),
	)
}

func validateHostConfig(value interface{}) error {
	hc, ok := value.(HostConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a HostConfig")
	}

	if hc.Host == "" {
		return validation.NewError("validation_empty_host", "host cannot be empty")
	}

	if err := is.Host.Validate(hc.Host); err != nil {
		return validation.NewError("validation_invalid_host", "invalid host")
	}

	if hc.Port < 0 || hc.Port > 65535 {
		return validation.NewError("validation_invalid_port", "port must be between 0 and 65535 (0 uses influx.port)")
	}

	return nil
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

// validateDuration accepts an empty string.
func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if durationStr == "" {
		return nil
	}

	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	if d < 0 {
		return validation.NewError("validation_negative_duration", "must not be negative")
	}

	return nil
}

func validatePositiveDuration(value interface{}) error {
	if err := validateDuration(value); err != nil {
		return err
	}

	if d, _ := time.ParseDuration(value.(string)); d <= 0 {
		return validation.NewError("validation_invalid_duration", "must be greater than zero")
	}

	return nil
}
