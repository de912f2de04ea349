package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/influx-failover/config"
	"github.com/angeloszaimis/influx-failover/pkg/influxdb"
)

func setenv(key, value string) {
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(os.Unsetenv, key)
}

func validConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Address: ":8080", Environment: config.EnvDev, WriteTimeout: "3m"},
		Logging: config.LoggingConfig{Level: config.LogLevelInfo},
		Influx: config.InfluxConfig{
			Hosts:           []config.HostConfig{{Host: "db1.local"}, {Host: "db2.local", Port: 8087}},
			Port:            8086,
			Scheme:          "http",
			Username:        "root",
			Password:        "root",
			FailoverTimeout: "60s",
			MaxRetries:      2,
		},
		Strategy: config.StrategyConfig{Type: "round-robin"},
		Sweep:    config.SweepConfig{Interval: "5s"},
		Metrics:  config.MetricsConfig{BufferSize: 100},
	}
}

var _ = Describe("Config", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())

		wd, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tempDir)).To(Succeed())

		DeferCleanup(func() {
			Expect(os.Chdir(wd)).To(Succeed())
			Expect(os.RemoveAll(tempDir)).To(Succeed())
		})
	})

	Describe("Load", func() {
		Context("with valid config file", func() {
			BeforeEach(func() {
				configContent := `
server:
  address: ":9090"
  environment: "prod"

logging:
  level: "debug"

influx:
  hosts:
    - host: "db1.local"
    - host: "db2.local"
      port: 8087
  database: "metrics"
  username: "writer"
  password: "s3cret"
  failover_timeout: "30s"
  request_timeout: "2s"
  max_retries: 1

strategy:
  type: "random"

sweep:
  interval: "1s"
`
				configPath := filepath.Join(tempDir, "config.yaml")
				Expect(os.WriteFile(configPath, []byte(configContent), 0644)).To(Succeed())
			})

			It("should load configuration successfully", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Address).To(Equal(":9090"))
				Expect(cfg.Server.Environment).To(Equal(config.EnvProd))
				Expect(cfg.Logging.Level).To(Equal(config.LogLevelDebug))
				Expect(cfg.Strategy.Type).To(Equal("random"))
				Expect(cfg.SweepInterval()).To(Equal(time.Second))
			})

			It("should parse the influx section", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())

				Expect(cfg.Influx.Hosts).To(Equal([]config.HostConfig{
					{Host: "db1.local"},
					{Host: "db2.local", Port: 8087},
				}))
				Expect(cfg.Influx.Port).To(Equal(8086))
				Expect(cfg.Influx.Scheme).To(Equal("http"))
				Expect(cfg.Influx.MaxRetries).To(Equal(1))
			})

			It("should let the environment override file values", func() {
				setenv("INFLUX_MAX_RETRIES", "4")
				setenv("STRATEGY_TYPE", "round-robin")

				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Influx.MaxRetries).To(Equal(4))
				Expect(cfg.Strategy.Type).To(Equal("round-robin"))
			})
		})

		Context("without a config file", func() {
			It("should use defaults and environment variables", func() {
				setenv("INFLUX_HOST", "localhost")

				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Address).To(Equal(":8080"))
				Expect(cfg.Strategy.Type).To(Equal("round-robin"))
				Expect(cfg.Influx.Host).To(Equal("localhost"))
				Expect(cfg.Influx.Port).To(Equal(8086))
				Expect(cfg.Influx.Username).To(Equal("root"))
				Expect(cfg.Influx.Password).To(Equal("root"))
				Expect(cfg.Influx.FailoverTimeout).To(Equal("1m0s"))
				Expect(cfg.Influx.RequestTimeout).To(BeEmpty())
				Expect(cfg.Influx.MaxRetries).To(Equal(2))
			})

			It("should fail without any influx host", func() {
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})

		Context("with a malformed config file", func() {
			It("should return the parse error", func() {
				path := filepath.Join(tempDir, "config.yaml")
				Expect(os.WriteFile(path, []byte("server: [unterminated"), 0644)).To(Succeed())

				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Validate", func() {
		It("should accept a complete configuration", func() {
			Expect(validConfig().Validate()).To(Succeed())
		})

		DescribeTable("rejections",
			func(mutate func(*config.Config)) {
				cfg := validConfig()
				mutate(cfg)
				Expect(cfg.Validate()).To(HaveOccurred())
			},
			Entry("unknown environment", func(c *config.Config) { c.Server.Environment = "qa" }),
			Entry("bad address", func(c *config.Config) { c.Server.Address = "nope" }),
			Entry("unknown log level", func(c *config.Config) { c.Logging.Level = "trace" }),
			Entry("no hosts", func(c *config.Config) { c.Influx.Hosts = nil }),
			Entry("empty host entry", func(c *config.Config) { c.Influx.Hosts = []config.HostConfig{{Port: 8086}} }),
			Entry("host port out of range", func(c *config.Config) { c.Influx.Hosts[0].Port = 70000 }),
			Entry("zero default port", func(c *config.Config) { c.Influx.Port = 0 }),
			Entry("unsupported scheme", func(c *config.Config) { c.Influx.Scheme = "udp" }),
			Entry("bad failover timeout", func(c *config.Config) { c.Influx.FailoverTimeout = "soon" }),
			Entry("negative request timeout", func(c *config.Config) { c.Influx.RequestTimeout = "-1s" }),
			Entry("negative retries", func(c *config.Config) { c.Influx.MaxRetries = -1 }),
			Entry("unknown strategy", func(c *config.Config) { c.Strategy.Type = "least-conn" }),
			Entry("zero sweep interval", func(c *config.Config) { c.Sweep.Interval = "0s" }),
			Entry("negative metrics buffer", func(c *config.Config) { c.Metrics.BufferSize = -1 }),
		)

		It("should explain the port range for host entries", func() {
			cfg := validConfig()
			cfg.Influx.Hosts[0].Port = 70000
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("port must be between 0 and 65535 (0 uses influx.port)")))
		})

		It("should accept a host entry without a port", func() {
			cfg := validConfig()
			cfg.Influx.Hosts[1].Port = 0
			Expect(cfg.Validate()).To(Succeed())
		})
	})

	Describe("ClientOptions", func() {
		It("should map the influx section onto client options", func() {
			cfg := validConfig()
			cfg.Influx.Database = "metrics"
			cfg.Influx.RequestTimeout = "750ms"

			opts := cfg.ClientOptions()

			Expect(opts.Hosts).To(Equal([]influxdb.HostConfig{
				{Host: "db1.local"},
				{Host: "db2.local", Port: 8087},
			}))
			Expect(opts.Port).To(Equal(8086))
			Expect(opts.Database).To(Equal("metrics"))
			Expect(opts.FailoverTimeout).To(Equal(60 * time.Second))
			Expect(opts.RequestTimeout).To(Equal(750 * time.Millisecond))
			Expect(opts.MaxRetries).To(Equal(2))
			Expect(opts.Validate()).To(Succeed())
		})

		It("should expose parsed durations", func() {
			cfg := validConfig()
			Expect(cfg.SweepInterval()).To(Equal(5 * time.Second))
			Expect(cfg.WriteTimeout()).To(Equal(3 * time.Minute))
		})
	})
})
