package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/angeloszaimis/influx-failover/config"
	"github.com/angeloszaimis/influx-failover/internal/dispatcher"
	"github.com/angeloszaimis/influx-failover/internal/handler"
	"github.com/angeloszaimis/influx-failover/internal/healthcheck"
	"github.com/angeloszaimis/influx-failover/internal/httpserver"
	"github.com/angeloszaimis/influx-failover/internal/metrics"
	"github.com/angeloszaimis/influx-failover/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(cfg, log)
	if err != nil {
		log.Error("Failed to initialize relay", slog.Any("err", err))
		os.Exit(1)
	}

	if err := a.run(ctx); err != nil {
		log.Error("Relay stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("Shut down gracefully")
}

type app struct {
	cfg        *config.Config
	log        *slog.Logger
	dispatcher *dispatcher.Dispatcher
	collector  *metrics.Collector
	router     http.Handler
	server     *httpserver.Server
}

func newApp(cfg *config.Config, log *slog.Logger) (*app, error) {
	collector := metrics.NewCollector(cfg.Metrics.BufferSize, logger.Component(log, "metrics"))

	opts := cfg.ClientOptions()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid influx options: %w", err)
	}

	endpoints := make([]dispatcher.Endpoint, 0, len(opts.Hosts))
	for _, hc := range opts.ResolvedHosts() {
		endpoints = append(endpoints, dispatcher.Endpoint{Name: hc.Host, Port: hc.Port})
	}

	d := dispatcher.NewCluster(
		dispatcher.Config{
			MaxRetries:      opts.MaxRetries,
			FailoverTimeout: opts.FailoverTimeout,
			RequestTimeout:  opts.RequestTimeout,
		},
		dispatcher.ClusterConfig{
			Endpoints: endpoints,
			Strategy:  cfg.Strategy.Type,
			Scheme:    cfg.Influx.Scheme,
		},
		dispatcher.WithLogger(logger.Component(log, "dispatcher")),
		dispatcher.WithCollector(collector))

	relay := handler.NewRelayHandler(logger.Component(log, "relay"), d)
	mux := setupRouter(relay, collector, cfg.Strategy.Type)

	var serverOpts []httpserver.Option
	if wt := cfg.WriteTimeout(); wt > 0 {
		serverOpts = append(serverOpts, httpserver.WithWriteTimeout(wt))
	}

	srv, err := httpserver.New(cfg.Server.Address, mux, serverOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}

	return &app{
		cfg:        cfg,
		log:        log,
		dispatcher: d,
		collector:  collector,
		router:     mux,
		server:     srv,
	}, nil
}

// run supervises the server, metrics collector and recovery sweeper until
// ctx is cancelled or one of them fails.
func (a *app) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.collector.Run(gctx)
		return nil
	})

	g.Go(func() error {
		healthcheck.Run(gctx, a.dispatcher, a.cfg.SweepInterval(), logger.Component(a.log, "sweeper"))
		return nil
	})

	g.Go(func() error {
		a.log.Info("Relay listening",
			slog.String("addr", a.server.Addr()),
			slog.Int("hosts", len(a.dispatcher.HostsAvailable())),
			slog.String("strategy", a.cfg.Strategy.Type))
		return a.server.Run(gctx)
	})

	err := g.Wait()
	a.dispatcher.CloseIdleConnections()
	return err
}
