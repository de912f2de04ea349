package main

import (
	"net/http"

	"github.com/angeloszaimis/influx-failover/internal/handler"
	"github.com/angeloszaimis/influx-failover/internal/metrics"
)

func setupRouter(relay *handler.RelayHandler, metricsCollector *metrics.Collector, strategy string) *http.ServeMux {
	mux := http.NewServeMux()

	// InfluxDB API surface, forwarded to the cluster.
	mux.Handle("/db", relay)
	mux.Handle("/db/", relay)
	mux.Handle("/ping", relay)
	mux.Handle("/cluster_admins", relay)
	mux.Handle("/cluster_admins/", relay)

	mux.HandleFunc("/hosts", relay.Hosts)
	mux.HandleFunc("/metrics", metricsCollector.Handler(strategy))

	return mux
}
