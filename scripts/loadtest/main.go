// Loadtest writes points to an InfluxDB cluster through the failover client
// and reports throughput, latency percentiles, error classes, and which
// hosts ended up disabled.
//
// Usage:
//
//	go run ./scripts/loadtest -hosts localhost:8086,localhost:8087 -writes 1000 -concurrency 20
//	go run ./scripts/loadtest -hosts localhost:8086,localhost:8087 -request-timeout 200ms -out summary.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angeloszaimis/influx-failover/pkg/influxdb"
)

type summary struct {
	Writes        int               `json:"writes"`
	Concurrency   int               `json:"concurrency"`
	Success       int64             `json:"success"`
	NoHosts       int64             `json:"no_hosts"`
	Exhausted     int64             `json:"exhausted"`
	APIErrors     int64             `json:"api_errors"`
	Other         int64             `json:"other"`
	DurationMS    int64             `json:"duration_ms"`
	ThroughputRPS float64           `json:"throughput_rps"`
	LatencyMS     map[string]int64  `json:"latency_ms"`
	Available     []string          `json:"available"`
	Disabled      []string          `json:"disabled"`
	ErrorSamples  map[string]string `json:"error_samples,omitempty"`
}

func parseHosts(raw string) ([]influxdb.HostConfig, error) {
	var hosts []influxdb.HostConfig
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, portStr, err := net.SplitHostPort(entry)
		if err != nil {
			return nil, fmt.Errorf("host %q: %w", entry, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("host %q: %w", entry, err)
		}
		hosts = append(hosts, influxdb.HostConfig{Host: name, Port: port})
	}
	return hosts, nil
}

func addresses(hosts []influxdb.Host) []string {
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		out = append(out, h.Address())
	}
	return out
}

func main() {
	var (
		hostList       = flag.String("hosts", "localhost:8086", "Comma-separated host:port list")
		database       = flag.String("db", "loadtest", "Database to write to")
		writes         = flag.Int("writes", 100, "Total number of writes")
		concurrency    = flag.Int("concurrency", 10, "Concurrent writers")
		maxRetries     = flag.Int("max-retries", influxdb.DefaultMaxRetries, "Failover retries per write")
		failover       = flag.Duration("failover-timeout", influxdb.DefaultFailoverTimeout, "How long a failed host stays disabled")
		requestTimeout = flag.Duration("request-timeout", time.Second, "Per-attempt timeout")
		outJSON        = flag.String("out", "", "Write JSON summary to this file (optional)")
		verbose        = flag.Bool("v", false, "Log every dispatch")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	hosts, err := parseHosts(*hostList)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -hosts: %v\n", err)
		os.Exit(1)
	}

	opts := influxdb.DefaultOptions()
	opts.Hosts = hosts
	opts.Database = *database
	opts.MaxRetries = *maxRetries
	opts.FailoverTimeout = *failover
	opts.RequestTimeout = *requestTimeout

	client, err := influxdb.New(opts, influxdb.WithLogger(log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create client: %v\n", err)
		os.Exit(1)
	}

	var (
		sum       = summary{Writes: *writes, Concurrency: *concurrency, ErrorSamples: map[string]string{}}
		latencies = make([]time.Duration, 0, *writes)
		mutex     sync.Mutex
	)
	var success, noHosts, exhausted, apiErrors, other atomic.Int64

	record := func(class string, counter *atomic.Int64, err error) {
		counter.Add(1)
		mutex.Lock()
		if _, ok := sum.ErrorSamples[class]; !ok {
			sum.ErrorSamples[class] = err.Error()
		}
		mutex.Unlock()
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(*concurrency)

	testStart := time.Now()
	for i := 0; i < *writes; i++ {
		g.Go(func() error {
			point := influxdb.Point{
				"time":   time.Now(),
				"value":  i,
				"writer": fmt.Sprintf("w%d", i%*concurrency),
			}

			start := time.Now()
			err := client.WritePoint(ctx, "loadtest", point, nil)
			dur := time.Since(start)

			mutex.Lock()
			latencies = append(latencies, dur)
			mutex.Unlock()

			var apiErr *influxdb.APIError
			switch {
			case err == nil:
				success.Add(1)
			case errors.Is(err, influxdb.ErrNoHostsAvailable):
				record("no_hosts", &noHosts, err)
			case errors.Is(err, influxdb.ErrAllHostsExhausted):
				record("exhausted", &exhausted, err)
			case errors.As(err, &apiErr):
				record("api", &apiErrors, err)
			default:
				record("other", &other, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	totalDuration := time.Since(testStart)
	client.Close()

	sum.Success = success.Load()
	sum.NoHosts = noHosts.Load()
	sum.Exhausted = exhausted.Load()
	sum.APIErrors = apiErrors.Load()
	sum.Other = other.Load()
	sum.DurationMS = totalDuration.Milliseconds()
	sum.ThroughputRPS = float64(*writes) / totalDuration.Seconds()
	sum.Available = addresses(client.GetHostsAvailable())
	sum.Disabled = addresses(client.GetHostsDisabled())

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	sum.LatencyMS = map[string]int64{}
	if len(latencies) > 0 {
		pick := func(p float64) int64 {
			return latencies[int(float64(len(latencies)-1)*p)].Milliseconds()
		}
		sum.LatencyMS["p50"] = pick(0.50)
		sum.LatencyMS["p90"] = pick(0.90)
		sum.LatencyMS["p95"] = pick(0.95)
		sum.LatencyMS["p99"] = pick(0.99)
		sum.LatencyMS["max"] = latencies[len(latencies)-1].Milliseconds()
	}

	fmt.Println("--- Load Test Summary ---")
	fmt.Printf("Hosts: %s  Database: %s\n", *hostList, *database)
	fmt.Printf("Writes: %d  Concurrency: %d\n", *writes, *concurrency)
	fmt.Printf("Success: %d  NoHosts: %d  Exhausted: %d  API: %d  Other: %d\n",
		sum.Success, sum.NoHosts, sum.Exhausted, sum.APIErrors, sum.Other)
	fmt.Printf("Duration: %v  Throughput: %.2f writes/s\n", totalDuration, sum.ThroughputRPS)
	fmt.Printf("Latency ms: p50=%d p90=%d p95=%d p99=%d max=%d\n",
		sum.LatencyMS["p50"], sum.LatencyMS["p90"], sum.LatencyMS["p95"], sum.LatencyMS["p99"], sum.LatencyMS["max"])
	fmt.Printf("Available hosts: %v\n", sum.Available)
	fmt.Printf("Disabled hosts:  %v\n", sum.Disabled)
	for class, sample := range sum.ErrorSamples {
		fmt.Printf("  sample %s error: %s\n", class, sample)
	}

	if *outJSON != "" {
		f, err := os.Create(*outJSON)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create json file: %v\n", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		_ = enc.Encode(sum)
		f.Close()
		fmt.Printf("\nWrote JSON summary to %s\n", *outJSON)
	}

	if sum.Success < int64(*writes) {
		os.Exit(2)
	}
}
