package influxdb_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/influx-failover/pkg/influxdb"
)

var _ = Describe("Writes", func() {
	var (
		ctx    context.Context
		rec    *recorder
		client *influxdb.Client
		pools  atomic.Int32
	)

	BeforeEach(func() {
		ctx = context.Background()
		rec = &recorder{}
		srv := httptest.NewServer(rec)
		DeferCleanup(srv.Close)

		pools.Store(0)
		opts := influxdb.DefaultOptions()
		opts.Hosts = []influxdb.HostConfig{serverHost(srv)}
		opts.Database = "metrics"

		var err error
		client, err = influxdb.New(opts, influxdb.WithHTTPClientFactory(func() *http.Client {
			pools.Add(1)
			return &http.Client{}
		}))
		Expect(err).NotTo(HaveOccurred())
	})

	It("should write a single point", func() {
		err := client.WritePoint(ctx, "cpu", influxdb.Point{"value": 0.64, "host": "web1"}, nil)
		Expect(err).NotTo(HaveOccurred())

		req := rec.last()
		Expect(req.Method).To(Equal(http.MethodPost))
		Expect(req.Path).To(Equal("/db/metrics/series"))
		Expect(req.Query.Get("u")).To(Equal("root"))
		Expect(req.Query.Has("time_precision")).To(BeFalse())
		Expect(req.Body).To(MatchJSON(`[{"name":"cpu","columns":["host","value"],"points":[["web1",0.64]]}]`))
	})

	It("should union columns across points and fill gaps with null", func() {
		points := []influxdb.Point{
			{"value": 1},
			{"value": 2, "region": "eu"},
			{"extra": true},
		}
		Expect(client.WritePoints(ctx, "cpu", points, nil)).To(Succeed())

		Expect(rec.last().Body).To(MatchJSON(`[{
			"name": "cpu",
			"columns": ["value", "region", "extra"],
			"points": [[1, null, null], [2, "eu", null], [null, null, true]]
		}]`))
	})

	It("should convert time values to epoch milliseconds", func() {
		stamp := time.Date(2014, 5, 13, 16, 53, 20, 0, time.UTC)
		Expect(client.WritePoint(ctx, "cpu", influxdb.Point{"time": stamp, "value": 3}, nil)).To(Succeed())

		req := rec.last()
		Expect(req.Query.Get("time_precision")).To(Equal("m"))
		Expect(req.Body).To(MatchJSON(`[{"name":"cpu","columns":["time","value"],"points":[[1400000000000,3]]}]`))
	})

	It("should leave time.Time values in other columns untouched", func() {
		stamp := time.Date(2014, 5, 13, 16, 53, 20, 0, time.UTC)
		Expect(client.WritePoint(ctx, "cpu", influxdb.Point{"seen": stamp}, nil)).To(Succeed())

		req := rec.last()
		Expect(req.Query.Has("time_precision")).To(BeFalse())
		Expect(req.Body).To(MatchJSON(`[{"name":"cpu","columns":["seen"],"points":[["2014-05-13T16:53:20Z"]]}]`))
	})

	It("should write several series in name order", func() {
		series := map[string][]influxdb.Point{
			"mem": {{"used": 10}},
			"cpu": {{"value": 1}},
		}
		Expect(client.WriteSeries(ctx, series, nil)).To(Succeed())

		Expect(rec.last().Body).To(MatchJSON(`[
			{"name":"cpu","columns":["value"],"points":[[1]]},
			{"name":"mem","columns":["used"],"points":[[10]]}
		]`))
	})

	It("should merge extra query parameters and route through the named pool", func() {
		opts := &influxdb.WriteOptions{
			Query: url.Values{"consistency": {"one"}},
			Pool:  "bulk",
		}
		Expect(client.WritePoint(ctx, "cpu", influxdb.Point{"value": 1}, nil)).To(Succeed())
		Expect(pools.Load()).To(Equal(int32(1)))

		Expect(client.WritePoint(ctx, "cpu", influxdb.Point{"value": 2}, opts)).To(Succeed())
		Expect(pools.Load()).To(Equal(int32(2)))
		Expect(rec.last().Query.Get("consistency")).To(Equal("one"))
		Expect(opts.Query.Has("u")).To(BeFalse())
	})
})

var _ = Describe("ParseResult", func() {
	It("should map each point onto its column names", func() {
		series := influxdb.Series{
			Name:    "cpu",
			Columns: []string{"time", "sequence_number", "value"},
			Points: [][]interface{}{
				{1400000000000.0, 1.0, 0.5},
				{1400000001000.0, 2.0, 0.7},
			},
		}

		Expect(influxdb.ParseResult(series)).To(Equal([]map[string]interface{}{
			{"time": 1400000000000.0, "sequence_number": 1.0, "value": 0.5},
			{"time": 1400000001000.0, "sequence_number": 2.0, "value": 0.7},
		}))
	})

	It("should ignore columns missing from a short point", func() {
		series := influxdb.Series{Columns: []string{"a", "b"}, Points: [][]interface{}{{1}}}
		Expect(influxdb.ParseResult(series)).To(Equal([]map[string]interface{}{{"a": 1}}))
	})

	It("should return no rows for an empty series", func() {
		Expect(influxdb.ParseResult(influxdb.Series{Name: "cpu"})).To(BeEmpty())
	})
})
