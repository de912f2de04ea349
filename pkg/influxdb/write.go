package influxdb

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"
)

// Point is one row of a series keyed by column name. A "time" value of type
// time.Time is sent as epoch milliseconds.
type Point map[string]interface{}

type WriteOptions struct {
	// Query is merged into the write request's query string.
	Query url.Values
	// Pool names the connection pool the write is sent through.
	Pool string
}

// WriteSeries writes points for several series in one request. Series are
// encoded in name order. Columns are the union of point keys in first-seen
// order, with each point's keys taken alphabetically; absent values are sent
// as null.
func (c *Client) WriteSeries(ctx context.Context, series map[string][]Point, opts *WriteOptions) error {
	if opts == nil {
		opts = &WriteOptions{}
	}

	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	hasTime := false
	payload := make([]Series, 0, len(names))
	for _, name := range names {
		s, withTime := encodeSeries(name, series[name])
		hasTime = hasTime || withTime
		payload = append(payload, s)
	}

	query := url.Values{}
	for k, v := range opts.Query {
		query[k] = append([]string(nil), v...)
	}
	if hasTime {
		query.Set("time_precision", "m")
	}

	c.logger.Debug("Writing series",
		slog.Int("series", len(payload)),
		slog.String("database", c.database))

	_, err := c.do(ctx, http.MethodPost, dbPath(c.database, "series"), query, payload, opts.Pool)
	return err
}

// WritePoint writes a single point to seriesName.
func (c *Client) WritePoint(ctx context.Context, seriesName string, point Point, opts *WriteOptions) error {
	return c.WritePoints(ctx, seriesName, []Point{point}, opts)
}

func (c *Client) WritePoints(ctx context.Context, seriesName string, points []Point, opts *WriteOptions) error {
	return c.WriteSeries(ctx, map[string][]Point{seriesName: points}, opts)
}

// encodeSeries reports whether any point carried a time.Time under "time".
func encodeSeries(name string, points []Point) (Series, bool) {
	columns := []string{}
	index := map[string]int{}

	for _, p := range points {
		keys := make([]string, 0, len(p))
		for k := range p {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			if _, seen := index[k]; !seen {
				index[k] = len(columns)
				columns = append(columns, k)
			}
		}
	}

	hasTime := false
	rows := make([][]interface{}, 0, len(points))
	for _, p := range points {
		row := make([]interface{}, len(columns))
		for k, v := range p {
			if t, ok := v.(time.Time); ok && k == "time" {
				v = t.UnixMilli()
				hasTime = true
			}
			row[index[k]] = v
		}
		rows = append(rows, row)
	}

	return Series{Name: name, Columns: columns, Points: rows}, hasTime
}

// ParseResult turns a series into one map per point keyed by column name.
func ParseResult(series Series) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(series.Points))
	for _, point := range series.Points {
		row := make(map[string]interface{}, len(series.Columns))
		for i, column := range series.Columns {
			if i < len(point) {
				row[column] = point[i]
			}
		}
		rows = append(rows, row)
	}
	return rows
}
