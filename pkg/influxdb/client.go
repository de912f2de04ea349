package influxdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/angeloszaimis/influx-failover/internal/dispatcher"
	"github.com/angeloszaimis/influx-failover/internal/host"
	"github.com/angeloszaimis/influx-failover/internal/transport"
)

// Host is a cluster member as reported by GetHostsAvailable and
// GetHostsDisabled.
type Host = host.Host

type Client struct {
	username string
	password string
	database string

	dispatcher *dispatcher.Dispatcher
	logger     *slog.Logger
}

// Series is one named result set in the 0.8 JSON series format.
type Series struct {
	Name    string          `json:"name"`
	Columns []string        `json:"columns"`
	Points  [][]interface{} `json:"points"`
}

type ContinuousQuery struct {
	ID    int    `json:"id"`
	Query string `json:"query"`
}

type databaseEntry struct {
	Name string `json:"name"`
}

func New(opts Options, options ...Option) (*Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	s := &settings{}
	for _, opt := range options {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	endpoints := make([]dispatcher.Endpoint, 0, len(opts.Hosts)+1)
	for _, hc := range opts.ResolvedHosts() {
		endpoints = append(endpoints, dispatcher.Endpoint{Name: hc.Host, Port: hc.Port})
	}

	dOpts := []dispatcher.Option{dispatcher.WithLogger(s.logger)}
	if s.clock != nil {
		dOpts = append(dOpts, dispatcher.WithClock(s.clock))
	}

	d := dispatcher.NewCluster(
		dispatcher.Config{
			MaxRetries:      opts.MaxRetries,
			FailoverTimeout: opts.FailoverTimeout,
			RequestTimeout:  opts.RequestTimeout,
		},
		dispatcher.ClusterConfig{
			Endpoints:     endpoints,
			Strategy:      s.strategy,
			Scheme:        s.scheme,
			ClientFactory: s.clientFactory,
		},
		dOpts...)

	return &Client{
		username:   opts.Username,
		password:   opts.Password,
		database:   opts.Database,
		dispatcher: d,
		logger:     s.logger,
	}, nil
}

// Close releases idle connections to every host. The client stays usable.
func (c *Client) Close() {
	c.dispatcher.CloseIdleConnections()
}

func (c *Client) CreateDatabase(ctx context.Context, name string) error {
	_, err := c.do(ctx, http.MethodPost, "db", nil, databaseEntry{Name: name}, "")
	return err
}

func (c *Client) DeleteDatabase(ctx context.Context, name string) error {
	_, err := c.do(ctx, http.MethodDelete, dbPath(name), nil, nil, "")
	return err
}

func (c *Client) GetDatabaseNames(ctx context.Context) ([]string, error) {
	var entries []databaseEntry
	if err := c.getJSON(ctx, "db", nil, &entries); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names, nil
}

// GetSeriesNames lists series in database, or in the client's default
// database when database is empty.
func (c *Client) GetSeriesNames(ctx context.Context, database string) ([]string, error) {
	series, err := c.query(ctx, c.databaseOr(database), "list series")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(series))
	for _, s := range series {
		names = append(names, s.Name)
	}
	return names, nil
}

func (c *Client) CreateUser(ctx context.Context, database, username, password string) error {
	body := map[string]string{"name": username, "password": password}
	_, err := c.do(ctx, http.MethodPost, dbPath(database, "users"), nil, body, "")
	return err
}

// UpdateUser posts attributes such as "password" or "admin" for an existing
// user.
func (c *Client) UpdateUser(ctx context.Context, database, username string, attributes map[string]interface{}) error {
	_, err := c.do(ctx, http.MethodPost, dbPath(database, "users", username), nil, attributes, "")
	return err
}

// Query runs an InfluxQL query against the default database.
func (c *Client) Query(ctx context.Context, query string) ([]Series, error) {
	return c.query(ctx, c.database, query)
}

func (c *Client) query(ctx context.Context, database, query string) ([]Series, error) {
	var series []Series
	q := url.Values{"q": {query}}
	if err := c.getJSON(ctx, dbPath(database, "series"), q, &series); err != nil {
		return nil, err
	}
	return series, nil
}

func (c *Client) DropSeries(ctx context.Context, database, series string) error {
	_, err := c.do(ctx, http.MethodDelete, dbPath(c.databaseOr(database), "series", series), nil, nil, "")
	return err
}

func (c *Client) GetContinuousQueries(ctx context.Context, database string) ([]ContinuousQuery, error) {
	var queries []ContinuousQuery
	if err := c.getJSON(ctx, dbPath(c.databaseOr(database), "continuous_queries"), nil, &queries); err != nil {
		return nil, err
	}
	return queries, nil
}

func (c *Client) DropContinuousQuery(ctx context.Context, database string, id int) error {
	path := dbPath(c.databaseOr(database), "continuous_queries", strconv.Itoa(id))
	_, err := c.do(ctx, http.MethodDelete, path, nil, nil, "")
	return err
}

// SetRequestTimeout bounds each attempt. Zero disables the bound.
func (c *Client) SetRequestTimeout(timeout time.Duration) {
	c.dispatcher.SetRequestTimeout(timeout)
}

// SetFailoverTimeout sets how long a failed host stays disabled.
func (c *Client) SetFailoverTimeout(timeout time.Duration) {
	c.dispatcher.SetFailoverTimeout(timeout)
}

func (c *Client) GetHostsAvailable() []Host {
	return c.dispatcher.HostsAvailable()
}

func (c *Client) GetHostsDisabled() []Host {
	return c.dispatcher.HostsDisabled()
}

func (c *Client) databaseOr(database string) string {
	if database == "" {
		return c.database
	}
	return database
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	body, err := c.do(ctx, http.MethodGet, path, query, nil, "")
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) do(
	ctx context.Context,
	method, path string,
	query url.Values,
	payload interface{},
	pool string,
) ([]byte, error) {
	decoded, err := url.PathUnescape(path)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req := &transport.Request{
		Method:  method,
		Path:    decoded,
		RawPath: path,
		Query:   c.credentials(query),
		Pool:    pool,
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		req.Body = data
		req.Header = http.Header{"Content-Type": {"application/json"}}
	}

	res, err := c.dispatcher.Dispatch(ctx, req)
	if err != nil {
		return nil, err
	}

	if !res.IsSuccess() {
		return nil, &APIError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(res.Body))}
	}

	return res.Body, nil
}

// credentials returns a copy of query with the u and p parameters set.
func (c *Client) credentials(query url.Values) url.Values {
	q := url.Values{}
	for k, v := range query {
		q[k] = append([]string(nil), v...)
	}
	q.Set("u", c.username)
	q.Set("p", c.password)
	return q
}

// dbPath escapes each segment and joins them under db/, so a series name
// holding a slash stays one segment.
func dbPath(database string, segments ...string) string {
	parts := []string{"db", url.PathEscape(database)}
	for _, s := range segments {
		parts = append(parts, url.PathEscape(s))
	}
	return strings.Join(parts, "/")
}
