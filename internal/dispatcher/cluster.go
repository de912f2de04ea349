package dispatcher

import (
	"log/slog"
	"net/http"

	"github.com/angeloszaimis/influx-failover/internal/registry"
	"github.com/angeloszaimis/influx-failover/internal/strategy"
	"github.com/angeloszaimis/influx-failover/internal/transport"
)

type Endpoint struct {
	Name string
	Port int
}

// ClusterConfig describes the hosts and HTTP setup behind a Dispatcher.
type ClusterConfig struct {
	Endpoints []Endpoint
	// Strategy names the host rotation. Unknown names fall back to
	// round-robin.
	Strategy      string
	Scheme        string
	ClientFactory func() *http.Client
}

// NewCluster builds a Dispatcher over an HTTP transport with every endpoint
// registered in order.
func NewCluster(cfg Config, cc ClusterConfig, opts ...Option) *Dispatcher {
	strat, known := strategy.New(cc.Strategy)

	var trOpts []transport.Option
	if cc.Scheme != "" {
		trOpts = append(trOpts, transport.WithScheme(cc.Scheme))
	}
	if cc.ClientFactory != nil {
		trOpts = append(trOpts, transport.WithClientFactory(cc.ClientFactory))
	}

	opts = append([]Option{WithRegistry(registry.New(strat))}, opts...)
	d := New(transport.NewHTTPTransport(trOpts...), cfg, opts...)

	if !known {
		d.logger.Warn("Unknown strategy, falling back to round-robin",
			slog.String("strategy", cc.Strategy))
	}

	for _, e := range cc.Endpoints {
		h := d.AddHost(e.Name, e.Port)
		d.logger.Debug("Host registered", slog.String("host", h.Address()))
	}

	return d
}

// CloseIdleConnections releases idle keep-alive connections held by the
// transport, when it keeps any.
func (d *Dispatcher) CloseIdleConnections() {
	if c, ok := d.transport.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}
