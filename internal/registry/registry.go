package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/angeloszaimis/influx-failover/internal/host"
	"github.com/angeloszaimis/influx-failover/internal/strategy"
)

var ErrNoHostsAvailable = errors.New("no hosts available")

type Registry struct {
	mutex    sync.Mutex
	hosts    []*host.Host
	strategy strategy.Strategy
}

// New creates an empty registry. A nil strategy selects round-robin.
func New(strat strategy.Strategy) *Registry {
	if strat == nil {
		strat = strategy.NewRoundRobinStrategy()
	}

	return &Registry{
		strategy: strat,
	}
}

// AddHost appends an available host. Adding the same address twice gives
// it two rotation slots.
func (r *Registry) AddHost(name string, port int) host.Host {
	h := host.New(name, port)

	r.mutex.Lock()
	r.hosts = append(r.hosts, &h)
	r.mutex.Unlock()

	return h
}

// NextAvailable selects the next candidate from the available partition.
func (r *Registry) NextAvailable() (host.Host, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	chosen, ok := r.strategy.SelectHost(r.snapshot())
	if !ok {
		return host.Host{}, ErrNoHostsAvailable
	}

	return chosen, nil
}

// Disable moves every available entry with the address of h into the
// disabled partition, stamping now. It returns false when nothing changed.
func (r *Registry) Disable(h host.Host, now time.Time) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	changed := false
	for _, entry := range r.hosts {
		if entry.Address() != h.Address() || entry.State == host.StateDisabled {
			continue
		}

		entry.State = host.StateDisabled
		entry.DisabledAt = now
		changed = true
	}

	return changed
}

// RecoverEligible returns to the available partition every disabled host
// whose failover timeout has elapsed at now, and reports which ones moved.
func (r *Registry) RecoverEligible(now time.Time, failoverTimeout time.Duration) []host.Host {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var recovered []host.Host
	for _, entry := range r.hosts {
		if entry.State != host.StateDisabled {
			continue
		}
		if !Eligible(entry.DisabledAt, now, failoverTimeout) {
			continue
		}

		entry.State = host.StateAvailable
		entry.DisabledAt = time.Time{}
		recovered = append(recovered, *entry)
	}

	return recovered
}

// ListAvailable returns a snapshot of the available partition in
// insertion order.
func (r *Registry) ListAvailable() []host.Host {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.filter(host.StateAvailable)
}

// ListDisabled returns a snapshot of the disabled partition in insertion
// order.
func (r *Registry) ListDisabled() []host.Host {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.filter(host.StateDisabled)
}

// Len returns the number of configured hosts.
func (r *Registry) Len() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.hosts)
}

func (r *Registry) snapshot() []host.Host {
	out := make([]host.Host, len(r.hosts))
	for i, entry := range r.hosts {
		out[i] = *entry
	}
	return out
}

func (r *Registry) filter(state host.State) []host.Host {
	out := make([]host.Host, 0, len(r.hosts))

	for _, entry := range r.hosts {
		if entry.State == state {
			out = append(out, *entry)
		}
	}

	return out
}
