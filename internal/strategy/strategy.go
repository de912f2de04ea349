package strategy

import (
	"github.com/angeloszaimis/influx-failover/internal/host"
)

const (
	TypeRoundRobin = "round-robin"
	TypeRandom     = "random"
)

// Strategy picks one available host out of the full ordered host list.
// The bool result is false when no host in the list is available.
type Strategy interface {
	SelectHost(hosts []host.Host) (host.Host, bool)
}

// New returns the strategy registered under name, or round-robin when
// the name is unknown.
func New(name string) (Strategy, bool) {
	switch name {
	case TypeRoundRobin, "":
		return NewRoundRobinStrategy(), true
	case TypeRandom:
		return NewRandomStrategy(), true
	default:
		return NewRoundRobinStrategy(), false
	}
}
