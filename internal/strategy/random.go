package strategy

import (
	"math/rand/v2"

	"github.com/angeloszaimis/influx-failover/internal/host"
)

type randomStrategy struct{}

func (r *randomStrategy) SelectHost(hosts []host.Host) (host.Host, bool) {
	available := make([]host.Host, 0, len(hosts))
	for _, h := range hosts {
		if h.IsAvailable() {
			available = append(available, h)
		}
	}

	if len(available) == 0 {
		return host.Host{}, false
	}

	return available[rand.IntN(len(available))], true
}

func NewRandomStrategy() Strategy {
	return &randomStrategy{}
}
