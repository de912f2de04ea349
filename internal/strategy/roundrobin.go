package strategy

import (
	"sync"

	"github.com/angeloszaimis/influx-failover/internal/host"
)

// roundRobinStrategy keeps a cursor over the ordered host list so that a
// disabled host is skipped without shifting the turn of the hosts after it.
type roundRobinStrategy struct {
	mutex sync.Mutex
	next  int
}

func (rr *roundRobinStrategy) SelectHost(hosts []host.Host) (host.Host, bool) {
	rr.mutex.Lock()
	defer rr.mutex.Unlock()

	n := len(hosts)
	for i := 0; i < n; i++ {
		index := (rr.next + i) % n
		if hosts[index].IsAvailable() {
			rr.next = index + 1
			return hosts[index], true
		}
	}

	return host.Host{}, false
}

func NewRoundRobinStrategy() Strategy {
	return &roundRobinStrategy{}
}
