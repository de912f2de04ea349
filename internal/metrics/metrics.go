package metrics

import (
	"sort"
	"sync"
	"time"
)

const maxSamples = 1000

type Metrics struct {
	mutex         sync.RWMutex
	attempts      map[string]int64
	failures      map[string]int64
	disables      map[string]int64
	recoveries    map[string]int64
	responseTimes map[string][]time.Duration
	statusCodes   map[string]map[int]int64
	available     map[string]bool
	exhausted     int64
	startTime     time.Time
}

type Snapshot struct {
	TotalAttempts int64                  `json:"total_attempts"`
	TotalFailures int64                  `json:"total_failures"`
	Exhausted     int64                  `json:"exhausted"`
	Uptime        time.Duration          `json:"uptime"`
	Hosts         map[string]HostMetrics `json:"hosts"`
	Strategy      string                 `json:"strategy"`
}

type HostMetrics struct {
	Attempts    int64         `json:"attempts"`
	Failures    int64         `json:"failures"`
	Disables    int64         `json:"disables"`
	Recoveries  int64         `json:"recoveries"`
	Available   bool          `json:"available"`
	AvgResponse time.Duration `json:"avg_response"`
	P50Response time.Duration `json:"p50_response"`
	P95Response time.Duration `json:"p95_response"`
	P99Response time.Duration `json:"p99_response"`
	StatusCodes map[int]int64 `json:"status_codes"`
}

func (m *Metrics) RecordAttempt(host string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.attempts[host]++
	if _, seen := m.available[host]; !seen {
		m.available[host] = true
	}
}

func (m *Metrics) RecordFailure(host string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.failures[host]++
}

func (m *Metrics) RecordResponse(host string, duration time.Duration, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.responseTimes[host] = append(m.responseTimes[host], duration)
	if len(m.responseTimes[host]) > maxSamples {
		m.responseTimes[host] = m.responseTimes[host][1:]
	}

	if m.statusCodes[host] == nil {
		m.statusCodes[host] = make(map[int]int64)
	}
	m.statusCodes[host][statusCode]++
}

func (m *Metrics) RecordDisabled(host string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.disables[host]++
	m.available[host] = false
}

func (m *Metrics) RecordRecovered(host string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.recoveries[host]++
	m.available[host] = true
}

func (m *Metrics) RecordExhausted() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.exhausted++
}

func (m *Metrics) Snapshot(strategy string) Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:    time.Since(m.startTime),
		Hosts:     make(map[string]HostMetrics),
		Exhausted: m.exhausted,
		Strategy:  strategy,
	}

	allHosts := make(map[string]bool)
	for _, counts := range []map[string]int64{m.attempts, m.failures, m.disables, m.recoveries} {
		for host := range counts {
			allHosts[host] = true
		}
	}
	for host := range m.responseTimes {
		allHosts[host] = true
	}
	for host := range m.available {
		allHosts[host] = true
	}

	for host := range allHosts {
		snap.TotalAttempts += m.attempts[host]
		snap.TotalFailures += m.failures[host]

		hm := HostMetrics{
			Attempts:    m.attempts[host],
			Failures:    m.failures[host],
			Disables:    m.disables[host],
			Recoveries:  m.recoveries[host],
			Available:   m.available[host],
			StatusCodes: copyCodes(m.statusCodes[host]),
		}

		durations := m.responseTimes[host]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			hm.AvgResponse = average(sorted)
			hm.P50Response = percentile(sorted, 0.50)
			hm.P95Response = percentile(sorted, 0.95)
			hm.P99Response = percentile(sorted, 0.99)
		}

		snap.Hosts[host] = hm
	}

	return snap
}

func NewMetrics() *Metrics {
	return &Metrics{
		attempts:      make(map[string]int64),
		failures:      make(map[string]int64),
		disables:      make(map[string]int64),
		recoveries:    make(map[string]int64),
		responseTimes: make(map[string][]time.Duration),
		statusCodes:   make(map[string]map[int]int64),
		available:     make(map[string]bool),
		startTime:     time.Now(),
	}
}

func copyCodes(codes map[int]int64) map[int]int64 {
	if codes == nil {
		return nil
	}

	out := make(map[int]int64, len(codes))
	for code, n := range codes {
		out[code] = n
	}
	return out
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
