// Package ratemonitor tracks inbound packet throughput and exposes it as
// a Prometheus gauge, the Go-native successor to the original server's
// TPPSMonitor rolling counter.
package ratemonitor

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Monitor implements dispatch.RateMonitor. It counts packets in the
// current one-second window and republishes the completed window's count
// as a gauge once a second, mirroring TPPSMonitor's "packets per second"
// semantics. Each packet costs one atomic increment of the shared counter.
type Monitor struct {
	current   atomic.Int64
	published atomic.Int64

	gauge prometheus.Gauge

	stop chan struct{}
}

// New creates a Monitor and registers its gauge with reg.
func New(reg prometheus.Registerer) *Monitor {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "relaycore",
		Subsystem: "dispatch",
		Name:      "internal_packets_per_second",
		Help:      "Number of position/rotation packets processed in the most recently completed one-second window.",
	})
	reg.MustRegister(gauge)

	return &Monitor{gauge: gauge, stop: make(chan struct{})}
}

// IncrementInternalPPS implements dispatch.RateMonitor.
func (m *Monitor) IncrementInternalPPS() {
	m.current.Add(1)
}

// CurrentPPS implements heartbeat.RateSource, reporting the most recently
// completed window's count — the same figure published to the gauge.
func (m *Monitor) CurrentPPS() int {
	return int(m.published.Load())
}

// Run republishes the rolling count once a second until done is closed or
// Stop is called.
// Intended to run in its own goroutine for the lifetime of the process.
func (m *Monitor) Run(done <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			count := m.current.Swap(0)
			m.published.Store(count)
			m.gauge.Set(float64(count))
		case <-done:
			return
		case <-m.stop:
			return
		}
	}
}

// Stop halts the Run loop.
func (m *Monitor) Stop() {
	close(m.stop)
}
