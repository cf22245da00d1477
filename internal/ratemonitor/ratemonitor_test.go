package ratemonitor

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRunPublishesCompletedWindowCount(t *testing.T) {
	m := New(prometheus.NewRegistry())

	done := make(chan struct{})
	go m.Run(done)
	defer close(done)

	m.IncrementInternalPPS()
	m.IncrementInternalPPS()
	m.IncrementInternalPPS()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.CurrentPPS() == 3 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected CurrentPPS to reach 3 within the window, got %d", m.CurrentPPS())
}

func TestCurrentPPSStartsAtZero(t *testing.T) {
	m := New(prometheus.NewRegistry())
	if got := m.CurrentPPS(); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}
