package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestRegisterAddsEveryCounter(t *testing.T) {
	reg := NewRegistry()
	promReg := prometheus.NewRegistry()
	if err := reg.Register(promReg); err != nil {
		t.Fatalf("unexpected error registering metrics: %v", err)
	}

	families, err := promReg.Gather()
	if err != nil {
		t.Fatalf("unexpected error gathering metrics: %v", err)
	}
	if len(families) != 7 {
		t.Fatalf("expected 7 registered counters, got %d", len(families))
	}
}

func TestCountersIncrementIndependently(t *testing.T) {
	reg := NewRegistry()
	reg.RunsStarted.Inc()
	reg.RunsStarted.Inc()
	reg.Skips.Inc()

	var m dto.Metric
	if err := reg.RunsStarted.Write(&m); err != nil {
		t.Fatalf("unexpected error writing metric: %v", err)
	}
	if m.GetCounter().GetValue() != 2 {
		t.Fatalf("expected RunsStarted == 2, got %v", m.GetCounter().GetValue())
	}

	var skips dto.Metric
	if err := reg.Skips.Write(&skips); err != nil {
		t.Fatalf("unexpected error writing metric: %v", err)
	}
	if skips.GetCounter().GetValue() != 1 {
		t.Fatalf("expected Skips == 1, got %v", skips.GetCounter().GetValue())
	}
}
