package otel

import (
	"context"
	"sync"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	resetkit "github.com/resetkit/resetkit"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot resetkit.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() resetkit.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := resetkit.MetricsSnapshot{
		Counters: make(map[resetkit.MetricID]uint64, len(f.snapshot.Counters)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("resetkit-test")

	src := &fakeSource{
		snapshot: resetkit.MetricsSnapshot{
			Counters: map[resetkit.MetricID]uint64{
				resetkit.MetricTokenIssued: 3,
			},
		},
		dropped: 1,
	}

	exp, err := NewExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("expected collected metrics, got none")
	}

	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "resetkit_token_issued_total" {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("expected resetkit_token_issued_total in collected metrics")
	}
}

func TestExporterRejectsNilSource(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("resetkit-test")

	if _, err := NewExporterFromSource(meter, nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
}

func TestExporterRejectsNilMeter(t *testing.T) {
	if _, err := NewExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
}

func TestCloseNilExporter(t *testing.T) {
	var exp *Exporter
	if err := exp.Close(); err != nil {
		t.Fatalf("Close on nil exporter failed: %v", err)
	}
}
