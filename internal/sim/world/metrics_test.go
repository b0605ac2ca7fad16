package world

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"skyduel.io/internal/sim/world/kernel/model"
	"skyduel.io/internal/telemetry"
)

func TestStep_RecordsCombatMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())
	m, err := telemetry.NewCombat(mp)
	if err != nil {
		t.Fatalf("NewCombat: %v", err)
	}

	w := newTestWorld(t, testConfig())
	w.SetMetrics(m)
	w.Step(0.05, model.Input{FireGun: true})
	w.Step(0.05, model.Input{})

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			s, ok := md.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range s.DataPoints {
				sums[md.Name] += dp.Value
			}
		}
	}
	if sums["combat.shots.fired"] != 1 || sums["combat.hits"] != 1 || sums["sim.ticks"] != 2 {
		t.Fatalf("sums=%v", sums)
	}
}
