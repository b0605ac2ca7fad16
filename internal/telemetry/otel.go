// Package telemetry exports combat counters and pool gauges through an
// OpenTelemetry meter provider. cmd/server installs an SDK provider backed by
// a Prometheus exporter; a nil provider falls back to the global one.
package telemetry

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"skyduel.io/internal/sim/world/kernel/model"
)

const instrumentationName = "skyduel.io/internal/telemetry"

func meter(mp metric.MeterProvider) metric.Meter {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	return mp.Meter(instrumentationName)
}

type Combat struct {
	shots      metric.Int64Counter
	dropped    metric.Int64Counter
	hits       metric.Int64Counter
	kills      metric.Int64Counter
	explosions metric.Int64Counter
	oobDeaths  metric.Int64Counter
	ticks      metric.Int64Counter
	poolActive metric.Int64ObservableGauge

	bullets    atomic.Int64
	missiles   atomic.Int64
	explActive atomic.Int64
}

func NewCombat(mp metric.MeterProvider) (*Combat, error) {
	m := meter(mp)
	c := &Combat{}

	var err error
	counter := func(name, desc string) metric.Int64Counter {
		if err != nil {
			return nil
		}
		var ctr metric.Int64Counter
		ctr, err = m.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			err = fmt.Errorf("creating %s counter: %w", name, err)
		}
		return ctr
	}
	c.shots = counter("combat.shots.fired", "Projectiles spawned")
	c.dropped = counter("combat.shots.dropped", "Fire requests dropped because the pool was full")
	c.hits = counter("combat.hits", "Projectile impacts on entities")
	c.kills = counter("combat.kills", "Entities destroyed")
	c.explosions = counter("combat.explosions", "Explosions spawned")
	c.oobDeaths = counter("combat.oob.forced_deaths", "Players killed by the out-of-bounds timeout")
	c.ticks = counter("sim.ticks", "Simulation ticks stepped")
	if err != nil {
		return nil, err
	}

	c.poolActive, err = m.Int64ObservableGauge(
		"combat.pool.active",
		metric.WithDescription("Active slots per pool"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pool gauge: %w", err)
	}
	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(c.poolActive, c.bullets.Load(), metric.WithAttributes(attribute.String("pool", "bullet")))
			o.ObserveInt64(c.poolActive, c.missiles.Load(), metric.WithAttributes(attribute.String("pool", "missile")))
			o.ObserveInt64(c.poolActive, c.explActive.Load(), metric.WithAttributes(attribute.String("pool", "explosion")))
			return nil
		},
		c.poolActive,
	)
	if err != nil {
		return nil, fmt.Errorf("registering pool callback: %w", err)
	}
	return c, nil
}

func (c *Combat) ShotFired(ctx context.Context, weapon string, owner int) {
	if c == nil {
		return
	}
	c.shots.Add(ctx, 1, metric.WithAttributes(
		attribute.String("weapon", weapon),
		attribute.Bool("player", owner == model.PlayerOwner),
	))
}

func (c *Combat) ExplosionSpawned(ctx context.Context, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.explosions.Add(ctx, int64(n))
}

// Tick records one stepped tick and the pool occupancy after it.
func (c *Combat) Tick(ctx context.Context, bullets, missiles, explosions int) {
	if c == nil {
		return
	}
	c.ticks.Add(ctx, 1)
	c.bullets.Store(int64(bullets))
	c.missiles.Store(int64(missiles))
	c.explActive.Store(int64(explosions))
}

// Record counts the tick's combat events.
func (c *Combat) Record(ctx context.Context, events []model.Event) {
	if c == nil {
		return
	}
	for _, e := range events {
		weapon := attribute.String("weapon", e.Weapon)
		switch e.Type {
		case model.EventEnemyHit, model.EventPlayerHit:
			c.hits.Add(ctx, 1, metric.WithAttributes(weapon, attribute.String("target", targetOf(e.Type))))
		case model.EventEnemyDestroyed, model.EventPlayerKilled:
			c.kills.Add(ctx, 1, metric.WithAttributes(weapon, attribute.String("target", targetOf(e.Type))))
		case model.EventForcedOOBDeath:
			c.oobDeaths.Add(ctx, 1)
		case model.EventShotDropped:
			c.dropped.Add(ctx, 1, metric.WithAttributes(weapon))
		}
	}
}

func targetOf(t model.EventType) string {
	switch t {
	case model.EventPlayerHit, model.EventPlayerKilled:
		return "player"
	default:
		return "enemy"
	}
}
