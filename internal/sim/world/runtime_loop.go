package world

import (
	"context"
	"time"

	"skyduel.io/internal/sim/world/kernel/model"
	"skyduel.io/internal/sim/world/logic/mathx"
)

// Run steps the world at TickRateHz until ctx is done or Stop is called.
// Inputs received between ticks are merged and applied together. The step
// uses the real elapsed time, which Step clamps to MaxDt.
func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pending model.Input
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.observerJoin:
			w.handleObserverJoin(req)
		case id := <-w.observerLeave:
			w.handleObserverLeave(id)
		case in := <-w.inputs:
			pending = pending.Merge(in)
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			w.runTick(dt, pending)
			pending = model.Input{}
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// runTick is one loop iteration: plan scripted enemies, step, then fan out
// logs, events, snapshots and observer frames.
func (w *World) runTick(dt float64, in model.Input) {
	if w.driver != nil {
		planned := w.driver.Plan(mathx.ClampDt(dt, w.cfg.MaxDt), &w.player, w.enemies)
		in = model.Input{Enemies: planned}.Merge(in)
	}
	res := w.Step(dt, in)
	digest := w.StateDigest()

	if w.tickLogger != nil {
		_ = w.tickLogger.WriteTick(TickLogEntry{Tick: res.Tick, Dt: res.Dt, Input: in, Digest: digest})
	}
	if w.eventLogger != nil {
		for _, e := range res.Events {
			_ = w.eventLogger.WriteEvent(e)
		}
	}
	if w.snapshotSink != nil && w.cfg.SnapshotEveryTicks > 0 && (res.Tick+1)%uint64(w.cfg.SnapshotEveryTicks) == 0 {
		snap := w.ExportSnapshot()
		select {
		case w.snapshotSink <- snap:
		default:
		}
	}
	if len(w.observers) > 0 {
		w.broadcast(w.snapshotWithEvents(res.Events))
	}
}

func sendLatest(ch chan Snapshot, s Snapshot) {
	select {
	case ch <- s:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}
