package world

import (
	"crypto/sha256"
	"encoding/hex"

	"skyduel.io/internal/sim/world/combat/projectile"
	"skyduel.io/internal/sim/world/io/digestcodec"
	"skyduel.io/internal/sim/world/kernel/model"
)

// stateDigest hashes every piece of state that affects future ticks. Two
// worlds with equal digests step identically given equal inputs.
func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	d := digestcodec.NewWriter(h)

	w.digestHeader(d, nowTick)
	w.digestCombatants(d)
	w.digestArmory(d)
	digestPool(d, w.bullets)
	digestPool(d, w.missiles)
	w.digestExplosions(d)
	w.digestBounds(d)

	return hex.EncodeToString(h.Sum(nil))
}

// StateDigest is the digest of the current state.
func (w *World) StateDigest() string { return w.stateDigest(w.tick.Load()) }

func (w *World) digestHeader(d *digestcodec.Writer, nowTick uint64) {
	d.U64(nowTick)
	d.I64(w.cfg.Seed)
	d.F64(w.clock)
	d.U32(w.rng.State())
}

func (w *World) digestCombatants(d *digestcodec.Writer) {
	p := &w.player
	digestCombatant(d, &p.Combatant)
	d.F64(p.DamageFlash)
	d.Bool(p.IsDead)
	d.F64(p.CrashTimer)

	d.Int(len(w.enemies))
	for i := range w.enemies {
		e := &w.enemies[i]
		digestCombatant(d, &e.Combatant)
		d.U32(uint32(e.AIMode))
		d.F64(e.HitFlash)
		d.F64(e.DestroyedTimer)
	}
}

func digestCombatant(d *digestcodec.Writer, c *model.Combatant) {
	d.Int(c.ID)
	d.String(c.Aircraft)
	d.F64(c.Health)
	d.F64(c.MaxHealth)
	d.Vec3(c.Pos)
	d.Vec3(c.Forward)
	d.F64(c.CollisionRadius)
}

func (w *World) digestArmory(d *digestcodec.Writer) {
	slots := w.armory.Slots()
	d.Int(len(slots))
	for _, s := range slots {
		d.Int(s.Index)
		d.String(s.WeaponID)
		d.F64(s.Cooldown)
	}
	d.F64(w.armory.FireCooldown())
}

// digestPool covers active slots only, keyed by slot index.
func digestPool(d *digestcodec.Writer, p *projectile.Pool) {
	d.U32(uint32(p.Kind()))
	d.Int(p.ActiveCount())
	for i := 0; i < p.Cap(); i++ {
		pr := p.At(i)
		if !pr.Active {
			continue
		}
		d.Int(i)
		d.Vec3(pr.Pos)
		d.Vec3(pr.Vel)
		d.F64(pr.Age)
		d.F64(pr.MaxAge)
		d.F64(pr.Damage)
		d.Int(pr.OwnerID)
	}
}

func (w *World) digestExplosions(d *digestcodec.Writer) {
	ex := w.explosions
	d.Int(ex.ActiveCount())
	for i := 0; i < ex.Cap(); i++ {
		e := ex.At(i)
		if !e.Active {
			continue
		}
		d.Int(i)
		d.Vec3(e.Pos)
		d.F64(e.Age)
		d.F64(e.MaxAge)
		for _, f := range e.Fragments {
			d.Vec3(f.Pos)
			d.Vec3(f.Vel)
		}
	}
}

func (w *World) digestBounds(d *digestcodec.Writer) {
	st := w.enforcer.State()
	d.Bool(st.IsOOB)
	d.Bool(st.Hard)
	d.F64(st.Timer)
	d.Bool(st.ForcedDeath)
}
