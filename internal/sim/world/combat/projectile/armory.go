package projectile

import (
	"math"

	"skyduel.io/internal/sim/world/kernel/model"
	"skyduel.io/internal/sim/world/logic/mathx"
)

type WeaponType string

const (
	WeaponGun     WeaponType = "gun"
	WeaponMissile WeaponType = "missile"
)

// WeaponSpec is the catalog data a slot fires with.
type WeaponSpec struct {
	ID       string     `json:"id"`
	Type     WeaponType `json:"type"`
	FireRate float64    `json:"fire_rate"` // shots per second
	Speed    float64    `json:"speed"`
	Damage   float64    `json:"damage"`
	MaxAge   float64    `json:"max_age"`
}

// Fallbacks used when a catalog entry is absent or a field is malformed.
var (
	DefaultGun = WeaponSpec{
		ID:       "builtin_gun",
		Type:     WeaponGun,
		FireRate: 12,
		Speed:    900,
		Damage:   8,
		MaxAge:   1.5,
	}
	DefaultMissile = WeaponSpec{
		ID:       "builtin_missile",
		Type:     WeaponMissile,
		FireRate: 0.5,
		Speed:    320,
		Damage:   45,
		MaxAge:   6,
	}
)

func validPositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Sanitize replaces malformed fields with those of def. The type is kept as
// given so the slot gate can still refuse a mismatched weapon.
func (w WeaponSpec) Sanitize(def WeaponSpec) WeaponSpec {
	if w.Type == "" {
		w.Type = def.Type
	}
	if !validPositive(w.FireRate) {
		w.FireRate = def.FireRate
	}
	if !validPositive(w.Speed) {
		w.Speed = def.Speed
	}
	if w.Damage < 0 || math.IsNaN(w.Damage) || math.IsInf(w.Damage, 0) {
		w.Damage = def.Damage
	}
	if !validPositive(w.MaxAge) {
		w.MaxAge = def.MaxAge
	}
	return w
}

// WeaponLookup resolves a catalog weapon id.
type WeaponLookup func(id string) (WeaponSpec, bool)

// GunSlot is the aircraft's built-in gun.
const GunSlot = 0

type Slot struct {
	Index    int     `json:"slot"`
	WeaponID string  `json:"weapon_id"`
	Cooldown float64 `json:"cooldown"`
}

type FireResult uint8

const (
	Fired FireResult = iota
	CoolingDown
	WrongWeaponType
	PoolFull
	NoSlot
)

func (r FireResult) String() string {
	switch r {
	case Fired:
		return "FIRED"
	case CoolingDown:
		return "COOLING_DOWN"
	case WrongWeaponType:
		return "WRONG_TYPE"
	case PoolFull:
		return "POOL_FULL"
	default:
		return "NO_SLOT"
	}
}

// Armory holds an aircraft's weapon slots. Slot 0 is the gun; the remaining
// slots are missile pylons that share one launcher cooldown.
type Armory struct {
	slots        []Slot
	fireCooldown float64
	launcherGap  float64
	lookup       WeaponLookup
}

func NewArmory(gunID string, pylonIDs []string, launcherGap float64, lookup WeaponLookup) *Armory {
	a := &Armory{
		slots:       make([]Slot, 0, 1+len(pylonIDs)),
		launcherGap: launcherGap,
		lookup:      lookup,
	}
	a.slots = append(a.slots, Slot{Index: GunSlot, WeaponID: gunID})
	for i, id := range pylonIDs {
		a.slots = append(a.slots, Slot{Index: i + 1, WeaponID: id})
	}
	return a
}

func (a *Armory) Slots() []Slot { return a.slots }

func (a *Armory) FireCooldown() float64 { return a.fireCooldown }

// Restore sets cooldowns from a snapshot. Slots are matched by index.
func (a *Armory) Restore(slots []Slot, fireCooldown float64) {
	for _, s := range slots {
		if s.Index >= 0 && s.Index < len(a.slots) {
			a.slots[s.Index].Cooldown = math.Max(0, s.Cooldown)
		}
	}
	a.fireCooldown = math.Max(0, fireCooldown)
}

// Tick decrements every slot cooldown and the shared launcher cooldown,
// flooring at zero.
func (a *Armory) Tick(dt float64) {
	for i := range a.slots {
		a.slots[i].Cooldown = mathx.Decay(a.slots[i].Cooldown, dt)
	}
	a.fireCooldown = mathx.Decay(a.fireCooldown, dt)
}

// Weapon resolves the weapon bound to slot i, falling back to defaults.
func (a *Armory) Weapon(i int) WeaponSpec {
	def := DefaultMissile
	if i == GunSlot {
		def = DefaultGun
	}
	if i < 0 || i >= len(a.slots) || a.lookup == nil {
		return def
	}
	w, ok := a.lookup(a.slots[i].WeaponID)
	if !ok {
		return def
	}
	return w.Sanitize(def)
}

// FireGun fires the built-in gun when its cooldown is zero and the bound
// weapon is a gun. The cooldown resets to 1/fireRate only when a projectile
// was actually spawned.
func (a *Armory) FireGun(pool *Pool, pos, forward model.Vec3, owner int) FireResult {
	if len(a.slots) == 0 {
		return NoSlot
	}
	s := &a.slots[GunSlot]
	if s.Cooldown > 0 {
		return CoolingDown
	}
	w := a.Weapon(GunSlot)
	if w.Type != WeaponGun {
		return WrongWeaponType
	}
	if !pool.Fire(Shot{Pos: pos, Forward: forward, OwnerID: owner, Speed: w.Speed, Damage: w.Damage, MaxAge: w.MaxAge}) {
		return PoolFull
	}
	s.Cooldown = 1 / w.FireRate
	return Fired
}

// FireMissile launches from the first ready pylon carrying a missile, subject
// to the shared launcher cooldown.
func (a *Armory) FireMissile(pool *Pool, pos, forward model.Vec3, owner int) FireResult {
	if a.fireCooldown > 0 {
		return CoolingDown
	}
	result := NoSlot
	for i := 1; i < len(a.slots); i++ {
		s := &a.slots[i]
		w := a.Weapon(i)
		if w.Type != WeaponMissile {
			if result == NoSlot {
				result = WrongWeaponType
			}
			continue
		}
		if s.Cooldown > 0 {
			result = CoolingDown
			continue
		}
		if !pool.Fire(Shot{Pos: pos, Forward: forward, OwnerID: owner, Speed: w.Speed, Damage: w.Damage, MaxAge: w.MaxAge}) {
			return PoolFull
		}
		s.Cooldown = 1 / w.FireRate
		a.fireCooldown = a.launcherGap
		return Fired
	}
	return result
}

// FireEnemy spawns an enemy-owned shot with weapon w. Enemy fire shares the
// player's pools and activation rule; ownerID must be nonzero.
func FireEnemy(pool *Pool, w WeaponSpec, pos, forward model.Vec3, ownerID int) bool {
	if ownerID == model.PlayerOwner {
		return false
	}
	def := DefaultGun
	if pool.Kind() == KindMissile {
		def = DefaultMissile
	}
	w = w.Sanitize(def)
	return pool.Fire(Shot{Pos: pos, Forward: forward, OwnerID: ownerID, Speed: w.Speed, Damage: w.Damage, MaxAge: w.MaxAge})
}
