package tuning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz         int     `yaml:"tick_rate_hz"`
	MaxDt              float64 `yaml:"max_dt"`
	SnapshotEveryTicks int     `yaml:"snapshot_every_ticks"`

	Pools      Pools      `yaml:"pools"`
	Weapons    Weapons    `yaml:"weapons"`
	Collision  Collision  `yaml:"collision"`
	Explosions Explosions `yaml:"explosions"`
	Bounds     Bounds     `yaml:"bounds"`
	Terrain    Terrain    `yaml:"terrain"`
}

type Pools struct {
	Bullets    int `yaml:"bullets"`
	Missiles   int `yaml:"missiles"`
	Explosions int `yaml:"explosions"`
}

type Weapons struct {
	BulletMaxAge  float64 `yaml:"bullet_max_age"`
	MissileMaxAge float64 `yaml:"missile_max_age"`
	// LauncherGap is the shared cooldown between missile launches.
	LauncherGap float64 `yaml:"launcher_gap"`
}

type Collision struct {
	BulletRadius       float64 `yaml:"bullet_radius"`
	MissileRadius      float64 `yaml:"missile_radius"`
	BulletHitFlash     float64 `yaml:"bullet_hit_flash"`
	MissileHitFlash    float64 `yaml:"missile_hit_flash"`
	BulletDamageFlash  float64 `yaml:"bullet_damage_flash"`
	MissileDamageFlash float64 `yaml:"missile_damage_flash"`
}

type Explosions struct {
	Fragments int     `yaml:"fragments"`
	MaxAge    float64 `yaml:"max_age"`
	Gravity   float64 `yaml:"gravity"`
	MinSpeed  float64 `yaml:"min_speed"`
	MaxSpeed  float64 `yaml:"max_speed"`
}

type Bounds struct {
	OOBMaxTime float64 `yaml:"oob_max_time"`
}

type Terrain struct {
	TileStep int `yaml:"tile_step"`
	MaxTiles int `yaml:"max_tiles"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "1.0",
		TickRateHz:         60,
		MaxDt:              0.05,
		SnapshotEveryTicks: 3600,
		Pools: Pools{
			Bullets:    256,
			Missiles:   32,
			Explosions: 32,
		},
		Weapons: Weapons{
			BulletMaxAge:  1.5,
			MissileMaxAge: 6,
			LauncherGap:   0.5,
		},
		Collision: Collision{
			BulletRadius:       1.5,
			MissileRadius:      6,
			BulletHitFlash:     0.12,
			MissileHitFlash:    0.3,
			BulletDamageFlash:  0.25,
			MissileDamageFlash: 0.6,
		},
		Explosions: Explosions{
			Fragments: 12,
			MaxAge:    1.8,
			Gravity:   9.8,
			MinSpeed:  12,
			MaxSpeed:  36,
		},
		Bounds:  Bounds{OOBMaxTime: 10},
		Terrain: Terrain{TileStep: 8, MaxTiles: 256},
	}
}

// Normalize fills every zero or negative value from Defaults.
func (t *Tuning) Normalize() {
	d := Defaults()
	if t.ProtocolVersion == "" {
		t.ProtocolVersion = d.ProtocolVersion
	}
	posInt(&t.TickRateHz, d.TickRateHz)
	posFloat(&t.MaxDt, d.MaxDt)
	posInt(&t.SnapshotEveryTicks, d.SnapshotEveryTicks)

	posInt(&t.Pools.Bullets, d.Pools.Bullets)
	posInt(&t.Pools.Missiles, d.Pools.Missiles)
	posInt(&t.Pools.Explosions, d.Pools.Explosions)

	posFloat(&t.Weapons.BulletMaxAge, d.Weapons.BulletMaxAge)
	posFloat(&t.Weapons.MissileMaxAge, d.Weapons.MissileMaxAge)
	posFloat(&t.Weapons.LauncherGap, d.Weapons.LauncherGap)

	posFloat(&t.Collision.BulletRadius, d.Collision.BulletRadius)
	posFloat(&t.Collision.MissileRadius, d.Collision.MissileRadius)
	posFloat(&t.Collision.BulletHitFlash, d.Collision.BulletHitFlash)
	posFloat(&t.Collision.MissileHitFlash, d.Collision.MissileHitFlash)
	posFloat(&t.Collision.BulletDamageFlash, d.Collision.BulletDamageFlash)
	posFloat(&t.Collision.MissileDamageFlash, d.Collision.MissileDamageFlash)

	posInt(&t.Explosions.Fragments, d.Explosions.Fragments)
	posFloat(&t.Explosions.MaxAge, d.Explosions.MaxAge)
	posFloat(&t.Explosions.Gravity, d.Explosions.Gravity)
	posFloat(&t.Explosions.MinSpeed, d.Explosions.MinSpeed)
	posFloat(&t.Explosions.MaxSpeed, d.Explosions.MaxSpeed)
	if t.Explosions.MaxSpeed < t.Explosions.MinSpeed {
		t.Explosions.MaxSpeed = t.Explosions.MinSpeed
	}

	posFloat(&t.Bounds.OOBMaxTime, d.Bounds.OOBMaxTime)
	posInt(&t.Terrain.TileStep, d.Terrain.TileStep)
	posInt(&t.Terrain.MaxTiles, d.Terrain.MaxTiles)
}

func posInt(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

func posFloat(v *float64, def float64) {
	if !(*v > 0) {
		*v = def
	}
}

// Load reads a tuning file. Missing keys take their defaults.
func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Normalize()
	return t, nil
}

// Digest is the sha256 of the canonical JSON form of t.
func (t Tuning) Digest() string {
	b, _ := json.Marshal(t)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
