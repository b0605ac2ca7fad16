package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version   int    `json:"version"`
	MissionID string `json:"mission_id"`
	Tick      uint64 `json:"tick"`
}

// SnapshotV1 is the full combat state at a tick boundary. Slot indexes are
// kept so pools resume with the same reuse order.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed       int64   `json:"seed"`
	TickRateHz int     `json:"tick_rate_hz"`
	MaxDt      float64 `json:"max_dt"`
	Clock      float64 `json:"clock"`
	RNGState   uint32  `json:"rng_state"`

	Bounds     BoundsV1 `json:"bounds"`
	OOBMaxTime float64  `json:"oob_max_time"`
	OOB        OOBV1    `json:"oob"`

	Player  PlayerV1  `json:"player"`
	Enemies []EnemyV1 `json:"enemies"`
	Armory  ArmoryV1  `json:"armory"`

	Bullets    []ProjectileV1 `json:"bullets"`
	Missiles   []ProjectileV1 `json:"missiles"`
	Explosions []ExplosionV1  `json:"explosions"`

	Digest string `json:"digest"`
}

type BoundsV1 struct {
	MinX          float64 `json:"min_x"`
	MaxX          float64 `json:"max_x"`
	MinZ          float64 `json:"min_z"`
	MaxZ          float64 `json:"max_z"`
	Ceiling       float64 `json:"ceiling"`
	WarningMargin float64 `json:"warning_margin"`
}

type OOBV1 struct {
	IsOOB       bool    `json:"is_oob"`
	Hard        bool    `json:"hard"`
	Timer       float64 `json:"timer"`
	ForcedDeath bool    `json:"forced_death"`
}

type PlayerV1 struct {
	ID              int        `json:"id"`
	Aircraft        string     `json:"aircraft"`
	Health          float64    `json:"health"`
	MaxHealth       float64    `json:"max_health"`
	Pos             [3]float64 `json:"pos"`
	Forward         [3]float64 `json:"forward"`
	CollisionRadius float64    `json:"collision_radius"`
	DamageFlash     float64    `json:"damage_flash"`
	IsDead          bool       `json:"is_dead"`
	CrashTimer      float64    `json:"crash_timer"`
}

type EnemyV1 struct {
	ID              int        `json:"id"`
	Aircraft        string     `json:"aircraft"`
	Health          float64    `json:"health"`
	MaxHealth       float64    `json:"max_health"`
	Pos             [3]float64 `json:"pos"`
	Forward         [3]float64 `json:"forward"`
	CollisionRadius float64    `json:"collision_radius"`
	Destroyed       bool       `json:"destroyed"`
	HitFlash        float64    `json:"hit_flash"`
	DestroyedTimer  float64    `json:"destroyed_timer"`
}

type SlotV1 struct {
	Slot     int     `json:"slot"`
	WeaponID string  `json:"weapon_id"`
	Cooldown float64 `json:"cooldown"`
}

type ArmoryV1 struct {
	Slots        []SlotV1 `json:"slots"`
	FireCooldown float64  `json:"fire_cooldown"`
}

type ProjectileV1 struct {
	Slot    int        `json:"slot"`
	Pos     [3]float64 `json:"pos"`
	Vel     [3]float64 `json:"vel"`
	Age     float64    `json:"age"`
	MaxAge  float64    `json:"max_age"`
	Damage  float64    `json:"damage"`
	OwnerID int        `json:"owner_id"`
}

type FragmentV1 struct {
	Pos [3]float64 `json:"pos"`
	Vel [3]float64 `json:"vel"`
}

type ExplosionV1 struct {
	Slot      int          `json:"slot"`
	Pos       [3]float64   `json:"pos"`
	Age       float64      `json:"age"`
	MaxAge    float64      `json:"max_age"`
	Fragments []FragmentV1 `json:"fragments"`
}

// WriteSnapshot writes a JSON header line followed by the gob-encoded
// snapshot, all zstd-compressed.
func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 64*1024)
	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	hb, err := br.ReadBytes('\n')
	if err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	var h Header
	if err := json.Unmarshal(hb, &h); err != nil {
		return snap, fmt.Errorf("decode header: %w", err)
	}
	if h.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", h.Version)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}

// ReadHeader reads only the header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()
	hb, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, err
	}
	if err := json.Unmarshal(hb, &h); err != nil {
		return h, err
	}
	return h, nil
}
