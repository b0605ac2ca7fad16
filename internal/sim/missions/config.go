package missions

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"skyduel.io/internal/sim/world/bounds"
	"skyduel.io/internal/sim/world/terrain/gen"
)

var ErrUnknownMission = errors.New("unknown mission")

type Config struct {
	DefaultMissionID string        `yaml:"default_mission_id"`
	Missions         []MissionSpec `yaml:"missions"`
}

type MissionSpec struct {
	ID         string        `yaml:"id"`
	Title      string        `yaml:"title"`
	Seed       int64         `yaml:"seed"`
	Bounds     bounds.Bounds `yaml:"bounds"`
	OOBMaxTime float64       `yaml:"oob_max_time"`
	Player     PlayerSpec    `yaml:"player"`
	Enemies    []EnemySpec   `yaml:"enemies"`
}

type PlayerSpec struct {
	Aircraft string     `yaml:"aircraft"`
	Spawn    [3]float64 `yaml:"spawn"`
	// Heading in degrees, 0 = toward -Z.
	Heading float64 `yaml:"heading"`
}

// EnemySpec describes one scripted enemy: a circular patrol around Center
// and a fire cadence while the player is inside its cone.
type EnemySpec struct {
	ID       int        `yaml:"id"`
	Aircraft string     `yaml:"aircraft"`
	Center   [3]float64 `yaml:"center"`
	Radius   float64    `yaml:"radius"`
	Speed    float64    `yaml:"speed"`
	// Phase is the starting angle on the orbit, in degrees.
	Phase        float64 `yaml:"phase"`
	Clockwise    bool    `yaml:"clockwise"`
	FireInterval float64 `yaml:"fire_interval"`
	FireRange    float64 `yaml:"fire_range"`
	// FireCone is the half-angle in degrees.
	FireCone        float64 `yaml:"fire_cone"`
	MissileInterval float64 `yaml:"missile_interval"`
}

func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	cfg = Config{}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("missions.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("missions.yaml: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		DefaultMissionID: "valley_patrol",
		Missions: []MissionSpec{
			{
				ID:    "valley_patrol",
				Title: "Valley Patrol",
				Seed:  7742,
				Bounds: bounds.Bounds{
					MinX: -3000, MaxX: 3000, MinZ: -3000, MaxZ: 3000,
					Ceiling: 1500, WarningMargin: 250,
				},
				OOBMaxTime: 10,
				Player:     PlayerSpec{Aircraft: "f16", Spawn: [3]float64{0, 300, 1200}},
				Enemies: []EnemySpec{
					{ID: 1, Aircraft: "mig21", Center: [3]float64{0, 320, -600}, Radius: 400, Speed: 120, FireInterval: 0.4, FireRange: 700, FireCone: 12},
					{ID: 2, Aircraft: "mig21", Center: [3]float64{600, 360, -900}, Radius: 300, Speed: 110, Phase: 180, Clockwise: true, FireInterval: 0.5, FireRange: 650, FireCone: 10},
					{ID: 3, Aircraft: "su27", Center: [3]float64{-700, 420, -1200}, Radius: 500, Speed: 135, Phase: 90, FireInterval: 0.3, FireRange: 800, FireCone: 15, MissileInterval: 8},
				},
			},
		},
	}
}

func (c *Config) Normalize() {
	if c == nil {
		return
	}
	for i := range c.Missions {
		m := &c.Missions[i]
		m.ID = strings.TrimSpace(m.ID)
		// Zero defers to tuning's bounds.oob_max_time.
		if m.OOBMaxTime < 0 {
			m.OOBMaxTime = 0
		}
		if m.Title == "" {
			m.Title = m.ID
		}
		for j := range m.Enemies {
			e := &m.Enemies[j]
			if e.ID == 0 {
				e.ID = j + 1
			}
			if e.FireCone <= 0 {
				e.FireCone = 10
			}
		}
	}
	if strings.TrimSpace(c.DefaultMissionID) == "" && len(c.Missions) > 0 {
		c.DefaultMissionID = c.Missions[0].ID
	}
}

func (c Config) Validate() error {
	if len(c.Missions) == 0 {
		return fmt.Errorf("missions must not be empty")
	}
	seen := map[string]bool{}
	for _, m := range c.Missions {
		if m.ID == "" {
			return fmt.Errorf("mission id must not be empty")
		}
		if seen[m.ID] {
			return fmt.Errorf("duplicate mission id: %s", m.ID)
		}
		seen[m.ID] = true
		if _, err := gen.CoerceSeed(m.Seed); err != nil {
			return fmt.Errorf("mission %s: %w", m.ID, err)
		}
		if err := m.Bounds.Validate(); err != nil {
			return fmt.Errorf("mission %s: %w", m.ID, err)
		}
		ids := map[int]bool{}
		for _, e := range m.Enemies {
			if e.ID <= 0 {
				return fmt.Errorf("mission %s enemy id must be > 0", m.ID)
			}
			if ids[e.ID] {
				return fmt.Errorf("mission %s duplicate enemy id: %d", m.ID, e.ID)
			}
			ids[e.ID] = true
			if e.Radius < 0 || e.Speed < 0 || e.FireInterval < 0 || e.MissileInterval < 0 {
				return fmt.Errorf("mission %s enemy %d has negative patrol or fire values", m.ID, e.ID)
			}
		}
	}
	if !seen[c.DefaultMissionID] {
		return fmt.Errorf("default_mission_id %q not found in missions", c.DefaultMissionID)
	}
	return nil
}

func (c Config) MissionByID(id string) (MissionSpec, error) {
	if strings.TrimSpace(id) == "" {
		id = c.DefaultMissionID
	}
	for _, m := range c.Missions {
		if m.ID == id {
			return m, nil
		}
	}
	return MissionSpec{}, fmt.Errorf("%w: %q", ErrUnknownMission, id)
}

func (c Config) IDs() []string {
	out := make([]string, 0, len(c.Missions))
	for _, m := range c.Missions {
		out = append(out, m.ID)
	}
	sort.Strings(out)
	return out
}
