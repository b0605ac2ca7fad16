package catalogs

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"skyduel.io/internal/sim/world/combat/projectile"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

type Catalogs struct {
	Weapons  WeaponCatalog
	Aircraft AircraftCatalog
}

type WeaponCatalog struct {
	ByID     map[string]projectile.WeaponSpec
	Rejected []Rejection
	Digest   string
}

type AircraftCatalog struct {
	ByID     map[string]AircraftDef
	Rejected []Rejection
	Digest   string
}

type AircraftDef struct {
	ID              string   `json:"id"`
	MaxHealth       float64  `json:"max_health"`
	CollisionRadius float64  `json:"collision_radius"`
	CruiseSpeed     float64  `json:"cruise_speed,omitempty"`
	Gun             string   `json:"gun"`
	Pylons          []string `json:"pylons,omitempty"`
}

// DefaultAircraft stands in for a missing aircraft entry.
var DefaultAircraft = AircraftDef{
	ID:              "builtin_fighter",
	MaxHealth:       100,
	CollisionRadius: 4,
	CruiseSpeed:     140,
	Gun:             projectile.DefaultGun.ID,
	Pylons:          []string{projectile.DefaultMissile.ID, projectile.DefaultMissile.ID},
}

// Rejection records a catalog entry that failed validation. Rejected
// entries are skipped and lookups for them fall back to defaults.
type Rejection struct {
	File  string
	Index int
	ID    string
	Err   string
}

func (r Rejection) String() string {
	if r.ID != "" {
		return fmt.Sprintf("%s[%d] %s: %s", r.File, r.Index, r.ID, r.Err)
	}
	return fmt.Sprintf("%s[%d]: %s", r.File, r.Index, r.Err)
}

// Load reads weapons.json and aircraft.json from configDir. Missing files
// leave an empty catalog; malformed JSON is an error.
func Load(configDir string) (*Catalogs, error) {
	ws, err := compileSchema("weapon.schema.json")
	if err != nil {
		return nil, err
	}
	as, err := compileSchema("aircraft.schema.json")
	if err != nil {
		return nil, err
	}

	var c Catalogs
	if err := loadWeapons(filepath.Join(configDir, "weapons.json"), ws, &c.Weapons); err != nil {
		return nil, err
	}
	if err := loadAircraft(filepath.Join(configDir, "aircraft.json"), as, &c.Aircraft); err != nil {
		return nil, err
	}
	return &c, nil
}

// Empty returns catalogs with no entries; every lookup uses defaults.
func Empty() *Catalogs {
	return &Catalogs{
		Weapons:  WeaponCatalog{ByID: map[string]projectile.WeaponSpec{}, Digest: sha256Hex(nil)},
		Aircraft: AircraftCatalog{ByID: map[string]AircraftDef{}, Digest: sha256Hex(nil)},
	}
}

func (c *Catalogs) Rejected() []Rejection {
	out := append([]Rejection(nil), c.Weapons.Rejected...)
	return append(out, c.Aircraft.Rejected...)
}

// Digest covers both catalog files.
func (c *Catalogs) Digest() string {
	return sha256Hex([]byte(c.Weapons.Digest + ":" + c.Aircraft.Digest))
}

// Lookup has the projectile.WeaponLookup signature.
func (c WeaponCatalog) Lookup(id string) (projectile.WeaponSpec, bool) {
	w, ok := c.ByID[id]
	return w, ok
}

// Aircraft returns the entry for id, or DefaultAircraft.
func (c AircraftCatalog) Aircraft(id string) (AircraftDef, bool) {
	a, ok := c.ByID[id]
	if !ok {
		return DefaultAircraft, false
	}
	return a, true
}

func compileSchema(name string) (*jsonschema.Schema, error) {
	raw, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	s, err := c.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	return s, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// readEntries splits a JSON array file into raw entries. A missing file
// yields no entries.
func readEntries(path string) ([]json.RawMessage, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, sha256Hex(nil), nil
		}
		return nil, "", err
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, "", fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return entries, sha256Hex(raw), nil
}

// validateEntry checks one entry against s and returns its id when present.
func validateEntry(s *jsonschema.Schema, raw json.RawMessage) (string, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", err
	}
	id := ""
	if m, ok := doc.(map[string]any); ok {
		id, _ = m["id"].(string)
	}
	if err := s.Validate(doc); err != nil {
		return id, err
	}
	return id, nil
}

func loadWeapons(path string, s *jsonschema.Schema, out *WeaponCatalog) error {
	entries, digest, err := readEntries(path)
	if err != nil {
		return err
	}
	file := filepath.Base(path)
	out.Digest = digest
	out.ByID = map[string]projectile.WeaponSpec{}
	for i, raw := range entries {
		id, err := validateEntry(s, raw)
		if err != nil {
			out.Rejected = append(out.Rejected, Rejection{File: file, Index: i, ID: id, Err: err.Error()})
			continue
		}
		var w projectile.WeaponSpec
		if err := json.Unmarshal(raw, &w); err != nil {
			out.Rejected = append(out.Rejected, Rejection{File: file, Index: i, ID: id, Err: err.Error()})
			continue
		}
		if _, dup := out.ByID[w.ID]; dup {
			out.Rejected = append(out.Rejected, Rejection{File: file, Index: i, ID: w.ID, Err: "duplicate id"})
			continue
		}
		out.ByID[w.ID] = w
	}
	return nil
}

func loadAircraft(path string, s *jsonschema.Schema, out *AircraftCatalog) error {
	entries, digest, err := readEntries(path)
	if err != nil {
		return err
	}
	file := filepath.Base(path)
	out.Digest = digest
	out.ByID = map[string]AircraftDef{}
	for i, raw := range entries {
		id, err := validateEntry(s, raw)
		if err != nil {
			out.Rejected = append(out.Rejected, Rejection{File: file, Index: i, ID: id, Err: err.Error()})
			continue
		}
		var a AircraftDef
		if err := json.Unmarshal(raw, &a); err != nil {
			out.Rejected = append(out.Rejected, Rejection{File: file, Index: i, ID: id, Err: err.Error()})
			continue
		}
		if _, dup := out.ByID[a.ID]; dup {
			out.Rejected = append(out.Rejected, Rejection{File: file, Index: i, ID: a.ID, Err: "duplicate id"})
			continue
		}
		out.ByID[a.ID] = a
	}
	return nil
}

// IDs returns the sorted weapon ids.
func (c WeaponCatalog) IDs() []string {
	ids := make([]string, 0, len(c.ByID))
	for id := range c.ByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
