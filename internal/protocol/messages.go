package protocol

// HELLO (pilot -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PilotName       string `json:"pilot_name"`
	// Encoding selects the STATE frame format: "json" (text frames, default)
	// or "msgpack" (binary frames).
	Encoding string `json:"encoding,omitempty"`
	MaxQueue int    `json:"max_queue,omitempty"`
}

// WELCOME (server -> pilot)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	Encoding        string         `json:"encoding"`
	Mission         MissionParams  `json:"mission"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type MissionParams struct {
	MissionID  string     `json:"mission_id"`
	Seed       int64      `json:"seed"`
	TickRateHz int        `json:"tick_rate_hz"`
	MaxDt      float64    `json:"max_dt"`
	Bounds     BoundsInfo `json:"bounds"`
	Aircraft   string     `json:"aircraft"`
}

type BoundsInfo struct {
	MinX          float64 `json:"min_x"`
	MaxX          float64 `json:"max_x"`
	MinZ          float64 `json:"min_z"`
	MaxZ          float64 `json:"max_z"`
	Ceiling       float64 `json:"ceiling"`
	WarningMargin float64 `json:"warning_margin"`
}

type CatalogDigests struct {
	WeaponsDigest  string `json:"weapons_digest"`
	AircraftDigest string `json:"aircraft_digest"`
	TuningDigest   string `json:"tuning_digest,omitempty"`
}

// INPUT (pilot -> server). Pos and Forward are the pilot's integrated pose;
// when Pos is absent the player stays where it was.
type InputMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Seq             uint64      `json:"seq"`
	Pos             *[3]float64 `json:"pos,omitempty"`
	Forward         [3]float64  `json:"forward,omitempty"`
	FireGun         bool        `json:"fire_gun,omitempty"`
	FireMissile     bool        `json:"fire_missile,omitempty"`
}

// STATE (server -> pilot), one per tick.
type StateMsg struct {
	Type            string            `json:"type" msgpack:"type"`
	ProtocolVersion string            `json:"protocol_version" msgpack:"protocol_version"`
	Tick            uint64            `json:"tick" msgpack:"tick"`
	Clock           float64           `json:"clock" msgpack:"clock"`
	AckSeq          uint64            `json:"ack_seq" msgpack:"ack_seq"`
	Player          PlaneState        `json:"player" msgpack:"player"`
	Enemies         []PlaneState      `json:"enemies" msgpack:"enemies"`
	Bullets         []ProjectileState `json:"bullets" msgpack:"bullets"`
	Missiles        []ProjectileState `json:"missiles" msgpack:"missiles"`
	Explosions      []ExplosionState  `json:"explosions" msgpack:"explosions"`
	OOB             OOBState          `json:"oob" msgpack:"oob"`
	Events          []EventState      `json:"events,omitempty" msgpack:"events,omitempty"`
}

type PlaneState struct {
	ID        int        `json:"id" msgpack:"id"`
	Pos       [3]float64 `json:"pos" msgpack:"pos"`
	Forward   [3]float64 `json:"forward" msgpack:"forward"`
	Health    float64    `json:"health" msgpack:"health"`
	MaxHealth float64    `json:"max_health" msgpack:"max_health"`
	Flash     float64    `json:"flash" msgpack:"flash"`
	Down      bool       `json:"down" msgpack:"down"`
}

type ProjectileState struct {
	Pos   [3]float64 `json:"pos" msgpack:"pos"`
	Vel   [3]float64 `json:"vel" msgpack:"vel"`
	Owner int        `json:"owner" msgpack:"owner"`
}

type ExplosionState struct {
	Pos       [3]float64   `json:"pos" msgpack:"pos"`
	Age       float64      `json:"age" msgpack:"age"`
	MaxAge    float64      `json:"max_age" msgpack:"max_age"`
	Fragments [][3]float64 `json:"fragments" msgpack:"fragments"`
}

type OOBState struct {
	IsOOB      bool       `json:"is_oob" msgpack:"is_oob"`
	Timer      float64    `json:"timer" msgpack:"timer"`
	MaxTime    float64    `json:"max_time" msgpack:"max_time"`
	WarningDir [3]float64 `json:"warning_dir" msgpack:"warning_dir"`
}

type EventState struct {
	Type     string     `json:"type" msgpack:"type"`
	EntityID int        `json:"entity_id" msgpack:"entity_id"`
	SourceID int        `json:"source_id,omitempty" msgpack:"source_id,omitempty"`
	Weapon   string     `json:"weapon,omitempty" msgpack:"weapon,omitempty"`
	Pos      [3]float64 `json:"pos" msgpack:"pos"`
	Damage   float64    `json:"damage,omitempty" msgpack:"damage,omitempty"`
}

// ERROR (server -> pilot)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}
