package observerproto

// Version is the observer protocol version (separate from the pilot WS protocol).
const Version = "0.1"

// Client -> Server. First message on the observer WS connection.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// Events, when false, strips combat events from the tick stream.
	Events bool `json:"events"`
}

// HTTP response for GET /observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string        `json:"protocol_version"`
	MissionID       string        `json:"mission_id"`
	Tick            uint64        `json:"tick"`
	MissionParams   MissionParams `json:"mission_params"`
	Enemies         []int         `json:"enemies"`
}

type MissionParams struct {
	TickRateHz int        `json:"tick_rate_hz"`
	Seed       int64      `json:"seed"`
	MaxDt      float64    `json:"max_dt"`
	Bounds     [4]float64 `json:"bounds"` // min_x, max_x, min_z, max_z
	Ceiling    float64    `json:"ceiling"`
	TileSize   int        `json:"tile_size"`
	TileStep   float64    `json:"tile_step"`
}

// HTTP response for GET /observer/tile?tx=&tz=. Heights are row-major in z.
type TileResponse struct {
	ProtocolVersion string     `json:"protocol_version"`
	TX              int        `json:"tx"`
	TZ              int        `json:"tz"`
	Size            int        `json:"size"`
	Step            float64    `json:"step"`
	Origin          [2]float64 `json:"origin"`
	Digest          string     `json:"digest"`
	Heights         []float32  `json:"heights"`
	Water           []bool     `json:"water"`
}
