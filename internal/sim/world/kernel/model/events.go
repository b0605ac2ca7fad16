package model

import "fmt"

type EventType uint8

const (
	EventEnemyHit EventType = iota + 1
	EventEnemyDestroyed
	EventPlayerHit
	EventPlayerKilled
	EventForcedOOBDeath
	EventShotDropped
	EventOOBStateChanged
)

var eventNames = map[EventType]string{
	EventEnemyHit:        "ENEMY_HIT",
	EventEnemyDestroyed:  "ENEMY_DESTROYED",
	EventPlayerHit:       "PLAYER_HIT",
	EventPlayerKilled:    "PLAYER_KILLED",
	EventForcedOOBDeath:  "FORCED_OOB_DEATH",
	EventShotDropped:     "SHOT_DROPPED",
	EventOOBStateChanged: "OOB_STATE_CHANGED",
}

func (t EventType) String() string {
	if s, ok := eventNames[t]; ok {
		return s
	}
	return fmt.Sprintf("EventType(%d)", uint8(t))
}

func (t EventType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *EventType) UnmarshalText(b []byte) error {
	for k, v := range eventNames {
		if v == string(b) {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("unknown event type %q", b)
}

// Event is one combat outcome observed during a tick. EntityID names the
// entity the event happened to; SourceID is the owner of the projectile
// involved, when there is one.
type Event struct {
	Tick     uint64    `json:"tick"`
	Type     EventType `json:"type"`
	EntityID int       `json:"entity_id"`
	SourceID int       `json:"source_id,omitempty"`
	Weapon   string    `json:"weapon,omitempty"`
	Pos      Vec3      `json:"pos"`
	Damage   float64   `json:"damage,omitempty"`
	// OOB is set on EventOOBStateChanged.
	OOB bool `json:"oob,omitempty"`
}
