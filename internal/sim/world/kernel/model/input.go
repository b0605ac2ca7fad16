package model

// Pose is an externally integrated position and heading.
type Pose struct {
	Pos     Vec3 `json:"pos"`
	Forward Vec3 `json:"forward"`
}

// EnemyIntent is what the external AI asks of one enemy for a tick.
type EnemyIntent struct {
	ID          int  `json:"id"`
	Pose        Pose `json:"pose"`
	FireGun     bool `json:"fire_gun,omitempty"`
	FireMissile bool `json:"fire_missile,omitempty"`
}

// Input is everything the simulation consumes for one tick. A nil Player
// pose leaves the player where it was.
type Input struct {
	Player      *Pose         `json:"player,omitempty"`
	FireGun     bool          `json:"fire_gun,omitempty"`
	FireMissile bool          `json:"fire_missile,omitempty"`
	Enemies     []EnemyIntent `json:"enemies,omitempty"`
}

// Merge folds b into a. Later poses win; fire requests accumulate.
func (a Input) Merge(b Input) Input {
	if b.Player != nil {
		a.Player = b.Player
	}
	a.FireGun = a.FireGun || b.FireGun
	a.FireMissile = a.FireMissile || b.FireMissile
	if len(b.Enemies) > 0 {
		a.Enemies = append([]EnemyIntent(nil), a.Enemies...)
	}
	for _, e := range b.Enemies {
		replaced := false
		for i := range a.Enemies {
			if a.Enemies[i].ID == e.ID {
				prev := a.Enemies[i]
				e.FireGun = e.FireGun || prev.FireGun
				e.FireMissile = e.FireMissile || prev.FireMissile
				a.Enemies[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			a.Enemies = append(a.Enemies, e)
		}
	}
	return a
}
