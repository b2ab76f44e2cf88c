// Package snapshot reads the current scalar game state from an engine probe
// and substitutes documented defaults for variables the engine does not expose.
package snapshot

import "github.com/ppiankov/doomsat/internal/engine"

// Defaults applied when the engine does not expose a variable.
const (
	DefaultArmor  = 0
	DefaultKills  = 0
	DefaultWeapon = engine.DefaultWeaponSlot
)

// Snapshot is the instantaneous state used to build one record.
type Snapshot struct {
	Health int
	Armor  int
	Kills  int
	X      float64
	Y      float64
	Yaw    float64
	Weapon int

	// HasPose is true when both X and Y were supplied by the engine.
	HasPose bool
	// Missing names the variables that fell back to a default.
	Missing []string
}

// Read pulls the current state from p.
func Read(p engine.Probe) Snapshot {
	s := Snapshot{Health: p.Health()}

	var ok bool
	if s.Armor, ok = p.Armor(); !ok {
		s.Armor = DefaultArmor
		s.Missing = append(s.Missing, "armor")
	}
	if s.Kills, ok = p.KillCount(); !ok {
		s.Kills = DefaultKills
		s.Missing = append(s.Missing, "kills")
	}

	var hasX, hasY bool
	if s.X, hasX = p.PositionX(); !hasX {
		s.X = 0
		s.Missing = append(s.Missing, "position_x")
	}
	if s.Y, hasY = p.PositionY(); !hasY {
		s.Y = 0
		s.Missing = append(s.Missing, "position_y")
	}
	s.HasPose = hasX && hasY

	if s.Yaw, ok = p.Angle(); !ok {
		s.Yaw = 0
		s.Missing = append(s.Missing, "angle")
	}
	if s.Weapon, ok = p.SelectedWeapon(); !ok {
		s.Weapon = DefaultWeapon
		s.Missing = append(s.Missing, "selected_weapon")
	}
	return s
}
