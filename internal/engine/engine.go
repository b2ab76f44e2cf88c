// Package engine defines the collaborator contract between the recorder
// and the external simulation engine.
//
// The engine is never probed for attribute existence. Every optional
// game variable is exposed through a getter that reports whether the
// running scenario supplies it; defaulting is owned by the snapshot reader.
package engine

import "errors"

// ErrNoEpisode is returned by NewEpisode when the engine cannot start
// another episode (for example, a script has run out of episodes).
var ErrNoEpisode = errors.New("engine: no episode available")

// Probe reads scalar game state after the most recent action.
type Probe interface {
	Health() int
	Armor() (int, bool)
	KillCount() (int, bool)
	PositionX() (float64, bool)
	PositionY() (float64, bool)
	Angle() (float64, bool)
	SelectedWeapon() (int, bool)
}

// Controller accepts actions and console commands.
type Controller interface {
	// Buttons lists the available buttons in action-vector order.
	Buttons() []string
	// MakeAction applies a multi-button action vector for repeat ticks.
	MakeAction(action []int, repeat int)
	// Command sends a console command. Failures are reported, never hidden.
	Command(cmd string) error
	NewEpisode() error
	EpisodeFinished() bool
	PlayerDead() bool
	Close() error
}

// Engine is the full collaborator surface the driver needs.
type Engine interface {
	Probe
	Controller
}

// ButtonIndex maps button names to their action-vector position.
func ButtonIndex(buttons []string) map[string]int {
	idx := make(map[string]int, len(buttons))
	for i, name := range buttons {
		idx[name] = i
	}
	return idx
}

// EmptyAction returns a zero action vector for n buttons.
func EmptyAction(n int) []int {
	return make([]int, n)
}
