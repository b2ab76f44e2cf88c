package recorder

import (
	"maps"
	"math"

	"github.com/ppiankov/doomsat/internal/record"
	"github.com/ppiankov/doomsat/internal/snapshot"
)

// accumulator maintains the evolving totals of the current episode. It sees
// every observed step, not only recorded ones, so summary totals do not
// depend on the recording cadence.
type accumulator struct {
	steps int
	dead  bool

	hasHealth  bool
	lastHealth int
	taken      int

	dealtBase  int
	dealtTotal int
	ammoBase   map[string]int
	ammoTotal  map[string]int

	hasPose bool
	lastX   float64
	lastY   float64
	path    float64

	kills int
}

// reset starts a new episode. Session-cumulative counters become
// per-episode by subtracting the totals reached when the previous
// episode ended.
func (a *accumulator) reset() {
	*a = accumulator{
		dealtBase:  a.dealtTotal,
		dealtTotal: a.dealtTotal,
		ammoBase:   a.ammoTotal,
		ammoTotal:  a.ammoTotal,
	}
}

// prime sets the health and pose baselines from the state before the
// episode's first action. It does not count as a step.
func (a *accumulator) prime(state snapshot.Snapshot) {
	a.hasHealth = true
	a.lastHealth = state.Health
	if state.HasPose {
		a.hasPose = true
		a.lastX, a.lastY = state.X, state.Y
	}
}

func (a *accumulator) observe(obs Observation) {
	a.steps++
	a.dealtTotal = obs.DamageDealt
	a.ammoTotal = maps.Clone(obs.AmmoUsed)

	h := obs.State.Health
	if a.hasHealth && h < a.lastHealth {
		a.taken += a.lastHealth - h
	}
	a.hasHealth = true
	a.lastHealth = h

	if obs.State.HasPose {
		if a.hasPose {
			a.path += math.Hypot(obs.State.X-a.lastX, obs.State.Y-a.lastY)
		}
		a.hasPose = true
		a.lastX, a.lastY = obs.State.X, obs.State.Y
	}

	a.kills = max(a.kills, obs.State.Kills)
	if obs.Dead {
		a.dead = true
	}
}

func (a *accumulator) final(end EpisodeEnd) record.Final {
	f := record.Final{
		Steps:           a.steps,
		Result:          end.Result,
		LevelsCompleted: end.LevelsCompleted,
		DamageTaken:     a.taken,
		DamageDealt:     max(0, a.dealtTotal-a.dealtBase),
		AmmoUsed:        make(map[string]int, len(a.ammoTotal)),
		PathLen:         a.path,
		Kills:           a.kills,
		Performance:     end.Performance,
	}
	for k, v := range a.ammoTotal {
		if used := v - a.ammoBase[k]; used > 0 {
			f.AmmoUsed[k] = used
		}
	}
	if a.dead {
		f.Deaths = 1
		if f.Result == "" {
			f.Result = record.ResultDied
		}
	}
	return f
}
