package driver

import (
	"math"

	"github.com/ppiankov/doomsat/internal/engine"
)

// Policy chooses the action vector for a step.
type Policy interface {
	Act(step int, buttons []string) []int
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(step int, buttons []string) []int

func (f PolicyFunc) Act(step int, buttons []string) []int { return f(step, buttons) }

// Idle presses nothing.
type Idle struct{}

func (Idle) Act(_ int, buttons []string) []int { return engine.EmptyAction(len(buttons)) }

// Sweep is the linear demo policy: walk forward while firing and turning
// left or right along a sine wave with the given period in steps.
type Sweep struct {
	Period float64
}

func (p Sweep) Act(step int, buttons []string) []int {
	idx := engine.ButtonIndex(buttons)
	action := engine.EmptyAction(len(buttons))

	left, hasLeft := idx["TURN_LEFT"]
	right, hasRight := idx["TURN_RIGHT"]
	if hasLeft && hasRight {
		phase := math.Sin(float64(step) / max(1.0, p.Period) * 2 * math.Pi)
		if phase < 0 {
			action[left] = 1
		} else {
			action[right] = 1
		}
	}
	press(action, idx, "MOVE_FORWARD")
	press(action, idx, "ATTACK")
	return action
}

// Script presses ATTACK on the ticks a scripted episode marks as attacks.
type Script struct {
	Engine *engine.Scripted
}

func (p Script) Act(_ int, buttons []string) []int {
	action := engine.EmptyAction(len(buttons))
	if next, ok := p.Engine.NextTick(); ok && next.Attack {
		press(action, engine.ButtonIndex(buttons), "ATTACK")
	}
	return action
}

func press(action []int, idx map[string]int, button string) {
	if i, ok := idx[button]; ok {
		action[i] = 1
	}
}

// Pressed reports whether button is set in action.
func Pressed(action []int, buttons []string, button string) bool {
	for i, name := range buttons {
		if name == button && i < len(action) {
			return action[i] != 0
		}
	}
	return false
}
