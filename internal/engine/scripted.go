package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// ScriptTick is the engine state after one tick of a scripted episode.
// A nil optional field means the scenario does not expose that variable.
type ScriptTick struct {
	Health int      `yaml:"health"`
	Armor  *int     `yaml:"armor,omitempty"`
	Kills  *int     `yaml:"kills,omitempty"`
	X      *float64 `yaml:"x,omitempty"`
	Y      *float64 `yaml:"y,omitempty"`
	Yaw    *float64 `yaml:"yaw,omitempty"`
	Weapon *int     `yaml:"weapon,omitempty"`
	Attack bool     `yaml:"attack,omitempty"`
	Dead   bool     `yaml:"dead,omitempty"`
}

// ScriptEpisode is an ordered list of ticks.
type ScriptEpisode struct {
	Ticks []ScriptTick `yaml:"ticks"`
}

// Scripted is a deterministic in-process engine that replays scripted
// episodes. It stands in for a real simulation in tests and scenario runs.
type Scripted struct {
	buttons  []string
	episodes []ScriptEpisode
	timeout  int

	episode  int
	cursor   int
	slot     int
	commands []string
	closed   bool
}

// NewScripted creates a scripted engine. No episode is active until
// NewEpisode is called.
func NewScripted(buttons []string, episodes []ScriptEpisode) *Scripted {
	return &Scripted{
		buttons:  append([]string(nil), buttons...),
		episodes: episodes,
		episode:  -1,
	}
}

// SetEpisodeTimeout ends every episode after the given number of ticks
// (0 disables the timeout).
func (s *Scripted) SetEpisodeTimeout(ticks int) {
	s.timeout = max(0, ticks)
}

// Commands returns every console command accepted so far.
func (s *Scripted) Commands() []string {
	return append([]string(nil), s.commands...)
}

func (s *Scripted) Buttons() []string {
	return append([]string(nil), s.buttons...)
}

func (s *Scripted) NewEpisode() error {
	if s.episode+1 >= len(s.episodes) {
		return ErrNoEpisode
	}
	s.episode++
	s.cursor = 0
	return nil
}

func (s *Scripted) MakeAction(action []int, repeat int) {
	if s.episode < 0 || s.EpisodeFinished() {
		return
	}
	for i := 0; i < max(1, repeat); i++ {
		s.cursor++
		if s.EpisodeFinished() {
			return
		}
	}
}

func (s *Scripted) EpisodeFinished() bool {
	if s.episode < 0 {
		return true
	}
	ticks := s.episodes[s.episode].Ticks
	if s.cursor >= len(ticks) {
		return true
	}
	if s.timeout > 0 && s.cursor >= s.timeout {
		return true
	}
	return s.cursor > 0 && ticks[s.cursor-1].Dead
}

func (s *Scripted) PlayerDead() bool {
	t, ok := s.current()
	return ok && t.Dead
}

// Command accepts the console commands a real engine understands for
// debug aids and weapon selection. Anything else is rejected.
func (s *Scripted) Command(cmd string) error {
	if s.closed {
		return fmt.Errorf("engine closed")
	}
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return fmt.Errorf("empty command")
	}
	switch fields[0] {
	case "give", "sv_infiniteammo", "turbo":
	case "slot":
		if len(fields) != 2 {
			return fmt.Errorf("usage: slot N")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("invalid slot %q", fields[1])
		}
		s.slot = n
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
	s.commands = append(s.commands, cmd)
	return nil
}

func (s *Scripted) Close() error {
	s.closed = true
	return nil
}

// current returns the tick the engine is showing. Before the first action
// of an episode that is the first scripted tick.
func (s *Scripted) current() (ScriptTick, bool) {
	if s.episode < 0 {
		return ScriptTick{}, false
	}
	ticks := s.episodes[s.episode].Ticks
	if len(ticks) == 0 {
		return ScriptTick{}, false
	}
	i := min(max(s.cursor-1, 0), len(ticks)-1)
	return ticks[i], true
}

// CurrentTick exposes the tick being shown, for script-driven policies.
func (s *Scripted) CurrentTick() (ScriptTick, bool) {
	return s.current()
}

// NextTick returns the tick the next action will land on.
func (s *Scripted) NextTick() (ScriptTick, bool) {
	if s.episode < 0 {
		return ScriptTick{}, false
	}
	ticks := s.episodes[s.episode].Ticks
	if s.cursor >= len(ticks) {
		return ScriptTick{}, false
	}
	return ticks[s.cursor], true
}

func (s *Scripted) Health() int {
	t, _ := s.current()
	return t.Health
}

func (s *Scripted) Armor() (int, bool) {
	t, _ := s.current()
	return derefInt(t.Armor)
}

func (s *Scripted) KillCount() (int, bool) {
	t, _ := s.current()
	return derefInt(t.Kills)
}

func (s *Scripted) PositionX() (float64, bool) {
	t, _ := s.current()
	return derefFloat(t.X)
}

func (s *Scripted) PositionY() (float64, bool) {
	t, _ := s.current()
	return derefFloat(t.Y)
}

func (s *Scripted) Angle() (float64, bool) {
	t, _ := s.current()
	return derefFloat(t.Yaw)
}

func (s *Scripted) SelectedWeapon() (int, bool) {
	t, _ := s.current()
	if t.Weapon != nil {
		return *t.Weapon, true
	}
	if s.slot != 0 {
		return s.slot, true
	}
	return 0, false
}

func derefInt(p *int) (int, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func derefFloat(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
