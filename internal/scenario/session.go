package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/doomsat/internal/config"
	"github.com/ppiankov/doomsat/internal/driver"
	"github.com/ppiankov/doomsat/internal/engine"
	"github.com/ppiankov/doomsat/internal/recorder"
)

// DefaultButtons are used when a scenario does not list any.
var DefaultButtons = []string{"MOVE_FORWARD", "TURN_LEFT", "TURN_RIGHT", "ATTACK"}

// Load reads a scenario file. Sections it omits keep the defaults.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	s := &Scenario{Config: *config.Default()}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if len(s.Buttons) == 0 {
		s.Buttons = DefaultButtons
	}
	return s, nil
}

// NewEngine builds the scripted engine for s with cfg's episode timeout.
func (s *Scenario) NewEngine(cfg *config.Config) *engine.Scripted {
	eng := engine.NewScripted(s.Buttons, s.Episodes)
	eng.SetEpisodeTimeout(cfg.EpisodeTics())
	return eng
}

// Outcome is what a session produced.
type Outcome struct {
	Result    driver.Result  `json:"result"`
	Stats     recorder.Stats `json:"stats"`
	LinePath  string         `json:"t0_jsonl,omitempty"`
	FramePath string         `json:"fprime_frames,omitempty"`
	// SinkErr is set when a sink failed and was disabled mid-session.
	SinkErr error `json:"-"`
}

// Execute runs the scripted episodes of s under cfg: recorder, driver and
// teardown. The session is always closed before Execute returns.
func Execute(ctx context.Context, s *Scenario, cfg *config.Config, logger *slog.Logger) (*Outcome, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rec, err := recorder.Open(cfg.Meta(), recorder.Options{
		Every:        cfg.Recording.Every,
		LinePath:     cfg.Recording.JSONL,
		FramePath:    cfg.Recording.Frames,
		SummaryInLog: cfg.Recording.SummaryInLog,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	defer rec.Close()

	eng := s.NewEngine(cfg)
	defer eng.Close()

	res, runErr := driver.Run(ctx, eng, rec, policyFor(cfg, eng), driver.Options{
		Steps:       cfg.Run.Steps,
		TickRepeat:  cfg.Run.TickRepeat,
		AutoRestart: cfg.Run.AutoRestart,
		Aids:        cfg.Aids(),
		Weapon:      cfg.Run.Weapon,
		Logger:      logger,
	})
	closeErr := rec.Close()

	out := &Outcome{
		Result:    res,
		Stats:     rec.Stats(),
		LinePath:  cfg.Recording.JSONL,
		FramePath: cfg.Recording.Frames,
		SinkErr:   rec.Err(),
	}
	if runErr != nil {
		return out, runErr
	}
	if closeErr != nil {
		return out, fmt.Errorf("close session: %w", closeErr)
	}
	return out, nil
}

func policyFor(cfg *config.Config, eng *engine.Scripted) driver.Policy {
	switch cfg.Run.Policy {
	case "idle":
		return driver.Idle{}
	case "sweep":
		return driver.Sweep{Period: cfg.Run.SweepPeriod}
	default:
		return driver.Script{Engine: eng}
	}
}
