// Package config loads session configuration from a YAML file with an
// environment overlay.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/doomsat/internal/engine"
	"github.com/ppiankov/doomsat/internal/record"
)

// DefaultPath is read when no config path is given.
const DefaultPath = "doomsat.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DOOMSAT_"

// TicsPerSecond converts episode_seconds into engine tics.
const TicsPerSecond = 35.0

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Session is the metadata embedded in every record.
type Session struct {
	RunID      string `yaml:"run_id" env:"RUN_ID"`
	EpisodeID  string `yaml:"episode_id" env:"EPISODE_ID"`
	AlgoID     string `yaml:"algo_id" env:"ALGO_ID"`
	Git        string `yaml:"git" env:"GIT"`
	RNGSeed    int64  `yaml:"rng_seed" env:"RNG_SEED"`
	LevelStart string `yaml:"level_start" env:"LEVEL_START"`
}

// Recording selects the cadence and the sink destinations.
type Recording struct {
	Every        int    `yaml:"every" env:"RECORD_EVERY"`
	JSONL        string `yaml:"jsonl" env:"T0_JSONL"`
	Frames       string `yaml:"frames" env:"FPRIME_FRAMES"`
	SummaryInLog bool   `yaml:"summary_in_log" env:"SUMMARY_IN_LOG"`
}

// Run controls the host loop.
type Run struct {
	Steps          int     `yaml:"steps" env:"STEPS"`
	TickRepeat     int     `yaml:"tick_repeat" env:"TICK_REPEAT"`
	AutoRestart    bool    `yaml:"auto_restart" env:"AUTO_RESTART"`
	Policy         string  `yaml:"policy" env:"POLICY"`
	SweepPeriod    float64 `yaml:"sweep_period" env:"SWEEP_PERIOD"`
	HPFloor        int     `yaml:"hp_floor" env:"HP_FLOOR"`
	GiveAll        bool    `yaml:"give_all" env:"GIVE_ALL"`
	InfAmmo        bool    `yaml:"inf_ammo" env:"INF_AMMO"`
	Turbo          int     `yaml:"turbo" env:"TURBO"`
	Weapon         string  `yaml:"weapon" env:"WEAPON"`
	EpisodeSeconds float64 `yaml:"episode_seconds" env:"EPISODE_SECONDS"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// Config is the full session configuration.
type Config struct {
	Session   Session   `yaml:"session"`
	Recording Recording `yaml:"recording"`
	Run       Run       `yaml:"run"`
	Log       Log       `yaml:"log"`
}

// Policies accepted by run.policy.
var Policies = []string{"idle", "sweep", "script"}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Session: Session{
			RunID:      "42",
			EpisodeID:  "7",
			AlgoID:     "linear-policy",
			Git:        "a1b2c3d",
			RNGSeed:    123456,
			LevelStart: record.DefaultLevel,
		},
		Recording: Recording{JSONL: "t0.jsonl"},
		Run: Run{
			TickRepeat:  1,
			Policy:      "script",
			SweepPeriod: 6.0,
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads the YAML file at path over the defaults and applies the
// environment overlay. An empty path reads DefaultPath; a missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays DOOMSAT_* environment variables. Unset variables leave
// the field unchanged.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}

// Validate reports every invalid setting, each wrapping ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if err := c.Meta().Validate(); err != nil {
		add("session: %v", err)
	}
	if c.Recording.Every < 0 {
		add("recording.every must be >= 0, got %d", c.Recording.Every)
	}
	if c.Run.Steps < 0 {
		add("run.steps must be >= 0, got %d", c.Run.Steps)
	}
	if c.Run.TickRepeat < 1 {
		add("run.tick_repeat must be >= 1, got %d", c.Run.TickRepeat)
	}
	if c.Run.HPFloor < 0 || c.Run.Turbo < 0 || c.Run.EpisodeSeconds < 0 {
		add("run.hp_floor, run.turbo and run.episode_seconds must be >= 0")
	}
	if c.Run.Weapon != "" {
		if _, ok := engine.WeaponSlot(c.Run.Weapon); !ok {
			add("run.weapon %q is not a known weapon", c.Run.Weapon)
		}
	}
	if !contains(Policies, c.Run.Policy) {
		add("run.policy %q must be one of %v", c.Run.Policy, Policies)
	}
	if !contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		add("log.level %q is not a slog level", c.Log.Level)
	}
	if !contains([]string{"text", "json"}, c.Log.Format) {
		add("log.format %q must be text or json", c.Log.Format)
	}
	return errors.Join(errs...)
}

// Meta returns the session metadata for the recorder.
func (c *Config) Meta() record.Meta {
	return record.Meta{
		RunID:      c.Session.RunID,
		EpisodeID:  c.Session.EpisodeID,
		AlgoID:     c.Session.AlgoID,
		Git:        c.Session.Git,
		RNGSeed:    c.Session.RNGSeed,
		LevelStart: c.Session.LevelStart,
	}
}

// EpisodeTics converts run.episode_seconds to engine tics. 0 disables
// the timeout.
func (c *Config) EpisodeTics() int {
	if c.Run.EpisodeSeconds <= 0 {
		return 0
	}
	return int(math.Round(c.Run.EpisodeSeconds * TicsPerSecond))
}

// Aids returns the debug aids for the driver.
func (c *Config) Aids() engine.DebugAids {
	return engine.DebugAids{
		GiveAll: c.Run.GiveAll,
		InfAmmo: c.Run.InfAmmo,
		Turbo:   c.Run.Turbo,
		HPFloor: c.Run.HPFloor,
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
