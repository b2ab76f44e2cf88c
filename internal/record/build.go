package record

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/ppiankov/doomsat/internal/checksum"
	"github.com/ppiankov/doomsat/internal/delta"
	"github.com/ppiankov/doomsat/internal/engine"
	"github.com/ppiankov/doomsat/internal/snapshot"
)

// Validate reports missing required identifiers.
func (m Meta) Validate() error {
	var errs []error
	if m.RunID == "" {
		errs = append(errs, errors.New("run_id is required"))
	}
	if m.EpisodeID == "" {
		errs = append(errs, errors.New("episode_id is required"))
	}
	if m.AlgoID == "" {
		errs = append(errs, errors.New("algo_id is required"))
	}
	return errors.Join(errs...)
}

// Normalized returns m with defaults applied.
func (m Meta) Normalized() Meta {
	if m.LevelStart == "" {
		m.LevelStart = DefaultLevel
	}
	return m
}

// Final is the end-of-episode state a summary is built from.
type Final struct {
	Steps           int
	Result          string
	LevelsCompleted int
	Deaths          int
	DamageTaken     int
	DamageDealt     int
	AmmoUsed        map[string]int
	PathLen         float64
	Kills           int
	Performance     Performance
}

// BuildTick assembles a Tier-0 record. The checksum is not set; call Seal.
func BuildTick(meta Meta, s snapshot.Snapshot, d delta.Deltas, step int, res Resources, now time.Time) Tick {
	meta = meta.Normalized()
	res.AmmoUsed = fillAmmo(res.AmmoUsed)
	return Tick{
		Type:           TypeTick,
		Schema:         SchemaV1,
		UnixTime:       now.Unix(),
		UnixTimeMs:     now.UnixMilli(),
		Step:           step,
		Meta:           meta,
		Level:          meta.LevelStart,
		Health:         s.Health,
		Armor:          s.Armor,
		SelectedWeapon: s.Weapon,
		Pose:           Pose{X: Float(s.X), Y: Float(s.Y), YawDeg: Float(s.Yaw)},
		Resources:      res,
		Combat: Combat{
			DmgInDelta:  d.DamageIn,
			DmgOutDelta: d.DamageOut,
			KillsDelta:  d.Kills,
		},
		Outcome: OutcomeAlive,
	}
}

// BuildSummary assembles an episode summary. The checksum is not set; call Seal.
func BuildSummary(meta Meta, f Final, now time.Time) Summary {
	result := f.Result
	if result == "" {
		result = ResultUnknown
	}
	return Summary{
		Type:            TypeSummary,
		Schema:          SchemaV1,
		UnixTime:        now.Unix(),
		Meta:            meta.Normalized(),
		LevelsCompleted: f.LevelsCompleted,
		Result:          result,
		DurationS:       Float(Round2(max(0.01, float64(f.Steps)/SummaryTickRate))),
		Deaths:          f.Deaths,
		Damage: Damage{
			TakenTotal:   f.DamageTaken,
			DealtTotal:   f.DamageDealt,
			DealtByEnemy: map[string]int{},
		},
		Resources:   Resources{AmmoUsed: fillAmmo(f.AmmoUsed)},
		Efficiency:  Efficiency{DmgPerAmmo: map[string]Float{}},
		Performance: f.Performance,
		Nav:         Nav{PathLenM: Float(Round2(f.PathLen))},
		Kills:       f.Kills,
	}
}

// Seal computes and attaches the checksum.
func (t *Tick) Seal() error {
	sum, err := checksum.Compute(t)
	if err != nil {
		return fmt.Errorf("record: seal tick: %w", err)
	}
	t.CRC32C = sum
	return nil
}

// Seal computes and attaches the checksum.
func (s *Summary) Seal() error {
	sum, err := checksum.Compute(s)
	if err != nil {
		return fmt.Errorf("record: seal summary: %w", err)
	}
	s.CRC32C = sum
	return nil
}

// fillAmmo copies ammo counts and adds a zero entry for every missing class.
func fillAmmo(in map[string]int) map[string]int {
	out := engine.ZeroAmmo()
	maps.Copy(out, in)
	return out
}
