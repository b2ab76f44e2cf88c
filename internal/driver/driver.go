// Package driver is the host step loop: it picks an action, steps the
// engine, applies debug aids, keeps the combat ledger and hands every
// observation to the recording session.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/doomsat/internal/engine"
	"github.com/ppiankov/doomsat/internal/record"
	"github.com/ppiankov/doomsat/internal/recorder"
	"github.com/ppiankov/doomsat/internal/snapshot"
)

// Options configure the loop.
type Options struct {
	// Steps caps the session length (0 means until the episodes run out).
	Steps int
	// TickRepeat is the number of engine tics per action, at least 1.
	TickRepeat int
	// AutoRestart starts a new episode whenever one finishes.
	AutoRestart bool
	Aids        engine.DebugAids
	Weapon      string

	Clock  func() time.Time
	Logger *slog.Logger
}

// Result describes a finished loop.
type Result struct {
	Steps     int              `json:"steps"`
	Summaries []record.Summary `json:"summaries"`
	// Interrupted is true when ctx was cancelled before the loop ended.
	Interrupted bool `json:"interrupted"`
}

// Run drives eng until the step limit, the last episode, or ctx
// cancellation, and returns the summary of every episode it ended.
// The caller owns eng and rec and closes both.
func Run(ctx context.Context, eng engine.Engine, rec *recorder.Session, pol Policy, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	if pol == nil {
		pol = Idle{}
	}
	repeat := max(1, opts.TickRepeat)
	buttons := eng.Buttons()

	var res Result
	if err := eng.NewEpisode(); err != nil {
		return res, fmt.Errorf("driver: start episode: %w", err)
	}
	startEpisode(eng, rec, opts, logger)

	ledger := NewLedger()
	var perf perfMeter

	end := func(result string) error {
		sum, err := rec.EndEpisode(recorder.EpisodeEnd{Result: result, Performance: perf.performance()})
		if err != nil {
			return fmt.Errorf("driver: end episode: %w", err)
		}
		res.Summaries = append(res.Summaries, sum)
		perf.reset()
		logger.Info("episode ended", "result", sum.Result, "taken", sum.Damage.TakenTotal, "dealt", sum.Damage.DealtTotal)
		return nil
	}

	for {
		if ctx.Err() != nil {
			res.Interrupted = true
			return res, end(record.ResultInterrupted)
		}

		if eng.EpisodeFinished() {
			result := record.ResultTimeout
			if eng.PlayerDead() {
				result = record.ResultDied
			}
			if err := end(result); err != nil {
				return res, err
			}
			if !opts.AutoRestart {
				return res, nil
			}
			if err := eng.NewEpisode(); err != nil {
				if errors.Is(err, engine.ErrNoEpisode) {
					return res, nil
				}
				return res, fmt.Errorf("driver: restart episode: %w", err)
			}
			startEpisode(eng, rec, opts, logger)
			continue
		}

		if opts.Steps > 0 && res.Steps >= opts.Steps {
			return res, end(record.ResultStepLimit)
		}
		res.Steps++
		step := res.Steps

		action := pol.Act(step, buttons)
		began := clock()
		eng.MakeAction(action, repeat)
		perf.add(clock().Sub(began))

		if floor := opts.Aids.HPFloor; floor > 0 && eng.Health() < floor {
			// Best effort; failures are already logged.
			_ = engine.ApplyDebugAids(eng, engine.DebugAids{HPFloor: floor}, logger)
		}

		snap := snapshot.Read(eng)
		if Pressed(action, buttons, "ATTACK") {
			ledger.Attack(snap.Weapon)
		}
		rec.Observe(recorder.Observation{
			Step:        step,
			State:       snap,
			Dead:        eng.PlayerDead(),
			DamageDealt: ledger.Dealt(),
			AmmoUsed:    ledger.Ammo(),
		})
	}
}

// startEpisode applies the configured aids and weapon, then gives the
// session the pre-action state as its episode baseline. Aid failures are
// ignored; the engine keeps running without them.
func startEpisode(eng engine.Engine, rec *recorder.Session, opts Options, logger *slog.Logger) {
	_ = engine.ApplyDebugAids(eng, opts.Aids, logger)
	if opts.Weapon != "" {
		_ = engine.SelectWeapon(eng, opts.Weapon, logger)
	}
	rec.BeginEpisode(snapshot.Read(eng))
}
