// Package recorder runs a telemetry recording session: it decides which
// ticks are recorded, builds and seals records, writes them to both sinks
// and accumulates the per-episode totals behind the summary record.
package recorder

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/doomsat/internal/delta"
	"github.com/ppiankov/doomsat/internal/record"
	"github.com/ppiankov/doomsat/internal/sink"
	"github.com/ppiankov/doomsat/internal/snapshot"
)

// ErrInvalidMeta is returned by Open when session metadata is incomplete.
var ErrInvalidMeta = errors.New("recorder: invalid session metadata")

// Options configure a session.
type Options struct {
	// Every is the recording cadence in steps. 0 disables recording.
	Every int
	// LinePath and FramePath are the sink destinations. Empty disables a sink.
	LinePath  string
	FramePath string
	// SummaryInLog appends each episode summary to the line log.
	SummaryInLog bool

	Clock  func() time.Time
	Logger *slog.Logger
}

// Observation is the state handed to the recorder once per step.
type Observation struct {
	Step  int
	State snapshot.Snapshot
	// Dead is true when the engine reports the player dead.
	Dead bool
	// DamageDealt and AmmoUsed are session-cumulative totals.
	DamageDealt int
	AmmoUsed    map[string]int
}

// EpisodeEnd carries what only the host knows at the end of an episode.
type EpisodeEnd struct {
	Result          string
	LevelsCompleted int
	Performance     record.Performance
}

// Stats counts session activity. Records and Frames count what reached a
// sink, not what was built.
type Stats struct {
	Observed  int `json:"observed"`
	Records   int `json:"records"`
	Frames    int `json:"frames"`
	Summaries int `json:"summaries"`
	Episodes  int `json:"episodes"`
}

// Session owns the sinks and the delta tracker for one recording run.
// It is single-writer: callers drive it from one goroutine.
type Session struct {
	meta         record.Meta
	every        int
	summaryInLog bool
	clock        func() time.Time
	logger       *slog.Logger

	line   *sink.LineSink
	frames *sink.FrameSink

	tracker delta.Tracker
	episode accumulator
	stats   Stats

	lineErr  error
	frameErr error
	closed   bool
}

// Open validates meta and acquires the configured sinks. No file is opened
// when metadata is invalid or when recording is disabled.
func Open(meta record.Meta, opts Options) (*Session, error) {
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMeta, err)
	}
	if opts.Every < 0 {
		return nil, fmt.Errorf("recorder: cadence must be >= 0, got %d", opts.Every)
	}

	s := &Session{
		meta:         meta.Normalized(),
		every:        opts.Every,
		summaryInLog: opts.SummaryInLog,
		clock:        opts.Clock,
		logger:       opts.Logger,
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	linePath, framePath := opts.LinePath, opts.FramePath
	if s.every == 0 {
		framePath = ""
		if !s.summaryInLog {
			linePath = ""
		}
	}

	var err error
	if s.line, err = sink.OpenLine(linePath); err != nil {
		return nil, err
	}
	if s.frames, err = sink.OpenFrames(framePath); err != nil {
		s.line.Close()
		return nil, err
	}
	s.episode.reset()
	return s, nil
}

// Meta returns the normalized session metadata.
func (s *Session) Meta() record.Meta { return s.meta }

// Stats returns activity counters.
func (s *Session) Stats() Stats { return s.stats }

// BeginEpisode hands the session the state read right after the episode
// started, so damage and movement on the first action are counted.
func (s *Session) BeginEpisode(state snapshot.Snapshot) {
	if s.closed {
		return
	}
	s.episode.prime(state)
}

// Observe folds one step into the episode totals and records it when the
// step falls on the cadence. It reports whether a record was built.
func (s *Session) Observe(obs Observation) bool {
	if s.closed {
		return false
	}
	s.stats.Observed++
	s.episode.observe(obs)

	if s.every <= 0 || obs.Step%s.every != 0 {
		return false
	}
	s.recordTick(obs)
	return true
}

func (s *Session) recordTick(obs Observation) {
	now := s.clock()
	d := s.tracker.Update(obs.State.Health, obs.DamageDealt, obs.State.Kills)
	tick := record.BuildTick(s.meta, obs.State, d, obs.Step, record.Resources{AmmoUsed: obs.AmmoUsed}, now)

	if s.line != nil {
		if err := s.writeRecord(&tick); err != nil {
			s.disableLine(err)
		} else {
			s.stats.Records++
		}
	}
	if s.frames != nil {
		f := sink.NewFrame(now.Unix(), obs.State.Health, obs.State.Armor, obs.State.Kills)
		if err := s.frames.Write(f); err != nil {
			s.disableFrames(err)
		} else {
			s.stats.Frames++
		}
	}
}

type sealer interface {
	Seal() error
}

func (s *Session) writeRecord(r sealer) error {
	if err := r.Seal(); err != nil {
		return err
	}
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("recorder: marshal record: %w", err)
	}
	return s.line.Write(b)
}

// EndEpisode builds the summary for the current episode, optionally
// appends it to the line log and starts a fresh episode accumulator.
func (s *Session) EndEpisode(end EpisodeEnd) (record.Summary, error) {
	final := s.episode.final(end)
	sum := record.BuildSummary(s.meta, final, s.clock())
	if err := sum.Seal(); err != nil {
		return sum, err
	}
	s.stats.Episodes++
	s.episode.reset()

	if s.summaryInLog && s.line != nil {
		if err := s.writeRecord(&sum); err != nil {
			s.disableLine(err)
		} else {
			s.stats.Summaries++
		}
	}
	return sum, nil
}

func (s *Session) disableLine(err error) {
	s.logger.Error("line sink disabled", "path", s.line.Path(), "error", err)
	s.lineErr = err
	s.line.Close()
	s.line = nil
}

func (s *Session) disableFrames(err error) {
	s.logger.Error("frame sink disabled", "path", s.frames.Path(), "error", err)
	s.frameErr = err
	s.frames.Close()
	s.frames = nil
}

// Err returns the sink failures seen so far, joined.
func (s *Session) Err() error {
	return errors.Join(s.lineErr, s.frameErr)
}

// Close releases both sinks. It is safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return errors.Join(s.line.Close(), s.frames.Close())
}
