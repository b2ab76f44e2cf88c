package tlog

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/ppiankov/doomsat/internal/record"
)

// Filter selects records for replay. Zero values mean no constraint.
type Filter struct {
	EpisodeID string
	FromStep  int
	ToStep    int
}

func (f Filter) match(episode string, step int) bool {
	if f.EpisodeID != "" && episode != f.EpisodeID {
		return false
	}
	if f.FromStep > 0 && step < f.FromStep {
		return false
	}
	if f.ToStep > 0 && step > f.ToStep {
		return false
	}
	return true
}

// HealthStats describes the health samples of the replayed records.
type HealthStats struct {
	Min    int          `json:"min"`
	Max    int          `json:"max"`
	Mean   record.Float `json:"mean"`
	StdDev record.Float `json:"stddev"`
	P10    record.Float `json:"p10"`
	P50    record.Float `json:"p50"`
	P90    record.Float `json:"p90"`
}

// ReplaySummary aggregates the replayed tick records.
type ReplaySummary struct {
	Records   int         `json:"records"`
	Summaries int         `json:"summaries"`
	DamageIn  int         `json:"dmg_in_total"`
	DamageOut int         `json:"dmg_out_total"`
	Kills     int         `json:"kills_total"`
	FirstStep int         `json:"first_step"`
	LastStep  int         `json:"last_step"`
	FirstTime int64       `json:"first_unix_ms"`
	LastTime  int64       `json:"last_unix_ms"`
	Health    HealthStats `json:"health"`
}

// ReplayResult holds the filtered records and their aggregate.
type ReplayResult struct {
	EpisodeID string           `json:"episode_id"`
	Ticks     []record.Tick    `json:"ticks"`
	Episodes  []record.Summary `json:"episode_summaries"`
	Summary   ReplaySummary    `json:"summary"`
}

// Replay reads the log at path and returns the records matching filter.
// Step bounds apply to tick records only; episode summaries are selected
// by episode id.
func Replay(path string, filter Filter) (*ReplayResult, error) {
	ticks, sums, err := ReadTicks(path)
	if err != nil {
		return nil, err
	}

	result := &ReplayResult{EpisodeID: filter.EpisodeID}
	for _, t := range ticks {
		if filter.match(t.EpisodeID, t.Step) {
			result.Ticks = append(result.Ticks, t)
		}
	}
	for _, s := range sums {
		if filter.EpisodeID == "" || s.EpisodeID == filter.EpisodeID {
			result.Episodes = append(result.Episodes, s)
		}
	}
	result.Summary = summarize(result.Ticks)
	result.Summary.Summaries = len(result.Episodes)
	return result, nil
}

func summarize(ticks []record.Tick) ReplaySummary {
	var s ReplaySummary
	if len(ticks) == 0 {
		return s
	}
	hp := make([]float64, 0, len(ticks))
	for _, t := range ticks {
		s.Records++
		s.DamageIn += t.Combat.DmgInDelta
		s.DamageOut += t.Combat.DmgOutDelta
		s.Kills += t.Combat.KillsDelta
		hp = append(hp, float64(t.Health))
	}
	s.FirstStep, s.LastStep = ticks[0].Step, ticks[len(ticks)-1].Step
	s.FirstTime, s.LastTime = ticks[0].UnixTimeMs, ticks[len(ticks)-1].UnixTimeMs
	s.Health = healthStats(hp)
	return s
}

func healthStats(hp []float64) HealthStats {
	slices.Sort(hp)
	h := HealthStats{
		Min:  int(hp[0]),
		Max:  int(hp[len(hp)-1]),
		Mean: record.Float(record.Round2(stat.Mean(hp, nil))),
		P10:  quantile(0.1, hp),
		P50:  quantile(0.5, hp),
		P90:  quantile(0.9, hp),
	}
	if len(hp) > 1 {
		h.StdDev = record.Float(record.Round2(stat.StdDev(hp, nil)))
	}
	return h
}

// quantile expects sorted input.
func quantile(p float64, sorted []float64) record.Float {
	return record.Float(stat.Quantile(p, stat.Empirical, sorted, nil))
}

// String is a one-line description of the summary.
func (s ReplaySummary) String() string {
	return fmt.Sprintf("%d records, steps %d..%d, dmg in %d, dmg out %d, kills %d",
		s.Records, s.FirstStep, s.LastStep, s.DamageIn, s.DamageOut, s.Kills)
}
