package scenario

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ppiankov/doomsat/internal/record"
	"github.com/ppiankov/doomsat/internal/sink"
	"github.com/ppiankov/doomsat/internal/tlog"
)

// Run executes s with its outputs redirected into dir and evaluates the
// expectations against what was written. Checksum integrity of the log is
// always checked.
func Run(ctx context.Context, s *Scenario, dir string) *RunResult {
	result := &RunResult{Name: s.Name}

	cfg := s.Config
	cfg.Recording.JSONL = filepath.Join(dir, "t0.jsonl")
	cfg.Recording.Frames = filepath.Join(dir, "frames.bin")

	out, err := Execute(ctx, s, &cfg, nil)
	if err != nil {
		result.Error = err.Error()
		result.Failed = 1
		result.Total = 1
		return result
	}

	c := &checker{result: result}
	c.check("sink errors", "none", errString(out.SinkErr))

	ticks, sums, err := readLog(cfg.Recording.JSONL)
	if err != nil {
		result.Error = err.Error()
	}
	if fileExists(cfg.Recording.JSONL) {
		c.check("checksums", "valid", verdict(tlog.Verify(cfg.Recording.JSONL)))
	}

	e := s.Expect
	if e.Records != nil {
		c.check("records", strconv.Itoa(*e.Records), strconv.Itoa(len(ticks)))
	}
	if e.Frames != nil {
		n := 0
		if scan, err := sink.ReadFrames(cfg.Recording.Frames); err == nil {
			n = len(scan.Frames)
		}
		c.check("frames", strconv.Itoa(*e.Frames), strconv.Itoa(n))
	}
	c.series("steps", e.Steps, ticks, func(t record.Tick) int { return t.Step })
	c.series("dmg_in", e.DmgIn, ticks, func(t record.Tick) int { return t.Combat.DmgInDelta })
	c.series("dmg_out", e.DmgOut, ticks, func(t record.Tick) int { return t.Combat.DmgOutDelta })
	c.series("kills_delta", e.KillsDelta, ticks, func(t record.Tick) int { return t.Combat.KillsDelta })

	if len(e.Summaries) > 0 {
		// Summaries come from the session result, so they are checked
		// even when summary_in_log is off.
		got := out.Result.Summaries
		if len(sums) > 0 {
			got = sums
		}
		c.check("summaries", strconv.Itoa(len(e.Summaries)), strconv.Itoa(len(got)))
		for i, want := range e.Summaries {
			if i >= len(got) {
				break
			}
			c.summary(i+1, want, got[i])
		}
	}
	return result
}

// LoadAndRun loads a scenario file and runs it in a temporary directory.
func LoadAndRun(ctx context.Context, path string) (*RunResult, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	dir, err := os.MkdirTemp("", "doomsat-scenario-")
	if err != nil {
		return nil, fmt.Errorf("create scenario dir: %w", err)
	}
	defer os.RemoveAll(dir)

	result := Run(ctx, s, dir)
	result.File = path
	return result, nil
}

type checker struct {
	result *RunResult
}

func (c *checker) check(name, expected, actual string) {
	cr := CheckResult{
		Index:    len(c.result.Checks) + 1,
		Name:     name,
		Expected: expected,
		Actual:   actual,
		Passed:   expected == actual,
	}
	c.result.Total++
	if cr.Passed {
		c.result.Passed++
	} else {
		c.result.Failed++
	}
	c.result.Checks = append(c.result.Checks, cr)
}

func (c *checker) series(name string, want []int, ticks []record.Tick, field func(record.Tick) int) {
	if len(want) == 0 {
		return
	}
	got := make([]int, len(ticks))
	for i, t := range ticks {
		got[i] = field(t)
	}
	c.check(name, fmt.Sprint(want), fmt.Sprint(got))
}

func (c *checker) summary(n int, want SummaryExpect, got record.Summary) {
	prefix := fmt.Sprintf("summary %d ", n)
	if want.Result != "" {
		c.check(prefix+"result", want.Result, got.Result)
	}
	intField := func(name string, want *int, got int) {
		if want != nil {
			c.check(prefix+name, strconv.Itoa(*want), strconv.Itoa(got))
		}
	}
	intField("taken_total", want.TakenTotal, got.Damage.TakenTotal)
	intField("dealt_total", want.DealtTotal, got.Damage.DealtTotal)
	intField("kills", want.Kills, got.Kills)
	intField("deaths", want.Deaths, got.Deaths)
	if want.PathLenM != nil {
		c.check(prefix+"path_len_m", record.FormatFloat(*want.PathLenM), record.FormatFloat(float64(got.Nav.PathLenM)))
	}
}

func readLog(path string) ([]record.Tick, []record.Summary, error) {
	if !fileExists(path) {
		return nil, nil, nil
	}
	return tlog.ReadTicks(path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func verdict(v tlog.VerifyResult) string {
	if v.Valid {
		return "valid"
	}
	return fmt.Sprintf("line %d: %s", v.ErrorLine, v.Error)
}

func errString(err error) string {
	if err == nil {
		return "none"
	}
	return err.Error()
}
