package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ppiankov/doomsat/internal/config"
)

const cadenceScenario = "../../scenarios/cadence.yaml"

// resetFlags restores every flag to its default so one command run does
// not leak values into the next.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

// recordCadence runs the cadence scenario and returns the log and frame paths.
func recordCadence(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	line := filepath.Join(dir, "t0.jsonl")
	frames := filepath.Join(dir, "fprime.bin")
	out, _, err := execute(t, "run", "--scenario", cadenceScenario, "--every", "5",
		"--t0-jsonl", line, "--fprime-frames", frames, "--log-level", "error")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{`"type": "episode_summary"`, `"result": "TIMEOUT"`, `"taken_total": 30`, `"dealt_total": 10`} {
		if !strings.Contains(out, want) {
			t.Errorf("run output missing %s:\n%s", want, out)
		}
	}
	return line, frames
}

func TestRunThenInspect(t *testing.T) {
	line, frames := recordCadence(t)

	out, _, err := execute(t, "log", "verify", line)
	if err != nil || !strings.Contains(out, "OK: 2 records, 0 summaries verified") {
		t.Fatalf("log verify = %q, %v", out, err)
	}

	out, _, err = execute(t, "frames", frames)
	if err != nil || !strings.Contains(out, "Frames: 2 | skipped 0 bytes in 0 resyncs") {
		t.Fatalf("frames = %q, %v", out, err)
	}

	out, _, err = execute(t, "frames", frames, "--format", "json")
	if err != nil || !strings.Contains(out, `"resyncs": 0`) {
		t.Fatalf("frames json = %q, %v", out, err)
	}

	out, _, err = execute(t, "validate", line)
	if err != nil || !strings.Contains(out, "OK: 2 lines conform") {
		t.Fatalf("validate = %q, %v", out, err)
	}

	out, _, err = execute(t, "replay", "--log", line)
	if err != nil || !strings.Contains(out, "Episode: all") || !strings.Contains(out, "Summary: 2 records, steps 5..10") {
		t.Fatalf("replay = %q, %v", out, err)
	}

	out, _, err = execute(t, "log", "tail", line, "-n", "1")
	if err != nil || !strings.Contains(out, `"step": 10`) || strings.Contains(out, `"step": 5`) {
		t.Fatalf("log tail = %q, %v", out, err)
	}
}

func TestExport(t *testing.T) {
	line, _ := recordCadence(t)

	out, _, err := execute(t, "export", "--log", line)
	if err != nil {
		t.Fatal(err)
	}
	rows := strings.Split(strings.TrimSpace(out), "\n")
	if len(rows) != 3 || !strings.HasPrefix(rows[0], "step,unix_time_ms,") {
		t.Fatalf("csv export = %q", out)
	}

	db := filepath.Join(t.TempDir(), "t0.db")
	if _, _, err := execute(t, "export", "--log", line, "--format", "sqlite", "--out", db); err != nil {
		t.Fatalf("sqlite export: %v", err)
	}
	if _, err := os.Stat(db); err != nil {
		t.Fatalf("database not created: %v", err)
	}

	if _, _, err := execute(t, "export", "--log", line, "--format", "parquet"); err == nil || errors.Is(err, errFailed) {
		t.Fatalf("unknown format error = %v", err)
	}
	if _, _, err := execute(t, "export", "--log", line, "--format", "sqlite"); err == nil {
		t.Fatal("sqlite export without --out accepted")
	}
}

func TestVerifyAndValidateFailures(t *testing.T) {
	line, _ := recordCadence(t)
	data, _ := os.ReadFile(line)
	tampered := strings.Replace(string(data), `"step":10`, `"step":11`, 1)
	_ = os.WriteFile(line, []byte(tampered+`{"type":"tier0_telemetry"}`+"\n"), 0o644)

	_, errOut, err := execute(t, "log", "verify", line)
	if !errors.Is(err, errFailed) || !strings.Contains(errOut, "FAILED at line 2: checksum mismatch") {
		t.Fatalf("log verify = %q, %v", errOut, err)
	}

	_, errOut, err = execute(t, "validate", line)
	if !errors.Is(err, errFailed) || !strings.Contains(errOut, "FAILED: 1 of 3 lines invalid") {
		t.Fatalf("validate = %q, %v", errOut, err)
	}
}

func TestCheckScenarios(t *testing.T) {
	out, _, err := execute(t, "check", "--scenario", "../../scenarios/*.yaml", "--log-level", "error")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	for _, want := range []string{"Checking 2 scenario files", "PASS  cadence five", "PASS  death restarts episode"} {
		if !strings.Contains(out, want) {
			t.Errorf("check output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "FAIL") {
		t.Errorf("shipped scenario failed:\n%s", out)
	}

	out, _, err = execute(t, "check", "--scenario", cadenceScenario, "--format", "json", "--log-level", "error")
	if err != nil || !strings.Contains(out, `"name": "cadence five"`) {
		t.Fatalf("check json = %q, %v", out, err)
	}
}

func TestCheckReportsFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrong.yaml")
	_ = os.WriteFile(path, []byte(`
name: wrong
recording: {every: 1}
episodes:
  - ticks:
      - {health: 100}
      - {health: 90}
expect:
  records: 5
`), 0o644)

	out, _, err := execute(t, "check", "--scenario", path, "--log-level", "error")
	if !errors.Is(err, errFailed) {
		t.Fatalf("check error = %v, want failure exit", err)
	}
	if !strings.Contains(out, "FAIL  wrong") || !strings.Contains(out, "expected 5, got 2") {
		t.Fatalf("check output:\n%s", out)
	}

	if _, _, err := execute(t, "check", "--scenario", filepath.Join(t.TempDir(), "*.yaml")); err == nil {
		t.Fatal("empty glob accepted")
	}
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	if err != nil || !strings.Contains(out, `"name": "doomsat"`) {
		t.Fatalf("version = %q, %v", out, err)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "warn", "json")
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "step", 5)
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"step":5`) {
		t.Fatalf("log output = %q", out)
	}

	for _, tt := range [][2]string{{"loud", "text"}, {"info", "xml"}} {
		if _, err := newLogger(&buf, tt[0], tt[1]); err == nil {
			t.Errorf("newLogger(%q, %q) accepted", tt[0], tt[1])
		}
	}
}

func TestApplyRunFlagsOnlyChanged(t *testing.T) {
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	cfg := config.Default()
	cfg.Recording.Every = 4
	cfg.Run.TickRepeat = 3

	if err := runCmd.Flags().Parse([]string{"--every", "7", "--policy", "idle"}); err != nil {
		t.Fatal(err)
	}
	applyRunFlags(runCmd, cfg)

	if cfg.Recording.Every != 7 || cfg.Run.Policy != "idle" {
		t.Fatalf("changed flags not applied: %+v", cfg.Run)
	}
	if cfg.Run.TickRepeat != 3 {
		t.Fatalf("unchanged flag overrode config: tick repeat %d", cfg.Run.TickRepeat)
	}
}
