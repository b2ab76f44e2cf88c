package scenario

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const cadenceFive = `
name: "cadence five"
recording:
  every: 5
  summary_in_log: true
run:
  policy: script
episodes:
  - ticks:
      - {health: 100}
      - {health: 100, attack: true}
      - {health: 95}
      - {health: 95}
      - {health: 90}
      - {health: 85}
      - {health: 85}
      - {health: 85}
      - {health: 80}
      - {health: 80}
      - {health: 75}
      - {health: 70}
expect:
  records: 2
  frames: 2
  steps: [5, 10]
  dmg_in: [0, 10]
  dmg_out: [10, 0]
  summaries:
    - {result: TIMEOUT, taken_total: 30, dealt_total: 10}
`

func TestCadenceFiveScenarioPasses(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "cadence.yaml", cadenceFive)

	result, err := LoadAndRun(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if result.Failed != 0 {
		t.Fatalf("expected all checks to pass:\n%s", FormatText([]*RunResult{result}))
	}
	// sink errors, checksums, records, frames, 3 series, summary count, 3 summary fields
	if result.Total != 11 {
		t.Errorf("expected 11 checks, got %d", result.Total)
	}
	if result.File != path {
		t.Errorf("expected file %s, got %s", path, result.File)
	}
}

func TestFailedExpectationDetected(t *testing.T) {
	dir := t.TempDir()
	bad := strings.Replace(cadenceFive, "dmg_in: [0, 10]", "dmg_in: [0, 5]", 1)
	path := writeScenario(t, dir, "bad.yaml", bad)

	result, err := LoadAndRun(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if result.Failed != 1 {
		t.Fatalf("expected 1 failure, got %d", result.Failed)
	}
	text := FormatText([]*RunResult{result})
	if !strings.Contains(text, "FAIL  cadence five") || !strings.Contains(text, "expected [0 5], got [0 10]") {
		t.Errorf("unexpected report:\n%s", text)
	}
}

func TestMissingVariablesUseDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "sparse.yaml", `
name: sparse
recording: {every: 1}
episodes:
  - ticks:
      - {health: 50, x: 0, y: 0}
      - {health: 50, x: 3, y: 4}
      - {health: 50, x: 6, y: 8, dead: true}
      - {health: 50, x: 9, y: 12}
expect:
  records: 3
  summaries:
    - {result: DIED, deaths: 1, path_len_m: 10.0}
`)
	result, err := LoadAndRun(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if result.Failed != 0 {
		t.Fatalf("sparse scenario failed:\n%s", FormatText([]*RunResult{result}))
	}
}

func TestInvalidScenarioConfigReported(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "invalid.yaml", `
name: invalid
run: {tick_repeat: 0}
episodes: [{ticks: [{health: 1}]}]
`)
	result, err := LoadAndRun(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if result.Failed != 1 || !strings.Contains(result.Error, "tick_repeat") {
		t.Fatalf("expected config error, got %+v", result)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := LoadAndRun(context.Background(), "/nonexistent/scenario.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
	dir := t.TempDir()
	path := writeScenario(t, dir, "broken.yaml", "episodes: [")
	if _, err := LoadAndRun(context.Background(), path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFormatJSON(t *testing.T) {
	results := []*RunResult{{Name: "x", Total: 1, Passed: 1, Checks: []CheckResult{{Index: 1, Name: "records", Passed: true}}}}
	out, err := FormatJSON(results)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"name": "records"`) {
		t.Errorf("unexpected json: %s", out)
	}
}
