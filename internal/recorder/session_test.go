package recorder

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/doomsat/internal/checksum"
	"github.com/ppiankov/doomsat/internal/record"
	"github.com/ppiankov/doomsat/internal/sink"
	"github.com/ppiankov/doomsat/internal/snapshot"
)

var testMeta = record.Meta{
	RunID:     "42",
	EpisodeID: "7",
	AlgoID:    "linear-policy",
	Git:       "a1b2c3d",
	RNGSeed:   123456,
}

func fixedClock() func() time.Time {
	t := time.Unix(1700000000, 0)
	return func() time.Time {
		t = t.Add(250 * time.Millisecond)
		return t
	}
}

func openTest(t *testing.T, opts Options) (*Session, string, string) {
	t.Helper()
	dir := t.TempDir()
	if opts.LinePath == "" {
		opts.LinePath = filepath.Join(dir, "t0.jsonl")
	}
	if opts.FramePath == "" {
		opts.FramePath = filepath.Join(dir, "frames.bin")
	}
	if opts.Clock == nil {
		opts.Clock = fixedClock()
	}
	s, err := Open(testMeta, opts)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, opts.LinePath, opts.FramePath
}

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		v, err := checksum.VerifyLine(sc.Bytes())
		if err != nil || !v.Valid {
			t.Fatalf("line failed verification: %+v %v", v, err)
		}
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatal(err)
		}
		out = append(out, m)
	}
	return out
}

func combat(m map[string]any, key string) int {
	return int(m["combat"].(map[string]any)[key].(float64))
}

func TestCadenceFiveScenario(t *testing.T) {
	healths := []int{100, 100, 95, 95, 90, 85, 85, 85, 80, 80, 75, 70}
	s, linePath, framePath := openTest(t, Options{Every: 5})

	recorded := 0
	for i, h := range healths {
		if s.Observe(Observation{Step: i + 1, State: snapshot.Snapshot{Health: h, Weapon: 2}}) {
			recorded++
		}
	}
	sum, err := s.EndEpisode(EpisodeEnd{Result: record.ResultTimeout})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	if recorded != 2 {
		t.Fatalf("recorded %d ticks, want 2", recorded)
	}
	lines := readLines(t, linePath)
	if len(lines) != 2 {
		t.Fatalf("log has %d lines, want 2", len(lines))
	}
	if lines[0]["step"].(float64) != 5 || lines[1]["step"].(float64) != 10 {
		t.Fatalf("steps = %v, %v", lines[0]["step"], lines[1]["step"])
	}
	if combat(lines[0], "dmg_in_delta") != 0 || combat(lines[1], "dmg_in_delta") != 10 {
		t.Fatalf("dmg_in = %d, %d; want 0, 10", combat(lines[0], "dmg_in_delta"), combat(lines[1], "dmg_in_delta"))
	}

	scan, err := sink.ReadFrames(framePath)
	if err != nil {
		t.Fatal(err)
	}
	if len(scan.Frames) != 2 || scan.Frames[0].Health != 90 || scan.Frames[1].Health != 80 {
		t.Fatalf("frames = %+v", scan.Frames)
	}
	for i, f := range scan.Frames {
		if int64(f.Timestamp) != int64(lines[i]["unix_time"].(float64)) {
			t.Errorf("frame %d timestamp %d does not match record", i, f.Timestamp)
		}
	}

	if sum.Damage.TakenTotal != 30 {
		t.Fatalf("taken_total = %d, want 30", sum.Damage.TakenTotal)
	}
	if sum.Result != record.ResultTimeout || sum.DurationS != 0.04 {
		t.Fatalf("summary = %+v", sum)
	}
	if st := s.Stats(); st.Observed != 12 || st.Records != 2 || st.Frames != 2 || st.Episodes != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestFirstRecordHasNoDamageIn(t *testing.T) {
	s, linePath, _ := openTest(t, Options{Every: 1})
	s.Observe(Observation{Step: 1, State: snapshot.Snapshot{Health: 40}})
	s.Observe(Observation{Step: 2, State: snapshot.Snapshot{Health: 50}})
	s.Observe(Observation{Step: 3, State: snapshot.Snapshot{Health: 20}})
	s.Close()

	lines := readLines(t, linePath)
	want := []int{0, 0, 30}
	for i, w := range want {
		if got := combat(lines[i], "dmg_in_delta"); got != w {
			t.Errorf("line %d dmg_in = %d, want %d", i, got, w)
		}
	}
}

func TestInvalidMetaOpensNothing(t *testing.T) {
	dir := t.TempDir()
	line := filepath.Join(dir, "t0.jsonl")
	_, err := Open(record.Meta{RunID: "42"}, Options{Every: 1, LinePath: line})
	if !errors.Is(err, ErrInvalidMeta) {
		t.Fatalf("expected ErrInvalidMeta, got %v", err)
	}
	if _, err := os.Stat(line); !os.IsNotExist(err) {
		t.Fatal("log file created for invalid metadata")
	}
}

func TestDisabledRecordingTouchesNoFiles(t *testing.T) {
	dir := t.TempDir()
	line := filepath.Join(dir, "t0.jsonl")
	frames := filepath.Join(dir, "frames.bin")
	s, err := Open(testMeta, Options{Every: 0, LinePath: line, FramePath: frames})
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 20; i++ {
		if s.Observe(Observation{Step: i, State: snapshot.Snapshot{Health: 100}}) {
			t.Fatal("recorded with cadence 0")
		}
	}
	if _, err := s.EndEpisode(EpisodeEnd{}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	for _, p := range []string{line, frames} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s created with recording disabled", p)
		}
	}
}

func TestSinkFailureDisablesOnlyThatSink(t *testing.T) {
	s, _, framePath := openTest(t, Options{Every: 1})
	s.Observe(Observation{Step: 1, State: snapshot.Snapshot{Health: 100}})

	// Simulate a device failure on the line log.
	s.line.Close()

	s.Observe(Observation{Step: 2, State: snapshot.Snapshot{Health: 90}})
	s.Observe(Observation{Step: 3, State: snapshot.Snapshot{Health: 80}})

	if !errors.Is(s.Err(), sink.ErrClosed) {
		t.Fatalf("expected ErrClosed surfaced, got %v", s.Err())
	}
	if s.line != nil {
		t.Fatal("line sink should be disabled")
	}
	s.Close()

	scan, _ := sink.ReadFrames(framePath)
	if len(scan.Frames) != 3 {
		t.Fatalf("frame sink stopped: %d frames", len(scan.Frames))
	}
	if st := s.Stats(); st.Records != 1 || st.Frames != 3 {
		t.Fatalf("stats count unwritten records: %+v", st)
	}
}

func TestRecordsCountOnlyWrittenLines(t *testing.T) {
	dir := t.TempDir()
	frames := filepath.Join(dir, "frames.bin")
	s, err := Open(testMeta, Options{Every: 1, FramePath: frames})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	for i := 1; i <= 3; i++ {
		if !s.Observe(Observation{Step: i, State: snapshot.Snapshot{Health: 100}}) {
			t.Fatalf("step %d not on cadence", i)
		}
	}
	if st := s.Stats(); st.Records != 0 || st.Frames != 3 {
		t.Fatalf("frames-only session stats = %+v, want 0 records and 3 frames", st)
	}
}

func TestSummaryInLogAndEpisodeBaselines(t *testing.T) {
	s, linePath, _ := openTest(t, Options{Every: 0, SummaryInLog: true})

	ammo := map[string]int{"PISTOL": 0}
	dealt := 0
	step := 0
	for i := 0; i < 4; i++ {
		step++
		ammo["PISTOL"]++
		dealt += 10
		pose := snapshot.Snapshot{Health: 100, X: float64(i) * 3, Y: float64(i) * 4, HasPose: true, Kills: i}
		s.Observe(Observation{Step: step, State: pose, DamageDealt: dealt, AmmoUsed: ammo})
	}
	first, _ := s.EndEpisode(EpisodeEnd{})

	for i := 0; i < 2; i++ {
		step++
		ammo["PISTOL"]++
		dealt += 10
		s.Observe(Observation{Step: step, State: snapshot.Snapshot{Health: 50}, Dead: i == 1, DamageDealt: dealt, AmmoUsed: ammo})
	}
	second, _ := s.EndEpisode(EpisodeEnd{})
	s.Close()

	if first.Damage.DealtTotal != 40 || first.Resources.AmmoUsed["PISTOL"] != 4 {
		t.Fatalf("first episode totals: %+v", first)
	}
	if first.Nav.PathLenM != 15 || first.Kills != 3 || first.Deaths != 0 {
		t.Fatalf("first episode nav/kills: %+v", first)
	}
	if second.Damage.DealtTotal != 20 || second.Resources.AmmoUsed["PISTOL"] != 2 {
		t.Fatalf("second episode baselines not applied: %+v", second)
	}
	if second.Deaths != 1 || second.Result != record.ResultDied {
		t.Fatalf("second episode death: deaths=%d result=%s", second.Deaths, second.Result)
	}
	if second.Nav.PathLenM != 0 {
		t.Fatalf("path without pose should be 0, got %v", second.Nav.PathLenM)
	}

	lines := readLines(t, linePath)
	if len(lines) != 2 || lines[0]["type"] != record.TypeSummary {
		t.Fatalf("expected 2 summary lines, got %d", len(lines))
	}
}

func TestObserveAfterClose(t *testing.T) {
	s, _, _ := openTest(t, Options{Every: 1})
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if s.Observe(Observation{Step: 1}) {
		t.Fatal("recorded after close")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestBeginEpisodeSeedsBaseline(t *testing.T) {
	s, _, _ := openTest(t, Options{Every: 0})
	s.BeginEpisode(snapshot.Snapshot{Health: 100, HasPose: true})
	s.Observe(Observation{Step: 1, State: snapshot.Snapshot{Health: 70, X: 3, Y: 4, HasPose: true}})

	sum, err := s.EndEpisode(EpisodeEnd{Result: record.ResultTimeout})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Damage.TakenTotal != 30 || sum.Nav.PathLenM != 5 {
		t.Fatalf("first action lost: taken=%d path=%v", sum.Damage.TakenTotal, sum.Nav.PathLenM)
	}
	if st := s.Stats(); st.Observed != 1 {
		t.Fatalf("baseline counted as a step: %+v", st)
	}
}
