package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/doomsat/internal/delta"
	"github.com/ppiankov/doomsat/internal/record"
	"github.com/ppiankov/doomsat/internal/snapshot"
)

var meta = record.Meta{RunID: "42", EpisodeID: "7", AlgoID: "linear-policy"}

func sampleTicks() []record.Tick {
	var ticks []record.Tick
	for i, h := range []int{100, 90, 75} {
		snap := snapshot.Snapshot{Health: h, Weapon: 3, X: float64(i), Y: 2.5}
		res := record.Resources{AmmoUsed: map[string]int{"SHOTGUN": i + 1}}
		t := record.BuildTick(meta, snap, delta.Deltas{DamageIn: i * 5}, (i+1)*5, res, time.Unix(1700000000+int64(i), 0))
		_ = t.Seal()
		ticks = append(ticks, t)
	}
	return ticks
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := CSV(&buf, sampleTicks()); err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header + 3", len(rows))
	}
	header := rows[0]
	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("missing column %s in %v", name, header)
		return -1
	}
	if rows[3][col("health")] != "75" || rows[3][col("step")] != "15" {
		t.Fatalf("last row = %v", rows[3])
	}
	if rows[2][col("ammo_shotgun")] != "2" || rows[2][col("dmg_in_delta")] != "5" {
		t.Fatalf("second row = %v", rows[2])
	}
	if rows[1][col("crc32c")] == "" {
		t.Fatal("checksum column empty")
	}
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t0.db")
	ticks := sampleTicks()
	sum := record.BuildSummary(meta, record.Final{Steps: 15, Result: record.ResultTimeout, DamageTaken: 25}, time.Unix(1700000010, 0))
	_ = sum.Seal()

	ctx := context.Background()
	if err := SQLite(ctx, path, ticks, []record.Summary{sum}); err != nil {
		t.Fatal(err)
	}
	// Loading again replaces ticks rather than duplicating them.
	if err := SQLite(ctx, path, ticks, nil); err != nil {
		t.Fatal(err)
	}

	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	var n, totalIn int
	if err := store.DB().QueryRow(`SELECT COUNT(*), SUM(dmg_in) FROM ticks WHERE episode_id = ?`, "7").Scan(&n, &totalIn); err != nil {
		t.Fatal(err)
	}
	if n != 3 || totalIn != 15 {
		t.Fatalf("ticks count=%d dmg_in=%d", n, totalIn)
	}

	var result string
	var taken int
	if err := store.DB().QueryRow(`SELECT result, taken_total FROM summaries`).Scan(&result, &taken); err != nil {
		t.Fatal(err)
	}
	if result != record.ResultTimeout || taken != 25 {
		t.Fatalf("summary row = %s %d", result, taken)
	}
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	if _, err := OpenSQLite(" "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
