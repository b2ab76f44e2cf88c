// Package export converts a Tier-0 log into tabular formats for analysis.
package export

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/ppiankov/doomsat/internal/engine"
	"github.com/ppiankov/doomsat/internal/record"
)

// Row is one tick record flattened to scalar columns.
type Row struct {
	Step        int     `csv:"step"`
	UnixTimeMs  int64   `csv:"unix_time_ms"`
	RunID       string  `csv:"run_id"`
	EpisodeID   string  `csv:"episode_id"`
	AlgoID      string  `csv:"algo_id"`
	Level       string  `csv:"level"`
	Health      int     `csv:"health"`
	Armor       int     `csv:"armor"`
	Weapon      int     `csv:"selected_weapon"`
	X           float64 `csv:"x"`
	Y           float64 `csv:"y"`
	YawDeg      float64 `csv:"yaw_deg"`
	DmgIn       int     `csv:"dmg_in_delta"`
	DmgOut      int     `csv:"dmg_out_delta"`
	Kills       int     `csv:"kills_delta"`
	AmmoPistol  int     `csv:"ammo_pistol"`
	AmmoShotgun int     `csv:"ammo_shotgun"`
	AmmoChain   int     `csv:"ammo_chaingun"`
	AmmoRocket  int     `csv:"ammo_rocket"`
	AmmoPlasma  int     `csv:"ammo_plasma"`
	AmmoBFG     int     `csv:"ammo_bfg"`
	CRC32C      string  `csv:"crc32c"`
}

// Rows flattens tick records.
func Rows(ticks []record.Tick) []Row {
	rows := make([]Row, 0, len(ticks))
	for _, t := range ticks {
		ammo := t.Resources.AmmoUsed
		rows = append(rows, Row{
			Step:        t.Step,
			UnixTimeMs:  t.UnixTimeMs,
			RunID:       t.RunID,
			EpisodeID:   t.EpisodeID,
			AlgoID:      t.AlgoID,
			Level:       t.Level,
			Health:      t.Health,
			Armor:       t.Armor,
			Weapon:      t.SelectedWeapon,
			X:           float64(t.Pose.X),
			Y:           float64(t.Pose.Y),
			YawDeg:      float64(t.Pose.YawDeg),
			DmgIn:       t.Combat.DmgInDelta,
			DmgOut:      t.Combat.DmgOutDelta,
			Kills:       t.Combat.KillsDelta,
			AmmoPistol:  ammo[engine.WeaponClasses[0]],
			AmmoShotgun: ammo[engine.WeaponClasses[1]],
			AmmoChain:   ammo[engine.WeaponClasses[2]],
			AmmoRocket:  ammo[engine.WeaponClasses[3]],
			AmmoPlasma:  ammo[engine.WeaponClasses[4]],
			AmmoBFG:     ammo[engine.WeaponClasses[5]],
			CRC32C:      t.CRC32C,
		})
	}
	return rows
}

// CSV writes the tick records as CSV with a header row.
func CSV(w io.Writer, ticks []record.Tick) error {
	if err := gocsv.Marshal(Rows(ticks), w); err != nil {
		return fmt.Errorf("export: write csv: %w", err)
	}
	return nil
}
