package tlog

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/doomsat/internal/engine"
)

const separator = "──────────────────────────────────────────────────────────────────"

// FormatTimeline renders a ReplayResult as a human-readable text timeline.
func FormatTimeline(result *ReplayResult) string {
	label := result.EpisodeID
	if label == "" {
		label = "all"
	}
	if len(result.Ticks) == 0 && len(result.Episodes) == 0 {
		return fmt.Sprintf("Episode: %s | No records found.\n", label)
	}

	var b strings.Builder
	s := result.Summary
	if s.Records > 0 {
		b.WriteString(fmt.Sprintf("Episode: %s | %s .. %s UTC\n", label,
			formatMillis(s.FirstTime, "2006-01-02 15:04:05"), formatMillis(s.LastTime, "15:04:05")))
	} else {
		b.WriteString(fmt.Sprintf("Episode: %s\n", label))
	}
	b.WriteString(separator + "\n")
	b.WriteString(fmt.Sprintf("%-8s %-12s %4s %4s %-9s %6s %7s %5s  %s\n",
		"STEP", "TIME", "HP", "AR", "WEAPON", "DMG_IN", "DMG_OUT", "KILLS", "POSE"))

	for _, t := range result.Ticks {
		b.WriteString(fmt.Sprintf("%-8d %-12s %4d %4d %-9s %6d %7d %5d  (%.1f, %.1f) %.0f°\n",
			t.Step, formatMillis(t.UnixTimeMs, "15:04:05.000"), t.Health, t.Armor,
			engine.SlotName(t.SelectedWeapon), t.Combat.DmgInDelta, t.Combat.DmgOutDelta,
			t.Combat.KillsDelta, float64(t.Pose.X), float64(t.Pose.Y), float64(t.Pose.YawDeg)))
	}

	for _, e := range result.Episodes {
		b.WriteString(fmt.Sprintf("%-8s %-12s result=%s duration=%ss taken=%d dealt=%d kills=%d path=%sm\n",
			"SUMMARY", formatSeconds(e.UnixTime), e.Result, fmtFloat(float64(e.DurationS)),
			e.Damage.TakenTotal, e.Damage.DealtTotal, e.Kills, fmtFloat(float64(e.Nav.PathLenM))))
	}

	b.WriteString(separator + "\n")
	b.WriteString(formatSummary(s))
	return b.String()
}

// FormatJSON renders a ReplayResult as indented JSON.
func FormatJSON(result *ReplayResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal replay result: %w", err)
	}
	return string(data), nil
}

func formatSummary(s ReplaySummary) string {
	line := fmt.Sprintf("Summary: %s", s)
	if s.Records > 0 {
		h := s.Health
		line += fmt.Sprintf(" | HP mean %s sd %s p10/p50/p90 %s/%s/%s",
			fmtFloat(float64(h.Mean)), fmtFloat(float64(h.StdDev)),
			fmtFloat(float64(h.P10)), fmtFloat(float64(h.P50)), fmtFloat(float64(h.P90)))
	}
	if s.Summaries > 0 {
		line += fmt.Sprintf(" | %d episode summaries", s.Summaries)
	}
	return line + "\n"
}

func formatMillis(ms int64, layout string) string {
	return time.UnixMilli(ms).UTC().Format(layout)
}

func formatSeconds(sec int64) string {
	return time.Unix(sec, 0).UTC().Format("15:04:05")
}

func fmtFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
