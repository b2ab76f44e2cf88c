// Package delta turns cumulative combat counters into per-record deltas.
package delta

// Deltas are the non-negative combat changes since the previous update.
type Deltas struct {
	DamageIn  int
	DamageOut int
	Kills     int
}

// Tracker keeps the previous-update baseline. The zero value is ready to
// use; it has no health baseline, so the first update reports zero damage in.
type Tracker struct {
	hasHealth  bool
	prevHealth int
	prevDealt  int
	prevKills  int
}

// Update diffs the current values against the baseline, clamping every
// delta at zero, and stores the current values as the new baseline.
func (t *Tracker) Update(health, dealtTotal, kills int) Deltas {
	var d Deltas
	if t.hasHealth {
		d.DamageIn = max(0, t.prevHealth-health)
	}
	d.DamageOut = max(0, dealtTotal-t.prevDealt)
	d.Kills = max(0, kills-t.prevKills)

	t.hasHealth = true
	t.prevHealth = health
	t.prevDealt = dealtTotal
	t.prevKills = kills
	return d
}
