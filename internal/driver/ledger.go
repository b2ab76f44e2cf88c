package driver

import (
	"maps"
	"time"

	"github.com/ppiankov/doomsat/internal/engine"
	"github.com/ppiankov/doomsat/internal/record"
)

// Ledger keeps session-cumulative combat counters. Each attack counts one
// round for the selected weapon class and adds its nominal damage.
type Ledger struct {
	ammo  map[string]int
	dealt int
}

// NewLedger returns a ledger with every weapon class at zero.
func NewLedger() *Ledger {
	return &Ledger{ammo: engine.ZeroAmmo()}
}

// Attack records one shot from the weapon in slot.
func (l *Ledger) Attack(slot int) {
	l.ammo[engine.SlotName(slot)]++
	l.dealt += engine.NominalDamage(slot)
}

// Dealt is the total nominal damage dealt.
func (l *Ledger) Dealt() int { return l.dealt }

// Ammo returns a copy of the per-class round counts.
func (l *Ledger) Ammo() map[string]int { return maps.Clone(l.ammo) }

// perfMeter averages the wall time of engine steps within an episode.
type perfMeter struct {
	total time.Duration
	n     int
}

func (p *perfMeter) add(d time.Duration) {
	p.total += d
	p.n++
}

func (p *perfMeter) performance() record.Performance {
	if p.n == 0 || p.total <= 0 {
		return record.Performance{}
	}
	ms := float64(p.total) / float64(time.Millisecond) / float64(p.n)
	return record.Performance{
		AvgFrameMs: record.Float(record.Round2(ms)),
		AvgFPS:     record.Float(record.Round2(1000 / ms)),
	}
}

func (p *perfMeter) reset() { *p = perfMeter{} }
