package engine

import (
	"errors"
	"fmt"
	"log/slog"
)

// DebugAids are best-effort console commands applied at episode start.
type DebugAids struct {
	GiveAll bool
	InfAmmo bool
	Turbo   int
	HPFloor int
}

// Commands returns the console commands for the configured aids, in the
// order they are sent.
func (d DebugAids) Commands() []string {
	var cmds []string
	if d.GiveAll {
		cmds = append(cmds, "give all")
	}
	if d.InfAmmo {
		cmds = append(cmds, "sv_infiniteammo true")
	}
	if d.Turbo > 0 {
		cmds = append(cmds, fmt.Sprintf("turbo %d", d.Turbo))
	}
	if d.HPFloor > 0 {
		cmds = append(cmds, fmt.Sprintf("give health %d", d.HPFloor))
		cmds = append(cmds, fmt.Sprintf("give armor %d", min(200, d.HPFloor)))
	}
	return cmds
}

// ApplyDebugAids sends every aid command, logging each failure at warn
// level. All commands are attempted; the joined error is returned so the
// caller decides whether to ignore it.
func ApplyDebugAids(c Controller, aids DebugAids, logger *slog.Logger) error {
	return sendAll(c, aids.Commands(), logger)
}

// SelectWeapon switches to the named weapon via "slot N". Unknown names
// are a no-op.
func SelectWeapon(c Controller, name string, logger *slog.Logger) error {
	slot, ok := WeaponSlot(name)
	if !ok {
		return nil
	}
	return sendAll(c, []string{fmt.Sprintf("slot %d", slot)}, logger)
}

func sendAll(c Controller, cmds []string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	var errs []error
	for _, cmd := range cmds {
		if err := c.Command(cmd); err != nil {
			logger.Warn("console command failed", "command", cmd, "error", err)
			errs = append(errs, fmt.Errorf("engine: command %q: %w", cmd, err))
		}
	}
	return errors.Join(errs...)
}
