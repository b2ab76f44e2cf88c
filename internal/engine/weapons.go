package engine

import "strings"

// DefaultWeaponSlot is reported when the engine does not expose the
// selected weapon.
const DefaultWeaponSlot = 2

// WeaponClasses lists the ammo classes tracked in every record, in slot order.
var WeaponClasses = []string{"PISTOL", "SHOTGUN", "CHAINGUN", "ROCKET", "PLASMA", "BFG"}

var slotNames = map[int]string{
	2: "PISTOL",
	3: "SHOTGUN",
	4: "CHAINGUN",
	5: "ROCKET",
	6: "PLASMA",
	7: "BFG",
}

// nominalDamage is a per-shot damage proxy used for dealt-damage telemetry.
var nominalDamage = map[int]int{
	2: 10,
	3: 35,
	4: 12,
	5: 100,
	6: 20,
	7: 250,
}

var weaponSlots = map[string]int{
	"pistol":         2,
	"shotgun":        3,
	"chaingun":       4,
	"rocketlauncher": 5,
	"plasma":         6,
	"bfg":            7,
}

// SlotName returns the ammo class for a weapon slot. Unknown slots count
// as PISTOL.
func SlotName(slot int) string {
	if name, ok := slotNames[slot]; ok {
		return name
	}
	return "PISTOL"
}

// NominalDamage returns the per-shot damage proxy for a slot (10 if unknown).
func NominalDamage(slot int) int {
	if d, ok := nominalDamage[slot]; ok {
		return d
	}
	return 10
}

// WeaponSlot resolves a weapon name such as "shotgun" to its slot.
func WeaponSlot(name string) (int, bool) {
	slot, ok := weaponSlots[strings.ToLower(name)]
	return slot, ok
}

// ZeroAmmo returns an ammo-used map with every weapon class set to zero.
func ZeroAmmo() map[string]int {
	m := make(map[string]int, len(WeaponClasses))
	for _, c := range WeaponClasses {
		m[c] = 0
	}
	return m
}
