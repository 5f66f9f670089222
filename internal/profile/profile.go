// Package profile holds resolved protocol parameters for one server version:
// the handshake greeting, per-family wire-format selectors, and the set of
// tile types that carry extra per-tile frame metadata. A profile is resolved
// before a session starts and is read-only for the session's lifetime.
package profile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Message family names used by the format selector. Families not listed
// here have a single wire layout across all supported versions.
const (
	FamilyPlayerControls = "player_controls"
	FamilyPlayerSpawn    = "player_spawn"
	FamilySyncPlayer     = "sync_player"
	FamilySyncEquipment  = "sync_equipment"
	FamilyPlayerBuffs    = "player_buffs"
)

// Profile is the resolved parameter set for one server version.
type Profile struct {
	// Name identifies the profile in logs and capture records.
	Name string `yaml:"name"`

	// Handshake is the greeting string sent in the connect message,
	// e.g. "Terraria279".
	Handshake string `yaml:"handshake"`

	// Formats selects the wire layout variant per message family.
	// Missing families default to variant 0.
	Formats map[string]int `yaml:"formats"`

	// TileFrameImportant lists tile type IDs that carry two extra i16
	// frame fields in tile sections. When empty the tile decoder runs
	// in degraded mode (bounds only, no tiles).
	TileFrameImportant []uint16 `yaml:"tile_frame_important"`

	frameImportant map[uint16]struct{}
}

// Load reads a profile from a YAML file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile file: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	if p.Handshake == "" {
		return nil, fmt.Errorf("profile %s: handshake string is required", path)
	}
	p.index()
	return &p, nil
}

// Default returns the built-in profile for the newest supported server
// version. TileFrameImportant is intentionally empty: without a resolved
// set the tile decoder stays in degraded mode rather than guessing.
func Default() *Profile {
	p := &Profile{
		Name:      "default",
		Handshake: "Terraria279",
		Formats: map[string]int{
			FamilyPlayerControls: 1,
			FamilyPlayerSpawn:    1,
			FamilySyncPlayer:     1,
			FamilySyncEquipment:  1,
			FamilyPlayerBuffs:    1,
		},
	}
	p.index()
	return p
}

// Legacy returns the built-in profile for old servers that predate the
// reworked layouts (variant 0 everywhere).
func Legacy() *Profile {
	p := &Profile{
		Name:      "legacy",
		Handshake: "Terraria155",
	}
	p.index()
	return p
}

func (p *Profile) index() {
	p.frameImportant = make(map[uint16]struct{}, len(p.TileFrameImportant))
	for _, id := range p.TileFrameImportant {
		p.frameImportant[id] = struct{}{}
	}
}

// Variant returns the wire layout variant for a message family, 0 when the
// family is not overridden.
func (p *Profile) Variant(family string) int {
	return p.Formats[family]
}

// FrameImportant reports whether tile type id carries extra frame fields.
func (p *Profile) FrameImportant(id uint16) bool {
	_, ok := p.frameImportant[id]
	return ok
}

// HasFrameImportant reports whether the profile carries a resolved
// tile-frame-important set at all.
func (p *Profile) HasFrameImportant() bool {
	return len(p.frameImportant) > 0
}
