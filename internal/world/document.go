package world

import (
	"fmt"
	"sort"

	"github.com/pixil98/go-errors"

	"github.com/MichelPescina/JogoTesto/internal/storage"
)

// RoomSpec is a room as written in the world file.
type RoomSpec struct {
	ID                string            `json:"id,omitempty" yaml:"id,omitempty"`
	Name              string            `json:"name" yaml:"name"`
	Description       string            `json:"description" yaml:"description"`
	Exits             map[string]string `json:"exits" yaml:"exits"`
	WeaponSpawnChance *float64          `json:"weapon_spawn_chance,omitempty" yaml:"weapon_spawn_chance,omitempty"`
}

// Document is the on-disk world description.
type Document struct {
	Rooms            map[string]*RoomSpec       `json:"rooms" yaml:"rooms"`
	Weapons          map[string]*WeaponTemplate `json:"weapons" yaml:"weapons"`
	DefaultSpawnRoom string                     `json:"default_spawn_room" yaml:"default_spawn_room"`
}

// Validate satisfies storage.ValidatingSpec. Every violation is reported.
func (d *Document) Validate() error {
	el := errors.NewErrorList()

	if len(d.Rooms) == 0 {
		el.Add(fmt.Errorf("at least one room is required"))
	}
	if len(d.Weapons) == 0 {
		el.Add(fmt.Errorf("at least one weapon is required"))
	}

	if d.DefaultSpawnRoom == "" {
		el.Add(fmt.Errorf("default_spawn_room is required"))
	} else if _, ok := d.Rooms[d.DefaultSpawnRoom]; !ok {
		el.Add(fmt.Errorf("default_spawn_room %q does not exist", d.DefaultSpawnRoom))
	}

	for _, id := range sortedKeys(d.Rooms) {
		el.Add(d.validateRoom(id, d.Rooms[id]))
	}

	for _, key := range sortedKeys(d.Weapons) {
		w := d.Weapons[key]
		if w == nil {
			el.Add(fmt.Errorf("weapon %q: definition is empty", key))
			continue
		}
		if w.Name == "" {
			el.Add(fmt.Errorf("weapon %q: name is required", key))
		}
		if w.Damage <= 0 {
			el.Add(fmt.Errorf("weapon %q: damage must be positive", key))
		}
		if w.Rarity <= 0 {
			el.Add(fmt.Errorf("weapon %q: rarity must be positive", key))
		}
	}

	return el.Err()
}

func (d *Document) validateRoom(id string, r *RoomSpec) error {
	el := errors.NewErrorList()

	if r == nil {
		el.Add(fmt.Errorf("room %q: definition is empty", id))
		return el.Err()
	}
	if !storage.Identifier(id).Valid() {
		el.Add(fmt.Errorf("room %q: id must contain only letters, digits, '-' or '_'", id))
	}
	if r.ID != "" && r.ID != id {
		el.Add(fmt.Errorf("room %q: id field %q does not match its key", id, r.ID))
	}
	if r.Name == "" {
		el.Add(fmt.Errorf("room %q: name is required", id))
	}
	if c := r.WeaponSpawnChance; c != nil && (*c < 0 || *c > 1) {
		el.Add(fmt.Errorf("room %q: weapon_spawn_chance %v must be within [0,1]", id, *c))
	}

	seen := map[Direction]string{}
	for _, raw := range sortedKeys(r.Exits) {
		dest := r.Exits[raw]
		dir, ok := NormalizeDirection(raw)
		if !ok {
			el.Add(fmt.Errorf("room %q: exit %q is not a known direction", id, raw))
			continue
		}
		if prev, dup := seen[dir]; dup {
			el.Add(fmt.Errorf("room %q: exits %q and %q both lead %s", id, prev, raw, dir))
			continue
		}
		seen[dir] = raw
		if _, ok := d.Rooms[dest]; !ok {
			el.Add(fmt.Errorf("room %q: exit %s leads to unknown room %q", id, raw, dest))
		}
	}

	return el.Err()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
