// Package world holds the immutable catalog of rooms and weapon templates
// shared by every match in the process.
package world

import (
	"fmt"
	"sort"

	"github.com/MichelPescina/JogoTesto/internal/storage"
)

// WeaponTemplate describes a kind of weapon that can spawn in a room.
type WeaponTemplate struct {
	Key         string  `json:"-" yaml:"-"`
	Name        string  `json:"name" yaml:"name"`
	Damage      int     `json:"damage" yaml:"damage"`
	Rarity      float64 `json:"rarity" yaml:"rarity"`
	Description string  `json:"description" yaml:"description"`
}

// Room is a node of the world graph. Exits reference rooms by id.
type Room struct {
	ID          string
	Name        string
	Description string
	Exits       map[Direction]string

	// SpawnChance is nil when the room defers to the configured default.
	SpawnChance *float64
}

// ExitDirections returns the room's exits in canonical order.
func (r *Room) ExitDirections() []Direction {
	dirs := make([]Direction, 0, len(r.Exits))
	for d := range r.Exits {
		dirs = append(dirs, d)
	}
	sort.Slice(dirs, func(i, j int) bool {
		return directionIndex(dirs[i]) < directionIndex(dirs[j])
	})
	return dirs
}

// Catalog is the read-only world loaded at startup.
type Catalog struct {
	rooms        map[string]*Room
	roomOrder    []string
	weapons      []*WeaponTemplate
	weaponsByKey map[string]*WeaponTemplate
	defaultSpawn string
}

// Load reads, validates and indexes the world file at path. JSON and YAML are
// both accepted.
func Load(path string) (*Catalog, error) {
	doc, err := storage.LoadFile[*Document](path)
	if err != nil {
		return nil, err
	}
	return NewCatalog(doc)
}

// NewCatalog validates doc and builds the lookup tables.
func NewCatalog(doc *Document) (*Catalog, error) {
	if doc == nil {
		return nil, fmt.Errorf("world document is nil")
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("validating world: %w", err)
	}

	c := &Catalog{
		rooms:        make(map[string]*Room, len(doc.Rooms)),
		weaponsByKey: make(map[string]*WeaponTemplate, len(doc.Weapons)),
		defaultSpawn: doc.DefaultSpawnRoom,
	}

	for id, spec := range doc.Rooms {
		room := &Room{
			ID:          id,
			Name:        spec.Name,
			Description: spec.Description,
			Exits:       make(map[Direction]string, len(spec.Exits)),
		}
		if spec.WeaponSpawnChance != nil {
			chance := *spec.WeaponSpawnChance
			room.SpawnChance = &chance
		}
		for raw, dest := range spec.Exits {
			dir, _ := NormalizeDirection(raw)
			room.Exits[dir] = dest
		}
		c.rooms[id] = room
		c.roomOrder = append(c.roomOrder, id)
	}
	sort.Strings(c.roomOrder)

	keys := make([]string, 0, len(doc.Weapons))
	for key := range doc.Weapons {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		w := *doc.Weapons[key]
		w.Key = key
		c.weapons = append(c.weapons, &w)
		c.weaponsByKey[key] = &w
	}

	return c, nil
}

// Room returns the room with the given id.
func (c *Catalog) Room(id string) (*Room, bool) {
	r, ok := c.rooms[id]
	return r, ok
}

// Rooms returns every room ordered by id.
func (c *Catalog) Rooms() []*Room {
	out := make([]*Room, 0, len(c.roomOrder))
	for _, id := range c.roomOrder {
		out = append(out, c.rooms[id])
	}
	return out
}

// Weapons returns the weapon templates ordered by key.
func (c *Catalog) Weapons() []*WeaponTemplate {
	out := make([]*WeaponTemplate, len(c.weapons))
	copy(out, c.weapons)
	return out
}

// Weapon returns the template with the given key.
func (c *Catalog) Weapon(key string) (*WeaponTemplate, bool) {
	w, ok := c.weaponsByKey[key]
	return w, ok
}

// DefaultSpawnRoom is where every player enters a match.
func (c *Catalog) DefaultSpawnRoom() string {
	return c.defaultSpawn
}
