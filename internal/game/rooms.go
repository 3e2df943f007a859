package game

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/MichelPescina/JogoTesto/internal/world"
)

type roomState struct {
	room      *world.Room
	players   map[string]struct{}
	weapon    *WeaponInstance
	respawnAt time.Time
}

// RoomGraph is one match's mutable copy of the world. Exits are room ids
// resolved through the catalog, so cycles need no special care.
type RoomGraph struct {
	catalog       *world.Catalog
	defaultChance float64
	rnd           Random
	rooms         map[string]*roomState
}

// NewRoomGraph materializes every catalog room with no players and no weapon.
func NewRoomGraph(catalog *world.Catalog, defaultChance float64, rnd Random) *RoomGraph {
	if rnd == nil {
		rnd = defaultRandom{}
	}
	g := &RoomGraph{
		catalog:       catalog,
		defaultChance: defaultChance,
		rnd:           rnd,
		rooms:         make(map[string]*roomState),
	}
	for _, r := range catalog.Rooms() {
		g.rooms[r.ID] = &roomState{room: r, players: map[string]struct{}{}}
	}
	return g
}

// Has reports whether roomID is part of the graph.
func (g *RoomGraph) Has(roomID string) bool {
	_, ok := g.rooms[roomID]
	return ok
}

// RoomIDs returns every room id in sorted order.
func (g *RoomGraph) RoomIDs() []string {
	ids := make([]string, 0, len(g.rooms))
	for id := range g.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (g *RoomGraph) AddPlayer(playerID, roomID string) bool {
	rs, ok := g.rooms[roomID]
	if !ok {
		return false
	}
	rs.players[playerID] = struct{}{}
	return true
}

func (g *RoomGraph) RemovePlayer(playerID, roomID string) bool {
	rs, ok := g.rooms[roomID]
	if !ok {
		return false
	}
	if _, present := rs.players[playerID]; !present {
		return false
	}
	delete(rs.players, playerID)
	return true
}

// Players returns the ids present in a room, sorted.
func (g *RoomGraph) Players(roomID string) []string {
	rs, ok := g.rooms[roomID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(rs.players))
	for id := range rs.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Exit returns the destination of the exit leading dir from roomID.
func (g *RoomGraph) Exit(roomID string, dir world.Direction) (string, bool) {
	rs, ok := g.rooms[roomID]
	if !ok {
		return "", false
	}
	dest, ok := rs.room.Exits[dir]
	return dest, ok
}

// Exits returns the exit directions of a room in canonical order.
func (g *RoomGraph) Exits(roomID string) []world.Direction {
	rs, ok := g.rooms[roomID]
	if !ok {
		return nil
	}
	return rs.room.ExitDirections()
}

// RandomExit picks one of the room's exits uniformly.
func (g *RoomGraph) RandomExit(roomID string) (world.Direction, string, bool) {
	dirs := g.Exits(roomID)
	if len(dirs) == 0 {
		return "", "", false
	}
	dir := dirs[g.rnd.IntN(len(dirs))]
	dest, _ := g.Exit(roomID, dir)
	return dir, dest, true
}

// Weapon returns the weapon lying in a room.
func (g *RoomGraph) Weapon(roomID string) (*WeaponInstance, bool) {
	rs, ok := g.rooms[roomID]
	if !ok || rs.weapon == nil {
		return nil, false
	}
	return rs.weapon, true
}

// SpawnChance is the room's own chance, or the default when it has none.
func (g *RoomGraph) SpawnChance(roomID string) float64 {
	rs, ok := g.rooms[roomID]
	if !ok {
		return 0
	}
	if rs.room.SpawnChance != nil {
		return *rs.room.SpawnChance
	}
	return g.defaultChance
}

// RollSpawn places a weapon when the room is empty of weapons and a uniform
// draw falls below its spawn chance. The template is picked with weights
// proportional to rarity.
func (g *RoomGraph) RollSpawn(roomID string) (*WeaponInstance, bool) {
	rs, ok := g.rooms[roomID]
	if !ok || rs.weapon != nil {
		return nil, false
	}
	if g.rnd.Float64() >= g.SpawnChance(roomID) {
		return nil, false
	}

	tmpl := g.pickTemplate()
	if tmpl == nil {
		return nil, false
	}
	rs.weapon = &WeaponInstance{ID: uuid.NewString(), Template: tmpl}
	rs.respawnAt = time.Time{}
	return rs.weapon, true
}

func (g *RoomGraph) pickTemplate() *world.WeaponTemplate {
	templates := g.catalog.Weapons()
	total := 0.0
	for _, t := range templates {
		total += t.Rarity
	}
	if total <= 0 {
		return nil
	}

	target := g.rnd.Float64() * total
	for _, t := range templates {
		target -= t.Rarity
		if target < 0 {
			return t
		}
	}
	return templates[len(templates)-1]
}

// TakeWeapon removes and returns the room's weapon in one step.
func (g *RoomGraph) TakeWeapon(roomID string) (*WeaponInstance, bool) {
	rs, ok := g.rooms[roomID]
	if !ok || rs.weapon == nil {
		return nil, false
	}
	w := rs.weapon
	rs.weapon = nil
	return w, true
}

// MarkRespawn records when the room will next roll for a weapon.
func (g *RoomGraph) MarkRespawn(roomID string, at time.Time) {
	if rs, ok := g.rooms[roomID]; ok {
		rs.respawnAt = at
	}
}

// RespawnAt returns the pending respawn deadline, if any.
func (g *RoomGraph) RespawnAt(roomID string) (time.Time, bool) {
	rs, ok := g.rooms[roomID]
	if !ok || rs.respawnAt.IsZero() {
		return time.Time{}, false
	}
	return rs.respawnAt, true
}

// Describe builds the room snapshot sent in room-update. brief resolves the
// present player ids.
func (g *RoomGraph) Describe(roomID string, brief func(id string) (PlayerBrief, bool)) (RoomView, bool) {
	rs, ok := g.rooms[roomID]
	if !ok {
		return RoomView{}, false
	}

	view := RoomView{
		ID:          rs.room.ID,
		Name:        rs.room.Name,
		Description: rs.room.Description,
		Exits:       []string{},
		Players:     []PlayerBrief{},
		Weapon:      rs.weapon.View(),
	}
	for _, d := range rs.room.ExitDirections() {
		view.Exits = append(view.Exits, string(d))
	}
	for _, id := range g.Players(roomID) {
		if b, ok := brief(id); ok {
			view.Players = append(view.Players, b)
		}
	}
	return view, true
}
