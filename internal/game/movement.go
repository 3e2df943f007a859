package game

import (
	"github.com/MichelPescina/JogoTesto/internal/world"
)

// actor resolves a player for an action that needs the match to be running
// and the player to be ready.
func (m *Match) actor(playerID string) (*Player, error) {
	p, ok := m.players[playerID]
	if !ok {
		return nil, ErrNotInMatch
	}
	if m.state != StateActive {
		return nil, ErrNotActive
	}
	if err := p.ready(m.clock.Now(), m.rules.ActionCooldown); err != nil {
		return nil, err
	}
	return p, nil
}

// Move walks the player through the exit named by raw, which may be any
// accepted direction alias.
func (m *Match) Move(playerID, raw string) (RoomView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.actor(playerID)
	if err != nil {
		return RoomView{}, err
	}
	dir, ok := world.NormalizeDirection(raw)
	if !ok {
		return RoomView{}, Errorf(KindValidation, CodeInvalidDir, "%q is not a direction.", raw)
	}
	dest, ok := m.graph.Exit(p.RoomID, dir)
	if !ok {
		return RoomView{}, Errorf(KindReference, CodeNoExit, "You cannot go %s from here.", dir)
	}

	m.relocate(p, dest, dir)
	p.LastActionAt = m.clock.Now()

	view, _ := m.describe(p.RoomID)
	return view, nil
}

// relocate moves a live player between rooms in one step and tells both
// rooms. The mover receives the new room description.
func (m *Match) relocate(p *Player, dest string, dir world.Direction) {
	from := p.RoomID

	m.graph.RemovePlayer(p.ID, from)
	m.pub.Unsubscribe(RoomScope(m.id, from), p.ID)
	m.toRoom(from, EventPlayerLeftRoom, RoomMoveData{Player: p.brief(), RoomID: from, Direction: string(dir)})

	p.RoomID = dest
	m.graph.AddPlayer(p.ID, dest)
	m.toRoom(dest, EventPlayerEnteredRoom, RoomMoveData{Player: p.brief(), RoomID: dest, Direction: string(dir.Opposite())})
	m.pub.Subscribe(RoomScope(m.id, dest), p.ID)

	m.sendRoom(p)
}
