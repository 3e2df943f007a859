package game

import (
	"time"
)

// Search starts looking for the weapon in the player's room. The player is
// vulnerable until the search completes.
func (m *Match) Search(playerID string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.actor(playerID)
	if err != nil {
		return time.Time{}, err
	}
	if _, ok := m.graph.Weapon(p.RoomID); !ok {
		return time.Time{}, ErrNoWeapon
	}

	now := m.clock.Now()
	p.Status = StatusSearching
	p.SearchStartedAt = now
	p.LastActionAt = now
	endsAt := now.Add(m.rules.WeaponSearchDuration)

	m.toRoom(p.RoomID, EventSearchStarted, SearchData{Player: p.brief(), EndsAt: endsAt})
	m.schedule(timerKey{kind: timerSearch, subject: p.ID}, m.rules.WeaponSearchDuration, func() {
		m.completeSearch(p.ID)
	})
	return endsAt, nil
}

// completeSearch settles a search. Only the first completion has an effect:
// a player who is no longer searching is left alone.
func (m *Match) completeSearch(playerID string) {
	m.cancelTimer(timerKey{kind: timerSearch, subject: playerID})

	p, ok := m.players[playerID]
	if !ok || p.Status != StatusSearching {
		return
	}
	p.Status = StatusAlive
	p.SearchStartedAt = time.Time{}

	w, ok := m.graph.TakeWeapon(p.RoomID)
	if !ok {
		m.toRoom(p.RoomID, EventSearchCompleted, SearchData{Player: p.brief()})
		return
	}
	p.Weapon = w

	m.toRoom(p.RoomID, EventSearchCompleted, SearchData{Player: p.brief(), Found: true, Weapon: w.View()})
	m.toPlayer(p.ID, EventWeaponFound, SearchData{Player: p.brief(), Found: true, Weapon: w.View()})
	m.log.Debug("weapon taken", "player", p.ID, "room", p.RoomID, "weapon", w.Template.Key)

	m.scheduleRespawn(p.RoomID)
}

// abortSearch ends a search without gain.
func (m *Match) abortSearch(p *Player) {
	m.cancelTimer(timerKey{kind: timerSearch, subject: p.ID})
	if p.Status == StatusSearching {
		p.Status = StatusAlive
	}
	p.SearchStartedAt = time.Time{}
}

func (m *Match) scheduleRespawn(roomID string) {
	key := timerKey{kind: timerRespawn, subject: roomID}
	if m.armed(key) {
		return
	}
	m.graph.MarkRespawn(roomID, m.clock.Now().Add(m.rules.WeaponRespawnDelay))
	m.schedule(key, m.rules.WeaponRespawnDelay, func() {
		m.respawn(roomID)
	})
}

// respawn rolls for a new weapon and keeps rolling every delay until one
// appears.
func (m *Match) respawn(roomID string) {
	if _, present := m.graph.Weapon(roomID); present {
		m.graph.MarkRespawn(roomID, time.Time{})
		return
	}
	if _, ok := m.graph.RollSpawn(roomID); !ok {
		m.scheduleRespawn(roomID)
		return
	}
	if view, ok := m.describe(roomID); ok {
		m.toRoom(roomID, EventRoomUpdate, view)
	}
}
