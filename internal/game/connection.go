package game

import "time"

// Disconnect marks a player linkless and arms the grace timer. Searches are
// abandoned; a prompted defender is treated as timed out and a dropped
// attacker calls the engagement off.
func (m *Match) Disconnect(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[playerID]
	if !ok {
		return ErrNotInMatch
	}
	if m.state == StateFinished || !p.Alive() || p.Status == StatusDisconnected {
		return nil
	}

	switch p.Status {
	case StatusSearching:
		m.abortSearch(p)
	case StatusInCombat:
		partner, ok := m.players[p.CombatPartner]
		switch {
		case !ok:
			m.cancelEngagement(p)
		case p.role == roleDefender:
			m.escapeAttempt(p, partner)
			if !p.Alive() {
				return nil
			}
		default:
			m.cancelEngagement(p)
		}
	}

	p.resumeStatus = p.Status
	p.Status = StatusDisconnected
	p.DisconnectedAt = m.clock.Now()

	m.toRoom(p.RoomID, EventPlayerDisconnected, ConnectionData{Player: p.brief()}, p.ID)
	m.log.Info("player disconnected", "player", p.ID, "grace", m.rules.DisconnectGrace)

	m.schedule(timerKey{kind: timerGrace, subject: p.ID}, m.rules.DisconnectGrace, func() {
		m.graceExpired(p.ID)
	})
	return nil
}

// Reconnect re-binds a player that presents its session token. The player's
// status is restored and it is sent the current room and match state.
func (m *Match) Reconnect(playerID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[playerID]
	if !ok {
		return NewError(KindSession, CodeSessionInvalid, "That player is not in this match.")
	}
	if p.SessionToken != token {
		return NewError(KindSession, CodeSessionMismatch, "The session token does not match that player.")
	}

	m.pub.Subscribe(MatchScope(m.id), p.ID)
	if p.Status == StatusDisconnected {
		m.cancelTimer(timerKey{kind: timerGrace, subject: p.ID})
		p.Status = p.resumeStatus
		if p.Status == "" {
			p.Status = StatusAlive
		}
		p.resumeStatus = ""
		p.DisconnectedAt = time.Time{}
		m.toRoom(p.RoomID, EventPlayerReconnected, ConnectionData{Player: p.brief()}, p.ID)
		m.log.Info("player reconnected", "player", p.ID)
	}
	if p.Alive() {
		m.pub.Subscribe(RoomScope(m.id, p.RoomID), p.ID)
	}

	m.sendRoom(p)
	m.toPlayer(p.ID, EventMatchStatus, m.status(p.ID))
	return nil
}

// graceExpired finalizes a player that never came back.
func (m *Match) graceExpired(playerID string) {
	p, ok := m.players[playerID]
	if !ok || p.Status != StatusDisconnected {
		return
	}

	switch m.state {
	case StateActive:
		m.kill(p, "", "disconnected")
		m.checkEnd()
	case StateWaiting, StateCountdown:
		m.removeWaiting(p)
	}
}
