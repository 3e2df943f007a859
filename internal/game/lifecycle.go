package game

import (
	"time"
)

func (m *Match) startCountdown() {
	m.state = StateCountdown
	m.countdown = int((m.rules.CountdownDuration + time.Second - 1) / time.Second)
	m.broadcast(EventCountdownStarted, CountdownData{Remaining: m.countdown})
	m.log.Info("countdown started", "seconds", m.countdown)
	m.schedule(timerKey{kind: timerCountdown}, time.Second, m.countdownTick)
}

// countdownTick runs once a second. The last tick reports zero and starts the
// match.
func (m *Match) countdownTick() {
	if m.state != StateCountdown {
		return
	}
	m.countdown--
	m.broadcast(EventCountdownUpdate, CountdownData{Remaining: m.countdown})
	if m.countdown <= 0 {
		m.start()
		return
	}
	m.schedule(timerKey{kind: timerCountdown}, time.Second, m.countdownTick)
}

func (m *Match) cancelCountdown() {
	m.cancelTimer(timerKey{kind: timerCountdown})
	m.state = StateWaiting
	m.countdown = 0
	m.broadcast(EventCountdownCancelled, CountdownCancelledData{
		Players:    len(m.players),
		MinPlayers: m.rules.MinPlayersToStart,
	})
	m.log.Info("countdown cancelled", "players", len(m.players))
}

func (m *Match) start() {
	now := m.clock.Now()
	m.state = StateActive
	m.startedAt = now
	m.countdown = 0

	players := make([]PlayerView, 0, len(m.joinOrder))
	for _, id := range m.joinOrder {
		players = append(players, m.players[id].view())
	}
	m.broadcast(EventMatchStarted, MatchStartedData{
		StartedAt: now,
		EndsBy:    now.Add(m.rules.MatchDurationCap),
		Players:   players,
	})
	for _, id := range m.joinOrder {
		m.sendRoom(m.players[id])
	}

	m.schedule(timerKey{kind: timerDuration}, m.rules.MatchDurationCap, func() {
		m.finish(EndTimeout)
	})
	m.log.Info("match started", "players", len(m.players))

	// Someone may have dropped during the countdown.
	m.checkEnd()
}

func (m *Match) aliveCount() int {
	n := 0
	for _, p := range m.players {
		if p.Alive() {
			n++
		}
	}
	return n
}

// checkEnd finishes an active match once at most one player is left alive.
func (m *Match) checkEnd() {
	if m.state != StateActive {
		return
	}
	if m.aliveCount() <= 1 {
		m.finish(EndLastStanding)
	}
}

// Finish ends the match from outside, for shutdown or abandonment. It is a
// no-op on a finished match.
func (m *Match) Finish(reason EndReason) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finish(reason)
}

func (m *Match) finish(reason EndReason) {
	if m.state == StateFinished {
		return
	}

	m.cancelAllTimers()
	m.state = StateFinished
	m.reason = reason
	m.finishedAt = m.clock.Now()

	// Only a natural end crowns someone; two simultaneous deaths leave none.
	m.winner = ""
	if reason == EndLastStanding {
		for _, p := range m.players {
			if p.Alive() {
				m.winner = p.ID
			}
		}
	}

	data := MatchEndedData{
		Reason:    reason,
		WinnerID:  m.winner,
		Standings: m.standings(),
	}
	if w, ok := m.players[m.winner]; ok {
		data.WinnerName = w.Name
	}
	if !m.startedAt.IsZero() {
		data.Duration = m.finishedAt.Sub(m.startedAt).Round(time.Second).String()
	} else {
		data.Duration = "0s"
	}
	m.broadcast(EventMatchEnded, data)
	m.log.Info("match finished", "reason", reason, "winner", m.winner)
}
