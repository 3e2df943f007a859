package game

import (
	"time"

	"github.com/MichelPescina/JogoTesto/internal/clock"
)

type timerKind string

const (
	timerCountdown timerKind = "countdown"
	timerDuration  timerKind = "duration"
	timerSearch    timerKind = "search"
	timerCombat    timerKind = "combat"
	timerGrace     timerKind = "grace"
	timerRespawn   timerKind = "respawn"
)

// timerKey identifies a deadline. subject is a player id, a room id, or empty
// for match-wide timers. Arming a key replaces the previous timer.
type timerKey struct {
	kind    timerKind
	subject string
}

type scheduled struct {
	timer clock.Timer
	gen   uint64
}

// schedule arms fn to run after d inside the match lock. Must be called with
// m.mu held.
func (m *Match) schedule(key timerKey, d time.Duration, fn func()) {
	m.cancelTimer(key)

	m.timerGen++
	gen := m.timerGen
	entry := &scheduled{gen: gen}
	m.timers[key] = entry
	entry.timer = m.clock.AfterFunc(d, func() {
		m.fire(key, gen, fn)
	})
}

// fire runs a timer callback only if its handle is still the current one for
// its key. A stopped or replaced timer that slipped through does nothing.
func (m *Match) fire(key timerKey, gen uint64, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.timers[key]
	if !ok || cur.gen != gen {
		return
	}
	delete(m.timers, key)

	if m.state == StateFinished {
		return
	}
	fn()
}

// cancelTimer is idempotent. Must be called with m.mu held.
func (m *Match) cancelTimer(key timerKey) {
	if entry, ok := m.timers[key]; ok {
		if entry.timer != nil {
			entry.timer.Stop()
		}
		delete(m.timers, key)
	}
}

func (m *Match) cancelPlayerTimers(playerID string) {
	m.cancelTimer(timerKey{kind: timerSearch, subject: playerID})
	m.cancelTimer(timerKey{kind: timerCombat, subject: playerID})
	m.cancelTimer(timerKey{kind: timerGrace, subject: playerID})
}

func (m *Match) cancelAllTimers() {
	for key := range m.timers {
		m.cancelTimer(key)
	}
}

func (m *Match) armed(key timerKey) bool {
	_, ok := m.timers[key]
	return ok
}
