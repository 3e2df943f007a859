package game

import "time"

// Combat decisions a defender may answer a prompt with.
const (
	DecisionAttack = "attack"
	DecisionEscape = "escape"
)

// Attack engages a player in the same room. A searching defender loses on
// the spot; anyone else gets a prompt and until the deadline to answer it.
func (m *Match) Attack(attackerID, targetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, err := m.actor(attackerID)
	if err != nil {
		return err
	}
	if targetID == a.ID {
		return ErrSelfTarget
	}
	d, ok := m.players[targetID]
	if !ok {
		return ErrUnknownTarget
	}
	if !d.Alive() {
		return Errorf(KindReference, CodeUnknownTarget, "%s is already dead.", d.Name)
	}
	if d.RoomID != a.RoomID {
		return ErrTargetNotHere
	}
	if d.Status == StatusInCombat {
		return Errorf(KindState, CodeTargetBusy, "%s is already fighting someone.", d.Name)
	}

	now := m.clock.Now()
	a.LastActionAt = now

	switch d.Status {
	case StatusSearching:
		m.abortSearch(d)
		m.award(a)
		m.toRoom(a.RoomID, EventCombatResult, CombatResultData{
			Outcome:    OutcomeAutoWin,
			AttackerID: a.ID,
			DefenderID: d.ID,
			WinnerID:   a.ID,
			LoserID:    d.ID,
		})
		m.kill(d, a.ID, "ambushed while searching")
		m.checkEnd()
		return nil

	case StatusDisconnected:
		// Nobody is there to answer; treat it as an immediate timeout.
		m.escapeAttempt(d, a)
		return nil
	}

	deadline := now.Add(m.rules.CombatResponseDeadline)
	a.Status, a.role, a.CombatPartner, a.CombatDeadline = StatusInCombat, roleAttacker, d.ID, deadline
	d.Status, d.role, d.CombatPartner, d.CombatDeadline = StatusInCombat, roleDefender, a.ID, deadline

	data := CombatInitiatedData{
		AttackerID:   a.ID,
		AttackerName: a.Name,
		DefenderID:   d.ID,
		DefenderName: d.Name,
		Deadline:     deadline,
	}
	m.toPlayer(d.ID, EventCombatInitiated, data)
	m.toPlayer(a.ID, EventCombatInitiated, data)

	defenderID, attackerID := d.ID, a.ID
	m.schedule(timerKey{kind: timerCombat, subject: d.ID}, m.rules.CombatResponseDeadline, func() {
		m.combatTimeout(defenderID, attackerID)
	})
	return nil
}

// Respond answers a combat prompt. Only the defender is prompted.
func (m *Match) Respond(playerID, decision, attackerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.players[playerID]
	if !ok {
		return ErrNotInMatch
	}
	if m.state != StateActive {
		return ErrNotActive
	}
	if d.Status != StatusInCombat || d.role != roleDefender {
		return ErrNotInCombat
	}
	if attackerID != "" && attackerID != d.CombatPartner {
		return Errorf(KindReference, CodeUnknownTarget, "You are not being attacked by that player.")
	}
	a, ok := m.players[d.CombatPartner]
	if !ok {
		return ErrNotInCombat
	}

	switch decision {
	case DecisionAttack:
		m.fight(a, d)
	case DecisionEscape:
		m.escapeAttempt(d, a)
	default:
		return Errorf(KindValidation, CodeInvalidDecision, "Answer with %q or %q.", DecisionAttack, DecisionEscape)
	}
	return nil
}

// Escape tries to flee an engagement through a random exit.
func (m *Match) Escape(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[playerID]
	if !ok {
		return ErrNotInMatch
	}
	if m.state != StateActive {
		return ErrNotActive
	}
	if p.Status != StatusInCombat || p.CombatPartner == "" {
		return ErrNotInCombat
	}
	partner, ok := m.players[p.CombatPartner]
	if !ok {
		return ErrNotInCombat
	}
	m.escapeAttempt(p, partner)
	return nil
}

// combatTimeout fires when a defender lets the deadline pass.
func (m *Match) combatTimeout(defenderID, attackerID string) {
	d, ok := m.players[defenderID]
	if !ok || d.CombatPartner != attackerID {
		return
	}
	a, ok := m.players[attackerID]
	if !ok {
		return
	}
	m.escapeAttempt(d, a)
}

// fight compares attack power. Ties go to the attacker.
func (m *Match) fight(a, d *Player) {
	m.disengage(a, d)

	ap, dp := a.AttackPower(), d.AttackPower()
	winner, loser := a, d
	if dp > ap {
		winner, loser = d, a
	}

	m.award(winner)
	m.toRoom(a.RoomID, EventCombatResult, CombatResultData{
		Outcome:       OutcomeFought,
		AttackerID:    a.ID,
		DefenderID:    d.ID,
		WinnerID:      winner.ID,
		LoserID:       loser.ID,
		AttackerPower: ap,
		DefenderPower: dp,
	})
	m.kill(loser, winner.ID, "slain in combat")
	m.checkEnd()
}

// escapeAttempt lets runner flee from partner. A room without exits or a
// failed draw kills the runner and counts as a win for the partner.
func (m *Match) escapeAttempt(runner, partner *Player) {
	attackerID, defenderID := partner.ID, runner.ID
	if runner.role == roleAttacker {
		attackerID, defenderID = runner.ID, partner.ID
	}
	m.disengage(runner, partner)

	from := runner.RoomID
	if len(m.graph.Exits(from)) > 0 && m.rnd.Float64() < m.rules.EscapeSuccessChance {
		dir, dest, _ := m.graph.RandomExit(from)
		m.toRoom(from, EventCombatResult, CombatResultData{
			Outcome:    OutcomeEscaped,
			AttackerID: attackerID,
			DefenderID: defenderID,
			RunnerID:   runner.ID,
			EscapedTo:  string(dir),
		})
		m.relocate(runner, dest, dir)
		return
	}

	m.award(partner)
	m.toRoom(from, EventCombatResult, CombatResultData{
		Outcome:    OutcomeEscapeDie,
		AttackerID: attackerID,
		DefenderID: defenderID,
		WinnerID:   partner.ID,
		LoserID:    runner.ID,
		RunnerID:   runner.ID,
	})
	m.kill(runner, partner.ID, "cut down while fleeing")
	m.checkEnd()
}

// cancelEngagement ends an engagement with no winner, used when the attacker
// drops out.
func (m *Match) cancelEngagement(p *Player) {
	partner, ok := m.players[p.CombatPartner]
	if !ok {
		m.cancelTimer(timerKey{kind: timerCombat, subject: p.ID})
		p.release()
		return
	}

	attackerID, defenderID := p.ID, partner.ID
	if p.role == roleDefender {
		attackerID, defenderID = partner.ID, p.ID
	}
	m.disengage(p, partner)
	m.toRoom(p.RoomID, EventCombatResult, CombatResultData{
		Outcome:    OutcomeCancelled,
		AttackerID: attackerID,
		DefenderID: defenderID,
	})
}

// disengage clears both sides of an engagement and its deadline.
func (m *Match) disengage(a, b *Player) {
	m.cancelTimer(timerKey{kind: timerCombat, subject: a.ID})
	m.cancelTimer(timerKey{kind: timerCombat, subject: b.ID})
	a.release()
	b.release()
}

func (m *Match) award(p *Player) {
	p.Strength += m.rules.StrengthGainPerWin
	p.Kills++
}

// kill marks a player dead and takes it off the board. The record stays in
// the match for the standings.
func (m *Match) kill(p *Player, killerID, cause string) {
	if !p.Alive() {
		return
	}
	if p.CombatPartner != "" {
		m.cancelEngagement(p)
	}
	m.cancelPlayerTimers(p.ID)
	p.SearchStartedAt = time.Time{}
	p.Status = StatusDead
	p.resumeStatus = ""

	m.graph.RemovePlayer(p.ID, p.RoomID)
	m.pub.Unsubscribe(RoomScope(m.id, p.RoomID), p.ID)
	m.broadcast(EventPlayerDied, PlayerDiedData{Player: p.brief(), KillerID: killerID, Cause: cause})
	m.log.Info("player died", "player", p.ID, "killer", killerID, "cause", cause)
}
