package game

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

// Rules are the tunable numbers of a match.
type Rules struct {
	MaxPlayersPerMatch       int
	MinPlayersToStart        int
	CountdownDuration        time.Duration
	WeaponSearchDuration     time.Duration
	WeaponRespawnDelay       time.Duration
	DefaultWeaponSpawnChance float64
	EscapeSuccessChance      float64
	ActionCooldown           time.Duration
	CombatResponseDeadline   time.Duration
	BasePlayerStrength       int
	StrengthGainPerWin       int
	DisconnectGrace          time.Duration
	MatchDurationCap         time.Duration
}

// DefaultRules returns the stock rule set.
func DefaultRules() Rules {
	return Rules{
		MaxPlayersPerMatch:       20,
		MinPlayersToStart:        2,
		CountdownDuration:        10 * time.Second,
		WeaponSearchDuration:     2 * time.Second,
		WeaponRespawnDelay:       5 * time.Second,
		DefaultWeaponSpawnChance: 0.3,
		EscapeSuccessChance:      0.5,
		ActionCooldown:           100 * time.Millisecond,
		CombatResponseDeadline:   10 * time.Second,
		BasePlayerStrength:       10,
		StrengthGainPerWin:       1,
		DisconnectGrace:          60 * time.Second,
		MatchDurationCap:         30 * time.Minute,
	}
}

// Validate checks the rules are internally consistent.
func (r Rules) Validate() error {
	el := errors.NewErrorList()

	if r.MinPlayersToStart < 1 {
		el.Add(fmt.Errorf("min players to start must be at least 1"))
	}
	if r.MaxPlayersPerMatch < r.MinPlayersToStart {
		el.Add(fmt.Errorf("max players per match (%d) must be at least min players to start (%d)", r.MaxPlayersPerMatch, r.MinPlayersToStart))
	}
	if r.CountdownDuration < time.Second {
		el.Add(fmt.Errorf("countdown duration must be at least 1s"))
	}
	if r.WeaponSearchDuration <= 0 {
		el.Add(fmt.Errorf("weapon search duration must be positive"))
	}
	if r.WeaponRespawnDelay <= 0 {
		el.Add(fmt.Errorf("weapon respawn delay must be positive"))
	}
	if r.DefaultWeaponSpawnChance < 0 || r.DefaultWeaponSpawnChance > 1 {
		el.Add(fmt.Errorf("default weapon spawn chance must be within [0,1]"))
	}
	if r.EscapeSuccessChance < 0 || r.EscapeSuccessChance > 1 {
		el.Add(fmt.Errorf("escape success chance must be within [0,1]"))
	}
	if r.ActionCooldown < 0 {
		el.Add(fmt.Errorf("action cooldown must not be negative"))
	}
	if r.CombatResponseDeadline <= 0 {
		el.Add(fmt.Errorf("combat response deadline must be positive"))
	}
	if r.BasePlayerStrength < 1 {
		el.Add(fmt.Errorf("base player strength must be at least 1"))
	}
	if r.StrengthGainPerWin < 0 {
		el.Add(fmt.Errorf("strength gain per win must not be negative"))
	}
	if r.DisconnectGrace <= 0 {
		el.Add(fmt.Errorf("disconnect grace must be positive"))
	}
	if r.MatchDurationCap <= r.CountdownDuration {
		el.Add(fmt.Errorf("match duration cap must be longer than the countdown"))
	}

	return el.Err()
}
