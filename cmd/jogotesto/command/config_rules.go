package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"

	"github.com/MichelPescina/JogoTesto/internal/game"
)

// RulesConfig overrides the stock match rules. Unset fields keep their
// defaults.
type RulesConfig struct {
	MaxPlayersPerMatch       *int     `json:"max_players_per_match,omitempty"`
	MinPlayersToStart        *int     `json:"min_players_to_start,omitempty"`
	CountdownDuration        string   `json:"countdown_duration,omitempty"`
	WeaponSearchDuration     string   `json:"weapon_search_duration,omitempty"`
	WeaponRespawnDelay       string   `json:"weapon_respawn_delay,omitempty"`
	DefaultWeaponSpawnChance *float64 `json:"default_weapon_spawn_chance,omitempty"`
	EscapeSuccessChance      *float64 `json:"escape_success_chance,omitempty"`
	ActionCooldown           string   `json:"action_cooldown,omitempty"`
	CombatResponseDeadline   string   `json:"combat_response_deadline,omitempty"`
	BasePlayerStrength       *int     `json:"base_player_strength,omitempty"`
	StrengthGainPerWin       *int     `json:"strength_gain_per_win,omitempty"`
	DisconnectGrace          string   `json:"disconnect_grace,omitempty"`
	MatchDurationCap         string   `json:"match_duration_cap,omitempty"`
}

func (c *RulesConfig) validate() error {
	_, err := c.BuildRules()
	return err
}

// BuildRules applies the overrides to game.DefaultRules and checks the result.
func (c *RulesConfig) BuildRules() (game.Rules, error) {
	r := game.DefaultRules()
	el := errors.NewErrorList()

	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setFloat := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	setDuration := func(dst *time.Duration, name, v string) {
		d, err := parseOptionalDuration(name, v, *dst)
		if err != nil {
			el.Add(err)
			return
		}
		*dst = d
	}

	setInt(&r.MaxPlayersPerMatch, c.MaxPlayersPerMatch)
	setInt(&r.MinPlayersToStart, c.MinPlayersToStart)
	setDuration(&r.CountdownDuration, "countdown_duration", c.CountdownDuration)
	setDuration(&r.WeaponSearchDuration, "weapon_search_duration", c.WeaponSearchDuration)
	setDuration(&r.WeaponRespawnDelay, "weapon_respawn_delay", c.WeaponRespawnDelay)
	setFloat(&r.DefaultWeaponSpawnChance, c.DefaultWeaponSpawnChance)
	setFloat(&r.EscapeSuccessChance, c.EscapeSuccessChance)
	setDuration(&r.ActionCooldown, "action_cooldown", c.ActionCooldown)
	setDuration(&r.CombatResponseDeadline, "combat_response_deadline", c.CombatResponseDeadline)
	setInt(&r.BasePlayerStrength, c.BasePlayerStrength)
	setInt(&r.StrengthGainPerWin, c.StrengthGainPerWin)
	setDuration(&r.DisconnectGrace, "disconnect_grace", c.DisconnectGrace)
	setDuration(&r.MatchDurationCap, "match_duration_cap", c.MatchDurationCap)

	if err := el.Err(); err != nil {
		return game.Rules{}, err
	}
	if err := r.Validate(); err != nil {
		return game.Rules{}, fmt.Errorf("rules: %w", err)
	}
	return r, nil
}
