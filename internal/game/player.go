package game

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/MichelPescina/JogoTesto/internal/world"
)

// Status is the single source of truth for what a player may do.
type Status string

const (
	StatusAlive        Status = "alive"
	StatusSearching    Status = "searching"
	StatusInCombat     Status = "in-combat-prompt"
	StatusDead         Status = "dead"
	StatusDisconnected Status = "disconnected"
)

const MaxNameLength = 20

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_\-. ]{1,20}$`)

var nameFolder = cases.Fold()

// ValidateName trims and checks a display name, returning the cleaned form.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", NewError(KindValidation, CodeInvalidName, "A name is required.")
	}
	if !namePattern.MatchString(name) {
		return "", Errorf(KindValidation, CodeInvalidName,
			"Names are 1-%d characters of letters, digits, spaces, '_', '-' or '.'.", MaxNameLength)
	}
	return name, nil
}

// FoldName returns the case-insensitive comparison key of a name.
func FoldName(name string) string {
	return nameFolder.String(strings.TrimSpace(name))
}

// WeaponInstance is one concrete spawn of a template. Instances are never
// shared: one lives in a room or in a player's hand.
type WeaponInstance struct {
	ID       string
	Template *world.WeaponTemplate
}

func (w *WeaponInstance) View() *WeaponView {
	if w == nil {
		return nil
	}
	return &WeaponView{
		ID:          w.ID,
		Key:         w.Template.Key,
		Name:        w.Template.Name,
		Damage:      w.Template.Damage,
		Description: w.Template.Description,
	}
}

type combatRole int

const (
	roleNone combatRole = iota
	roleAttacker
	roleDefender
)

// Player is the per-match record of a participant.
type Player struct {
	ID           string
	Name         string
	SessionToken string
	RoomID       string
	Strength     int
	Weapon       *WeaponInstance
	Status       Status
	Kills        int
	JoinedAt     time.Time
	LastActionAt time.Time

	// Zero when not searching.
	SearchStartedAt time.Time

	// Set for both participants of an engagement.
	CombatPartner  string
	CombatDeadline time.Time

	DisconnectedAt time.Time

	role         combatRole
	resumeStatus Status
}

// AttackPower is strength plus the damage of the equipped weapon.
func (p *Player) AttackPower() int {
	power := p.Strength
	if p.Weapon != nil {
		power += p.Weapon.Template.Damage
	}
	return power
}

// Alive reports whether the player still counts towards the survivors.
func (p *Player) Alive() bool {
	return p.Status != StatusDead
}

func (p *Player) brief() PlayerBrief {
	return PlayerBrief{ID: p.ID, Name: p.Name, Status: p.Status}
}

func (p *Player) view() PlayerView {
	return PlayerView{
		ID:       p.ID,
		Name:     p.Name,
		Status:   p.Status,
		Strength: p.Strength,
		Kills:    p.Kills,
		Weapon:   p.Weapon.View(),
	}
}

// ready enforces action gating: the player must be alive and the cooldown
// must have elapsed since the last accepted action.
func (p *Player) ready(now time.Time, cooldown time.Duration) error {
	switch p.Status {
	case StatusAlive:
	case StatusSearching:
		return ErrSearching
	case StatusInCombat:
		return Errorf(KindState, CodeNotReady, "You are locked in combat with someone.")
	case StatusDead:
		return Errorf(KindState, CodeNotReady, "You are dead.")
	case StatusDisconnected:
		return ErrDisconnected
	default:
		return fmt.Errorf("player %s has unknown status %q", p.ID, p.Status)
	}
	if !p.LastActionAt.IsZero() && now.Sub(p.LastActionAt) < cooldown {
		return ErrNotReady
	}
	return nil
}

// release clears the combat fields and returns the player to its idle status.
func (p *Player) release() {
	p.CombatPartner = ""
	p.CombatDeadline = time.Time{}
	p.role = roleNone
	switch p.Status {
	case StatusInCombat:
		p.Status = StatusAlive
	case StatusDisconnected:
		p.resumeStatus = StatusAlive
	}
}
