package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

const defaultTickInterval = time.Second

type Config struct {
	TickInterval string           `json:"tick_interval"`
	World        string           `json:"world"`
	Rules        RulesConfig      `json:"rules"`
	Matches      MatchesConfig    `json:"matches"`
	Sessions     SessionsConfig   `json:"sessions"`
	Heartbeat    HeartbeatConfig  `json:"heartbeat"`
	Terminal     TerminalConfig   `json:"terminal"`
	Listeners    []ListenerConfig `json:"listeners"`
	HTTP         HTTPConfig       `json:"http"`
	Nats         NatsConfig       `json:"nats"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.TickInterval != "" {
		d, err := time.ParseDuration(c.TickInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing tick_interval: %w", err))
		} else if d < 100*time.Millisecond {
			el.Add(fmt.Errorf("tick_interval must be at least 100ms"))
		}
	}

	if c.World == "" {
		el.Add(fmt.Errorf("world is required"))
	}

	if len(c.Listeners) == 0 {
		el.Add(fmt.Errorf("at least one listener is required"))
	}
	for i, l := range c.Listeners {
		err := l.validate()
		if err != nil {
			el.Add(fmt.Errorf("listener %d: %w", i, err))
		}
	}

	el.Add(c.Rules.validate())
	el.Add(c.Matches.validate())
	el.Add(c.Sessions.validate())
	el.Add(c.Heartbeat.validate())
	el.Add(c.Terminal.validate())
	el.Add(c.HTTP.validate())
	el.Add(c.Nats.validate())

	return el.Err()
}

func (c *Config) tickInterval() time.Duration {
	d, err := time.ParseDuration(c.TickInterval)
	if err != nil || d <= 0 {
		return defaultTickInterval
	}
	return d
}

// parseOptionalDuration returns def when s is empty.
func parseOptionalDuration(name, s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", name, err)
	}
	return d, nil
}

type MatchesConfig struct {
	MaxMatches             int    `json:"max_matches"`
	FinishedMatchRetention string `json:"finished_match_retention"`
}

func (c *MatchesConfig) validate() error {
	el := errors.NewErrorList()

	if c.MaxMatches < 0 {
		el.Add(fmt.Errorf("max_matches must not be negative"))
	}
	if d, err := parseOptionalDuration("finished_match_retention", c.FinishedMatchRetention, 0); err != nil {
		el.Add(err)
	} else if d < 0 {
		el.Add(fmt.Errorf("finished_match_retention must not be negative"))
	}

	return el.Err()
}

type SessionsConfig struct {
	Expiry string `json:"expiry"`
}

func (c *SessionsConfig) validate() error {
	d, err := parseOptionalDuration("session expiry", c.Expiry, 0)
	if err != nil {
		return err
	}
	if d < 0 {
		return fmt.Errorf("session expiry must not be negative")
	}
	return nil
}

// TerminalConfig shapes telnet and ssh output. A zero width keeps the default.
type TerminalConfig struct {
	Width int `json:"width"`
}

func (c *TerminalConfig) validate() error {
	if c.Width < 0 {
		return fmt.Errorf("terminal width must not be negative")
	}
	return nil
}

type HTTPConfig struct {
	Addr string `json:"addr"`
}

func (c *HTTPConfig) validate() error {
	return nil
}

func (c *HTTPConfig) addr() string {
	if c.Addr == "" {
		return ":8080"
	}
	return c.Addr
}
