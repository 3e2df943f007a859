package command

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

func validConfig() Config {
	return Config{
		World:     "data/world.json",
		Listeners: []ListenerConfig{{Protocol: ListenerTypeWebsocket, Port: 8081}},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := map[string]struct {
		mutate func(*Config)
		expErr string
	}{
		"minimal": {
			mutate: func(*Config) {},
		},
		"bad tick": {
			mutate: func(c *Config) { c.TickInterval = "soon" },
			expErr: "parsing tick_interval",
		},
		"tick too short": {
			mutate: func(c *Config) { c.TickInterval = "10ms" },
			expErr: "tick_interval must be at least 100ms",
		},
		"missing world": {
			mutate: func(c *Config) { c.World = "" },
			expErr: "world is required",
		},
		"no listeners": {
			mutate: func(c *Config) { c.Listeners = nil },
			expErr: "at least one listener is required",
		},
		"listener without port": {
			mutate: func(c *Config) { c.Listeners[0].Port = 0 },
			expErr: "listener 0: port must be set",
		},
		"host key on telnet": {
			mutate: func(c *Config) {
				c.Listeners = append(c.Listeners, ListenerConfig{Protocol: ListenerTypeTelnet, Port: 4000, HostKeyPath: "key"})
			},
			expErr: "listener 1: host_key_path only applies to ssh listeners",
		},
		"rules out of range": {
			mutate: func(c *Config) {
				chance := 1.5
				c.Rules.EscapeSuccessChance = &chance
			},
			expErr: "escape success chance must be within [0,1]",
		},
		"negative max matches": {
			mutate: func(c *Config) { c.Matches.MaxMatches = -1 },
			expErr: "max_matches must not be negative",
		},
		"bad retention": {
			mutate: func(c *Config) { c.Matches.FinishedMatchRetention = "a while" },
			expErr: "parsing finished_match_retention",
		},
		"bad session expiry": {
			mutate: func(c *Config) { c.Sessions.Expiry = "-1m" },
			expErr: "session expiry must not be negative",
		},
		"heartbeat pong wait shorter than interval": {
			mutate: func(c *Config) { c.Heartbeat = HeartbeatConfig{Interval: "10s", Timeout: "5s"} },
		},
		"heartbeat not positive": {
			mutate: func(c *Config) { c.Heartbeat = HeartbeatConfig{Interval: "0s"} },
			expErr: "heartbeat durations must be positive",
		},
		"heartbeat unparsable": {
			mutate: func(c *Config) { c.Heartbeat = HeartbeatConfig{Timeout: "soon"} },
			expErr: "parsing heartbeat timeout",
		},
		"nats port": {
			mutate: func(c *Config) { c.Nats.Port = 70000 },
			expErr: "nats port 70000 out of range",
		},
		"every error reported": {
			mutate: func(c *Config) {
				c.World = ""
				c.Nats.StartTimeout = "never"
			},
			expErr: "parsing start_timeout",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfig_Unmarshal(t *testing.T) {
	raw := `{
		"tick_interval": "500ms",
		"world": "data/world.json",
		"rules": {"max_players_per_match": 8, "countdown_duration": "5s", "escape_success_chance": 0.25},
		"heartbeat": {"interval": "10s", "timeout": "30s"},
		"listeners": [
			{"protocol": "websocket", "port": 8081},
			{"protocol": "telnet", "port": 4000},
			{"protocol": "ssh", "port": 4022}
		],
		"http": {"addr": ":9090"},
		"nats": {"in_process": true}
	}`

	var cfg Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		t.Fatalf("unmarshalling: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "tick", cfg.tickInterval(), 500*time.Millisecond)
	testutil.AssertEqual(t, "listeners", len(cfg.Listeners), 3)
	testutil.AssertEqual(t, "websocket", cfg.Listeners[0].Protocol, ListenerTypeWebsocket)
	testutil.AssertEqual(t, "telnet", cfg.Listeners[1].Protocol, ListenerTypeTelnet)
	testutil.AssertEqual(t, "ssh", cfg.Listeners[2].Protocol, ListenerTypeSSH)
	testutil.AssertEqual(t, "http", cfg.HTTP.addr(), ":9090")
	testutil.AssertEqual(t, "in process", cfg.Nats.InProcess, true)

	rules, err := cfg.Rules.BuildRules()
	if err != nil {
		t.Fatalf("building rules: %v", err)
	}
	testutil.AssertEqual(t, "max players", rules.MaxPlayersPerMatch, 8)
	testutil.AssertEqual(t, "countdown", rules.CountdownDuration, 5*time.Second)
	testutil.AssertEqual(t, "escape", rules.EscapeSuccessChance, 0.25)
	testutil.AssertEqual(t, "grace kept", rules.DisconnectGrace, 60*time.Second)

	interval, timeout, err := cfg.Heartbeat.durations()
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	testutil.AssertEqual(t, "interval", interval, 10*time.Second)
	testutil.AssertEqual(t, "timeout", timeout, 30*time.Second)
}

func TestListenerType_UnmarshalText(t *testing.T) {
	var lt ListenerType
	testutil.AssertErrorContains(t, lt.UnmarshalText([]byte("gopher")), "unknown listener type: gopher")
	if err := lt.UnmarshalText([]byte("ssh")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "type", lt.String(), "ssh")
}

func TestConfig_Defaults(t *testing.T) {
	cfg := validConfig()
	testutil.AssertEqual(t, "tick", cfg.tickInterval(), defaultTickInterval)
	testutil.AssertEqual(t, "http", cfg.HTTP.addr(), ":8080")

	interval, timeout, err := cfg.Heartbeat.durations()
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	testutil.AssertEqual(t, "interval", interval, 10*time.Second)
	testutil.AssertEqual(t, "timeout", timeout, 5*time.Second)
}

func TestListenerConfig_BuildListener(t *testing.T) {
	deps := listenerDeps{}
	tests := map[string]struct {
		cfg    ListenerConfig
		expErr string
	}{
		"websocket": {cfg: ListenerConfig{Protocol: ListenerTypeWebsocket, Port: 8081}},
		"telnet":    {cfg: ListenerConfig{Protocol: ListenerTypeTelnet, Port: 4000}},
		"ssh ephemeral key": {
			cfg: ListenerConfig{Protocol: ListenerTypeSSH, Port: 4022},
		},
		"ssh missing key": {
			cfg:    ListenerConfig{Protocol: ListenerTypeSSH, Port: 4022, HostKeyPath: "/nonexistent/key"},
			expErr: "reading host key",
		},
		"unknown": {
			cfg:    ListenerConfig{Protocol: ListenerType(9), Port: 1},
			expErr: "unknown listener type",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			w, err := tt.cfg.BuildListener(deps)
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "worker", w != nil, true)
		})
	}
}
