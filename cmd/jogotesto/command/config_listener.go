package command

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-service"
	"golang.org/x/crypto/ssh"

	"github.com/MichelPescina/JogoTesto/internal/listener"
)

type ListenerType int

const (
	ListenerTypeWebsocket ListenerType = iota
	ListenerTypeTelnet
	ListenerTypeSSH
)

func (lt *ListenerType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "websocket":
		*lt = ListenerTypeWebsocket
	case "telnet":
		*lt = ListenerTypeTelnet
	case "ssh":
		*lt = ListenerTypeSSH
	default:
		return fmt.Errorf("unknown listener type: %s", text)
	}
	return nil
}

func (lt ListenerType) String() string {
	switch lt {
	case ListenerTypeWebsocket:
		return "websocket"
	case ListenerTypeTelnet:
		return "telnet"
	case ListenerTypeSSH:
		return "ssh"
	default:
		return fmt.Sprintf("ListenerType(%d)", int(lt))
	}
}

type ListenerConfig struct {
	Protocol    ListenerType `json:"protocol"`
	Port        uint16       `json:"port"`
	HostKeyPath string       `json:"host_key_path,omitempty"`
}

func (cl *ListenerConfig) validate() error {
	el := errors.NewErrorList()

	if cl.Port == 0 {
		el.Add(fmt.Errorf("port must be set to a positive integer"))
	}
	if cl.HostKeyPath != "" && cl.Protocol != ListenerTypeSSH {
		el.Add(fmt.Errorf("host_key_path only applies to ssh listeners"))
	}

	return el.Err()
}

// listenerDeps are the shared pieces every listener is built from.
type listenerDeps struct {
	terminals *listener.ConnectionManager
	messenger listener.Messenger
	wsOpts    []listener.WebsocketOpt
}

func (cl *ListenerConfig) BuildListener(deps listenerDeps) (service.Worker, error) {
	switch cl.Protocol {
	case ListenerTypeWebsocket:
		return listener.NewWebsocketListener(cl.Port, deps.messenger, deps.wsOpts...), nil
	case ListenerTypeTelnet:
		return listener.NewTelnetListener(cl.Port, deps.terminals), nil
	case ListenerTypeSSH:
		hostKey, err := cl.loadOrGenerateHostKey()
		if err != nil {
			return nil, fmt.Errorf("setting up ssh host key: %w", err)
		}
		return listener.NewSshListener(cl.Port, deps.terminals, hostKey), nil
	default:
		return nil, fmt.Errorf("unknown listener type: %v", cl.Protocol)
	}
}

func (cl *ListenerConfig) loadOrGenerateHostKey() (ssh.Signer, error) {
	if cl.HostKeyPath != "" {
		keyBytes, err := os.ReadFile(cl.HostKeyPath)
		if err != nil {
			return nil, fmt.Errorf("reading host key %q: %w", cl.HostKeyPath, err)
		}
		signer, err := ssh.ParsePrivateKey(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("parsing host key %q: %w", cl.HostKeyPath, err)
		}
		return signer, nil
	}

	slog.Warn("no host_key_path configured for ssh listener, generating ephemeral key")
	_, privKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating ephemeral key: %w", err)
	}
	signer, err := ssh.NewSignerFromKey(privKey)
	if err != nil {
		return nil, fmt.Errorf("creating signer from ephemeral key: %w", err)
	}
	return signer, nil
}

// HeartbeatConfig controls websocket liveness checks: a ping every interval,
// and the connection drops when its pong takes longer than timeout. Empty
// values keep the listener defaults.
type HeartbeatConfig struct {
	Interval string `json:"interval"`
	Timeout  string `json:"timeout"`
}

func (c *HeartbeatConfig) validate() error {
	_, _, err := c.durations()
	return err
}

func (c *HeartbeatConfig) durations() (time.Duration, time.Duration, error) {
	el := errors.NewErrorList()

	interval, err := parseOptionalDuration("heartbeat interval", c.Interval, listener.DefaultHeartbeatInterval)
	el.Add(err)
	timeout, err := parseOptionalDuration("heartbeat timeout", c.Timeout, listener.DefaultHeartbeatTimeout)
	el.Add(err)
	if err := el.Err(); err != nil {
		return 0, 0, err
	}

	if interval <= 0 || timeout <= 0 {
		return 0, 0, fmt.Errorf("heartbeat durations must be positive")
	}
	return interval, timeout, nil
}
