package player

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/MichelPescina/JogoTesto/internal/commands"
	"github.com/MichelPescina/JogoTesto/internal/dispatch"
	"github.com/MichelPescina/JogoTesto/internal/display"
)

const banner = `Welcome to JogoTesto.
Every match ends with one player standing. Type "help" for commands.`

// PlayerManager runs terminal sessions against the dispatcher.
type PlayerManager struct {
	d     *dispatch.Dispatcher
	cmds  *commands.Handler
	width int
}

type PlayerManagerOpt func(*PlayerManager)

// WithWidth sets the terminal wrap width.
func WithWidth(w int) PlayerManagerOpt {
	return func(m *PlayerManager) {
		m.width = w
	}
}

func NewPlayerManager(d *dispatch.Dispatcher, cmds *commands.Handler, opts ...PlayerManagerOpt) *PlayerManager {
	m := &PlayerManager{
		d:     d,
		cmds:  cmds,
		width: display.DefaultWidth,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RunSession serves one terminal connection until it quits, drops or is
// taken over.
func (m *PlayerManager) RunSession(ctx context.Context, conn io.ReadWriter) error {
	screen, err := display.NewScreen(display.WithWidth(m.width))
	if err != nil {
		return err
	}

	p := &Player{
		conn:   conn,
		d:      m.d,
		cmds:   m.cmds,
		screen: screen,
		width:  m.width,
		msgs:   make(chan []byte, pendingEvents),
		closed: make(chan struct{}),
	}
	defer close(p.closed)

	if _, err := conn.Write([]byte(banner + "\n")); err != nil {
		return fmt.Errorf("writing banner: %w", err)
	}

	client, err := m.d.Connect(ctx, p.deliver)
	if err != nil {
		return fmt.Errorf("opening session: %w", err)
	}
	p.client = client
	defer m.d.Disconnect(context.WithoutCancel(ctx), client)

	err = p.Play(ctx)
	if errors.Is(err, ErrTakenOver) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
