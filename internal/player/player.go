package player

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/MichelPescina/JogoTesto/internal/commands"
	"github.com/MichelPescina/JogoTesto/internal/dispatch"
	"github.com/MichelPescina/JogoTesto/internal/display"
)

// ErrTakenOver is returned when another connection claims the player.
var ErrTakenOver = errors.New("player taken over by another connection")

const pendingEvents = 256

// Player is one terminal connection.
type Player struct {
	conn   io.ReadWriter
	d      *dispatch.Dispatcher
	cmds   *commands.Handler
	screen *display.Screen
	width  int

	client *dispatch.Client
	msgs   chan []byte
	closed chan struct{}
}

// deliver queues an event for the terminal. Events arriving after the
// terminal stopped are dropped.
func (p *Player) deliver(data []byte) {
	select {
	case p.msgs <- data:
	case <-p.closed:
	}
}

func (p *Player) Play(ctx context.Context) error {
	// Start goroutine to read input lines into a channel
	inputChan := make(chan string)
	inputErrChan := make(chan error, 1)
	go func() {
		defer close(inputChan)
		scanner := bufio.NewScanner(p.conn)
		for scanner.Scan() {
			select {
			case inputChan <- scanner.Text():
			case <-p.closed:
				return
			}
		}
		inputErrChan <- scanner.Err()
	}()

	if err := p.flush(); err != nil {
		return err
	}
	if err := p.prompt(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-p.client.Done():
			if !p.client.Superseded() {
				continue
			}
			if err := p.writeLine("\nAnother connection has taken over your player."); err != nil {
				slog.WarnContext(ctx, "failed to write takeover message", "player", p.client.PlayerID(), "error", err)
			}
			return ErrTakenOver

		case msg := <-p.msgs:
			shown, err := p.show(ctx, msg)
			if err != nil {
				return err
			}
			if !shown {
				continue
			}
			if err := p.flush(); err != nil {
				return err
			}
			if err := p.prompt(); err != nil {
				return err
			}

		case line, ok := <-inputChan:
			if !ok {
				// Connection lost. The caller decides what happens to the player.
				select {
				case err := <-inputErrChan:
					return err
				default:
					return nil
				}
			}

			quit, err := p.exec(ctx, line)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
			if err := p.flush(); err != nil {
				return err
			}
			if err := p.prompt(); err != nil {
				return err
			}
		}
	}
}

// exec runs one input line.
func (p *Player) exec(ctx context.Context, line string) (bool, error) {
	act, err := p.cmds.Parse(line)
	if err != nil {
		var userErr *commands.UserError
		if errors.As(err, &userErr) {
			return false, p.writeLine(display.WrapWidth(userErr.Message, p.width))
		}
		return false, fmt.Errorf("parsing command: %w", err)
	}

	switch {
	case act.Quit:
		return true, p.writeLine("Goodbye!")
	case act.Text != "":
		return false, p.writeLine(act.Text)
	case act.Request != nil:
		if err := p.d.Dispatch(ctx, p.client, *act.Request); err != nil {
			p.d.Report(ctx, p.client, err)
		}
	}
	return false, nil
}

// show renders one event. It reports whether anything was written.
func (p *Player) show(ctx context.Context, msg []byte) (bool, error) {
	text, err := p.screen.Render(msg)
	if err != nil {
		slog.WarnContext(ctx, "rendering event", "player", p.client.PlayerID(), "error", err)
		return false, nil
	}
	if text == "" {
		return false, nil
	}
	return true, p.writeLine("\n" + text)
}

// flush writes every event already queued.
func (p *Player) flush() error {
	for {
		select {
		case msg := <-p.msgs:
			if _, err := p.show(context.Background(), msg); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (p *Player) prompt() error {
	_, err := p.conn.Write([]byte("> "))
	return err
}

func (p *Player) writeLine(msg string) error {
	_, err := p.conn.Write([]byte(msg + "\n"))
	return err
}
