// Package dispatch turns inbound commands into calls on the registries and
// matches, and reports rejections back to the caller.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/MichelPescina/JogoTesto/internal/broadcast"
	"github.com/MichelPescina/JogoTesto/internal/game"
	"github.com/MichelPescina/JogoTesto/internal/matches"
	"github.com/MichelPescina/JogoTesto/internal/observe"
	"github.com/MichelPescina/JogoTesto/internal/session"
	"github.com/MichelPescina/JogoTesto/internal/world"
)

const guestName = "Guest"

// Dispatcher is shared by every connection.
type Dispatcher struct {
	sessions *session.Registry
	matches  *matches.Registry
	hub      *broadcast.Hub
	metrics  *observe.Metrics
}

type DispatcherOpt func(*Dispatcher)

func WithMetrics(m *observe.Metrics) DispatcherOpt {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

func NewDispatcher(sessions *session.Registry, reg *matches.Registry, hub *broadcast.Hub, opts ...DispatcherOpt) *Dispatcher {
	d := &Dispatcher{
		sessions: sessions,
		matches:  reg,
		hub:      hub,
		metrics:  observe.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Client is one connection's view of its session.
type Client struct {
	mu       sync.Mutex
	token    string
	playerID string
	deliver  func([]byte)
	att      *broadcast.Attachment
}

func (c *Client) ids() (token, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, c.playerID
}

// PlayerID returns the player the connection currently speaks for.
func (c *Client) PlayerID() string {
	_, id := c.ids()
	return id
}

// Token returns the connection's session token.
func (c *Client) Token() string {
	token, _ := c.ids()
	return token
}

// Done is closed when another connection takes over the player.
func (c *Client) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.att.Done()
}

// Superseded reports whether the connection has lost its player. Done may
// fire for an attachment the connection already replaced by reconnecting,
// so watchers confirm with Superseded before giving up.
func (c *Client) Superseded() bool {
	select {
	case <-c.Done():
		return true
	default:
		return false
	}
}

// Connect opens a lobby session for a new connection. Events for the player
// are passed to deliver.
func (d *Dispatcher) Connect(ctx context.Context, deliver func([]byte)) (*Client, error) {
	s, err := d.sessions.Create()
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	att, err := d.hub.Attach(s.PlayerID, deliver)
	if err != nil {
		d.sessions.Invalidate(s.Token)
		return nil, fmt.Errorf("attaching connection: %w", err)
	}
	d.metrics.Sessions.Add(ctx, 1)

	c := &Client{token: s.Token, playerID: s.PlayerID, deliver: deliver, att: att}
	d.hub.Notify(s.PlayerID, game.EventSessionAssigned, game.SessionData{PlayerID: s.PlayerID, SessionToken: s.Token})
	slog.InfoContext(ctx, "connection opened", "player", s.PlayerID)
	return c, nil
}

// Disconnect releases a connection. A player in a match keeps its record and
// session for the grace window; a lobby session is dropped.
func (d *Dispatcher) Disconnect(ctx context.Context, c *Client) {
	c.mu.Lock()
	token, playerID, att := c.token, c.playerID, c.att
	c.mu.Unlock()

	takenOver := false
	select {
	case <-att.Done():
		takenOver = true
	default:
	}
	att.Detach()
	if takenOver {
		return
	}

	if m, ok := d.matches.MatchOf(playerID); ok {
		if err := m.Disconnect(playerID); err != nil {
			slog.WarnContext(ctx, "marking player disconnected", "player", playerID, "error", err)
		}
		slog.InfoContext(ctx, "connection lost", "player", playerID, "match", m.ID())
		return
	}

	d.sessions.Invalidate(token)
	d.metrics.Sessions.Add(ctx, -1)
	slog.InfoContext(ctx, "connection closed", "player", playerID)
}

// Handle decodes and runs one raw message. Rejections are sent to the
// caller as error events.
func (d *Dispatcher) Handle(ctx context.Context, c *Client, raw []byte) {
	req, err := Decode(raw)
	if err == nil {
		err = d.Dispatch(ctx, c, req)
	}
	if err != nil {
		d.Report(ctx, c, err)
	}
}

// Report sends err to the caller as an error event. Failures that are not
// command rejections are logged and reported as internal errors.
func (d *Dispatcher) Report(ctx context.Context, c *Client, err error) {
	data := game.ErrorData{Code: game.CodeInternal, Message: "Something went wrong."}
	if gerr, ok := game.AsError(err); ok {
		data = game.ErrorData{Code: gerr.Code, Message: gerr.Message}
	} else {
		slog.ErrorContext(ctx, "command failed", "player", c.PlayerID(), "error", err)
	}
	d.hub.Notify(c.PlayerID(), game.EventError, data)
}

// Dispatch runs a decoded command for the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, c *Client, req Request) error {
	err := d.dispatch(ctx, c, req)
	d.metrics.RecordCommand(ctx, req.Type, game.CodeOf(err))
	return err
}

func (d *Dispatcher) dispatch(ctx context.Context, c *Client, req Request) error {
	token, playerID := c.ids()
	if err := d.sessions.Touch(token); err != nil {
		if err := d.renew(ctx, c); err != nil {
			return err
		}
		return game.ErrSessionInvalid
	}

	switch req.Type {
	case CmdJoinMatch:
		return d.join(ctx, token, playerID, req.DisplayName)
	case CmdLeaveMatch:
		if err := d.matches.Leave(playerID); err != nil {
			return err
		}
		return d.sessions.Unbind(token)
	case CmdReconnect:
		return d.reconnect(ctx, c, req)
	case CmdRename:
		return d.rename(token, playerID, req.NewName)
	case CmdChatLobby:
		text, err := SanitizeChat(req.Text)
		if err != nil {
			return err
		}
		from := guestName
		if s, ok := d.sessions.Get(token); ok && s.Name != "" {
			from = s.Name
		}
		d.hub.Lobby(game.EventLobbyChat, game.ChatData{FromID: playerID, From: from, Text: text})
		return nil
	case CmdRequestStatus:
		if m, ok := d.matches.MatchOf(playerID); ok {
			return m.SendStatus(playerID)
		}
		d.hub.Notify(playerID, game.EventMatchStatus, game.MatchStatus{})
		return nil
	case CmdPing:
		d.hub.Notify(playerID, game.EventPong, nil)
		return nil
	}

	m, ok := d.matches.MatchOf(playerID)
	if !ok {
		if !known(req.Type) {
			return unknownCommand(req.Type)
		}
		return game.ErrNotInMatch
	}

	switch req.Type {
	case CmdMove:
		_, err := m.Move(playerID, req.Direction)
		if game.CodeOf(err) == game.CodeInvalidDir {
			return withSuggestion(err, req.Direction, world.DirectionWords())
		}
		return err
	case CmdSearch:
		_, err := m.Search(playerID)
		return err
	case CmdAttack:
		target, err := d.resolveTarget(m, req)
		if err != nil {
			return err
		}
		return m.Attack(playerID, target)
	case CmdRespondToCombat:
		return m.Respond(playerID, strings.ToLower(strings.TrimSpace(req.Decision)), req.AttackerID)
	case CmdEscape:
		return m.Escape(playerID)
	case CmdChatRoom:
		text, err := SanitizeChat(req.Text)
		if err != nil {
			return err
		}
		return m.ChatRoom(playerID, text)
	case CmdRequestRoomInfo:
		return m.SendRoomInfo(playerID)
	default:
		return unknownCommand(req.Type)
	}
}

func known(cmd string) bool {
	switch cmd {
	case CmdMove, CmdSearch, CmdAttack, CmdRespondToCombat, CmdEscape, CmdChatRoom, CmdRequestRoomInfo:
		return true
	}
	return false
}

var commandNames = []string{
	CmdJoinMatch, CmdLeaveMatch, CmdMove, CmdSearch, CmdAttack, CmdRespondToCombat, CmdEscape,
	CmdChatRoom, CmdChatLobby, CmdRequestRoomInfo, CmdRequestStatus, CmdReconnect, CmdRename, CmdPing,
}

func unknownCommand(cmd string) error {
	err := game.Errorf(game.KindValidation, game.CodeUnknownCommand, "Unknown command %q.", cmd)
	return withSuggestion(err, cmd, commandNames)
}

func (d *Dispatcher) join(ctx context.Context, token, playerID, name string) error {
	m, res, err := d.matches.Join(ctx, playerID, token, name)
	if err != nil {
		return err
	}
	if err := d.sessions.Bind(token, m.ID(), res.Name); err != nil {
		return err
	}
	if res.Existing {
		return m.SendStatus(playerID)
	}
	return nil
}

// resolveTarget accepts a player id or, failing that, a display name.
func (d *Dispatcher) resolveTarget(m *game.Match, req Request) (string, error) {
	if req.TargetPlayerID != "" {
		return req.TargetPlayerID, nil
	}
	name := strings.TrimSpace(req.Target)
	if name == "" {
		return "", game.NewError(game.KindValidation, game.CodeUnknownTarget, "Attack whom?")
	}
	if p, ok := m.FindPlayerByName(name); ok {
		return p.ID, nil
	}
	err := game.Errorf(game.KindReference, game.CodeUnknownTarget, "There is no player named %q.", name)
	return "", withSuggestion(err, name, m.Names())
}

func (d *Dispatcher) rename(token, playerID, name string) error {
	if m, ok := d.matches.MatchOf(playerID); ok {
		newName, err := m.Rename(playerID, name)
		if err != nil {
			return err
		}
		return d.sessions.Rename(token, newName)
	}

	newName, err := game.ValidateName(name)
	if err != nil {
		return err
	}
	old := ""
	if s, ok := d.sessions.Get(token); ok {
		old = s.Name
	}
	if err := d.sessions.Rename(token, newName); err != nil {
		return err
	}
	d.hub.Notify(playerID, game.EventPlayerRenamed, game.RenamedData{PlayerID: playerID, OldName: old, NewName: newName})
	return nil
}

// reconnect moves the connection onto a player held by a match. On any
// failure the connection keeps its own lobby session.
func (d *Dispatcher) reconnect(ctx context.Context, c *Client, req Request) error {
	err := d.rebind(ctx, c, req)
	d.metrics.RecordReconnect(ctx, err == nil)
	if err != nil {
		token, playerID := c.ids()
		d.hub.Notify(playerID, game.EventSessionAssigned, game.SessionData{PlayerID: playerID, SessionToken: token})
	}
	return err
}

func (d *Dispatcher) rebind(ctx context.Context, c *Client, req Request) error {
	if _, err := d.sessions.Validate(req.MatchID, req.PlayerID, req.SessionToken); err != nil {
		return err
	}
	m, ok := d.matches.Lookup(req.MatchID)
	if !ok || !m.HasPlayer(req.PlayerID) {
		return game.ErrSessionInvalid
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playerID == req.PlayerID {
		return m.Reconnect(req.PlayerID, req.SessionToken)
	}

	att, err := d.hub.Attach(req.PlayerID, c.deliver)
	if err != nil {
		return fmt.Errorf("attaching connection: %w", err)
	}
	if err := m.Reconnect(req.PlayerID, req.SessionToken); err != nil {
		att.Detach()
		return err
	}
	if err := d.matches.Adopt(req.PlayerID, req.MatchID); err != nil {
		slog.WarnContext(ctx, "restoring membership", "player", req.PlayerID, "error", err)
	}

	if prev, inMatch := d.matches.MatchOf(c.playerID); inMatch {
		_ = prev.Disconnect(c.playerID)
	} else {
		d.sessions.Invalidate(c.token)
		d.metrics.Sessions.Add(ctx, -1)
	}
	c.att.Detach()
	c.att = att
	c.token = req.SessionToken
	c.playerID = req.PlayerID

	slog.InfoContext(ctx, "player reconnected", "player", req.PlayerID, "match", req.MatchID)
	return nil
}

// renew gives a connection whose session expired a fresh one.
func (d *Dispatcher) renew(ctx context.Context, c *Client) error {
	s, err := d.sessions.Create()
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	att, err := d.hub.Attach(s.PlayerID, c.deliver)
	if err != nil {
		d.sessions.Invalidate(s.Token)
		return fmt.Errorf("attaching connection: %w", err)
	}

	c.mu.Lock()
	old := c.att
	c.att, c.token, c.playerID = att, s.Token, s.PlayerID
	c.mu.Unlock()
	old.Detach()

	d.hub.Notify(s.PlayerID, game.EventSessionAssigned, game.SessionData{PlayerID: s.PlayerID, SessionToken: s.Token})
	slog.InfoContext(ctx, "session renewed", "player", s.PlayerID)
	return nil
}
