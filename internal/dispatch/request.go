package dispatch

import (
	"encoding/json"

	"github.com/MichelPescina/JogoTesto/internal/game"
)

// Inbound command names.
const (
	CmdJoinMatch       = "join-match"
	CmdLeaveMatch      = "leave-match"
	CmdMove            = "move"
	CmdSearch          = "search"
	CmdAttack          = "attack"
	CmdRespondToCombat = "respond-to-combat"
	CmdEscape          = "escape"
	CmdChatRoom        = "chat-room"
	CmdChatLobby       = "chat-lobby"
	CmdRequestRoomInfo = "request-room-info"
	CmdRequestStatus   = "request-status"
	CmdReconnect       = "reconnect"
	CmdRename          = "rename"
	CmdPing            = "ping"
)

// Request is one inbound message. Only the fields its Type uses are read.
type Request struct {
	Type string `json:"type"`

	DisplayName string `json:"displayName,omitempty"`
	NewName     string `json:"newName,omitempty"`

	MatchID      string `json:"matchId,omitempty"`
	PlayerID     string `json:"playerId,omitempty"`
	SessionToken string `json:"sessionToken,omitempty"`

	Direction string `json:"direction,omitempty"`

	// TargetPlayerID names the defender by id. Target is a display name,
	// used by terminal clients.
	TargetPlayerID string `json:"targetPlayerId,omitempty"`
	Target         string `json:"target,omitempty"`

	Decision   string `json:"decision,omitempty"`
	AttackerID string `json:"attackerId,omitempty"`

	Text string `json:"text,omitempty"`
}

// Decode parses an inbound JSON message.
func Decode(raw []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, game.NewError(game.KindValidation, game.CodeMalformed, "That message could not be read.")
	}
	if req.Type == "" {
		return Request{}, game.NewError(game.KindValidation, game.CodeMalformed, "The message has no type.")
	}
	return req, nil
}
