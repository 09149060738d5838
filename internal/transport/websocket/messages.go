package websocket

import (
	"github.com/fourinarow/engine/internal/domain"
	"github.com/fourinarow/engine/internal/service/game"
)

// Client message types.
const (
	MsgInit                = "init"
	MsgMakeMove            = "make_move"
	MsgRequestComputerMove = "request_computer_move"
	MsgUndo                = "undo"
	MsgReset               = "reset"
	MsgTogglePause         = "toggle_pause"
	MsgSetMode             = "set_mode"
	MsgSetDifficulty       = "set_difficulty"
	MsgSnapshot            = "snapshot"
)

// Server message types.
const (
	MsgState            = "state"
	MsgMoveMade         = "move_made"
	MsgComputerThinking = "computer_thinking"
	MsgGameOver         = "game_over"
	MsgError            = "error"
)

type ClientMessage struct {
	Type       string `json:"type"`
	Token      string `json:"token,omitempty"`
	Column     *int   `json:"column,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

type ServerMessage struct {
	Type         string            `json:"type"`
	State        *game.Snapshot    `json:"state,omitempty"`
	Move         *domain.Move      `json:"move,omitempty"`
	Status       domain.GameStatus `json:"status,omitempty"`
	Winner       domain.PlayerID   `json:"winner,omitempty"`
	ComputerName string            `json:"computerName,omitempty"`
	Code         string            `json:"code,omitempty"`
	Message      string            `json:"message,omitempty"`
}

func stateMessage(s *game.GameSession) ServerMessage {
	snap := s.Snapshot()
	return ServerMessage{Type: MsgState, State: &snap}
}

func errorMessage(code, message string) ServerMessage {
	return ServerMessage{Type: MsgError, Code: code, Message: message}
}
