package models

import (
	"encoding/json"
	"fmt"
)

// Inbound event names sent by clients.
const (
	EventJoinGame    = "join_game"
	EventMakeMove    = "make_move"
	EventTriggerFire = "trigger_fire"
)

// Outbound event names sent by the server.
const (
	EventUserCount          = "user_count"
	EventWaitingForOpponent = "waiting_for_opponent"
	EventGameStarted        = "game_started"
	EventMoveMade           = "move_made"
	EventGameOver           = "game_over"
	EventGameEnded          = "game_ended"
)

// Reasons carried by GameEnded.
const (
	EndedDisconnect = "disconnect"
	EndedLeft       = "left"
)

// Inbound is a frame received from a client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MovePayload is the data of a make_move frame. Position is a pointer so a
// missing field can be told apart from position 0.
type MovePayload struct {
	GameID   string `json:"game_id"`
	Position *int   `json:"position"`
}

// Event is an outbound message.
type Event interface {
	EventType() string
}

// Envelope is the wire form of every outbound event.
type Envelope struct {
	Type string `json:"type"`
	Data Event  `json:"data"`
}

// Encode serializes an event into its wire envelope.
func Encode(ev Event) ([]byte, error) {
	b, err := json.Marshal(Envelope{Type: ev.EventType(), Data: ev})
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", ev.EventType(), err)
	}
	return b, nil
}

// UserCount announces the number of live connections.
type UserCount struct {
	Count int `json:"count"`
}

func (UserCount) EventType() string { return EventUserCount }

// WaitingForOpponent tells a player they are queued.
type WaitingForOpponent struct{}

func (WaitingForOpponent) EventType() string { return EventWaitingForOpponent }

// GameStarted is sent to each participant when a match is made.
type GameStarted struct {
	GameID   string `json:"game_id"`
	Symbol   Symbol `json:"symbol"`
	YourTurn bool   `json:"your_turn"`
	Board    Board  `json:"board"`
}

func (GameStarted) EventType() string { return EventGameStarted }

// MoveMade is sent to both participants after a non-terminal move.
type MoveMade struct {
	Position int    `json:"position"`
	Symbol   Symbol `json:"symbol"`
	NextTurn string `json:"next_turn"`
	Board    Board  `json:"board"`
}

func (MoveMade) EventType() string { return EventMoveMade }

// GameOver is sent to both participants on a win or draw. Winner is nil and
// Combo is omitted for a draw.
type GameOver struct {
	Winner *string `json:"winner"`
	Combo  *Line   `json:"combo,omitempty"`
	Board  Board   `json:"board"`
}

func (GameOver) EventType() string { return EventGameOver }

// GameEnded tells the remaining participant their opponent is gone.
type GameEnded struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (GameEnded) EventType() string { return EventGameEnded }

// TriggerFire is relayed to every connection.
type TriggerFire struct{}

func (TriggerFire) EventType() string { return EventTriggerFire }
