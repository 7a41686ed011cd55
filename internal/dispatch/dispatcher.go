// Package dispatch routes decoded client frames to the session manager.
package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"tictacmatch/internal/models"
)

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownEvent   = errors.New("unknown event")
)

// Sessions is the state the dispatcher drives.
type Sessions interface {
	Connect(connID string)
	Disconnect(connID string)
	JoinGame(connID string)
	MakeMove(connID, gameID string, position int) error
	TriggerFire(connID string)
}

// Dispatcher maps inbound events onto Sessions. It keeps no state.
type Dispatcher struct {
	sessions Sessions
	logger   *zap.Logger
}

// New creates a Dispatcher.
func New(sessions Sessions, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sessions: sessions,
		logger:   logger,
	}
}

// Connect handles a newly opened connection.
func (d *Dispatcher) Connect(connID string) {
	d.sessions.Connect(connID)
}

// Disconnect handles a closed connection.
func (d *Dispatcher) Disconnect(connID string) {
	d.sessions.Disconnect(connID)
}

// Handle decodes one frame from connID and applies it. Rejected moves are not
// errors; only frames that cannot be understood are.
func (d *Dispatcher) Handle(connID string, frame []byte) error {
	var in models.Inbound
	if err := json.Unmarshal(frame, &in); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch in.Type {
	case models.EventJoinGame:
		d.sessions.JoinGame(connID)

	case models.EventMakeMove:
		var p models.MovePayload
		if len(in.Data) == 0 {
			return fmt.Errorf("%w: make_move without data", ErrMalformedFrame)
		}
		if err := json.Unmarshal(in.Data, &p); err != nil {
			return fmt.Errorf("%w: make_move: %v", ErrMalformedFrame, err)
		}
		if p.GameID == "" || p.Position == nil {
			return fmt.Errorf("%w: make_move needs game_id and position", ErrMalformedFrame)
		}
		if err := d.sessions.MakeMove(connID, p.GameID, *p.Position); err != nil {
			d.logger.Debug("move ignored",
				zap.String("conn_id", connID),
				zap.String("game_id", p.GameID),
				zap.Int("position", *p.Position),
				zap.Error(err),
			)
		}

	case models.EventTriggerFire:
		d.sessions.TriggerFire(connID)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, in.Type)
	}
	return nil
}
