// Package session owns the shared matchmaking state: the live connection set,
// the waiting queue, the game table and the connection-to-game index. All of it
// sits behind a single mutex and every exported Manager method is one
// transaction over it.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tictacmatch/internal/game"
	"tictacmatch/internal/models"
)

var ErrGameNotFound = errors.New("game not found")

const (
	msgOpponentDisconnected = "Opponent disconnected"
	msgOpponentLeft         = "Opponent left the game"
)

// Emitter delivers outbound events. Implementations must not block: the
// Manager calls them while holding its lock.
type Emitter interface {
	Send(connID string, ev models.Event)
	Broadcast(ev models.Event)
}

// Stats is a point-in-time snapshot of the Manager.
type Stats struct {
	Users   int `json:"users"`
	Waiting int `json:"waiting"`
	Games   int `json:"games"`
}

// Option configures a Manager.
type Option func(*Manager)

// WithIDGenerator overrides how game ids are produced.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

// Manager tracks connections, waiting players and live games.
// All methods are safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	conns   map[string]struct{}     // live connections
	waiting *waitingSet             // connections awaiting an opponent
	games   map[string]*models.Game // gameID -> game
	index   map[string]string       // connID -> gameID

	emitter Emitter
	logger  *zap.Logger
	newID   func() string
}

// NewManager creates an empty Manager that emits through emitter.
func NewManager(emitter Emitter, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		conns:   make(map[string]struct{}),
		waiting: newWaitingSet(),
		games:   make(map[string]*models.Game),
		index:   make(map[string]string),
		emitter: emitter,
		logger:  logger,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect registers a new connection and broadcasts the user count.
func (m *Manager) Connect(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conns[connID]; ok {
		return
	}
	m.conns[connID] = struct{}{}
	m.logger.Debug("connection registered",
		zap.String("conn_id", connID),
		zap.Int("users", len(m.conns)),
	)
	m.emitter.Broadcast(models.UserCount{Count: len(m.conns)})
}

// Disconnect drops every trace of the connection: queue membership, its live
// game (notifying the opponent) and its registry entry. Repeated calls are
// no-ops.
func (m *Manager) Disconnect(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.waiting.remove(connID) {
		m.logger.Debug("removed from queue", zap.String("conn_id", connID))
	}

	if g, ok := m.gameOf(connID); ok {
		m.abandon(g, connID, models.GameEnded{
			Message: msgOpponentDisconnected,
			Type:    models.EndedDisconnect,
		})
	}

	if _, ok := m.conns[connID]; !ok {
		return
	}
	delete(m.conns, connID)
	m.logger.Debug("connection removed",
		zap.String("conn_id", connID),
		zap.Int("users", len(m.conns)),
	)
	m.emitter.Broadcast(models.UserCount{Count: len(m.conns)})
}

// JoinGame pairs the connection with the oldest waiting player, or queues it
// if nobody is waiting. A player still in a game leaves that game first.
func (m *Manager) JoinGame(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g, ok := m.gameOf(connID); ok {
		m.abandon(g, connID, models.GameEnded{
			Message: msgOpponentLeft,
			Type:    models.EndedLeft,
		})
	}

	if m.waiting.contains(connID) {
		m.emitter.Send(connID, models.WaitingForOpponent{})
		return
	}
	m.tryPair(connID)
}

// MakeMove applies a move to a live game. Rejected moves change nothing and
// emit nothing; the returned error says why.
func (m *Manager) MakeMove(connID, gameID string, position int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[gameID]
	if !ok {
		return fmt.Errorf("move on %s: %w", gameID, ErrGameNotFound)
	}

	res, err := game.ApplyMove(g, connID, position)
	if err != nil {
		return fmt.Errorf("move on %s: %w", gameID, err)
	}

	switch res.Outcome {
	case game.Win:
		m.unregisterGame(g)
		winner := connID
		combo := res.Combo
		m.logger.Info("game won",
			zap.String("game_id", g.ID),
			zap.String("winner", winner),
			zap.Ints("combo", combo[:]),
		)
		m.sendPair(g, models.GameOver{Winner: &winner, Combo: &combo, Board: g.Board})
	case game.Draw:
		m.unregisterGame(g)
		m.logger.Info("game drawn", zap.String("game_id", g.ID))
		m.sendPair(g, models.GameOver{Board: g.Board})
	default:
		m.sendPair(g, models.MoveMade{
			Position: position,
			Symbol:   res.Symbol,
			NextTurn: res.NextTurn,
			Board:    g.Board,
		})
	}
	return nil
}

// TriggerFire relays a fire effect to every connection.
func (m *Manager) TriggerFire(connID string) {
	m.logger.Debug("trigger fire", zap.String("conn_id", connID))
	m.emitter.Broadcast(models.TriggerFire{})
}

// UserCount returns the number of live connections.
func (m *Manager) UserCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}

// IsWaiting reports whether the connection is queued.
func (m *Manager) IsWaiting(connID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waiting.contains(connID)
}

// GameOf returns the id of the connection's live game.
func (m *Manager) GameOf(connID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.index[connID]
	return id, ok
}

// Game returns a copy of a live game.
func (m *Manager) Game(gameID string) (models.Game, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return models.Game{}, false
	}
	return *g, true
}

// Stats returns current counts.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Users:   len(m.conns),
		Waiting: m.waiting.size(),
		Games:   len(m.games),
	}
}

func (m *Manager) tryPair(connID string) {
	opponent, ok := m.waiting.popOldest()
	if !ok || opponent == connID {
		m.enqueue(connID)
		return
	}

	g := models.NewGame(m.newID(), opponent, connID)
	m.registerGame(g)
	m.logger.Info("game started",
		zap.String("game_id", g.ID),
		zap.String("player_x", g.Player1),
		zap.String("player_o", g.Player2),
	)

	m.emitter.Send(g.Player1, models.GameStarted{
		GameID:   g.ID,
		Symbol:   models.SymbolX,
		YourTurn: true,
		Board:    g.Board,
	})
	m.emitter.Send(g.Player2, models.GameStarted{
		GameID:   g.ID,
		Symbol:   models.SymbolO,
		YourTurn: false,
		Board:    g.Board,
	})
}

func (m *Manager) enqueue(connID string) {
	m.waiting.add(connID)
	m.logger.Debug("waiting for opponent",
		zap.String("conn_id", connID),
		zap.Int("waiting", m.waiting.size()),
	)
	m.emitter.Send(connID, models.WaitingForOpponent{})
}

// abandon ends g because leaver is gone and tells the other player.
func (m *Manager) abandon(g *models.Game, leaver string, ev models.GameEnded) {
	m.unregisterGame(g)
	other := g.Opponent(leaver)
	m.logger.Info("game ended",
		zap.String("game_id", g.ID),
		zap.String("leaver", leaver),
		zap.String("reason", ev.Type),
	)
	m.emitter.Send(other, ev)
}

func (m *Manager) gameOf(connID string) (*models.Game, bool) {
	id, ok := m.index[connID]
	if !ok {
		return nil, false
	}
	g, ok := m.games[id]
	return g, ok
}

// registerGame and unregisterGame are the only writers of games and index.
func (m *Manager) registerGame(g *models.Game) {
	m.games[g.ID] = g
	m.index[g.Player1] = g.ID
	m.index[g.Player2] = g.ID
}

func (m *Manager) unregisterGame(g *models.Game) {
	delete(m.index, g.Player1)
	delete(m.index, g.Player2)
	delete(m.games, g.ID)
}

func (m *Manager) sendPair(g *models.Game, ev models.Event) {
	m.emitter.Send(g.Player1, ev)
	m.emitter.Send(g.Player2, ev)
}
