package models

// Symbol is the mark a player places on the board.
type Symbol string

const (
	SymbolX Symbol = "X"
	SymbolO Symbol = "O"
	Empty   Symbol = ""
)

// BoardSize is the number of cells on the 3x3 board.
const BoardSize = 9

// Board represents the 3x3 game board, row-major.
type Board [BoardSize]Symbol

// Full reports whether no empty cell remains.
func (b Board) Full() bool {
	for _, cell := range b {
		if cell == Empty {
			return false
		}
	}
	return true
}

// Line is a winning triple of board positions.
type Line [3]int

// Game is one in-progress match between two connections.
type Game struct {
	ID          string
	Player1     string // plays X, moves first
	Player2     string // plays O
	Board       Board
	CurrentTurn string
}

// NewGame creates a game with an empty board and player1 to move.
func NewGame(id, player1, player2 string) *Game {
	return &Game{
		ID:          id,
		Player1:     player1,
		Player2:     player2,
		Board:       Board{},
		CurrentTurn: player1,
	}
}

// HasPlayer reports whether playerID participates in the game.
func (g *Game) HasPlayer(playerID string) bool {
	return playerID == g.Player1 || playerID == g.Player2
}

// SymbolOf returns the symbol assigned to playerID, or Empty for a non-participant.
func (g *Game) SymbolOf(playerID string) Symbol {
	switch playerID {
	case g.Player1:
		return SymbolX
	case g.Player2:
		return SymbolO
	}
	return Empty
}

// Opponent returns the other participant.
func (g *Game) Opponent(playerID string) string {
	if playerID == g.Player1 {
		return g.Player2
	}
	return g.Player1
}
