// Package game implements the tic-tac-toe rules. It holds no state of its own;
// callers serialize access to the games they pass in.
package game

import (
	"errors"

	"tictacmatch/internal/models"
)

var (
	ErrInvalidMove   = errors.New("invalid move")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrPositionTaken = errors.New("position already taken")
)

// winConditions defines all possible winning combinations, in the order they
// are checked.
var winConditions = [...]models.Line{
	{0, 1, 2}, // top row
	{3, 4, 5}, // middle row
	{6, 7, 8}, // bottom row
	{0, 3, 6}, // left column
	{1, 4, 7}, // middle column
	{2, 5, 8}, // right column
	{0, 4, 8}, // diagonal
	{2, 4, 6}, // anti-diagonal
}

// Outcome classifies the board after a move.
type Outcome int

const (
	Continue Outcome = iota
	Win
	Draw
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Draw:
		return "draw"
	}
	return "continue"
}

// Result describes an applied move.
type Result struct {
	Outcome  Outcome
	Symbol   models.Symbol
	Combo    models.Line // set when Outcome is Win
	NextTurn string      // set when Outcome is Continue
}

// ApplyMove validates and applies a move. On error the game is untouched.
func ApplyMove(g *models.Game, playerID string, position int) (Result, error) {
	if playerID != g.CurrentTurn {
		return Result{}, ErrNotYourTurn
	}
	if position < 0 || position >= models.BoardSize {
		return Result{}, ErrInvalidMove
	}
	if g.Board[position] != models.Empty {
		return Result{}, ErrPositionTaken
	}

	symbol := g.SymbolOf(playerID)
	g.Board[position] = symbol

	if combo, ok := CheckWinner(g.Board, symbol); ok {
		return Result{Outcome: Win, Symbol: symbol, Combo: combo}, nil
	}
	if g.Board.Full() {
		return Result{Outcome: Draw, Symbol: symbol}, nil
	}

	g.CurrentTurn = g.Opponent(playerID)
	return Result{Outcome: Continue, Symbol: symbol, NextTurn: g.CurrentTurn}, nil
}

// CheckWinner returns the first line fully held by symbol.
func CheckWinner(board models.Board, symbol models.Symbol) (models.Line, bool) {
	if symbol == models.Empty {
		return models.Line{}, false
	}
	for _, line := range winConditions {
		if board[line[0]] == symbol && board[line[1]] == symbol && board[line[2]] == symbol {
			return line, true
		}
	}
	return models.Line{}, false
}

// WinningLines returns a copy of the lines CheckWinner tests, in order.
func WinningLines() []models.Line {
	lines := make([]models.Line, len(winConditions))
	copy(lines, winConditions[:])
	return lines
}
