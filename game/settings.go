package game

import "errors"

// Settings bounds. A grid smaller than 3 has no meaningful win condition,
// and anything past 32 is bigger than a Gomoku board needs to be.
const (
	MinGridSize = 3
	MaxGridSize = 32
)

var (
	ErrGridSize     = errors.New("grid size out of range")
	ErrWinCondition = errors.New("win condition out of range")
)

// Settings are the parameters a game is started with. They are negotiated
// in the lobby before the first move.
type Settings struct {
	// GridSize is the width and height of the (square) grid.
	GridSize int `json:"grid_size"`

	// WinCondition is the number of aligned marks required to win.
	WinCondition int `json:"win_condition"`

	// Gravity makes a placed piece fall to the lowest empty cell of its
	// column, Connect-Four-style.
	Gravity bool `json:"gravity"`
}

// Validate reports whether the settings describe a playable game. The win
// condition is capped at the grid size so that every game is winnable.
func (s Settings) Validate() error {
	if s.GridSize < MinGridSize || s.GridSize > MaxGridSize {
		return ErrGridSize
	}
	if s.WinCondition < MinGridSize || s.WinCondition > s.GridSize {
		return ErrWinCondition
	}
	return nil
}
