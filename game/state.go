package game

// Cell addresses a single grid position. The grid is column-major, so Col
// selects the outer slice and Row the inner one.
type Cell struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// WinLine records who won and the two endpoint cells of the winning run,
// which clients use to draw a line through the aligned marks.
type WinLine struct {
	Player Mark `json:"player"`
	From   Cell `json:"from"`
	To     Cell `json:"to"`
}

// State is the authoritative simulation state. It is also the exact snapshot
// broadcast to every client after an accepted command, so everything a client
// needs in order to render the game lives here.
type State struct {
	Winner  *WinLine `json:"winner"`
	Draw    bool     `json:"draw"`
	Turn    Mark     `json:"turn"`
	Grid    [][]Mark `json:"grid"`
	Size    int      `json:"size"`
	Win     int      `json:"win"`
	Gravity bool     `json:"gravity"`
}

// NewState returns an empty grid with naughts to move. Settings are assumed
// to have been validated by the lobby.
func NewState(s Settings) *State {
	grid := make([][]Mark, s.GridSize)
	for i := range grid {
		grid[i] = make([]Mark, s.GridSize)
	}
	return &State{
		Turn:    MarkNaughts,
		Grid:    grid,
		Size:    s.GridSize,
		Win:     s.WinCondition,
		Gravity: s.Gravity,
	}
}

// Restart resets the board in place, keeping the settings the state was
// created with.
func (s *State) Restart() {
	*s = *NewState(Settings{GridSize: s.Size, WinCondition: s.Win, Gravity: s.Gravity})
}

// Over reports whether the game has finished, either by a win or a draw.
func (s *State) Over() bool {
	return s.Winner != nil || s.Draw
}

// Full reports whether every cell is occupied.
func (s *State) Full() bool {
	for _, col := range s.Grid {
		for _, m := range col {
			if m == MarkEmpty {
				return false
			}
		}
	}
	return true
}

// Place applies a move by the player currently on turn and reports whether
// the move was accepted. Out-of-bounds clicks, occupied cells, full columns
// (with gravity), and moves after the game has ended are all non-moves.
//
// With gravity on, the row is ignored entirely (only the column must be in
// bounds) and the piece falls to the lowest empty cell of the column. An
// accepted move always toggles the turn, checks the win condition around the
// placed cell, and flags a draw if it filled the last empty cell.
func (s *State) Place(col, row int) bool {
	if s.Over() {
		return false
	}
	if col < 0 || col >= s.Size {
		return false
	}
	if s.Gravity {
		// A full column is detectable from its top cell alone.
		if s.Grid[col][0] != MarkEmpty {
			return false
		}
		for r := s.Size - 1; r >= 0; r-- {
			if s.Grid[col][r] == MarkEmpty {
				row = r
				break
			}
		}
	} else if row < 0 || row >= s.Size || s.Grid[col][row] != MarkEmpty {
		return false
	}

	s.Grid[col][row] = s.Turn
	s.checkWin(col, row)
	if s.Winner == nil && s.Full() {
		s.Draw = true
	}
	s.Turn = s.Turn.Next()
	return true
}

// direction pairs: horizontal, vertical, and the two diagonals. Each axis is
// scanned outward from the placed cell in both directions.
var axes = [4][2][2]int{
	{{1, 0}, {-1, 0}},
	{{0, 1}, {0, -1}},
	{{1, 1}, {-1, -1}},
	{{-1, 1}, {1, -1}},
}

// checkWin looks for a run of at least s.Win marks through the cell that was
// just placed, and records the winner and the run's endpoints if found.
func (s *State) checkWin(col, row int) {
	player := s.Grid[col][row]
	for _, axis := range axes {
		fwd, bwd := axis[0], axis[1]
		nf := s.countRun(col, row, fwd[0], fwd[1], player)
		nb := s.countRun(col, row, bwd[0], bwd[1], player)
		if nf+nb+1 >= s.Win {
			s.Winner = &WinLine{
				Player: player,
				From:   Cell{Col: col + fwd[0]*nf, Row: row + fwd[1]*nf},
				To:     Cell{Col: col + bwd[0]*nb, Row: row + bwd[1]*nb},
			}
			return
		}
	}
}

// countRun counts consecutive cells owned by player along (dx, dy), starting
// from the cell after (col, row).
func (s *State) countRun(col, row, dx, dy int, player Mark) int {
	count := 0
	for {
		col += dx
		row += dy
		if col < 0 || col >= s.Size || row < 0 || row >= s.Size {
			return count
		}
		if s.Grid[col][row] != player {
			return count
		}
		count++
	}
}
