package game

// Mark is the contents of a single grid cell. The zero value means the
// cell is empty.
type Mark uint8

const (
	MarkEmpty Mark = iota
	MarkNaughts
	MarkCrosses
)

// Next returns the mark that moves after this one. Empty has no successor
// and is returned unchanged.
func (m Mark) Next() Mark {
	switch m {
	case MarkNaughts:
		return MarkCrosses
	case MarkCrosses:
		return MarkNaughts
	}
	return m
}

func (m Mark) String() string {
	switch m {
	case MarkNaughts:
		return "naughts"
	case MarkCrosses:
		return "crosses"
	}
	return "empty"
}
