package game

import "fmt"

// PlayerID is the positional identity a seat plays under.
type PlayerID int8

const (
	Empty  PlayerID = 0
	Red    PlayerID = 1
	Green  PlayerID = 2
	Blue   PlayerID = 3
	Yellow PlayerID = 4
)

func (p PlayerID) String() string {
	switch p {
	case Empty:
		return "empty"
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	case Yellow:
		return "yellow"
	}
	return fmt.Sprintf("player(%d)", int8(p))
}

// Mode is the room topology; its value is the seat count.
type Mode int

const (
	TwoPlayer  Mode = 2
	FourPlayer Mode = 4
)

func (m Mode) Seats() int {
	return int(m)
}

func (m Mode) Valid() bool {
	return m == TwoPlayer || m == FourPlayer
}

func (m Mode) String() string {
	switch m {
	case TwoPlayer:
		return "2p"
	case FourPlayer:
		return "4p"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Identities returns the identities handed out in seat order.
func (m Mode) Identities() []PlayerID {
	if m == FourPlayer {
		return []PlayerID{Red, Green, Blue, Yellow}
	}
	return []PlayerID{Red, Green}
}

// Seeds returns the starting cell of every identity, clockwise from the top-left.
func Seeds(m Mode, rows, cols int) map[PlayerID]Position {
	if m == FourPlayer {
		return map[PlayerID]Position{
			Red:    {Row: 1, Col: 1},
			Green:  {Row: 1, Col: cols - 2},
			Blue:   {Row: rows - 2, Col: cols - 2},
			Yellow: {Row: rows - 2, Col: 1},
		}
	}
	return map[PlayerID]Position{
		Red:   {Row: 1, Col: 1},
		Green: {Row: rows - 2, Col: cols - 2},
	}
}

// NewGameBoard creates the seeded board for a mode.
func NewGameBoard(m Mode, rows, cols int) *Board {
	b := NewBoard(rows, cols)
	for id, pos := range Seeds(m, rows, cols) {
		b.Cells[pos.Row][pos.Col] = Cell{Count: 1, Owner: id}
	}
	return b
}
