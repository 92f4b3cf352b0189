package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChooseMovePrefersNearCritical(t *testing.T) {
	b := NewBoard(DefaultRows, DefaultCols)
	b.Cells[0][0] = Cell{Count: 2, Owner: Red}
	b.Cells[4][4] = Cell{Count: 3, Owner: Red}

	pos, ok := ChooseMove(b, Red)

	assert.True(t, ok)
	assert.Equal(t, Position{Row: 4, Col: 4}, pos)
}

func TestChooseMoveRewardsCaptures(t *testing.T) {
	b := NewBoard(DefaultRows, DefaultCols)
	// 4*3+8 = 20
	b.Cells[0][0] = Cell{Count: 3, Owner: Red}
	// 4*1 + 6*3 = 22
	b.Cells[3][3] = Cell{Count: 1, Owner: Red}
	b.Cells[2][3] = Cell{Count: 1, Owner: Green}
	b.Cells[4][3] = Cell{Count: 1, Owner: Blue}
	b.Cells[3][2] = Cell{Count: 2, Owner: Yellow}

	pos, ok := ChooseMove(b, Red)

	assert.True(t, ok)
	assert.Equal(t, Position{Row: 3, Col: 3}, pos)
}

func TestChooseMoveTieBreaksRowMajor(t *testing.T) {
	b := NewBoard(DefaultRows, DefaultCols)
	b.Cells[5][0] = Cell{Count: 2, Owner: Green}
	b.Cells[2][6] = Cell{Count: 2, Owner: Green}
	b.Cells[2][1] = Cell{Count: 2, Owner: Green}

	pos, ok := ChooseMove(b, Green)

	assert.True(t, ok)
	assert.Equal(t, Position{Row: 2, Col: 1}, pos)
}

func TestChooseMoveNoCells(t *testing.T) {
	b := NewGameBoard(TwoPlayer, DefaultRows, DefaultCols)

	_, ok := ChooseMove(b, Blue)
	assert.False(t, ok)

	_, ok = ChooseMove(b, Empty)
	assert.False(t, ok)
}

func TestChooseMoveDoesNotMutate(t *testing.T) {
	b := NewGameBoard(FourPlayer, DefaultRows, DefaultCols)
	before := b.Clone()

	ChooseMove(b, Yellow)

	assert.Equal(t, before, b)
}
