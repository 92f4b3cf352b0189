package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGameBoardSeeds(t *testing.T) {
	b := NewGameBoard(TwoPlayer, DefaultRows, DefaultCols)
	assert.Equal(t, Cell{Count: 1, Owner: Red}, b.Cells[1][1])
	assert.Equal(t, Cell{Count: 1, Owner: Green}, b.Cells[5][5])
	assert.Equal(t, 2, b.TotalOrbs())

	b4 := NewGameBoard(FourPlayer, DefaultRows, DefaultCols)
	assert.Equal(t, Cell{Count: 1, Owner: Green}, b4.Cells[1][5])
	assert.Equal(t, Cell{Count: 1, Owner: Yellow}, b4.Cells[5][1])
	for _, id := range FourPlayer.Identities() {
		assert.Equal(t, 1, b4.Orbs(id), "identity %s", id)
	}
}

func TestApplyMove(t *testing.T) {
	tests := []struct {
		name     string
		row, col int
		player   PlayerID
		want     bool
	}{
		{"own cell", 1, 1, Red, true},
		{"opponent cell", 5, 5, Red, false},
		{"empty cell", 3, 3, Red, false},
		{"row out of bounds", -1, 1, Red, false},
		{"col out of bounds", 1, 7, Red, false},
		{"empty player", 3, 3, Empty, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewGameBoard(TwoPlayer, DefaultRows, DefaultCols)
			before := b.Clone()
			got := b.ApplyMove(tt.row, tt.col, tt.player)
			assert.Equal(t, tt.want, got)
			if !tt.want {
				assert.Equal(t, before, b, "rejected move must not mutate the board")
			} else {
				assert.Equal(t, 2, b.Cells[tt.row][tt.col].Count)
			}
		})
	}
}

func TestApplyMoveIsNotCapped(t *testing.T) {
	b := NewBoard(3, 3)
	b.Cells[1][1] = Cell{Count: MaxOrbs, Owner: Blue}
	require.True(t, b.ApplyMove(1, 1, Blue))
	assert.Equal(t, MaxOrbs+1, b.Cells[1][1].Count)
}

func TestExplodeCornerLosesOffBoardShares(t *testing.T) {
	b := NewBoard(DefaultRows, DefaultCols)
	b.Cells[0][0] = Cell{Count: 4, Owner: Red}
	b.Cells[0][1] = Cell{Count: 1, Owner: Green}

	b.Explode(0, 0, Red)

	assert.Equal(t, Cell{}, b.Cells[0][0])
	assert.Equal(t, Cell{Count: 2, Owner: Red}, b.Cells[0][1])
	assert.Equal(t, Cell{Count: 1, Owner: Red}, b.Cells[1][0])
	assert.Equal(t, 3, b.TotalOrbs(), "two shares fall off the grid")
}

func TestExplodeInteriorConservesAtCriticalMass(t *testing.T) {
	b := NewBoard(5, 5)
	b.Cells[2][2] = Cell{Count: 4, Owner: Red}

	b.Explode(2, 2, Red)

	assert.Equal(t, 4, b.TotalOrbs())
	for _, n := range b.Neighbors(2, 2) {
		assert.Equal(t, Cell{Count: 1, Owner: Red}, b.Cells[n.Row][n.Col])
	}
}

func TestExplodeClampsSpillover(t *testing.T) {
	b := NewBoard(5, 5)
	b.Cells[2][2] = Cell{Count: 6, Owner: Red}
	b.Cells[1][2] = Cell{Count: 7, Owner: Green}

	b.Explode(2, 2, Red)

	assert.Equal(t, Cell{Count: MaxOrbs, Owner: Red}, b.Cells[1][2], "7+3 is clamped")
	assert.Equal(t, Cell{Count: 3, Owner: Red}, b.Cells[3][2])
	assert.Equal(t, Cell{Count: 3, Owner: Red}, b.Cells[2][1])
	assert.Equal(t, Cell{Count: 3, Owner: Red}, b.Cells[2][3])
}

func TestResolveCascadesWithinPass(t *testing.T) {
	b := NewBoard(DefaultRows, DefaultCols)
	b.Cells[0][1] = Cell{Count: 4, Owner: Red}
	b.Cells[0][2] = Cell{Count: 3, Owner: Red}

	out := b.Resolve(Red, ResolveOptions{})

	assert.True(t, out.Stable())
	assert.Equal(t, 2, out.Explosions)
	assert.Equal(t, 2, out.Passes, "the second explosion happens in the first pass")
}

func TestResolveRestartsForEarlierCells(t *testing.T) {
	b := NewBoard(DefaultRows, DefaultCols)
	b.Cells[0][1] = Cell{Count: 3, Owner: Red}
	b.Cells[0][2] = Cell{Count: 4, Owner: Red}

	passes := 0
	out := b.Resolve(Red, ResolveOptions{AfterPass: func(*Board) { passes++ }})

	assert.Equal(t, 2, out.Explosions)
	assert.Equal(t, 3, out.Passes)
	assert.Equal(t, 2, passes)
}

func TestResolveIdempotentOnStableBoard(t *testing.T) {
	b := NewGameBoard(FourPlayer, DefaultRows, DefaultCols)
	b.Cells[3][3] = Cell{Count: 3, Owner: Red}

	first := b.Resolve(Red, ResolveOptions{})
	snapshot := b.Clone()
	second := b.Resolve(Red, ResolveOptions{})

	assert.Zero(t, first.Explosions)
	assert.Zero(t, second.Explosions)
	assert.Equal(t, snapshot, b)
}

func TestResolveTerminateHaltsCascade(t *testing.T) {
	b := NewBoard(DefaultRows, DefaultCols)
	b.Cells[3][3] = Cell{Count: 4, Owner: Red}
	b.Cells[2][3] = Cell{Count: 3, Owner: Green}
	b.Cells[4][3] = Cell{Count: 1, Owner: Blue}
	b.Cells[3][2] = Cell{Count: 1, Owner: Yellow}

	players := FourPlayer.Identities()
	checks := 0
	out := b.Resolve(Red, ResolveOptions{Terminate: func(b *Board) PlayerID {
		checks++
		return b.LastSurvivor(players)
	}})

	assert.Equal(t, Red, out.Winner)
	assert.Equal(t, 1, checks)
	assert.Equal(t, 1, out.Explosions)
	assert.True(t, b.IsUnstable(2, 3), "the cascade stops as soon as one owner remains")
}

func randomBoard(rng *rand.Rand, players []PlayerID) *Board {
	b := NewBoard(DefaultRows, DefaultCols)
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			if n := rng.Intn(6); n > 0 {
				b.Cells[r][c] = Cell{Count: n, Owner: players[rng.Intn(len(players))]}
			}
		}
	}
	return b
}

func TestResolveTerminatesOnRandomBoards(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	players := FourPlayer.Identities()
	decided := 0
	for i := 0; i < 200; i++ {
		b := randomBoard(rng, players)

		out := b.Resolve(players[rng.Intn(len(players))], ResolveOptions{Terminate: func(b *Board) PlayerID {
			return b.LastSurvivor(players)
		}})

		require.False(t, out.Capped, "board %d hit the pass guard", i)
		for r := 0; r < b.Rows; r++ {
			for c := 0; c < b.Cols; c++ {
				cell := b.Cells[r][c]
				require.Equal(t, cell.Count == 0, cell.Owner == Empty, "board %d cell %d,%d", i, r, c)
				require.LessOrEqual(t, cell.Count, MaxOrbs, "board %d cell %d,%d", i, r, c)
				if out.Winner == Empty {
					require.False(t, b.IsUnstable(r, c), "board %d left unstable cell %d,%d", i, r, c)
				} else if cell.Owner != Empty {
					require.Equal(t, out.Winner, cell.Owner, "board %d: only the winner holds orbs", i)
				}
			}
		}
		if out.Winner != Empty {
			decided++
		}
	}
	assert.Positive(t, decided)
}

func TestResolveWithoutCheckStopsAtPassGuard(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	players := FourPlayer.Identities()
	b := randomBoard(rng, players)

	out := b.Resolve(Red, ResolveOptions{})

	assert.True(t, out.Capped, "a saturated board keeps exploding once no one is declared winner")
	assert.Equal(t, b.Rows*b.Cols*MaxOrbs, out.Passes)
	assert.Equal(t, Empty, out.Winner)
}

func TestDuelWinner(t *testing.T) {
	b := NewBoard(DefaultRows, DefaultCols)
	b.Cells[1][1] = Cell{Count: 3, Owner: Red}

	assert.Equal(t, Empty, b.DuelWinner(Red, Green, true, false), "green never moved")
	assert.Equal(t, Red, b.DuelWinner(Red, Green, true, true))

	b.Cells[1][1] = Cell{Count: 2, Owner: Green}
	assert.Equal(t, Green, b.DuelWinner(Red, Green, true, true))

	b.Cells[2][2] = Cell{Count: 1, Owner: Red}
	assert.Equal(t, Empty, b.DuelWinner(Red, Green, true, true))
}

func TestLastSurvivor(t *testing.T) {
	b := NewGameBoard(FourPlayer, DefaultRows, DefaultCols)
	players := FourPlayer.Identities()
	assert.Equal(t, Empty, b.LastSurvivor(players))

	b.Cells[1][5] = Cell{}
	b.Cells[5][5] = Cell{}
	assert.Equal(t, Empty, b.LastSurvivor(players))

	b.Cells[5][1] = Cell{}
	assert.Equal(t, Red, b.LastSurvivor(players))
}
