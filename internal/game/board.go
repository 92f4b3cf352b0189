package game

const (
	DefaultRows = 7
	DefaultCols = 7

	// CriticalMass is the count at which a cell explodes.
	CriticalMass = 4
	// MaxOrbs caps a cell after it receives spillover. Direct placements are not capped.
	MaxOrbs = 8
)

type Cell struct {
	Count int      `json:"count"`
	Owner PlayerID `json:"owner"`
}

type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type Board struct {
	Rows  int
	Cols  int
	Cells [][]Cell
}

func NewBoard(rows, cols int) *Board {
	cells := make([][]Cell, rows)
	for r := range cells {
		cells[r] = make([]Cell, cols)
	}
	return &Board{Rows: rows, Cols: cols, Cells: cells}
}

func (b *Board) Clone() *Board {
	c := NewBoard(b.Rows, b.Cols)
	for r := range b.Cells {
		copy(c.Cells[r], b.Cells[r])
	}
	return c
}

func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < b.Rows && col >= 0 && col < b.Cols
}

// Neighbors returns the orthogonal in-grid neighbours of a cell in up, down, left, right order.
func (b *Board) Neighbors(row, col int) []Position {
	out := make([]Position, 0, 4)
	if row > 0 {
		out = append(out, Position{row - 1, col})
	}
	if row < b.Rows-1 {
		out = append(out, Position{row + 1, col})
	}
	if col > 0 {
		out = append(out, Position{row, col - 1})
	}
	if col < b.Cols-1 {
		out = append(out, Position{row, col + 1})
	}
	return out
}

// ApplyMove places one orb for player. Only cells the player already owns accept an orb.
func (b *Board) ApplyMove(row, col int, player PlayerID) bool {
	if player == Empty || !b.InBounds(row, col) {
		return false
	}
	cell := &b.Cells[row][col]
	if cell.Owner != player {
		return false
	}
	cell.Count++
	cell.Owner = player
	return true
}

func (b *Board) IsUnstable(row, col int) bool {
	return b.Cells[row][col].Count >= CriticalMass
}

// Explode empties the cell and hands count-3 orbs to each in-grid neighbour.
// Shares that would fall off the grid are lost.
func (b *Board) Explode(row, col int, player PlayerID) {
	spill := b.Cells[row][col].Count - 3
	b.Cells[row][col] = Cell{}
	for _, n := range b.Neighbors(row, col) {
		cell := &b.Cells[n.Row][n.Col]
		cell.Count = min(MaxOrbs, cell.Count+spill)
		cell.Owner = player
	}
}

// ResolveOptions hooks the engine into a resolution without giving the board any engine state.
type ResolveOptions struct {
	// Terminate runs after every explosion. A non-empty result halts resolution.
	Terminate func(b *Board) PlayerID
	// AfterPass runs after every full pass that exploded at least one cell.
	AfterPass func(b *Board)
}

// Outcome of a resolution: Winner is Empty when the board settled without a decision.
type Outcome struct {
	Winner     PlayerID
	Explosions int
	Passes     int
	// Capped is set when the pass guard stopped a cascade that had not settled.
	Capped bool
}

func (o Outcome) Stable() bool {
	return o.Winner == Empty
}

// Resolve explodes unstable cells in row-major passes until a pass makes no explosion.
// Explosions feed cells later in the same pass.
func (b *Board) Resolve(player PlayerID, opts ResolveOptions) Outcome {
	var out Outcome
	maxPasses := b.Rows * b.Cols * MaxOrbs
	for {
		if out.Passes >= maxPasses {
			out.Capped = true
			return out
		}
		out.Passes++
		exploded := 0
		for r := 0; r < b.Rows; r++ {
			for c := 0; c < b.Cols; c++ {
				if !b.IsUnstable(r, c) {
					continue
				}
				b.Explode(r, c, player)
				exploded++
				out.Explosions++
				if opts.Terminate != nil {
					if w := opts.Terminate(b); w != Empty {
						out.Winner = w
						return out
					}
				}
			}
		}
		if exploded == 0 {
			return out
		}
		if opts.AfterPass != nil {
			opts.AfterPass(b)
		}
	}
}

// Orbs returns the total orbs owned by player.
func (b *Board) Orbs(player PlayerID) int {
	total := 0
	for r := range b.Cells {
		for _, cell := range b.Cells[r] {
			if cell.Owner == player {
				total += cell.Count
			}
		}
	}
	return total
}

func (b *Board) TotalOrbs() int {
	total := 0
	for r := range b.Cells {
		for _, cell := range b.Cells[r] {
			total += cell.Count
		}
	}
	return total
}

// DuelWinner decides a two-player board. A side only loses once it has moved and has no orbs left.
func (b *Board) DuelWinner(first, second PlayerID, firstMoved, secondMoved bool) PlayerID {
	a, z := b.Orbs(first), b.Orbs(second)
	if a > 0 && z == 0 && secondMoved {
		return first
	}
	if z > 0 && a == 0 && firstMoved {
		return second
	}
	return Empty
}

// LastSurvivor returns the only player still holding orbs, or Empty while several remain.
func (b *Board) LastSurvivor(players []PlayerID) PlayerID {
	survivor := Empty
	for _, p := range players {
		if b.Orbs(p) == 0 {
			continue
		}
		if survivor != Empty {
			return Empty
		}
		survivor = p
	}
	return survivor
}
