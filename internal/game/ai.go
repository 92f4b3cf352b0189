package game

// ChooseMove picks the bot move for player on b. It reads the board only.
// The second result is false when the player owns no cell.
func ChooseMove(b *Board, player PlayerID) (Position, bool) {
	var best Position
	bestScore := -1
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			cell := b.Cells[r][c]
			if cell.Owner != player || player == Empty {
				continue
			}
			if s := moveScore(b, r, c, player); s > bestScore {
				best, bestScore = Position{Row: r, Col: c}, s
			}
		}
	}
	return best, bestScore >= 0
}

func moveScore(b *Board, row, col int, player PlayerID) int {
	count := b.Cells[row][col].Count
	score := 4 * count
	// one orb away from exploding
	if count == CriticalMass-1 {
		score += 8
	}
	for _, n := range b.Neighbors(row, col) {
		owner := b.Cells[n.Row][n.Col].Owner
		if owner != Empty && owner != player {
			score += 6
		}
	}
	return score
}
