// Package rating computes post-game rating changes with a Plackett-Luce
// (pairwise Bradley-Terry) expected-score model. Placements share the average
// score of the slots their tie group occupies.
package rating

import "math"

const (
	K             = 10
	DefaultRating = 800
)

// Strength maps a rating onto the logistic scale.
func Strength(r float64) float64 {
	return math.Pow(10, r/400)
}

// ExpectedScore is Σ_{j≠i} s_i/(s_i+s_j). Summed over all seats it is n(n-1)/2.
func ExpectedScore(ratings []float64, i int) float64 {
	si := Strength(ratings[i])
	sum := 0.0
	for j := range ratings {
		if j == i {
			continue
		}
		sum += si / (si + Strength(ratings[j]))
	}
	return sum
}

// ActualScores hands out n-1 … 0 by rank; every member of a tie group gets
// the average of the slots the group covers.
func ActualScores(n int, groups [][]int) []float64 {
	scores := make([]float64, n)
	rank := 0
	for _, group := range groups {
		if len(group) == 0 {
			continue
		}
		sum := 0.0
		for k := range group {
			sum += float64(max(n-1-(rank+k), 0))
		}
		avg := sum / float64(len(group))
		for _, seat := range group {
			scores[seat] = avg
		}
		rank += len(group)
	}
	return scores
}

// Deltas returns one rating change per seat. placement[0] is the winner and
// absorbs the rounding residual so the deltas sum to zero. A nil groups
// value ranks the winner alone and every other seat as one tie group.
func Deltas(placement []int, ratings []float64, groups [][]int) []int {
	n := len(ratings)
	if n == 0 || len(placement) == 0 {
		return make([]int, n)
	}
	if groups == nil {
		groups = [][]int{{placement[0]}, append([]int(nil), placement[1:]...)}
	}
	actual := ActualScores(n, groups)

	deltas := make([]int, n)
	sum := 0
	for i := range ratings {
		deltas[i] = roundHalfUp(K * (actual[i] - ExpectedScore(ratings, i)))
		sum += deltas[i]
	}
	if sum != 0 {
		deltas[placement[0]] -= sum
	}
	return deltas
}

// Standings turns a winner and the elimination history into a placement order
// and its tie groups: the group eliminated last places right after the winner.
func Standings(winner int, eliminated [][]int) (placement []int, groups [][]int) {
	placement = []int{winner}
	groups = [][]int{{winner}}
	for i := len(eliminated) - 1; i >= 0; i-- {
		if len(eliminated[i]) == 0 {
			continue
		}
		group := append([]int(nil), eliminated[i]...)
		placement = append(placement, group...)
		groups = append(groups, group)
	}
	return placement, groups
}

// FillGuests gives every seat without a stored rating the mean of the known ones.
func FillGuests(ratings []float64, known []bool) []float64 {
	sum, cnt := 0.0, 0
	for i, ok := range known {
		if ok {
			sum += ratings[i]
			cnt++
		}
	}
	synthetic := float64(DefaultRating)
	if cnt > 0 {
		synthetic = sum / float64(cnt)
	}
	out := make([]float64, len(ratings))
	for i := range ratings {
		if known[i] {
			out[i] = ratings[i]
		} else {
			out[i] = synthetic
		}
	}
	return out
}

// half-way values round towards +Inf
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
