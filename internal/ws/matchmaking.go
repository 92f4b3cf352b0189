package ws

import "colourwars/internal/game"

// Queue is a FIFO matchmaking queue for one mode. Only the hub goroutine touches it.
type Queue struct {
	mode    game.Mode
	waiting []*Client
}

func NewQueue(mode game.Mode) *Queue {
	return &Queue{mode: mode}
}

// Join appends c unless it is already waiting and returns its 1-based position.
func (q *Queue) Join(c *Client) (position int, added bool) {
	if pos := q.Position(c); pos > 0 {
		return pos, false
	}
	q.waiting = append(q.waiting, c)
	return len(q.waiting), true
}

// Position is 1-based; 0 means not queued.
func (q *Queue) Position(c *Client) int {
	for i, w := range q.waiting {
		if w == c {
			return i + 1
		}
	}
	return 0
}

func (q *Queue) Remove(c *Client) bool {
	for i, w := range q.waiting {
		if w == c {
			q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
			return true
		}
	}
	return false
}

func (q *Queue) Len() int {
	return len(q.waiting)
}

// HasUser reports whether a connection other than except is waiting as userID.
// Guests (0) never collide.
func (q *Queue) HasUser(userID int64, except *Client) bool {
	if userID == 0 {
		return false
	}
	for _, w := range q.waiting {
		if w != except && w.UserID == userID {
			return true
		}
	}
	return false
}

// table picks the first waiting clients, in arrival order, that can share a table:
// a logged-in account is seated at most once.
func (q *Queue) table() []int {
	n := q.mode.Seats()
	picked := make([]int, 0, n)
	seen := make(map[int64]bool, n)
	for i, w := range q.waiting {
		if w.UserID != 0 {
			if seen[w.UserID] {
				continue
			}
			seen[w.UserID] = true
		}
		picked = append(picked, i)
		if len(picked) == n {
			break
		}
	}
	return picked
}

// Ready reports whether a full table can be seated.
func (q *Queue) Ready() bool {
	return len(q.table()) == q.mode.Seats()
}

// Take dequeues exactly one table's worth of players in arrival order. Connections
// sharing an account with an earlier pick keep their place.
func (q *Queue) Take() []*Client {
	picked := q.table()
	if len(picked) < q.mode.Seats() {
		return nil
	}
	batch := make([]*Client, 0, len(picked))
	taken := make(map[int]bool, len(picked))
	for _, i := range picked {
		batch = append(batch, q.waiting[i])
		taken[i] = true
	}
	rest := q.waiting[:0]
	for i, w := range q.waiting {
		if !taken[i] {
			rest = append(rest, w)
		}
	}
	q.waiting = rest
	return batch
}
