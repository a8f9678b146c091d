package solver

import (
	"sort"

	"github.com/phantomachine/assortative-matching-large-firms/internal/matching"
)

// Trajectory accumulates solution rows in integration order. Row 0 is the
// boundary-condition row; it is rebuilt whenever the shooting guess changes.
type Trajectory struct {
	rows []matching.Row
}

func (t *Trajectory) reset(boundary matching.Row) {
	t.rows = t.rows[:0]
	t.rows = append(t.rows, boundary)
}

func (t *Trajectory) append(r matching.Row) {
	t.rows = append(t.rows, r)
}

func (t *Trajectory) Len() int { return len(t.rows) }

// Rows returns a copy of the trajectory in integration order.
func (t *Trajectory) Rows() []matching.Row {
	return append([]matching.Row(nil), t.rows...)
}

// Table returns the trajectory keyed for external consumers: ascending by
// worker skill under positive sorting, natural integration order otherwise.
func (t *Trajectory) Table(a matching.Assortativity) []matching.Row {
	out := t.Rows()
	if a == matching.Positive {
		sort.Slice(out, func(i, j int) bool { return out[i].X < out[j].X })
	}
	return out
}
