package dataprocessing

import (
	"sort"

	"tickviewer/pkg/contracts/domain"
)

// DepthLadder indexes depth snapshots by time for as-of lookups.
//
// Snapshots are expected in ascending Datetime order, as captured. The ladder
// keeps them in the order given and does not re-sort.
type DepthLadder struct {
	depths []domain.DepthRecord
}

// NewDepthLadder builds a ladder over depths. The slice is not copied.
func NewDepthLadder(depths []domain.DepthRecord) *DepthLadder {
	return &DepthLadder{depths: depths}
}

// Len returns the number of snapshots.
func (l *DepthLadder) Len() int {
	return len(l.depths)
}

// Before returns the latest snapshot with Datetime strictly less than t.
func (l *DepthLadder) Before(t int64) (*domain.DepthRecord, bool) {
	i := l.firstAtOrAfter(t)
	if i == 0 {
		return nil, false
	}
	return &l.depths[i-1], true
}

func (l *DepthLadder) firstAtOrAfter(t int64) int {
	return sort.Search(len(l.depths), func(i int) bool {
		return l.depths[i].Datetime >= t
	})
}

// Cursor returns a sweep over the ladder for queries in ascending time.
func (l *DepthLadder) Cursor() *LadderCursor {
	return &LadderCursor{ladder: l}
}

// LadderCursor answers Before queries with a forward-only pointer. Every
// snapshot before next has Datetime below the last queried time.
type LadderCursor struct {
	ladder  *DepthLadder
	next    int
	last    int64
	started bool
}

// Before returns the same snapshot as DepthLadder.Before. Queries in
// non-decreasing time cost amortized O(1); a query that goes back in time
// repositions the cursor with a binary search.
func (c *LadderCursor) Before(t int64) (*domain.DepthRecord, bool) {
	depths := c.ladder.depths
	if c.started && t < c.last {
		c.next = c.ladder.firstAtOrAfter(t)
	}
	for c.next < len(depths) && depths[c.next].Datetime < t {
		c.next++
	}
	c.last = t
	c.started = true
	if c.next == 0 {
		return nil, false
	}
	return &depths[c.next-1], true
}
