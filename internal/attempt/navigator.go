package attempt

// Navigator holds the current-question pointer.
type Navigator struct {
	index   int
	total   int
	onVisit func(index int)
}

// NewNavigator creates a navigator over total questions positioned at 0.
// onVisit runs synchronously after every successful move.
func NewNavigator(total int, onVisit func(index int)) *Navigator {
	if total < 0 {
		total = 0
	}
	return &Navigator{total: total, onVisit: onVisit}
}

// Index returns the current question index.
func (n *Navigator) Index() int { return n.index }

// Total returns the number of questions.
func (n *Navigator) Total() int { return n.total }

// GoTo moves to index. Out-of-range requests are ignored.
func (n *Navigator) GoTo(index int) bool {
	if index < 0 || index >= n.total {
		return false
	}
	n.index = index
	if n.onVisit != nil {
		n.onVisit(index)
	}
	return true
}

// Next moves forward by one. No-op on the last question.
func (n *Navigator) Next() bool {
	return n.GoTo(n.index + 1)
}

// Prev moves back by one. No-op on the first question.
func (n *Navigator) Prev() bool {
	return n.GoTo(n.index - 1)
}

// IsFirst reports whether the pointer is on the first question.
func (n *Navigator) IsFirst() bool { return n.index == 0 }

// IsLast reports whether the pointer is on the last question.
func (n *Navigator) IsLast() bool { return n.total == 0 || n.index == n.total-1 }
