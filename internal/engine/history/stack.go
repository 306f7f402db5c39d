package history

import "github.com/dshills/inkblock/internal/engine/content"

// DefaultMaxEntries bounds stacks created with a non-positive limit.
const DefaultMaxEntries = 1000

type node struct {
	content *content.ContentState
	next    *node
}

// Stack is a persistent bounded stack of content snapshots. The zero value
// is an empty unbounded stack.
type Stack struct {
	top  *node
	size int // nodes reachable from top
	// dropped counts the oldest nodes that are no longer visible. They are
	// released when the stack is compacted.
	dropped    int
	maxEntries int
}

// NewStack returns an empty stack holding at most maxEntries snapshots.
func NewStack(maxEntries int) Stack {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return Stack{maxEntries: maxEntries}
}

// Len returns the number of snapshots available.
func (s Stack) Len() int { return s.size - s.dropped }

// IsEmpty reports whether the stack has no snapshots.
func (s Stack) IsEmpty() bool { return s.Len() == 0 }

// MaxEntries returns the bound, or 0 for an unbounded stack.
func (s Stack) MaxEntries() int { return s.maxEntries }

// Peek returns the top snapshot, or nil when the stack is empty.
func (s Stack) Peek() *content.ContentState {
	if s.IsEmpty() {
		return nil
	}
	return s.top.content
}

// Push returns a stack with c on top. The oldest entry is dropped when the
// bound is exceeded.
func (s Stack) Push(c *content.ContentState) Stack {
	s.top = &node{content: c, next: s.top}
	s.size++
	if s.maxEntries > 0 && s.Len() > s.maxEntries {
		s.dropped++
		// Compact once the hidden tail is as long as the bound so memory
		// stays proportional to maxEntries.
		if s.dropped >= s.maxEntries {
			s = s.compact()
		}
	}
	return s
}

// Pop returns the top snapshot and the stack without it. ok is false when
// the stack is empty.
func (s Stack) Pop() (c *content.ContentState, rest Stack, ok bool) {
	if s.IsEmpty() {
		return nil, s, false
	}
	c = s.top.content
	s.top = s.top.next
	s.size--
	return c, s, true
}

// Clear returns an empty stack with the same bound.
func (s Stack) Clear() Stack {
	return Stack{maxEntries: s.maxEntries}
}

// WithMaxEntries returns the stack rebounded to maxEntries, dropping the
// oldest snapshots that no longer fit. A non-positive value removes the
// bound.
func (s Stack) WithMaxEntries(maxEntries int) Stack {
	if maxEntries < 0 {
		maxEntries = 0
	}
	s.maxEntries = maxEntries
	if maxEntries > 0 && s.Len() > maxEntries {
		s.dropped += s.Len() - maxEntries
	}
	return s.compact()
}

// Snapshots returns the visible snapshots from top to bottom.
func (s Stack) Snapshots() []*content.ContentState {
	out := make([]*content.ContentState, 0, s.Len())
	n := s.top
	for i := 0; i < s.Len(); i++ {
		out = append(out, n.content)
		n = n.next
	}
	return out
}

// compact copies the visible nodes so the hidden tail can be collected.
func (s Stack) compact() Stack {
	if s.dropped == 0 {
		return s
	}
	items := s.Snapshots()
	out := Stack{maxEntries: s.maxEntries}
	for i := len(items) - 1; i >= 0; i-- {
		out.top = &node{content: items[i], next: out.top}
		out.size++
	}
	return out
}
