// Package selection defines the document selection value.
package selection

// Selection is an anchor/focus pair of block positions.
// Selection is an immutable value type; the zero value selects nothing.
type Selection struct {
	AnchorKey    string
	AnchorOffset int
	FocusKey     string
	FocusOffset  int
	IsBackward   bool // focus precedes anchor in document order
	HasFocus     bool
}

// CreateEmpty returns a collapsed selection at the start of key.
func CreateEmpty(key string) Selection {
	return Collapsed(key, 0)
}

// Collapsed returns a collapsed selection at key/offset.
func Collapsed(key string, offset int) Selection {
	return Selection{AnchorKey: key, AnchorOffset: offset, FocusKey: key, FocusOffset: offset}
}

// Range returns a forward selection from start to end.
func Range(startKey string, startOffset int, endKey string, endOffset int) Selection {
	return Selection{AnchorKey: startKey, AnchorOffset: startOffset, FocusKey: endKey, FocusOffset: endOffset}
}

// IsZero reports whether the selection is unset.
func (s Selection) IsZero() bool {
	return s.AnchorKey == "" && s.FocusKey == ""
}

// IsCollapsed reports whether anchor and focus coincide.
func (s Selection) IsCollapsed() bool {
	return s.AnchorKey == s.FocusKey && s.AnchorOffset == s.FocusOffset
}

// StartKey returns the key of the earlier edge.
func (s Selection) StartKey() string {
	if s.IsBackward {
		return s.FocusKey
	}
	return s.AnchorKey
}

// StartOffset returns the offset of the earlier edge.
func (s Selection) StartOffset() int {
	if s.IsBackward {
		return s.FocusOffset
	}
	return s.AnchorOffset
}

// EndKey returns the key of the later edge.
func (s Selection) EndKey() string {
	if s.IsBackward {
		return s.AnchorKey
	}
	return s.FocusKey
}

// EndOffset returns the offset of the later edge.
func (s Selection) EndOffset() int {
	if s.IsBackward {
		return s.AnchorOffset
	}
	return s.FocusOffset
}

// HasEdgeWithin reports whether anchor or focus lies in key within
// [start, end].
func (s Selection) HasEdgeWithin(key string, start, end int) bool {
	if s.AnchorKey == key && s.AnchorOffset >= start && s.AnchorOffset <= end {
		return true
	}
	return s.FocusKey == key && s.FocusOffset >= start && s.FocusOffset <= end
}

// Collapse returns the selection collapsed to its start.
func (s Selection) Collapse() Selection {
	c := Collapsed(s.StartKey(), s.StartOffset())
	c.HasFocus = s.HasFocus
	return c
}

// CollapseToEnd returns the selection collapsed to its end.
func (s Selection) CollapseToEnd() Selection {
	c := Collapsed(s.EndKey(), s.EndOffset())
	c.HasFocus = s.HasFocus
	return c
}

// WithFocus returns a copy with HasFocus set.
func (s Selection) WithFocus(focus bool) Selection {
	s.HasFocus = focus
	return s
}
