package selection

import "testing"

func TestEdges(t *testing.T) {
	tests := []struct {
		name             string
		sel              Selection
		startKey, endKey string
		startOff, endOff int
		collapsed        bool
	}{
		{"empty", CreateEmpty("a"), "a", "a", 0, 0, true},
		{"forward", Range("a", 1, "b", 2), "a", "b", 1, 2, false},
		{"backward", Selection{AnchorKey: "b", AnchorOffset: 2, FocusKey: "a", FocusOffset: 1, IsBackward: true}, "a", "b", 1, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.sel
			if s.StartKey() != tt.startKey || s.StartOffset() != tt.startOff {
				t.Errorf("start = %s@%d", s.StartKey(), s.StartOffset())
			}
			if s.EndKey() != tt.endKey || s.EndOffset() != tt.endOff {
				t.Errorf("end = %s@%d", s.EndKey(), s.EndOffset())
			}
			if s.IsCollapsed() != tt.collapsed {
				t.Errorf("IsCollapsed() = %v", s.IsCollapsed())
			}
		})
	}
}

func TestCollapse(t *testing.T) {
	s := Selection{AnchorKey: "b", AnchorOffset: 2, FocusKey: "a", FocusOffset: 1, IsBackward: true, HasFocus: true}
	if c := s.Collapse(); c != (Selection{AnchorKey: "a", AnchorOffset: 1, FocusKey: "a", FocusOffset: 1, HasFocus: true}) {
		t.Errorf("Collapse() = %+v", c)
	}
	if c := s.CollapseToEnd(); c.AnchorKey != "b" || c.FocusOffset != 2 || !c.IsCollapsed() {
		t.Errorf("CollapseToEnd() = %+v", c)
	}
}

func TestHasEdgeWithin(t *testing.T) {
	s := Range("a", 3, "b", 1)
	if !s.HasEdgeWithin("a", 0, 3) {
		t.Error("anchor should be within a[0,3]")
	}
	if s.HasEdgeWithin("a", 4, 9) {
		t.Error("anchor is not within a[4,9]")
	}
	if !s.HasEdgeWithin("b", 1, 1) {
		t.Error("focus should be within b[1,1]")
	}
	if (Selection{}).IsZero() != true || s.IsZero() {
		t.Error("IsZero mismatch")
	}
}
