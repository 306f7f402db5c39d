package state

import (
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/unicode/bidi"

	"github.com/dshills/inkblock/internal/engine/block"
	"github.com/dshills/inkblock/internal/engine/blocktest"
	"github.com/dshills/inkblock/internal/engine/charmeta"
	"github.com/dshills/inkblock/internal/engine/content"
	"github.com/dshills/inkblock/internal/engine/decorator"
	"github.com/dshills/inkblock/internal/engine/history"
	"github.com/dshills/inkblock/internal/engine/selection"
	"github.com/dshills/inkblock/internal/engine/transaction"
)

type editFunc func(*EditorState) (*EditorState, error)

func edit(t *testing.T, s *EditorState, fn editFunc) *EditorState {
	t.Helper()
	out, err := fn(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return out
}

func toggle(style string) editFunc {
	return func(s *EditorState) (*EditorState, error) { return ToggleInlineStyle(s, style) }
}

func typeText(t *testing.T, s *EditorState, text string) *EditorState {
	t.Helper()
	for _, r := range text {
		var err error
		s, err = InsertText(s, string(r))
		if err != nil {
			t.Fatalf("InsertText(%q) failed: %v", r, err)
		}
	}
	return s
}

func setType(t *testing.T, s *EditorState, typ string) *EditorState {
	t.Helper()
	c, err := transaction.SetBlockType(s.CurrentContent(), s.Selection(), typ)
	if err != nil {
		t.Fatalf("SetBlockType failed: %v", err)
	}
	return Push(s, c, history.ChangeBlockType, true)
}

// ============================================================================
// Push, undo and redo
// ============================================================================

func TestPushIdentical(t *testing.T) {
	s := CreateEmpty()
	if Push(s, s.CurrentContent(), history.InsertCharacters, true) != s {
		t.Error("pushing the current content should return the same state")
	}
}

// Typing "cat" produces one undo entry, and undo restores the content
// from before the first keystroke.
func TestTypingCoalesces(t *testing.T) {
	s0 := CreateWithContent(blocktest.Flat(t, "a", ""))
	s := typeText(t, s0, "cat")

	if got := s.CurrentContent().FirstBlock().Text(); got != "cat" {
		t.Fatalf("text = %q", got)
	}
	if s.UndoStack().Len() != 1 {
		t.Fatalf("undo entries = %d, want 1", s.UndoStack().Len())
	}

	undone := Undo(s)
	if undone.CurrentContent() != s0.CurrentContent() {
		t.Error("undo should restore the content before typing")
	}
	if undone.Selection() != selection.Collapsed("a", 0) || !undone.MustForceSelection() {
		t.Errorf("selection after undo = %+v force=%v", undone.Selection(), undone.MustForceSelection())
	}
	if undone.LastChangeType() != history.Undo || undone.RedoStack().Len() != 1 {
		t.Errorf("lastChangeType = %s, redo = %d", undone.LastChangeType(), undone.RedoStack().Len())
	}

	redone := Redo(undone)
	if redone.CurrentContent() != s.CurrentContent() {
		t.Error("redo should restore the typed content")
	}
	if redone.Selection() != selection.Collapsed("a", 3) || redone.UndoStack().Len() != 1 {
		t.Errorf("selection after redo = %+v", redone.Selection())
	}
}

func TestAlternatingChangesDoNotCoalesce(t *testing.T) {
	s := CreateWithContent(blocktest.Flat(t, "a", ""))
	const n = 6
	for i := 0; i < n/2; i++ {
		s = typeText(t, s, "x")
		s = setType(t, s, []string{block.HeaderOne, block.Blockquote, block.CodeBlock}[i])
	}
	if s.UndoStack().Len() != n {
		t.Errorf("undo entries = %d, want %d", s.UndoStack().Len(), n)
	}
}

func TestSelectionChangeStartsEntry(t *testing.T) {
	s := CreateWithContent(blocktest.Flat(t, "a", ""))
	s = typeText(t, s, "ab")
	s = AcceptSelection(s, selection.Collapsed("a", 0))
	s = typeText(t, s, "c")

	if got := s.CurrentContent().FirstBlock().Text(); got != "cab" {
		t.Fatalf("text = %q", got)
	}
	if s.UndoStack().Len() != 2 {
		t.Errorf("undo entries = %d, want 2", s.UndoStack().Len())
	}
	if got := Undo(s).CurrentContent().FirstBlock().Text(); got != "ab" {
		t.Errorf("after one undo text = %q", got)
	}
}

func TestPushClearsRedo(t *testing.T) {
	s := typeText(t, CreateWithContent(blocktest.Flat(t, "a", "")), "x")
	s = Undo(s)
	if s.RedoStack().Len() != 1 {
		t.Fatalf("redo = %d", s.RedoStack().Len())
	}
	s = typeText(t, s, "y")
	if !s.RedoStack().IsEmpty() {
		t.Error("push should clear the redo stack")
	}
	if Redo(s) != s {
		t.Error("redo with an empty stack should be a no-op")
	}
}

func TestUndoEmptyAndDisabled(t *testing.T) {
	s := CreateEmpty()
	if Undo(s) != s {
		t.Error("undo with an empty stack should be a no-op")
	}

	off := CreateWithContent(blocktest.Flat(t, "a", ""), WithAllowUndo(false))
	off = typeText(t, off, "hi")
	if got := off.CurrentContent().FirstBlock().Text(); got != "hi" {
		t.Fatalf("text = %q", got)
	}
	if !off.UndoStack().IsEmpty() || Undo(off) != off {
		t.Error("disabled undo should not record entries")
	}
	if off.Selection() != selection.Collapsed("a", 2) {
		t.Errorf("selection = %+v", off.Selection())
	}
}

func TestUndoRedoInverse(t *testing.T) {
	s := CreateWithContent(blocktest.Flat(t, "a", "hello world", "b", "second"))
	s = AcceptSelection(s, selection.Range("a", 3, "b", 2))
	next := edit(t, s, Backspace)

	back := Undo(next)
	if back.CurrentContent() != s.CurrentContent() {
		t.Error("undo(push(S, E)) should restore S's content")
	}
	if back.Selection() != selection.Range("a", 3, "b", 2) {
		t.Errorf("selection = %+v", back.Selection())
	}
	if Redo(back).CurrentContent() != next.CurrentContent() {
		t.Error("redo should restore S' content")
	}
}

func TestMaxUndoEntries(t *testing.T) {
	s := CreateWithContent(blocktest.Flat(t, "a", ""), WithMaxUndoEntries(2))
	for _, typ := range []string{block.HeaderOne, block.HeaderTwo, block.HeaderThree, block.Blockquote} {
		s = setType(t, s, typ)
	}
	if s.UndoStack().Len() != 2 {
		t.Errorf("undo entries = %d, want 2", s.UndoStack().Len())
	}

	s = SetMaxUndoEntries(s, 1)
	if s.UndoStack().Len() != 1 {
		t.Errorf("undo entries = %d after rebounding, want 1", s.UndoStack().Len())
	}
}

func TestStyleOverride(t *testing.T) {
	s := CreateWithContent(blocktest.Flat(t, "a", "x"))
	s = AcceptSelection(s, selection.Collapsed("a", 1))
	bold := charmeta.NewStyleSet("BOLD")

	kept := Push(SetInlineStyleOverride(s, bold), mustSplit(t, s), history.SplitBlock, true)
	if style, ok := kept.InlineStyleOverride(); !ok || !style.Equal(bold) {
		t.Error("split-block should keep the style override")
	}

	c, err := transaction.InsertText(s.CurrentContent(), s.Selection(), "y", charmeta.EmptyStyle, "")
	if err != nil {
		t.Fatalf("InsertText failed: %v", err)
	}
	cleared := Push(SetInlineStyleOverride(s, bold), c, history.InsertCharacters, true)
	if _, ok := cleared.InlineStyleOverride(); ok {
		t.Error("insert-characters should clear the style override")
	}
}

func mustSplit(t *testing.T, s *EditorState) *content.ContentState {
	t.Helper()
	c, err := transaction.SplitBlock(s.CurrentContent(), s.Selection())
	if err != nil {
		t.Fatalf("SplitBlock failed: %v", err)
	}
	return c
}

func TestForceSelection(t *testing.T) {
	s := CreateWithContent(blocktest.Flat(t, "a", "abc"))
	f := ForceSelection(s, selection.Collapsed("a", 2))
	if !f.MustForceSelection() || !f.Selection().HasFocus {
		t.Errorf("forced selection = %+v", f.Selection())
	}
	a := AcceptSelection(f, selection.Collapsed("a", 1))
	if a.MustForceSelection() || a.UndoStack().Len() != 0 {
		t.Error("accepting a selection should not force it or record history")
	}
}

// ============================================================================
// Leaf cache
// ============================================================================

type countingDecorator struct {
	calls map[string]int
	inner decorator.Decorator
}

func (d *countingDecorator) Decorations(b *block.Block, c *content.ContentState) []string {
	d.calls[b.Key()]++
	return d.inner.Decorations(b, c)
}

func TestLeafCacheRegeneratesChangedBlocks(t *testing.T) {
	d := &countingDecorator{
		calls: map[string]int{},
		inner: decorator.NewComposite(decorator.RegexStrategy(regexp.MustCompile(`world`))),
	}
	s := CreateWithContent(blocktest.Flat(t, "a", "hello world", "b", "bee", "c", "sea"), WithDecorator(d))
	if diff := cmp.Diff(map[string]int{"a": 1, "b": 1, "c": 1}, d.calls); diff != "" {
		t.Fatalf("initial calls (-want +got):\n%s", diff)
	}
	untouched := s.BlockTree("c")

	s = AcceptSelection(s, selection.Collapsed("b", 3))
	s = typeText(t, s, "s")
	if diff := cmp.Diff(map[string]int{"a": 1, "b": 2, "c": 1}, d.calls); diff != "" {
		t.Errorf("calls after typing (-want +got):\n%s", diff)
	}
	if got := s.BlockTree("c"); &got[0] != &untouched[0] {
		t.Error("unchanged block should keep its cached leaves")
	}

	split := edit(t, s, Split)
	newKey := split.Selection().AnchorKey
	if split.BlockTree(newKey) == nil {
		t.Fatal("new block should have leaves")
	}
	if Undo(split).BlockTree(newKey) != nil {
		t.Error("removed block should be pruned from the cache")
	}

	SetDecorator(s, d)
	if d.calls["c"] != 2 {
		t.Errorf("changing the decorator should regenerate every block, calls = %v", d.calls)
	}
}

func TestGenerateLeaves(t *testing.T) {
	c := blocktest.Flat(t, "a", "hello world", "e", "")
	c, err := transaction.ApplyInlineStyle(c, selection.Range("a", 0, "a", 2), "BOLD")
	if err != nil {
		t.Fatalf("ApplyInlineStyle failed: %v", err)
	}
	d := decorator.NewComposite(decorator.RegexStrategy(regexp.MustCompile(`world`)))

	got := GenerateLeaves(c, c.BlockForKey("a"), d)
	want := []DecoratorRange{
		{Start: 0, End: 6, Leaves: []LeafRange{{0, 2}, {2, 6}}},
		{Start: 6, End: 11, DecoratorKey: "0.0", Leaves: []LeafRange{{6, 11}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("leaves (-want +got):\n%s", diff)
	}

	empty := GenerateLeaves(c, c.BlockForKey("e"), d)
	if diff := cmp.Diff([]DecoratorRange{{Leaves: []LeafRange{{}}}}, empty); diff != "" {
		t.Errorf("empty block (-want +got):\n%s", diff)
	}

	plain := GenerateLeaves(c, c.BlockForKey("a"), nil)
	if len(plain) != 1 || plain[0].End != 11 || plain[0].DecoratorKey != "" {
		t.Errorf("undecorated leaves = %+v", plain)
	}
}

// ============================================================================
// Direction map
// ============================================================================

func TestDirections(t *testing.T) {
	s := CreateWithContent(blocktest.Flat(t, "a", "hello", "b", "שלום", "c", "123", "d", "", "e", "abc"))
	want := map[string]bidi.Direction{
		"a": bidi.LeftToRight,
		"b": bidi.RightToLeft,
		"c": bidi.RightToLeft,
		"d": bidi.RightToLeft,
		"e": bidi.LeftToRight,
	}
	if diff := cmp.Diff(want, s.Directions()); diff != "" {
		t.Errorf("directions (-want +got):\n%s", diff)
	}
	if s.Direction("missing") != bidi.LeftToRight {
		t.Error("unknown block should default to left-to-right")
	}

	s = AcceptSelection(s, selection.Range("a", 0, "a", 5))
	styled := edit(t, s, toggle("BOLD"))
	if styled.directions != s.directions {
		t.Error("unchanged directions should reuse the previous map")
	}
}
