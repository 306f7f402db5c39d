package state

import (
	"golang.org/x/text/unicode/bidi"

	"github.com/dshills/inkblock/internal/engine/charmeta"
	"github.com/dshills/inkblock/internal/engine/content"
	"github.com/dshills/inkblock/internal/engine/decorator"
	"github.com/dshills/inkblock/internal/engine/history"
	"github.com/dshills/inkblock/internal/engine/selection"
)

// EditorState is an immutable editor snapshot.
type EditorState struct {
	content        *content.ContentState
	selection      selection.Selection
	forceSelection bool

	undo, redo     history.Stack
	lastChangeType history.ChangeType
	allowUndo      bool

	// styleOverride replaces the style of the next typed characters when
	// hasOverride is set.
	styleOverride charmeta.StyleSet
	hasOverride   bool

	decorator  decorator.Decorator
	leaves     leafCache
	directions directionMap
}

// Option configures a new EditorState.
type Option func(*EditorState)

// WithDecorator sets the decorator used for the leaf cache.
func WithDecorator(d decorator.Decorator) Option {
	return func(s *EditorState) { s.decorator = d }
}

// WithAllowUndo enables or disables the undo log.
func WithAllowUndo(allow bool) Option {
	return func(s *EditorState) { s.allowUndo = allow }
}

// WithMaxUndoEntries bounds the undo and redo stacks.
func WithMaxUndoEntries(n int) Option {
	return func(s *EditorState) {
		s.undo = history.NewStack(n)
		s.redo = history.NewStack(n)
	}
}

// CreateEmpty returns a state holding one empty unstyled block.
func CreateEmpty(opts ...Option) *EditorState {
	return CreateWithContent(content.Empty(), opts...)
}

// CreateWithContent returns a state for c with the cursor at the start of
// the first block.
func CreateWithContent(c *content.ContentState, opts ...Option) *EditorState {
	s := &EditorState{
		content:   c,
		selection: selection.CreateEmpty(c.FirstBlock().Key()),
		allowUndo: true,
		undo:      history.NewStack(history.DefaultMaxEntries),
		redo:      history.NewStack(history.DefaultMaxEntries),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.leaves = regenerateLeaves(nil, nil, c, s.decorator)
	s.directions = computeDirections(c, nil)
	return s
}

func (s *EditorState) clone() *EditorState {
	n := *s
	return &n
}

// withContent swaps the current content and brings the caches up to date.
func (s *EditorState) withContent(c *content.ContentState) *EditorState {
	n := s.clone()
	n.content = c
	n.leaves = regenerateLeaves(s.leaves, s.content, c, s.decorator)
	n.directions = computeDirections(c, s.directions)
	return n
}

// CurrentContent returns the current document.
func (s *EditorState) CurrentContent() *content.ContentState { return s.content }

// Selection returns the live selection.
func (s *EditorState) Selection() selection.Selection { return s.selection }

// MustForceSelection reports whether the view must apply the selection
// even if it believes it is current.
func (s *EditorState) MustForceSelection() bool { return s.forceSelection }

// UndoStack returns the undo stack, most recent first.
func (s *EditorState) UndoStack() history.Stack { return s.undo }

// RedoStack returns the redo stack, most recent first.
func (s *EditorState) RedoStack() history.Stack { return s.redo }

// LastChangeType returns the type of the most recent edit.
func (s *EditorState) LastChangeType() history.ChangeType { return s.lastChangeType }

// AllowUndo reports whether edits are recorded.
func (s *EditorState) AllowUndo() bool { return s.allowUndo }

// InlineStyleOverride returns the pending style for typed characters.
func (s *EditorState) InlineStyleOverride() (charmeta.StyleSet, bool) {
	return s.styleOverride, s.hasOverride
}

// Decorator returns the decorator, or nil.
func (s *EditorState) Decorator() decorator.Decorator { return s.decorator }

// BlockTree returns the cached decorated leaves of the block with key.
func (s *EditorState) BlockTree(key string) []DecoratorRange {
	ranges, _ := s.leaves.Get([]byte(key))
	return ranges
}

// Direction returns the text direction of the block with key.
func (s *EditorState) Direction(key string) bidi.Direction {
	d, ok := s.directions.Get([]byte(key))
	if !ok {
		return bidi.LeftToRight
	}
	return d
}

// Directions returns the text direction of every block.
func (s *EditorState) Directions() map[string]bidi.Direction {
	out := make(map[string]bidi.Direction, s.directions.Len())
	s.directions.Root().Walk(func(k []byte, d bidi.Direction) bool {
		out[string(k)] = d
		return false
	})
	return out
}

// Push records c as the new current content.
//
// Identical content returns s. When undo is disabled the content is
// replaced without touching the stacks. Otherwise a new undo entry starts
// when the live selection differs from the current content's
// selectionAfter, or history.Boundary says so; coalesced edits keep the
// selectionBefore of the entry they join. The redo stack is cleared.
func Push(s *EditorState, c *content.ContentState, change history.ChangeType, forceSelection bool) *EditorState {
	if c == s.content {
		return s
	}
	if !s.allowUndo {
		n := s.withContent(c)
		n.selection = c.SelectionAfter()
		n.forceSelection = forceSelection
		n.lastChangeType = change
		n.styleOverride, n.hasOverride = charmeta.EmptyStyle, false
		return n
	}

	current := s.content
	undo := s.undo
	selectionChanged := s.selection != current.SelectionAfter()
	switch {
	case history.Boundary(s.lastChangeType, change, selectionChanged):
		undo = undo.Push(current)
		c = c.WithSelectionBefore(s.selection)
	case change.Coalescable():
		c = c.WithSelectionBefore(current.SelectionBefore())
	}

	n := s.withContent(c)
	n.undo = undo
	n.redo = s.redo.Clear()
	n.lastChangeType = change
	n.selection = c.SelectionAfter()
	n.forceSelection = forceSelection
	if !change.KeepsStyleOverride() {
		n.styleOverride, n.hasOverride = charmeta.EmptyStyle, false
	}
	return n
}

// Undo restores the content before the most recent undo entry and moves
// the current content onto the redo stack. The selection returns to where
// it was before the undone edit.
func Undo(s *EditorState) *EditorState {
	if !s.allowUndo {
		return s
	}
	prev, undo, ok := s.undo.Pop()
	if !ok {
		return s
	}
	current := s.content
	n := s.withContent(prev)
	n.undo = undo
	n.redo = s.redo.Push(current)
	n.forceSelection = true
	n.styleOverride, n.hasOverride = charmeta.EmptyStyle, false
	n.lastChangeType = history.Undo
	n.selection = current.SelectionBefore()
	return n
}

// Redo reapplies the most recently undone content. The selection moves to
// where the redone edit left it.
func Redo(s *EditorState) *EditorState {
	if !s.allowUndo {
		return s
	}
	next, redo, ok := s.redo.Pop()
	if !ok {
		return s
	}
	n := s.withContent(next)
	n.undo = s.undo.Push(s.content)
	n.redo = redo
	n.forceSelection = true
	n.styleOverride, n.hasOverride = charmeta.EmptyStyle, false
	n.lastChangeType = history.Redo
	n.selection = next.SelectionAfter()
	return n
}

// AcceptSelection sets the live selection without forcing the view to
// apply it.
func AcceptSelection(s *EditorState, sel selection.Selection) *EditorState {
	n := s.clone()
	n.selection = sel
	n.forceSelection = false
	n.styleOverride, n.hasOverride = charmeta.EmptyStyle, false
	return n
}

// ForceSelection sets the live selection, gives it focus and makes the
// view apply it.
func ForceSelection(s *EditorState, sel selection.Selection) *EditorState {
	n := s.clone()
	n.selection = sel.WithFocus(true)
	n.forceSelection = true
	n.styleOverride, n.hasOverride = charmeta.EmptyStyle, false
	return n
}

// SetInlineStyleOverride sets the style applied to the next typed
// characters.
func SetInlineStyleOverride(s *EditorState, style charmeta.StyleSet) *EditorState {
	n := s.clone()
	n.styleOverride, n.hasOverride = style, true
	return n
}

// SetDecorator replaces the decorator and rebuilds the whole leaf cache.
func SetDecorator(s *EditorState, d decorator.Decorator) *EditorState {
	n := s.clone()
	n.decorator = d
	n.leaves = regenerateLeaves(nil, nil, s.content, d)
	return n
}

// SetAllowUndo enables or disables the undo log. Existing stacks are kept.
func SetAllowUndo(s *EditorState, allow bool) *EditorState {
	n := s.clone()
	n.allowUndo = allow
	return n
}

// SetMaxUndoEntries rebounds the undo and redo stacks, dropping the
// oldest entries that no longer fit.
func SetMaxUndoEntries(s *EditorState, max int) *EditorState {
	n := s.clone()
	n.undo = s.undo.WithMaxEntries(max)
	n.redo = s.redo.WithMaxEntries(max)
	return n
}
