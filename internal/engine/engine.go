package engine

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/bidi"

	"github.com/dshills/inkblock/internal/engine/block"
	"github.com/dshills/inkblock/internal/engine/charmeta"
	"github.com/dshills/inkblock/internal/engine/content"
	"github.com/dshills/inkblock/internal/engine/decorator"
	"github.com/dshills/inkblock/internal/engine/docerr"
	"github.com/dshills/inkblock/internal/engine/entity"
	"github.com/dshills/inkblock/internal/engine/history"
	"github.com/dshills/inkblock/internal/engine/raw"
	"github.com/dshills/inkblock/internal/engine/selection"
	"github.com/dshills/inkblock/internal/engine/state"
	"github.com/dshills/inkblock/internal/engine/transaction"
	"github.com/dshills/inkblock/internal/engine/treeops"
)

// Re-export commonly used types for convenience.
type (
	// Selection is an anchor/focus pair of block positions.
	Selection = selection.Selection

	// ContentState is an immutable document snapshot.
	ContentState = content.ContentState

	// EditorState is an immutable editor snapshot with history.
	EditorState = state.EditorState

	// ChangeType classifies an edit for undo coalescing.
	ChangeType = history.ChangeType

	// InsertionMode places a moved block relative to its target.
	InsertionMode = transaction.InsertionMode
)

// Re-export constants.
const (
	Before = transaction.Before
	After  = transaction.After
)

// Engine is the main facade for the document engine.
// It holds one EditorState and replaces it on every edit.
//
// All operations are thread-safe and can be called from multiple goroutines.
type Engine struct {
	mu sync.RWMutex

	state  *state.EditorState
	logger *zap.Logger

	// Configuration
	tree           bool
	maxDepth       int
	maxUndoEntries int
	allowUndo      bool
	verifyTree     bool
	readOnly       bool
	decorator      decorator.Decorator

	// Initialization
	initContent *content.ContentState
	initText    *string
}

func newEngine(opts []Option) *Engine {
	e := &Engine{
		logger:         zap.NewNop(),
		maxDepth:       DefaultMaxDepth,
		maxUndoEntries: DefaultMaxUndoEntries,
		allowUndo:      true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) init(c *content.ContentState) {
	e.state = state.CreateWithContent(c,
		state.WithDecorator(e.decorator),
		state.WithAllowUndo(e.allowUndo),
		state.WithMaxUndoEntries(e.maxUndoEntries),
	)
}

// New creates a new engine with the given options.
func New(opts ...Option) *Engine {
	e := newEngine(opts)

	c := e.initContent
	if c == nil {
		var copts []content.Option
		if e.tree {
			copts = append(copts, content.AsTree())
		}
		text := ""
		if e.initText != nil {
			text = *e.initText
		}
		c = content.FromText(text, copts...)
	}
	e.tree = c.IsTree()
	e.init(c)
	return e
}

// NewFromJSON creates an engine from an interchange document. The document
// is decoded into the variant selected by WithTree.
func NewFromJSON(data []byte, opts ...Option) (*Engine, error) {
	e := newEngine(opts)
	c, err := raw.Decode(data, raw.Options{Tree: e.tree})
	if err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	e.init(c)
	return e, nil
}

// NewFromReader creates an engine from an interchange document read from r.
func NewFromReader(r io.Reader, opts ...Option) (*Engine, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return NewFromJSON(data, opts...)
}

// ============================================================================
// Read operations
// ============================================================================

// State returns the current editor state.
func (e *Engine) State() *state.EditorState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Content returns the current document.
func (e *Engine) Content() *content.ContentState {
	return e.State().CurrentContent()
}

// Selection returns the current selection.
func (e *Engine) Selection() Selection {
	return e.State().Selection()
}

// Block returns the block with key, or nil.
func (e *Engine) Block(key string) *block.Block {
	return e.Content().BlockForKey(key)
}

// BlockCount returns the number of blocks.
func (e *Engine) BlockCount() int {
	return e.Content().BlockMap().Len()
}

// PlainText returns the text of all leaf blocks joined by newlines.
func (e *Engine) PlainText() string {
	return e.Content().PlainText("\n")
}

// IsTree reports whether the document uses tree blocks.
func (e *Engine) IsTree() bool {
	return e.Content().IsTree()
}

// CurrentInlineStyle returns the style that typed text would get.
func (e *Engine) CurrentInlineStyle() charmeta.StyleSet {
	return e.State().CurrentInlineStyle()
}

// BlockTree returns the decorated leaves of the block with key.
func (e *Engine) BlockTree(key string) []state.DecoratorRange {
	return e.State().BlockTree(key)
}

// Direction returns the text direction of the block with key.
func (e *Engine) Direction(key string) bidi.Direction {
	return e.State().Direction(key)
}

// CanUndo returns true if there are operations to undo.
func (e *Engine) CanUndo() bool {
	s := e.State()
	return s.AllowUndo() && !s.UndoStack().IsEmpty()
}

// CanRedo returns true if there are operations to redo.
func (e *Engine) CanRedo() bool {
	s := e.State()
	return s.AllowUndo() && !s.RedoStack().IsEmpty()
}

// UndoCount returns the number of undo entries.
func (e *Engine) UndoCount() int {
	return e.State().UndoStack().Len()
}

// RedoCount returns the number of redo entries.
func (e *Engine) RedoCount() int {
	return e.State().RedoStack().Len()
}

// IsReadOnly reports whether edits are rejected.
func (e *Engine) IsReadOnly() bool {
	return e.readOnly
}

// Encode returns the interchange JSON of the document.
func (e *Engine) Encode(indent bool) ([]byte, error) {
	c := e.Content()
	if indent {
		return raw.EncodeIndent(c)
	}
	return raw.Encode(c)
}

// Copy returns the selected blocks as a fragment.
func (e *Engine) Copy() (content.BlockMap, error) {
	s := e.State()
	return transaction.Fragment(s.CurrentContent(), s.Selection())
}

// ============================================================================
// Edits
// ============================================================================

type editFunc func(*state.EditorState) (*state.EditorState, error)

// edit applies fn to the current state under the write lock.
func (e *Engine) edit(op string, fn editFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return ErrReadOnly
	}
	prev := e.state
	next, err := fn(prev)
	if err != nil {
		if docerr.IsInvariant(err) {
			e.logger.Error("invariant violation", zap.String("op", op), zap.Error(err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if e.verifyTree && next.CurrentContent() != prev.CurrentContent() {
		if err := treeops.Validate(next.CurrentContent().BlockMap()); err != nil {
			e.logger.Error("invariant violation", zap.String("op", op), zap.Error(err))
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if next.UndoStack().Peek() != prev.UndoStack().Peek() {
		e.logger.Debug("undo boundary",
			zap.String("op", op),
			zap.String("change", string(next.LastChangeType())),
			zap.Int("undo", next.UndoStack().Len()),
		)
	}
	e.state = next
	return nil
}

func (e *Engine) push(op string, change history.ChangeType, fn func(*content.ContentState, Selection) (*content.ContentState, error)) error {
	return e.edit(op, func(s *state.EditorState) (*state.EditorState, error) {
		c, err := fn(s.CurrentContent(), s.Selection())
		if docerr.IsNotApplicable(err) {
			return s, nil
		}
		if err != nil {
			return nil, err
		}
		return state.Push(s, c, change, true), nil
	})
}

// Select sets the selection without forcing the view to apply it.
func (e *Engine) Select(sel Selection) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sel, err := checkSelection(e.state.CurrentContent(), sel)
	if err != nil {
		return err
	}
	e.state = state.AcceptSelection(e.state, sel)
	return nil
}

// ForceSelect sets a focused selection that the view must apply.
func (e *Engine) ForceSelect(sel Selection) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sel, err := checkSelection(e.state.CurrentContent(), sel)
	if err != nil {
		return err
	}
	e.state = state.ForceSelection(e.state, sel)
	return nil
}

// checkSelection validates both edges of sel and derives IsBackward from
// document order.
func checkSelection(c *content.ContentState, sel Selection) (Selection, error) {
	edges := []struct {
		key    string
		offset int
	}{{sel.AnchorKey, sel.AnchorOffset}, {sel.FocusKey, sel.FocusOffset}}
	for _, edge := range edges {
		b := c.BlockForKey(edge.key)
		if b == nil {
			return sel, fmt.Errorf("%w: %q", ErrUnknownBlock, edge.key)
		}
		if edge.offset < 0 || edge.offset > b.Len() {
			return sel, docerr.Validationf(edge.key, "offset %d outside block of length %d", edge.offset, b.Len())
		}
	}
	bm := c.BlockMap()
	a, f := bm.Index(sel.AnchorKey), bm.Index(sel.FocusKey)
	sel.IsBackward = f < a || (f == a && sel.FocusOffset < sel.AnchorOffset)
	return sel, nil
}

// MoveToEnd places the cursor at the end of the document.
func (e *Engine) MoveToEnd() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = state.MoveFocusToEnd(e.state)
}

// InsertText types text over the selection.
func (e *Engine) InsertText(text string) error {
	return e.edit("insertText", func(s *state.EditorState) (*state.EditorState, error) {
		return state.InsertText(s, text)
	})
}

// Split splits the block at the selection.
func (e *Engine) Split() error {
	return e.edit("split", state.Split)
}

// Backspace deletes backward from the selection.
func (e *Engine) Backspace() error {
	return e.edit("backspace", state.Backspace)
}

// Delete deletes forward from the selection.
func (e *Engine) Delete() error {
	return e.edit("delete", state.Delete)
}

// BackspaceWord deletes the word before the cursor.
func (e *Engine) BackspaceWord() error {
	return e.edit("backspaceWord", state.BackspaceWord)
}

// DeleteWord deletes the word after the cursor.
func (e *Engine) DeleteWord() error {
	return e.edit("deleteWord", state.DeleteWord)
}

// ToggleInlineStyle toggles an inline style on the selection.
func (e *Engine) ToggleInlineStyle(style string) error {
	return e.edit("toggleInlineStyle", func(s *state.EditorState) (*state.EditorState, error) {
		return state.ToggleInlineStyle(s, style)
	})
}

// ToggleBlockType toggles the type of the selected blocks.
func (e *Engine) ToggleBlockType(typ string) error {
	return e.edit("toggleBlockType", func(s *state.EditorState) (*state.EditorState, error) {
		return state.ToggleBlockType(s, typ)
	})
}

// Tab handles the tab key, or shift-tab when shift is set.
func (e *Engine) Tab(shift bool) error {
	return e.edit("tab", func(s *state.EditorState) (*state.EditorState, error) {
		return state.OnTab(s, shift, e.maxDepth)
	})
}

// Indent nests the block at the selection deeper in a tree.
func (e *Engine) Indent() error {
	return e.edit("indent", state.Indent)
}

// Outdent promotes the block at the selection out of its parent.
func (e *Engine) Outdent() error {
	return e.edit("outdent", state.Outdent)
}

// SetBlockData replaces the data of the selected blocks.
func (e *Engine) SetBlockData(data block.Data) error {
	return e.push("setBlockData", history.ChangeBlockData, func(c *content.ContentState, sel Selection) (*content.ContentState, error) {
		return transaction.SetBlockData(c, sel, data)
	})
}

// MergeBlockData merges data into the data of the selected blocks.
func (e *Engine) MergeBlockData(data block.Data) error {
	return e.push("mergeBlockData", history.ChangeBlockData, func(c *content.ContentState, sel Selection) (*content.ContentState, error) {
		return transaction.MergeBlockData(c, sel, data)
	})
}

// CreateEntity adds an entity and links the selection to it. It returns
// the new entity key. A collapsed selection only adds the entity.
func (e *Engine) CreateEntity(typ string, mutability entity.Mutability, data map[string]any) (string, error) {
	var key string
	err := e.push("createEntity", history.ApplyEntity, func(c *content.ContentState, sel Selection) (*content.ContentState, error) {
		c = c.CreateEntity(typ, mutability, data)
		key = c.LastCreatedEntityKey()
		out, err := transaction.ApplyEntity(c, sel, key)
		if docerr.IsNotApplicable(err) {
			return c, nil
		}
		return out, err
	})
	return key, err
}

// RemoveEntity unlinks the selection from any entity.
func (e *Engine) RemoveEntity() error {
	return e.push("removeEntity", history.ApplyEntity, func(c *content.ContentState, sel Selection) (*content.ContentState, error) {
		return transaction.ApplyEntity(c, sel, "")
	})
}

// MoveBlock moves the block with key before or after target.
func (e *Engine) MoveBlock(key, target string, mode InsertionMode) error {
	return e.push("moveBlock", history.MoveBlock, func(c *content.ContentState, _ Selection) (*content.ContentState, error) {
		return transaction.MoveBlock(c, key, target, mode)
	})
}

// Paste replaces the selection with fragment. The fragment's keys are
// regenerated so it can be pasted more than once.
func (e *Engine) Paste(fragment content.BlockMap) error {
	return e.push("paste", history.InsertFragment, func(c *content.ContentState, sel Selection) (*content.ContentState, error) {
		return transaction.ReplaceWithFragment(c, sel, transaction.RandomizeKeys(fragment))
	})
}

// Undo reverts the most recent undo entry.
func (e *Engine) Undo() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return ErrReadOnly
	}
	if !e.state.AllowUndo() || e.state.UndoStack().IsEmpty() {
		return ErrNothingToUndo
	}
	e.state = state.Undo(e.state)
	e.logger.Debug("undo", zap.Int("undo", e.state.UndoStack().Len()), zap.Int("redo", e.state.RedoStack().Len()))
	return nil
}

// Redo reapplies the most recently undone entry.
func (e *Engine) Redo() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return ErrReadOnly
	}
	if !e.state.AllowUndo() || e.state.RedoStack().IsEmpty() {
		return ErrNothingToRedo
	}
	e.state = state.Redo(e.state)
	e.logger.Debug("redo", zap.Int("undo", e.state.UndoStack().Len()), zap.Int("redo", e.state.RedoStack().Len()))
	return nil
}

// SetContent replaces the document and clears the history.
func (e *Engine) SetContent(c *content.ContentState) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return ErrReadOnly
	}
	e.init(c)
	return nil
}

// SetDecorator replaces the decorator and rebuilds all leaves.
func (e *Engine) SetDecorator(d decorator.Decorator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.decorator = d
	e.state = state.SetDecorator(e.state, d)
}
