package state

import (
	"errors"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/dshills/inkblock/internal/engine/block"
	"github.com/dshills/inkblock/internal/engine/charmeta"
	"github.com/dshills/inkblock/internal/engine/content"
	"github.com/dshills/inkblock/internal/engine/docerr"
	"github.com/dshills/inkblock/internal/engine/entity"
	"github.com/dshills/inkblock/internal/engine/history"
	"github.com/dshills/inkblock/internal/engine/selection"
	"github.com/dshills/inkblock/internal/engine/transaction"
)

// apply pushes the result of a transaction. A not-applicable result
// leaves s unchanged.
func apply(s *EditorState, c *content.ContentState, err error, change history.ChangeType) (*EditorState, error) {
	if errors.Is(err, docerr.ErrNotApplicable) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	return Push(s, c, change, true), nil
}

// ============================================================================
// Queries
// ============================================================================

// CurrentInlineStyle returns the style typed text would get: the override
// when set, else the style next to the selection start.
func (s *EditorState) CurrentInlineStyle() charmeta.StyleSet {
	if s.hasOverride {
		return s.styleOverride
	}
	c, sel := s.content, s.selection
	key := sel.StartKey()
	b := c.BlockForKey(key)
	if b == nil {
		return charmeta.EmptyStyle
	}
	offset := sel.StartOffset()
	if sel.IsCollapsed() {
		if offset > 0 {
			return b.InlineStyleAt(offset - 1)
		}
		if b.Len() > 0 {
			return b.InlineStyleAt(0)
		}
		return styleAbove(c, key)
	}
	if offset < b.Len() {
		return b.InlineStyleAt(offset)
	}
	if offset > 0 {
		return b.InlineStyleAt(offset - 1)
	}
	return styleAbove(c, key)
}

// styleAbove returns the style at the end of the nearest non-empty block
// before key.
func styleAbove(c *content.ContentState, key string) charmeta.StyleSet {
	keys := c.BlockMap().Keys()
	for i := c.BlockMap().Index(key) - 1; i >= 0; i-- {
		if b := c.BlockForKey(keys[i]); b.Len() > 0 {
			return b.InlineStyleAt(b.Len() - 1)
		}
	}
	return charmeta.EmptyStyle
}

// IsSelectionAtStartOfContent reports whether an edge of the selection is
// at offset 0 of the first block.
func (s *EditorState) IsSelectionAtStartOfContent() bool {
	first := s.content.FirstBlock()
	return s.selection.HasEdgeWithin(first.Key(), 0, 0)
}

// IsSelectionAtEndOfContent reports whether an edge of the selection is at
// the end of the last block.
func (s *EditorState) IsSelectionAtEndOfContent() bool {
	last := s.content.LastBlock()
	return s.selection.HasEdgeWithin(last.Key(), last.Len(), last.Len())
}

// entityKeyForSelection returns the entity typed text should join. Only
// mutable entities are extended.
func entityKeyForSelection(c *content.ContentState, sel selection.Selection) string {
	var key string
	if sel.IsCollapsed() {
		b := c.BlockForKey(sel.AnchorKey)
		offset := sel.AnchorOffset
		if b == nil || offset == 0 {
			return ""
		}
		key = b.EntityAt(offset - 1)
		if key != b.EntityAt(offset) {
			return ""
		}
	} else {
		b := c.BlockForKey(sel.StartKey())
		if b == nil {
			return ""
		}
		key = b.EntityAt(sel.StartOffset())
	}
	if key == "" {
		return ""
	}
	if e := c.Entity(key); e == nil || e.Mutability() != entity.Mutable {
		return ""
	}
	return key
}

// ============================================================================
// Styles and block types
// ============================================================================

// ToggleInlineStyle toggles style on the selection. A collapsed selection
// only changes the style override for the next typed characters.
func ToggleInlineStyle(s *EditorState, style string) (*EditorState, error) {
	current := s.CurrentInlineStyle()
	if s.selection.IsCollapsed() {
		if current.Has(style) {
			return SetInlineStyleOverride(s, current.Remove(style)), nil
		}
		return SetInlineStyleOverride(s, current.Add(style)), nil
	}
	var (
		c   *content.ContentState
		err error
	)
	if current.Has(style) {
		c, err = transaction.RemoveInlineStyle(s.content, s.selection, style)
	} else {
		c, err = transaction.ApplyInlineStyle(s.content, s.selection, style)
	}
	return apply(s, c, err, history.ChangeInlineStyle)
}

// ToggleBlockType sets the selected blocks to typ, or back to unstyled when
// the first one already has typ. Selections touching an atomic block are
// left alone.
func ToggleBlockType(s *EditorState, typ string) (*EditorState, error) {
	c, sel := s.content, s.selection
	startKey, endKey := sel.StartKey(), sel.EndKey()
	target := sel
	if startKey != endKey && sel.EndOffset() == 0 {
		before := c.BlockBefore(endKey)
		endKey = before.Key()
		target = selection.Range(startKey, sel.StartOffset(), endKey, before.Len()).WithFocus(sel.HasFocus)
	}
	for _, k := range c.BlockMap().Range(startKey, endKey) {
		if c.BlockForKey(k).Type() == block.Atomic {
			return s, nil
		}
	}
	first := c.BlockForKey(startKey)
	if first == nil {
		return nil, docerr.Invariant("toggleBlockType", startKey, "block does not exist")
	}
	if first.Type() == typ {
		typ = block.Unstyled
	}
	out, err := transaction.SetBlockType(c, target, typ)
	return apply(s, out, err, history.ChangeBlockType)
}

// OnTab handles the tab key. Flat list items change depth up to maxDepth;
// in a tree the block is indented or, with shift, outdented.
func OnTab(s *EditorState, shift bool, maxDepth int) (*EditorState, error) {
	c, sel := s.content, s.selection
	if c.IsTree() {
		if shift {
			return Outdent(s)
		}
		return Indent(s)
	}
	if sel.AnchorKey != sel.FocusKey {
		return s, nil
	}
	b := c.BlockForKey(sel.AnchorKey)
	if b == nil || !block.IsListItem(b.Type()) {
		return s, nil
	}
	adjustment := 1
	if shift {
		adjustment = -1
	} else if b.Depth() >= maxDepth {
		return s, nil
	}
	out, err := transaction.AdjustDepth(c, sel, adjustment, maxDepth)
	return apply(s, out, err, history.AdjustDepth)
}

// ApplyEntity links the selection to entityKey, or unlinks it when the key
// is empty.
func ApplyEntity(s *EditorState, sel selection.Selection, entityKey string) (*EditorState, error) {
	out, err := transaction.ApplyEntity(s.content, sel, entityKey)
	return apply(s, out, err, history.ApplyEntity)
}

// ============================================================================
// Typing and deletion
// ============================================================================

// InsertText types text over the selection using the current inline style
// and extending a surrounding mutable entity.
func InsertText(s *EditorState, text string) (*EditorState, error) {
	c, sel := s.content, s.selection
	out, err := transaction.ReplaceText(c, sel, text, s.CurrentInlineStyle(), entityKeyForSelection(c, sel))
	return apply(s, out, err, history.InsertCharacters)
}

// Split splits the block at the selection, removing selected text first.
func Split(s *EditorState) (*EditorState, error) {
	c, sel := s.content, s.selection
	if !sel.IsCollapsed() {
		removed, err := transaction.RemoveRangeWithEntities(c, sel, transaction.Forward)
		if err != nil {
			return nil, err
		}
		c, sel = removed, removed.SelectionAfter()
	}
	out, err := transaction.SplitBlock(c, sel)
	return apply(s, out, err, history.SplitBlock)
}

// Backspace deletes the grapheme cluster before a collapsed selection, or
// the selected range. At the start of a block it first clears a block
// style, then removes a preceding atomic block, then joins the block with
// the previous one.
func Backspace(s *EditorState) (*EditorState, error) {
	c, sel := s.content, s.selection
	if !sel.IsCollapsed() {
		out, err := transaction.RemoveRangeWithEntities(c, sel, transaction.Backward)
		return apply(s, out, err, history.RemoveRange)
	}
	b := c.BlockForKey(sel.AnchorKey)
	if b == nil {
		return nil, docerr.Invariant("backspace", sel.AnchorKey, "block does not exist")
	}
	offset := sel.AnchorOffset
	if offset > 0 {
		n := lastClusterLen(b.Slice(0, offset))
		target := selection.Range(b.Key(), offset-n, b.Key(), offset)
		out, err := transaction.RemoveRangeWithEntities(c, target, transaction.Backward)
		return apply(s, out, err, history.BackspaceCharacter)
	}

	if out := removeBlockStyle(c, sel, b); out != nil {
		return Push(s, out, history.ChangeBlockType, true), nil
	}
	if before := c.BlockBefore(b.Key()); !c.IsTree() && before != nil && before.Type() == block.Atomic {
		out := c.Update(c.BlockMap().Delete(before.Key()), c.SelectionBefore(), sel)
		return Push(s, out, history.RemoveRange, true), nil
	}
	prev := previousLeaf(c, b.Key())
	if prev == nil {
		return s, nil
	}
	target := selection.Range(prev.Key(), prev.Len(), b.Key(), 0)
	out, err := transaction.RemoveRangeWithEntities(c, target, transaction.Backward)
	return apply(s, out, err, history.BackspaceCharacter)
}

// Delete deletes the grapheme cluster after a collapsed selection, or the
// selected range. At the end of a block it joins the next one.
func Delete(s *EditorState) (*EditorState, error) {
	c, sel := s.content, s.selection
	if !sel.IsCollapsed() {
		out, err := transaction.RemoveRangeWithEntities(c, sel, transaction.Forward)
		return apply(s, out, err, history.RemoveRange)
	}
	b := c.BlockForKey(sel.AnchorKey)
	if b == nil {
		return nil, docerr.Invariant("delete", sel.AnchorKey, "block does not exist")
	}
	offset := sel.AnchorOffset
	var target selection.Selection
	if offset < b.Len() {
		n := firstClusterLen(b.Slice(offset, b.Len()))
		target = selection.Range(b.Key(), offset, b.Key(), offset+n)
	} else {
		next := nextLeaf(c, b.Key())
		if next == nil {
			return s, nil
		}
		target = selection.Range(b.Key(), offset, next.Key(), 0)
	}
	out, err := transaction.RemoveRangeWithEntities(c, target, transaction.Forward)
	return apply(s, out, err, history.DeleteCharacter)
}

// BackspaceWord deletes the word before a collapsed selection together
// with the spacing and punctuation that follows it.
func BackspaceWord(s *EditorState) (*EditorState, error) {
	c, sel := s.content, s.selection
	if !sel.IsCollapsed() || sel.AnchorOffset == 0 {
		out, err := Backspace(s)
		if err != nil || out == s {
			return out, err
		}
		return Push(s, out.content, history.RemoveRange, true), nil
	}
	b := c.BlockForKey(sel.AnchorKey)
	if b == nil {
		return nil, docerr.Invariant("backspaceWord", sel.AnchorKey, "block does not exist")
	}
	offset := sel.AnchorOffset
	n := max(backwardWordLen(b.Slice(0, offset)), 1)
	target := selection.Range(b.Key(), offset-n, b.Key(), offset)
	out, err := transaction.RemoveRangeWithEntities(c, target, transaction.Backward)
	return apply(s, out, err, history.RemoveRange)
}

// DeleteWord deletes the word after a collapsed selection together with
// the spacing and punctuation before it.
func DeleteWord(s *EditorState) (*EditorState, error) {
	c, sel := s.content, s.selection
	b := c.BlockForKey(sel.AnchorKey)
	if !sel.IsCollapsed() || b == nil || sel.AnchorOffset >= b.Len() {
		out, err := Delete(s)
		if err != nil || out == s {
			return out, err
		}
		return Push(s, out.content, history.RemoveRange, true), nil
	}
	offset := sel.AnchorOffset
	n := max(forwardWordLen(b.Slice(offset, b.Len())), 1)
	target := selection.Range(b.Key(), offset, b.Key(), offset+n)
	out, err := transaction.RemoveRangeWithEntities(c, target, transaction.Forward)
	return apply(s, out, err, history.RemoveRange)
}

// removeBlockStyle resets a styled block at the cursor to unstyled when
// the cursor is at its start and it is empty or the first block. It
// returns nil when there is nothing to reset.
func removeBlockStyle(c *content.ContentState, sel selection.Selection, b *block.Block) *content.ContentState {
	if b.Len() > 0 && b != c.FirstBlock() {
		return nil
	}
	if b.Type() == block.Unstyled || b.HasChildren() {
		return nil
	}
	if b.Type() == block.CodeBlock {
		if before := c.BlockBefore(b.Key()); before != nil && before.Type() == block.CodeBlock && before.Len() > 0 {
			return nil
		}
	}
	out, err := transaction.SetBlockType(c, sel, block.Unstyled)
	if err != nil {
		return nil
	}
	return out
}

// previousLeaf returns the nearest block before key without children.
func previousLeaf(c *content.ContentState, key string) *block.Block {
	keys := c.BlockMap().Keys()
	for i := c.BlockMap().Index(key) - 1; i >= 0; i-- {
		if b := c.BlockForKey(keys[i]); !b.HasChildren() {
			return b
		}
	}
	return nil
}

// nextLeaf returns the nearest block after key without children.
func nextLeaf(c *content.ContentState, key string) *block.Block {
	keys := c.BlockMap().Keys()
	for i := c.BlockMap().Index(key) + 1; i < len(keys); i++ {
		if b := c.BlockForKey(keys[i]); !b.HasChildren() {
			return b
		}
	}
	return nil
}

// ============================================================================
// Structure and selection
// ============================================================================

// Indent nests the block at the selection start one level deeper in a
// tree.
func Indent(s *EditorState) (*EditorState, error) {
	out, err := transaction.IndentBlock(s.content, s.selection)
	return apply(s, out, err, history.AdjustDepth)
}

// Outdent moves the block at the selection start out of its parent.
func Outdent(s *EditorState) (*EditorState, error) {
	out, err := transaction.OutdentBlock(s.content, s.selection)
	return apply(s, out, err, history.AdjustDepth)
}

func endSelection(s *EditorState) selection.Selection {
	last := s.content.LastBlock()
	return selection.Collapsed(last.Key(), last.Len())
}

// MoveSelectionToEnd puts a collapsed selection at the end of the
// document without forcing it.
func MoveSelectionToEnd(s *EditorState) *EditorState {
	return AcceptSelection(s, endSelection(s))
}

// MoveFocusToEnd puts a focused collapsed selection at the end of the
// document and forces it.
func MoveFocusToEnd(s *EditorState) *EditorState {
	return ForceSelection(s, endSelection(s))
}

// ============================================================================
// Text segmentation
// ============================================================================

func lastClusterLen(text string) int {
	n := 0
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		n = len(g.Runes())
	}
	return max(n, 1)
}

func firstClusterLen(text string) int {
	g := uniseg.NewGraphemes(text)
	if g.Next() {
		return len(g.Runes())
	}
	return 1
}

func words(text string) []string {
	var out []string
	state := -1
	for text != "" {
		var w string
		w, text, state = uniseg.FirstWordInString(text, state)
		out = append(out, w)
	}
	return out
}

func isWord(seg string) bool {
	for _, r := range seg {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// backwardWordLen returns the rune length of the trailing spacing and
// punctuation of text plus the word before it.
func backwardWordLen(text string) int {
	segs := words(text)
	n, i := 0, len(segs)-1
	for ; i >= 0 && !isWord(segs[i]); i-- {
		n += utf8.RuneCountInString(segs[i])
	}
	if i >= 0 {
		n += utf8.RuneCountInString(segs[i])
	}
	return n
}

// forwardWordLen returns the rune length of the leading spacing and
// punctuation of text plus the word after it.
func forwardWordLen(text string) int {
	segs := words(text)
	n, i := 0, 0
	for ; i < len(segs) && !isWord(segs[i]); i++ {
		n += utf8.RuneCountInString(segs[i])
	}
	if i < len(segs) {
		n += utf8.RuneCountInString(segs[i])
	}
	return n
}
