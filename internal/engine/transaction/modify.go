package transaction

import (
	"github.com/dshills/inkblock/internal/engine/block"
	"github.com/dshills/inkblock/internal/engine/charmeta"
	"github.com/dshills/inkblock/internal/engine/content"
	"github.com/dshills/inkblock/internal/engine/docerr"
	"github.com/dshills/inkblock/internal/engine/selection"
)

// ModifyBlocks applies fn to every block from the start to the end of sel.
// Both recorded selections are sel.
func ModifyBlocks(c *content.ContentState, sel selection.Selection, fn func(*block.Block) *block.Block) (*content.ContentState, error) {
	keys, err := selectedKeys(c, "modifyBlocks", sel)
	if err != nil {
		return nil, err
	}
	tx := c.BlockMap().Txn()
	for _, k := range keys {
		b := tx.Get(k)
		if nb := fn(b); nb != b {
			tx.Put(nb)
		}
	}
	return c.Update(tx.Commit(), sel, sel), nil
}

// AdjustDepth adds adjustment to the depth of every selected block,
// clamping the result to [0, maxDepth].
func AdjustDepth(c *content.ContentState, sel selection.Selection, adjustment, maxDepth int) (*content.ContentState, error) {
	if maxDepth < 0 {
		maxDepth = 0
	}
	return ModifyBlocks(c, sel, func(b *block.Block) *block.Block {
		return b.WithDepth(clamp(b.Depth()+adjustment, 0, maxDepth))
	})
}

// SetBlockType sets the type of every selected block and resets its depth.
func SetBlockType(c *content.ContentState, sel selection.Selection, typ string) (*content.ContentState, error) {
	return ModifyBlocks(c, sel, func(b *block.Block) *block.Block {
		return b.WithType(typ).WithDepth(0)
	})
}

// SetBlockData replaces the data of every selected block.
func SetBlockData(c *content.ContentState, sel selection.Selection, data block.Data) (*content.ContentState, error) {
	return ModifyBlocks(c, sel, func(b *block.Block) *block.Block {
		return b.WithData(data)
	})
}

// MergeBlockData merges data into every selected block.
func MergeBlockData(c *content.ContentState, sel selection.Selection, data block.Data) (*content.ContentState, error) {
	return ModifyBlocks(c, sel, func(b *block.Block) *block.Block {
		return b.MergeData(data)
	})
}

// ApplyInlineStyle adds style to every selected character.
func ApplyInlineStyle(c *content.ContentState, sel selection.Selection, style string) (*content.ContentState, error) {
	return mapChars(c, sel, func(m *charmeta.CharacterMetadata) *charmeta.CharacterMetadata {
		return charmeta.ApplyStyle(m, style)
	})
}

// RemoveInlineStyle removes style from every selected character.
func RemoveInlineStyle(c *content.ContentState, sel selection.Selection, style string) (*content.ContentState, error) {
	return mapChars(c, sel, func(m *charmeta.CharacterMetadata) *charmeta.CharacterMetadata {
		return charmeta.RemoveStyle(m, style)
	})
}

func mapChars(c *content.ContentState, sel selection.Selection, fn func(*charmeta.CharacterMetadata) *charmeta.CharacterMetadata) (*content.ContentState, error) {
	return ModifyBlocks(c, sel, func(b *block.Block) *block.Block {
		start, end := sliceBounds(b, sel)
		chars := b.Chars().Map(start, end, fn)
		if chars.Identical(b.Chars()) {
			return b
		}
		return b.WithChars(chars)
	})
}

// InsertText inserts text with the given style and entity at a collapsed
// selection. The recorded selectionAfter is collapsed after the new text.
func InsertText(c *content.ContentState, sel selection.Selection, text string, style charmeta.StyleSet, entityKey string) (*content.ContentState, error) {
	const op = "insertText"
	if !sel.IsCollapsed() {
		return nil, docerr.ErrNotApplicable
	}
	b, err := getBlock(c, op, sel.AnchorKey)
	if err != nil {
		return nil, err
	}
	if b.HasChildren() {
		return nil, docerr.Invariant(op, b.Key(), "cannot insert text into a block with children")
	}
	if text == "" {
		return c, nil
	}
	offset := clamp(sel.AnchorOffset, 0, b.Len())
	inserted := b.WithText(text, nil)
	chars := charmeta.Repeat(charmeta.Create(style, entityKey), inserted.Len())
	nb := splice(b, offset, offset, text, chars)

	after := collapsedAt(sel, b.Key(), offset+inserted.Len())
	return c.Update(c.BlockMap().Set(nb), sel, after), nil
}

// ReplaceText removes the selected range and inserts text in its place.
func ReplaceText(c *content.ContentState, sel selection.Selection, text string, style charmeta.StyleSet, entityKey string) (*content.ContentState, error) {
	removed, at, err := removeForReplace(c, sel)
	if err != nil {
		return nil, err
	}
	out, err := InsertText(removed, at, text, style, entityKey)
	if err != nil {
		return nil, err
	}
	return out.WithSelectionBefore(sel), nil
}
