package transaction

import (
	"slices"

	"github.com/dshills/inkblock/internal/engine/block"
	"github.com/dshills/inkblock/internal/engine/content"
	"github.com/dshills/inkblock/internal/engine/docerr"
	"github.com/dshills/inkblock/internal/engine/selection"
)

// SplitBlock splits the block at a collapsed selection into two blocks.
// The lower block gets a new key, the same type and depth, and empty data.
//
// An empty list item or blockquote is not split: at depth 0 it becomes
// unstyled, deeper ones move up one level.
func SplitBlock(c *content.ContentState, sel selection.Selection) (*content.ContentState, error) {
	const op = "splitBlock"
	if !sel.IsCollapsed() {
		return nil, docerr.ErrNotApplicable
	}
	key := sel.AnchorKey
	b, err := getBlock(c, op, key)
	if err != nil {
		return nil, err
	}
	if b.HasChildren() {
		return nil, docerr.Invariant(op, key, "cannot split a block with children")
	}

	if b.Len() == 0 && (block.IsListItem(b.Type()) || b.Type() == block.Blockquote) {
		var nb *block.Block
		if b.Depth() == 0 {
			nb = b.WithType(block.Unstyled)
		} else {
			nb = b.WithDepth(b.Depth() - 1)
		}
		return c.Update(c.BlockMap().Set(nb), sel, sel), nil
	}

	offset := clamp(sel.AnchorOffset, 0, b.Len())
	above := truncate(b, 0, offset)
	below := truncate(b, offset, b.Len()).WithKey(content.GenerateKey()).WithData(nil)

	tx := c.BlockMap().Txn()
	if b.IsTree() {
		below = below.WithLinks(b.Parent(), key, b.NextSibling())
		above = above.WithNextSibling(below.Key())
		if n := b.NextSibling(); n != "" {
			tx.Put(tx.Get(n).WithPrevSibling(below.Key()))
		}
		if p := b.Parent(); p != "" {
			parent := tx.Get(p)
			i := slices.Index(parent.Children(), key)
			tx.Put(parent.WithChildren(slices.Insert(slices.Clone(parent.Children()), i+1, below.Key())))
		}
	}
	tx.Put(above)
	tx.InsertAfter(key, below)

	return c.Update(tx.Commit(), sel, collapsedAt(sel, below.Key(), 0)), nil
}
