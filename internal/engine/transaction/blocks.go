package transaction

import (
	"github.com/dshills/inkblock/internal/engine/block"
	"github.com/dshills/inkblock/internal/engine/charmeta"
	"github.com/dshills/inkblock/internal/engine/content"
	"github.com/dshills/inkblock/internal/engine/docerr"
	"github.com/dshills/inkblock/internal/engine/selection"
)

func getBlock(c *content.ContentState, op, key string) (*block.Block, error) {
	b := c.BlockForKey(key)
	if b == nil {
		return nil, docerr.Invariant(op, key, "block does not exist")
	}
	return b, nil
}

// splice replaces runes [start, end) of b with text and chars.
func splice(b *block.Block, start, end int, text string, chars charmeta.List) *block.Block {
	start, end = clamp(start, 0, b.Len()), clamp(end, 0, b.Len())
	newText := b.Slice(0, start) + text + b.Slice(end, b.Len())
	return b.WithText(newText, b.Chars().Splice(start, end, chars))
}

// truncate keeps runes [start, end) of b.
func truncate(b *block.Block, start, end int) *block.Block {
	return b.WithText(b.Slice(start, end), b.Chars().Slice(start, end))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// selectedKeys returns the keys from the start to the end of sel, in order.
func selectedKeys(c *content.ContentState, op string, sel selection.Selection) ([]string, error) {
	keys := c.BlockMap().Range(sel.StartKey(), sel.EndKey())
	if keys == nil {
		return nil, docerr.Invariantf(op, sel.StartKey(), "selection does not span existing blocks in order")
	}
	return keys, nil
}

// sliceBounds returns the rune range of b covered by sel.
func sliceBounds(b *block.Block, sel selection.Selection) (int, int) {
	start, end := 0, b.Len()
	if b.Key() == sel.StartKey() {
		start = clamp(sel.StartOffset(), 0, b.Len())
	}
	if b.Key() == sel.EndKey() {
		end = clamp(sel.EndOffset(), 0, b.Len())
	}
	return start, end
}

// rootKeys returns the blocks without a parent, following order.
func rootKeys(tx *content.Txn) []string {
	var roots []string
	for _, k := range tx.Keys() {
		if tx.Get(k).Parent() == "" {
			roots = append(roots, k)
		}
	}
	return roots
}

// siblingGroup returns the current sibling list under parent.
func siblingGroup(tx *content.Txn, parent string) []string {
	if parent == "" {
		return rootKeys(tx)
	}
	return tx.Get(parent).Children()
}

// collapsedAt returns a collapsed selection keeping the focus flag of sel.
func collapsedAt(sel selection.Selection, key string, offset int) selection.Selection {
	return selection.Collapsed(key, offset).WithFocus(sel.HasFocus)
}
