package transaction

import (
	"slices"

	"github.com/dshills/inkblock/internal/engine/content"
	"github.com/dshills/inkblock/internal/engine/docerr"
	"github.com/dshills/inkblock/internal/engine/selection"
	"github.com/dshills/inkblock/internal/engine/treeops"
)

// IndentBlock nests the block at the start of sel one level deeper in a
// tree. The block joins its previous sibling when that sibling has
// children, otherwise its next sibling when that one has children,
// otherwise it is wrapped in a new container. Two containers that end up
// adjacent are merged.
func IndentBlock(c *content.ContentState, sel selection.Selection) (*content.ContentState, error) {
	const op = "indentBlock"
	if !c.IsTree() {
		return nil, docerr.ErrNotApplicable
	}
	b, err := getBlock(c, op, sel.StartKey())
	if err != nil {
		return nil, err
	}
	bm := c.BlockMap()
	prev, next := bm.Get(b.PrevSibling()), bm.Get(b.NextSibling())

	switch {
	case prev != nil && prev.HasChildren():
		bm, err = treeops.UpdateAsSiblingsChild(bm, b.Key(), treeops.Previous)
		if err == nil && next != nil && next.HasChildren() {
			bm, err = treeops.MergeBlocks(bm, prev.Key())
		}
	case next != nil && next.HasChildren():
		bm, err = treeops.UpdateAsSiblingsChild(bm, b.Key(), treeops.Next)
	default:
		bm, err = treeops.CreateNewParent(bm, b.Key())
	}
	if err != nil {
		return nil, err
	}
	return c.Update(bm, sel, sel), nil
}

// OutdentBlock promotes the block at the start of sel out of its parent.
// Only the first or last child of a parent can be promoted.
func OutdentBlock(c *content.ContentState, sel selection.Selection) (*content.ContentState, error) {
	const op = "outdentBlock"
	if !c.IsTree() {
		return nil, docerr.ErrNotApplicable
	}
	b, err := getBlock(c, op, sel.StartKey())
	if err != nil {
		return nil, err
	}
	if b.Parent() == "" {
		return nil, docerr.ErrNotApplicable
	}
	kids := c.BlockForKey(b.Parent()).Children()
	if i := slices.Index(kids, b.Key()); i != 0 && i != len(kids)-1 {
		return nil, docerr.ErrNotApplicable
	}
	bm, err := treeops.MoveChildUp(c.BlockMap(), b.Key())
	if err != nil {
		return nil, err
	}
	return c.Update(bm, sel, sel), nil
}
