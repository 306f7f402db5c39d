package transaction

import (
	"github.com/dshills/inkblock/internal/engine/block"
	"github.com/dshills/inkblock/internal/engine/content"
	"github.com/dshills/inkblock/internal/engine/docerr"
	"github.com/dshills/inkblock/internal/engine/selection"
	"github.com/dshills/inkblock/internal/engine/treeops"
)

// RemoveRange deletes the content between the start and end of sel. The
// start block keeps its key, type and data and absorbs the text after the
// end position. A collapsed selection returns c unchanged.
//
// In a tree, blocks inside the range are removed together with their
// subtrees, except ancestors of content after the range, which are kept as
// containers. A kept container left with a single child is replaced by that
// child. Sibling links of every affected group are rebuilt.
func RemoveRange(c *content.ContentState, sel selection.Selection) (*content.ContentState, error) {
	const op = "removeRange"
	if sel.IsCollapsed() {
		return c, nil
	}
	bm := c.BlockMap()
	s, err := getBlock(c, op, sel.StartKey())
	if err != nil {
		return nil, err
	}
	e, err := getBlock(c, op, sel.EndKey())
	if err != nil {
		return nil, err
	}
	so := clamp(sel.StartOffset(), 0, s.Len())
	eo := clamp(sel.EndOffset(), 0, e.Len())
	si, ei := bm.Index(s.Key()), bm.Index(e.Key())
	if ei < si || (si == ei && eo < so) {
		return nil, docerr.Invariant(op, s.Key(), "selection edges are not in document order")
	}

	if si == ei {
		nb := splice(s, so, eo, "", nil)
		return c.Update(bm.Set(nb), sel, collapsedAt(sel, s.Key(), so)), nil
	}

	order := bm.Keys()
	if s.HasChildren() {
		leaf := firstLeaf(bm, s)
		li := bm.Index(leaf.Key())
		switch {
		case li > ei:
			return c.Update(bm, sel, collapsedAt(sel, e.Key(), 0)), nil
		case li == ei:
			nb := splice(leaf, 0, eo, "", nil)
			return c.Update(bm.Set(nb), sel, collapsedAt(sel, leaf.Key(), 0)), nil
		}
		s, so, si = leaf, 0, li
	}

	keep := make(map[string]bool)
	if ei+1 < len(order) {
		for _, a := range treeops.AncestorKeys(bm, order[ei+1]) {
			keep[a] = true
		}
	}
	var deleted, retained []string
	for _, k := range order[si+1 : ei+1] {
		if keep[k] {
			retained = append(retained, k)
		} else {
			deleted = append(deleted, k)
		}
	}

	tx := bm.Txn()
	merged := s.WithText(s.Slice(0, so)+e.Slice(eo, e.Len()), s.Chars().Slice(0, so).Concat(e.Chars().Slice(eo, e.Len())))
	tx.Put(merged)

	if !c.IsTree() {
		tx.DeleteKeys(deleted)
		return c.Update(tx.Commit(), sel, collapsedAt(sel, s.Key(), so)), nil
	}

	affected := make(map[string]bool)
	gone := make(map[string]bool, len(deleted))
	for _, k := range deleted {
		gone[k] = true
	}
	for _, k := range deleted {
		if p := bm.Get(k).Parent(); !gone[p] {
			affected[p] = true
		}
	}
	tx.DeleteKeys(deleted)
	relinkAffected(tx, affected, gone)

	for i := len(retained) - 1; i >= 0; i-- {
		elide(tx, retained[i])
	}

	return c.Update(tx.Commit(), sel, collapsedAt(sel, s.Key(), so)), nil
}

func firstLeaf(bm content.BlockMap, b *block.Block) *block.Block {
	for b.HasChildren() {
		b = bm.Get(b.Children()[0])
	}
	return b
}

// relinkAffected filters removed keys out of each affected sibling group
// and relinks it. The key "" stands for the root group.
func relinkAffected(tx *content.Txn, affected, gone map[string]bool) {
	for p := range affected {
		if p == "" {
			continue
		}
		var kids []string
		for _, k := range tx.Get(p).Children() {
			if !gone[k] {
				kids = append(kids, k)
			}
		}
		treeops.Relink(tx, p, kids)
	}
	if affected[""] {
		treeops.Relink(tx, "", rootKeys(tx))
	}
}

// elide replaces a container holding a single child by that child.
func elide(tx *content.Txn, key string) {
	b := tx.Get(key)
	if b == nil || len(b.Children()) != 1 {
		return
	}
	child := b.Children()[0]
	parent := b.Parent()
	var group []string
	if parent != "" {
		for _, k := range tx.Get(parent).Children() {
			if k == key {
				k = child
			}
			group = append(group, k)
		}
	}
	tx.Put(tx.Get(child).WithParent(parent))
	tx.DeleteKeys([]string{key})
	if parent == "" {
		group = rootKeys(tx)
	}
	treeops.Relink(tx, parent, group)
}
