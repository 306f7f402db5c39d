package transaction

import (
	"slices"

	"github.com/dshills/inkblock/internal/engine/content"
	"github.com/dshills/inkblock/internal/engine/docerr"
	"github.com/dshills/inkblock/internal/engine/treeops"
)

// InsertionMode places a moved block relative to its target.
type InsertionMode int

const (
	// Before places the block directly before the target.
	Before InsertionMode = iota
	// After places the block directly after the target (and, in a tree,
	// after the target's subtree).
	After
)

// MoveBlock moves the block with key next to target. In a tree the block
// moves with its subtree and joins the target's sibling group.
//
// The recorded selectionBefore is the collection's selectionAfter; the new
// selectionAfter is the same selection placed in the moved block.
func MoveBlock(c *content.ContentState, key, target string, mode InsertionMode) (*content.ContentState, error) {
	const op = "moveBlock"
	b, err := getBlock(c, op, key)
	if err != nil {
		return nil, err
	}
	t, err := getBlock(c, op, target)
	if err != nil {
		return nil, err
	}
	if key == target {
		return nil, docerr.Invariant(op, key, "block cannot be moved next to itself")
	}
	bm := c.BlockMap()
	tree := c.IsTree()

	var neighbor string
	switch {
	case tree && mode == Before:
		neighbor = t.PrevSibling()
	case tree:
		neighbor = t.NextSibling()
	case mode == Before:
		neighbor = bm.KeyBefore(target)
	default:
		neighbor = bm.KeyAfter(target)
	}
	if neighbor == key {
		return nil, docerr.Invariant(op, key, "block cannot be moved next to itself")
	}

	var moved content.BlockMap
	if tree {
		if treeops.IsAncestor(bm, key, target) {
			return nil, docerr.Invariant(op, key, "block cannot be moved into its own subtree")
		}
		moved = moveTreeBlock(bm, b.Key(), t.Key(), mode)
	} else {
		tx := bm.Txn()
		rest := slices.DeleteFunc(slices.Clone(bm.Keys()), func(k string) bool { return k == key })
		i := slices.Index(rest, target)
		if mode == After {
			i++
		}
		tx.SetOrder(slices.Insert(rest, i, key))
		moved = tx.Commit()
	}

	before := c.SelectionAfter()
	after := before
	after.AnchorKey, after.FocusKey = key, key
	after.AnchorOffset = clamp(after.AnchorOffset, 0, b.Len())
	after.FocusOffset = clamp(after.FocusOffset, 0, b.Len())
	return c.Update(moved, before, after), nil
}

func moveTreeBlock(bm content.BlockMap, key, target string, mode InsertionMode) content.BlockMap {
	span := treeops.SubtreeKeys(bm, key)
	oldParent := bm.Get(key).Parent()
	newParent := bm.Get(target).Parent()

	tx := bm.Txn()
	rest := withoutKeys(bm.Keys(), span)
	var i int
	if mode == Before {
		i = slices.Index(rest, target)
	} else {
		// The moved block may be the tail of the target's subtree.
		targetSpan := withoutKeys(treeops.SubtreeKeys(bm, target), span)
		i = slices.Index(rest, targetSpan[len(targetSpan)-1]) + 1
	}
	tx.SetOrder(slices.Insert(rest, i, span...))

	if oldParent != "" {
		kids := slices.DeleteFunc(slices.Clone(tx.Get(oldParent).Children()), func(k string) bool { return k == key })
		treeops.Relink(tx, oldParent, kids)
	}
	tx.Put(tx.Get(key).WithParent(newParent))
	if newParent != "" {
		var kids []string
		for _, k := range tx.Get(newParent).Children() {
			if k == key {
				continue
			}
			if k == target && mode == Before {
				kids = append(kids, key)
			}
			kids = append(kids, k)
			if k == target && mode == After {
				kids = append(kids, key)
			}
		}
		treeops.Relink(tx, newParent, kids)
	}
	if oldParent == "" || newParent == "" {
		treeops.Relink(tx, "", rootKeys(tx))
	}
	return tx.Commit()
}

func withoutKeys(order, keys []string) []string {
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	out := make([]string, 0, len(order))
	for _, k := range order {
		if !drop[k] {
			out = append(out, k)
		}
	}
	return out
}
