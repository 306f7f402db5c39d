package transaction

import (
	"maps"

	"github.com/dshills/inkblock/internal/engine/block"
	"github.com/dshills/inkblock/internal/engine/content"
	"github.com/dshills/inkblock/internal/engine/docerr"
	"github.com/dshills/inkblock/internal/engine/selection"
	"github.com/dshills/inkblock/internal/engine/treeops"
)

// DataMode selects how a single-block fragment's data combines with the
// target block's data.
type DataMode int

const (
	// ReplaceWithNewData uses the fragment's data.
	ReplaceWithNewData DataMode = iota
	// MergeData merges the fragment's data under the target's data.
	MergeData
)

// RandomizeKeys returns the fragment with every key replaced by a freshly
// generated one. Tree links are rewritten to the new keys.
func RandomizeKeys(fragment content.BlockMap) content.BlockMap {
	mapping := make(map[string]string, fragment.Len())
	for _, k := range fragment.Keys() {
		mapping[k] = content.GenerateKey()
	}
	blocks := make([]*block.Block, 0, fragment.Len())
	for _, b := range fragment.Blocks() {
		nb := b.WithKey(mapping[b.Key()])
		if b.IsTree() {
			var kids []string
			for _, c := range b.Children() {
				kids = append(kids, mapping[c])
			}
			nb = nb.WithLinks(mapping[b.Parent()], mapping[b.PrevSibling()], mapping[b.NextSibling()]).WithChildren(kids)
		}
		blocks = append(blocks, nb)
	}
	out, _ := content.NewBlockMap(blocks)
	return out
}

// convertFragment adapts fragment blocks to the variant of the target.
func convertFragment(fragment content.BlockMap, tree bool) content.BlockMap {
	first := fragment.First()
	if first == nil || first.IsTree() == tree {
		return fragment
	}
	var blocks []*block.Block
	for _, b := range fragment.Blocks() {
		if tree {
			blocks = append(blocks, b.AsTree())
		} else if !b.HasChildren() {
			blocks = append(blocks, b.AsFlat())
		}
	}
	out, _ := content.NewBlockMap(blocks)
	if tree {
		tx := out.Txn()
		treeops.Relink(tx, "", out.Keys())
		out = tx.Commit()
	}
	return out
}

// Fragment copies the selected content as a standalone block map. Edge
// blocks are trimmed to the selection and non-mutable entities cut by the
// selection edges are unlinked. Tree fragments are detached from ancestors
// outside the selection.
func Fragment(c *content.ContentState, sel selection.Selection) (content.BlockMap, error) {
	stripped, err := removeEntitiesAtEdges(c, sel)
	if err != nil {
		return content.BlockMap{}, err
	}
	keys, err := selectedKeys(stripped, "fragment", sel)
	if err != nil {
		return content.BlockMap{}, err
	}
	bm := stripped.BlockMap()
	startKey, endKey := sel.StartKey(), sel.EndKey()

	in := make(map[string]bool, len(keys))
	for _, k := range keys {
		in[k] = true
	}
	blocks := make([]*block.Block, 0, len(keys))
	for _, k := range keys {
		b := bm.Get(k)
		switch {
		case startKey == endKey:
			b = truncate(b, sel.StartOffset(), sel.EndOffset())
		case k == startKey:
			b = truncate(b, sel.StartOffset(), b.Len())
		case k == endKey:
			b = truncate(b, 0, sel.EndOffset())
		}
		if b.IsTree() {
			var kids []string
			for _, ck := range b.Children() {
				if in[ck] {
					kids = append(kids, ck)
				}
			}
			parent := b.Parent()
			if !in[parent] {
				parent = ""
			}
			b = b.WithChildren(kids).WithParent(parent)
		}
		blocks = append(blocks, b)
	}

	out, err := content.NewBlockMap(blocks)
	if err != nil {
		return content.BlockMap{}, err
	}
	if !c.IsTree() {
		return out, nil
	}
	tx := out.Txn()
	treeops.Relink(tx, "", rootKeys(tx))
	for _, k := range keys {
		if b := tx.Get(k); b.HasChildren() {
			treeops.Relink(tx, k, b.Children())
		}
	}
	return tx.Commit(), nil
}

// InsertFragment inserts fragment at a collapsed selection. Fragment keys
// are replaced with fresh ones.
//
// A single-block fragment is spliced into the target block; an empty
// unstyled target adopts the fragment's type. Larger fragments merge their
// first block into the head of the target and their last block with the
// target's tail, with the blocks between inserted as they are. In a tree,
// fragment roots become siblings following the target.
func InsertFragment(c *content.ContentState, sel selection.Selection, fragment content.BlockMap, mode DataMode) (*content.ContentState, error) {
	const op = "insertFragment"
	if !sel.IsCollapsed() {
		return nil, docerr.ErrNotApplicable
	}
	if fragment.Len() == 0 {
		return nil, docerr.ErrNotApplicable
	}
	target, err := getBlock(c, op, sel.StartKey())
	if err != nil {
		return nil, err
	}
	if target.HasChildren() {
		return nil, docerr.Invariant(op, target.Key(), "cannot insert a fragment into a block with children")
	}
	frag := RandomizeKeys(convertFragment(fragment, c.IsTree()))
	offset := clamp(sel.StartOffset(), 0, target.Len())

	if frag.Len() == 1 {
		return insertSingle(c, sel, target, offset, frag.First(), mode), nil
	}
	return insertMulti(c, sel, target, offset, frag), nil
}

func insertSingle(c *content.ContentState, sel selection.Selection, target *block.Block, offset int, fb *block.Block, mode DataMode) *content.ContentState {
	data := fb.Data()
	if mode == MergeData {
		data = maps.Clone(fb.Data())
		maps.Copy(data, target.Data())
	}
	typ := target.Type()
	if target.Len() == 0 && typ == block.Unstyled {
		typ = fb.Type()
	}
	nb := splice(target, offset, offset, fb.Text(), fb.Chars()).WithType(typ).WithData(data)
	after := collapsedAt(sel, target.Key(), offset+fb.Len())
	return c.Update(c.BlockMap().Set(nb), sel, after)
}

func insertMulti(c *content.ContentState, sel selection.Selection, target *block.Block, offset int, frag content.BlockMap) *content.ContentState {
	tree := c.IsTree()
	head, tail := frag.First(), frag.Last()

	// A head with children cannot be merged into the target. The target
	// keeps only its head text and the whole fragment follows it.
	skipHead := tree && head.HasChildren()

	var newTarget *block.Block
	if skipHead {
		newTarget = truncate(target, 0, offset)
	} else {
		typ := target.Type()
		if offset == 0 {
			typ = head.Type()
		}
		newTarget = target.WithText(
			target.Slice(0, offset)+head.Text(),
			target.Chars().Slice(0, offset).Concat(head.Chars()),
		).WithType(typ).WithData(head.Data())
	}
	newTail := tail.WithText(
		tail.Text()+target.Slice(offset, target.Len()),
		tail.Chars().Concat(target.Chars().Slice(offset, target.Len())),
	)

	var inserted []*block.Block
	var roots []string
	for i, b := range frag.Blocks() {
		if i == 0 && !skipHead {
			continue
		}
		if b.Key() == tail.Key() {
			b = newTail
		}
		inserted = append(inserted, b)
		if b.Parent() == "" {
			roots = append(roots, b.Key())
		}
	}

	tx := c.BlockMap().Txn()
	tx.Put(newTarget)
	tx.InsertAfter(target.Key(), inserted...)

	if tree {
		parent := target.Parent()
		if parent == "" {
			treeops.Relink(tx, "", rootKeys(tx))
		} else {
			var group []string
			for _, k := range tx.Get(parent).Children() {
				group = append(group, k)
				if k == target.Key() {
					group = append(group, roots...)
				}
			}
			treeops.Relink(tx, parent, group)
		}
	}

	after := collapsedAt(sel, tail.Key(), tail.Len())
	return c.Update(tx.Commit(), sel, after)
}

// removeForReplace clears the target range before an insertion and
// returns the collapsed insertion point.
func removeForReplace(c *content.ContentState, sel selection.Selection) (*content.ContentState, selection.Selection, error) {
	if sel.IsCollapsed() {
		return c, sel, nil
	}
	stripped, err := removeEntitiesAtEdges(c, sel)
	if err != nil {
		return nil, sel, err
	}
	removed, err := RemoveRange(stripped, sel)
	if err != nil {
		return nil, sel, err
	}
	return removed, removed.SelectionAfter(), nil
}

// ReplaceWithFragment replaces the selected range with fragment.
func ReplaceWithFragment(c *content.ContentState, sel selection.Selection, fragment content.BlockMap) (*content.ContentState, error) {
	removed, at, err := removeForReplace(c, sel)
	if err != nil {
		return nil, err
	}
	out, err := InsertFragment(removed, at, fragment, ReplaceWithNewData)
	if err != nil {
		return nil, err
	}
	return out.WithSelectionBefore(sel), nil
}

// MoveText cuts the removal range and pastes it over target. Target offsets
// refer to the content after the removal.
func MoveText(c *content.ContentState, removal, target selection.Selection) (*content.ContentState, error) {
	frag, err := Fragment(c, removal)
	if err != nil {
		return nil, err
	}
	removed, err := RemoveRangeWithEntities(c, removal, Backward)
	if err != nil {
		return nil, err
	}
	return ReplaceWithFragment(removed, target, frag)
}
