package treeops

import (
	"slices"

	"github.com/dshills/inkblock/internal/engine/block"
	"github.com/dshills/inkblock/internal/engine/content"
	"github.com/dshills/inkblock/internal/engine/docerr"
)

// Position selects where UpdateParentChild attaches the child.
type Position int

const (
	// First attaches the child before the existing children.
	First Position = iota
	// Last attaches the child after the existing children.
	Last
)

// Direction selects the sibling used by UpdateAsSiblingsChild.
type Direction int

const (
	// Previous nests the block as the last child of its previous sibling.
	Previous Direction = iota
	// Next nests the block as the first child of its next sibling.
	Next
)

// Getter looks up blocks by key. content.BlockMap and *content.Txn
// implement it.
type Getter interface {
	Get(key string) *block.Block
}

func lookup(g Getter, op, key string) (*block.Block, error) {
	b := g.Get(key)
	if b == nil {
		return nil, docerr.Invariant(op, key, "block does not exist")
	}
	if !b.IsTree() {
		return nil, docerr.Invariant(op, key, "block is not a tree block")
	}
	return b, nil
}

// UpdateParentChild attaches child to parent at pos and links it to the
// adjacent existing child. The child must not already be a child of parent.
// The child's previous parent and map order are not touched.
func UpdateParentChild(bm content.BlockMap, parentKey, childKey string, pos Position) (content.BlockMap, error) {
	tx := bm.Txn()
	if err := attachChild(tx, parentKey, childKey, pos); err != nil {
		return bm, err
	}
	return tx.Commit(), nil
}

func attachChild(tx *content.Txn, parentKey, childKey string, pos Position) error {
	const op = "updateParentChild"
	parent, err := lookup(tx, op, parentKey)
	if err != nil {
		return err
	}
	child, err := lookup(tx, op, childKey)
	if err != nil {
		return err
	}
	if parentKey == childKey {
		return docerr.Invariant(op, childKey, "block cannot be its own parent")
	}
	existing := parent.Children()
	if slices.Contains(existing, childKey) {
		return docerr.Invariant(op, childKey, "block is already a child of "+parentKey)
	}

	children := make([]string, 0, len(existing)+1)
	switch pos {
	case First:
		children = append(append(children, childKey), existing...)
		next := ""
		if len(existing) > 0 {
			next = existing[0]
			tx.Put(tx.Get(next).WithPrevSibling(childKey))
		}
		tx.Put(child.WithLinks(parentKey, "", next))
	default:
		children = append(append(children, existing...), childKey)
		prev := ""
		if len(existing) > 0 {
			prev = existing[len(existing)-1]
			tx.Put(tx.Get(prev).WithNextSibling(childKey))
		}
		tx.Put(child.WithLinks(parentKey, prev, ""))
	}
	tx.Put(tx.Get(parentKey).WithChildren(children))
	return nil
}

// UpdateSibling links prev and next as adjacent siblings. Either key may be
// empty, in which case only the other side is updated.
func UpdateSibling(bm content.BlockMap, prevKey, nextKey string) (content.BlockMap, error) {
	tx := bm.Txn()
	if err := linkSiblings(tx, prevKey, nextKey); err != nil {
		return bm, err
	}
	return tx.Commit(), nil
}

func linkSiblings(tx *content.Txn, prevKey, nextKey string) error {
	const op = "updateSibling"
	if prevKey != "" {
		prev, err := lookup(tx, op, prevKey)
		if err != nil {
			return err
		}
		tx.Put(prev.WithNextSibling(nextKey))
	}
	if nextKey != "" {
		next, err := lookup(tx, op, nextKey)
		if err != nil {
			return err
		}
		tx.Put(next.WithPrevSibling(prevKey))
	}
	return nil
}

// ReplaceParentChild replaces oldKey with newKey in the children of parent
// and points newKey at parent. An empty parentKey (a root) is a no-op.
func ReplaceParentChild(bm content.BlockMap, parentKey, oldKey, newKey string) (content.BlockMap, error) {
	tx := bm.Txn()
	if err := replaceChild(tx, parentKey, oldKey, newKey); err != nil {
		return bm, err
	}
	return tx.Commit(), nil
}

func replaceChild(tx *content.Txn, parentKey, oldKey, newKey string) error {
	const op = "replaceParentChild"
	if parentKey == "" {
		return nil
	}
	parent, err := lookup(tx, op, parentKey)
	if err != nil {
		return err
	}
	i := slices.Index(parent.Children(), oldKey)
	if i < 0 {
		return docerr.Invariant(op, oldKey, "block is not a child of "+parentKey)
	}
	children := slices.Clone(parent.Children())
	children[i] = newKey
	tx.Put(parent.WithChildren(children))
	if nb := tx.Get(newKey); nb != nil {
		tx.Put(nb.WithParent(parentKey))
	}
	return nil
}

func removeChild(tx *content.Txn, parentKey, childKey string) {
	if parentKey == "" {
		return
	}
	parent := tx.Get(parentKey)
	i := slices.Index(parent.Children(), childKey)
	if i < 0 {
		return
	}
	children := slices.Delete(slices.Clone(parent.Children()), i, i+1)
	tx.Put(parent.WithChildren(children))
}

func insertChild(tx *content.Txn, parentKey, anchorKey, childKey string, after bool) {
	if parentKey == "" {
		return
	}
	parent := tx.Get(parentKey)
	i := slices.Index(parent.Children(), anchorKey)
	if after {
		i++
	}
	children := slices.Insert(slices.Clone(parent.Children()), i, childKey)
	tx.Put(parent.WithChildren(children))
}

// CreateNewParent wraps the block in a new container that takes over its
// place: same parent, same siblings, same type and depth. The container is
// placed directly before the block in map order.
func CreateNewParent(bm content.BlockMap, key string) (content.BlockMap, error) {
	const op = "createNewParent"
	b, err := lookup(bm, op, key)
	if err != nil {
		return bm, err
	}

	parentKey := content.GenerateKey()
	wrapper, err := block.New(block.Config{
		Key:         parentKey,
		Type:        b.Type(),
		Depth:       b.Depth(),
		Tree:        true,
		Parent:      b.Parent(),
		Children:    []string{key},
		PrevSibling: b.PrevSibling(),
		NextSibling: b.NextSibling(),
	})
	if err != nil {
		return bm, err
	}

	tx := bm.Txn()
	tx.Put(b.WithLinks(parentKey, "", ""))
	if p := b.PrevSibling(); p != "" {
		tx.Put(tx.Get(p).WithNextSibling(parentKey))
	}
	if n := b.NextSibling(); n != "" {
		tx.Put(tx.Get(n).WithPrevSibling(parentKey))
	}
	if err := replaceChild(tx, b.Parent(), key, parentKey); err != nil {
		return bm, err
	}
	tx.InsertBefore(key, wrapper)
	return verified(op, tx.Commit())
}

// UpdateAsSiblingsChild nests the block under its previous sibling (as the
// last child) or its next sibling (as the first child). The destination
// sibling must have no text.
func UpdateAsSiblingsChild(bm content.BlockMap, key string, dir Direction) (content.BlockMap, error) {
	const op = "updateAsSiblingsChild"
	b, err := lookup(bm, op, key)
	if err != nil {
		return bm, err
	}
	destKey := b.PrevSibling()
	if dir == Next {
		destKey = b.NextSibling()
	}
	if destKey == "" {
		return bm, docerr.Invariant(op, key, "sibling does not exist")
	}
	dest, err := lookup(bm, op, destKey)
	if err != nil {
		return bm, err
	}
	if dest.Text() != "" {
		return bm, docerr.Invariant(op, destKey, "sibling must have no text to become a parent")
	}

	tx := bm.Txn()
	if dir == Previous {
		if err := linkSiblings(tx, destKey, b.NextSibling()); err != nil {
			return bm, err
		}
	} else {
		if err := linkSiblings(tx, b.PrevSibling(), destKey); err != nil {
			return bm, err
		}
	}
	removeChild(tx, b.Parent(), key)

	pos := Last
	if dir == Next {
		pos = First
	}
	if err := attachChild(tx, destKey, key, pos); err != nil {
		return bm, err
	}
	if dir == Next {
		moveKeysAfter(tx, subtreeKeys(tx, key), destKey)
	}
	return verified(op, tx.Commit())
}

// MoveChildUp promotes the first or last child of a parent to be the
// parent's previous or next sibling. A parent left without children is
// removed.
func MoveChildUp(bm content.BlockMap, key string) (content.BlockMap, error) {
	const op = "moveChildUp"
	b, err := lookup(bm, op, key)
	if err != nil {
		return bm, err
	}
	parentKey := b.Parent()
	if parentKey == "" {
		return bm, docerr.Invariant(op, key, "block has no parent")
	}
	parent, err := lookup(bm, op, parentKey)
	if err != nil {
		return bm, err
	}
	kids := parent.Children()
	idx := slices.Index(kids, key)
	if idx != 0 && idx != len(kids)-1 {
		return bm, docerr.Invariant(op, key, "block is neither the first nor the last child")
	}
	grand := parent.Parent()

	tx := bm.Txn()
	if idx == 0 {
		if n := b.NextSibling(); n != "" {
			tx.Put(tx.Get(n).WithPrevSibling(""))
		}
		tx.Put(parent.WithChildren(slices.Clone(kids[1:])))

		pp := parent.PrevSibling()
		tx.Put(b.WithLinks(grand, pp, parentKey))
		if pp != "" {
			tx.Put(tx.Get(pp).WithNextSibling(key))
		}
		tx.Put(tx.Get(parentKey).WithPrevSibling(key))
		insertChild(tx, grand, parentKey, key, false)
		moveKeysBefore(tx, subtreeKeys(tx, key), parentKey)
	} else {
		if p := b.PrevSibling(); p != "" {
			tx.Put(tx.Get(p).WithNextSibling(""))
		}
		tx.Put(parent.WithChildren(slices.Clone(kids[:len(kids)-1])))

		pn := parent.NextSibling()
		tx.Put(b.WithLinks(grand, parentKey, pn))
		if pn != "" {
			tx.Put(tx.Get(pn).WithPrevSibling(key))
		}
		tx.Put(tx.Get(parentKey).WithNextSibling(key))
		insertChild(tx, grand, parentKey, key, true)
	}

	if parent = tx.Get(parentKey); !parent.HasChildren() {
		prev, next := parent.PrevSibling(), parent.NextSibling()
		if err := linkSiblings(tx, prev, next); err != nil {
			return bm, err
		}
		removeChild(tx, grand, parentKey)
		tx.Delete(parentKey)
	}
	return verified(op, tx.Commit())
}

// MergeBlocks merges the next sibling of key into key. Both blocks must be
// containers; the sibling's children are appended and the sibling removed.
func MergeBlocks(bm content.BlockMap, key string) (content.BlockMap, error) {
	const op = "mergeBlocks"
	b, err := lookup(bm, op, key)
	if err != nil {
		return bm, err
	}
	nextKey := b.NextSibling()
	if nextKey == "" {
		return bm, docerr.Invariant(op, key, "block has no next sibling")
	}
	next, err := lookup(bm, op, nextKey)
	if err != nil {
		return bm, err
	}
	if !b.HasChildren() || !next.HasChildren() {
		return bm, docerr.Invariant(op, key, "both blocks must have children to be merged")
	}

	tx := bm.Txn()
	tail := b.Children()[len(b.Children())-1]
	head := next.Children()[0]
	tx.Put(tx.Get(tail).WithNextSibling(head))
	tx.Put(tx.Get(head).WithPrevSibling(tail))
	for _, c := range next.Children() {
		tx.Put(tx.Get(c).WithParent(key))
	}

	children := slices.Concat(b.Children(), next.Children())
	tx.Put(b.WithChildren(children).WithNextSibling(next.NextSibling()))
	if nn := next.NextSibling(); nn != "" {
		tx.Put(tx.Get(nn).WithPrevSibling(key))
	}
	removeChild(tx, b.Parent(), nextKey)
	tx.Delete(nextKey)
	return verified(op, tx.Commit())
}

func verified(op string, bm content.BlockMap) (content.BlockMap, error) {
	if err := Validate(bm); err != nil {
		return bm, docerr.Invariantf(op, "", "produced an invalid tree: %v", err)
	}
	return bm, nil
}
