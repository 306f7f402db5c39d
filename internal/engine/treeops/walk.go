package treeops

import (
	"slices"

	"github.com/dshills/inkblock/internal/engine/block"
	"github.com/dshills/inkblock/internal/engine/content"
	"github.com/dshills/inkblock/internal/engine/docerr"
)

// subtreeKeys returns key followed by its descendants in pre-order.
func subtreeKeys(g Getter, key string) []string {
	var out []string
	var walk func(string)
	walk = func(k string) {
		b := g.Get(k)
		if b == nil {
			return
		}
		out = append(out, k)
		for _, c := range b.Children() {
			walk(c)
		}
	}
	walk(key)
	return out
}

// SubtreeKeys returns key followed by all of its descendants in pre-order.
func SubtreeKeys(g Getter, key string) []string {
	return subtreeKeys(g, key)
}

// AncestorKeys returns the keys from the parent of key up to its root.
func AncestorKeys(g Getter, key string) []string {
	var out []string
	b := g.Get(key)
	for b != nil && b.Parent() != "" {
		out = append(out, b.Parent())
		b = g.Get(b.Parent())
	}
	return out
}

// IsAncestor reports whether ancestor is a proper ancestor of key.
func IsAncestor(g Getter, ancestor, key string) bool {
	return slices.Contains(AncestorKeys(g, key), ancestor)
}

// NextDelimiterKey returns the key of the first block after the subtree of
// key in document order: the next sibling of key or of its nearest ancestor
// that has one. It returns "" at the end of the document.
func NextDelimiterKey(g Getter, key string) string {
	b := g.Get(key)
	for b != nil {
		if n := b.NextSibling(); n != "" {
			return n
		}
		if b.Parent() == "" {
			return ""
		}
		b = g.Get(b.Parent())
	}
	return ""
}

func withoutKeys(order, keys []string) []string {
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}
	rest := make([]string, 0, len(order))
	for _, k := range order {
		if _, ok := drop[k]; !ok {
			rest = append(rest, k)
		}
	}
	return rest
}

func moveKeysBefore(tx *content.Txn, keys []string, before string) {
	rest := withoutKeys(tx.Keys(), keys)
	i := slices.Index(rest, before)
	tx.SetOrder(slices.Insert(rest, i, keys...))
}

func moveKeysAfter(tx *content.Txn, keys []string, after string) {
	rest := withoutKeys(tx.Keys(), keys)
	i := slices.Index(rest, after) + 1
	tx.SetOrder(slices.Insert(rest, i, keys...))
}

// Roots returns the keys of blocks without a parent, in map order.
func Roots(bm content.BlockMap) []string {
	var roots []string
	bm.Each(func(_ int, b *block.Block) bool {
		if b.Parent() == "" {
			roots = append(roots, b.Key())
		}
		return true
	})
	return roots
}

// Relink sets the parent and sibling links of keys so they form one sibling
// group under parent, in the given order. When parent is not empty its
// children list is replaced by keys. Blocks whose links already match are
// left untouched.
func Relink(tx *content.Txn, parent string, keys []string) {
	for i, k := range keys {
		var prev, next string
		if i > 0 {
			prev = keys[i-1]
		}
		if i < len(keys)-1 {
			next = keys[i+1]
		}
		b := tx.Get(k)
		if nb := b.WithLinks(parent, prev, next); nb != b {
			tx.Put(nb)
		}
	}
	if parent == "" {
		return
	}
	p := tx.Get(parent)
	if !slices.Equal(p.Children(), keys) {
		tx.Put(p.WithChildren(slices.Clone(keys)))
	}
}

// PreOrder returns all keys in pre-order, following the root sibling chain
// that starts at the first root in map order. It fails when the links form
// a cycle or leave blocks unreachable.
func PreOrder(bm content.BlockMap) ([]string, error) {
	const op = "preOrder"
	if bm.Len() == 0 {
		return nil, nil
	}
	var start string
	bm.Each(func(_ int, b *block.Block) bool {
		if b.Parent() == "" && b.PrevSibling() == "" {
			start = b.Key()
			return false
		}
		return true
	})
	if start == "" {
		return nil, docerr.Invariant(op, "", "no root block")
	}

	out := make([]string, 0, bm.Len())
	seen := make(map[string]struct{}, bm.Len())
	var walk func(key string) error
	walk = func(key string) error {
		for key != "" {
			if _, dup := seen[key]; dup {
				return docerr.Invariant(op, key, "cycle detected")
			}
			b := bm.Get(key)
			if b == nil {
				return docerr.Invariant(op, key, "linked block does not exist")
			}
			seen[key] = struct{}{}
			out = append(out, key)
			if b.HasChildren() {
				if err := walk(b.Children()[0]); err != nil {
					return err
				}
			}
			key = b.NextSibling()
		}
		return nil
	}
	if err := walk(start); err != nil {
		return nil, err
	}
	if len(out) != bm.Len() {
		return nil, docerr.Invariantf(op, "", "%d of %d blocks reachable", len(out), bm.Len())
	}
	return out, nil
}

// Reorder returns bm with map order rebuilt from the tree links.
func Reorder(bm content.BlockMap) (content.BlockMap, error) {
	order, err := PreOrder(bm)
	if err != nil {
		return bm, err
	}
	if slices.Equal(order, bm.Keys()) {
		return bm, nil
	}
	tx := bm.Txn()
	tx.SetOrder(order)
	return tx.Commit(), nil
}
