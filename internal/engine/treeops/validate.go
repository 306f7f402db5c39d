package treeops

import (
	"slices"

	"github.com/dshills/inkblock/internal/engine/block"
	"github.com/dshills/inkblock/internal/engine/content"
	"github.com/dshills/inkblock/internal/engine/docerr"
)

const validateOp = "validate"

// IsValidTree reports whether bm satisfies every tree invariant.
func IsValidTree(bm content.BlockMap) bool {
	return Validate(bm) == nil
}

// Validate checks the tree invariants of bm and returns the first
// violation. Flat maps are valid when no block is a tree block.
func Validate(bm content.BlockMap) error {
	if bm.Len() == 0 {
		return nil
	}
	tree := bm.First().IsTree()
	var err error
	bm.Each(func(_ int, b *block.Block) bool {
		if b.IsTree() != tree {
			err = docerr.Invariant(validateOp, b.Key(), "mixed flat and tree blocks")
			return false
		}
		if tree {
			err = checkLinks(bm, b)
		}
		return err == nil
	})
	if err != nil || !tree {
		return err
	}

	if err := checkGroup(bm, "", Roots(bm)); err != nil {
		return err
	}
	for _, k := range bm.Keys() {
		if b := bm.Get(k); b.HasChildren() {
			if err := checkGroup(bm, k, b.Children()); err != nil {
				return err
			}
		}
	}

	order, err := PreOrder(bm)
	if err != nil {
		return err
	}
	if !slices.Equal(order, bm.Keys()) {
		return docerr.Invariant(validateOp, "", "map order differs from tree order")
	}
	return nil
}

func checkLinks(bm content.BlockMap, b *block.Block) error {
	key := b.Key()
	if p := b.Parent(); p != "" {
		parent := bm.Get(p)
		if parent == nil {
			return docerr.Invariantf(validateOp, key, "parent %s does not exist", p)
		}
		if !slices.Contains(parent.Children(), key) {
			return docerr.Invariantf(validateOp, key, "parent %s does not list block as a child", p)
		}
	}
	if b.HasChildren() && b.Text() != "" {
		return docerr.Invariant(validateOp, key, "block with children has text")
	}
	seen := make(map[string]struct{}, len(b.Children()))
	for _, c := range b.Children() {
		if _, dup := seen[c]; dup {
			return docerr.Invariantf(validateOp, key, "child %s listed twice", c)
		}
		seen[c] = struct{}{}
		child := bm.Get(c)
		if child == nil {
			return docerr.Invariantf(validateOp, key, "child %s does not exist", c)
		}
		if child.Parent() != key {
			return docerr.Invariantf(validateOp, key, "child %s names parent %q", c, child.Parent())
		}
	}
	return nil
}

func checkGroup(bm content.BlockMap, parent string, keys []string) error {
	for i, k := range keys {
		b := bm.Get(k)
		want := ""
		if i > 0 {
			want = keys[i-1]
		}
		if b.PrevSibling() != want {
			return docerr.Invariantf(validateOp, k, "previous sibling is %q, want %q", b.PrevSibling(), want)
		}
		want = ""
		if i < len(keys)-1 {
			want = keys[i+1]
		}
		if b.NextSibling() != want {
			return docerr.Invariantf(validateOp, k, "next sibling is %q, want %q", b.NextSibling(), want)
		}
		if b.Parent() != parent {
			return docerr.Invariantf(validateOp, k, "parent is %q, want %q", b.Parent(), parent)
		}
	}
	return nil
}
