// Package blocktest builds block collections for tests.
package blocktest

import (
	"testing"

	"github.com/dshills/inkblock/internal/engine/block"
	"github.com/dshills/inkblock/internal/engine/content"
	"github.com/dshills/inkblock/internal/engine/treeops"
)

// Node describes a tree block and its children.
type Node struct {
	Key      string
	Text     string
	Type     string
	Depth    int
	Children []Node
}

// N is shorthand for a Node with text and children.
func N(key, text string, children ...Node) Node {
	return Node{Key: key, Text: text, Children: children}
}

// TreeMap builds a tree block map from roots in pre-order.
func TreeMap(t testing.TB, roots ...Node) content.BlockMap {
	t.Helper()
	var blocks []*block.Block
	var add func(parent string, group []Node)
	add = func(parent string, group []Node) {
		for i, n := range group {
			var prev, next string
			if i > 0 {
				prev = group[i-1].Key
			}
			if i < len(group)-1 {
				next = group[i+1].Key
			}
			kids := make([]string, len(n.Children))
			for j, c := range n.Children {
				kids[j] = c.Key
			}
			b, err := block.New(block.Config{
				Key: n.Key, Text: n.Text, Type: n.Type, Depth: n.Depth,
				Tree: true, Parent: parent, Children: kids, PrevSibling: prev, NextSibling: next,
			})
			if err != nil {
				t.Fatalf("block %s: %v", n.Key, err)
			}
			blocks = append(blocks, b)
			add(n.Key, n.Children)
		}
	}
	add("", roots)
	bm, err := content.NewBlockMap(blocks)
	if err != nil {
		t.Fatalf("NewBlockMap failed: %v", err)
	}
	if err := treeops.Validate(bm); err != nil {
		t.Fatalf("fixture is not a valid tree: %v", err)
	}
	return bm
}

// Tree builds a tree collection from roots.
func Tree(t testing.TB, roots ...Node) *content.ContentState {
	t.Helper()
	bm := TreeMap(t, roots...)
	c, err := content.FromBlocks(bm.Blocks())
	if err != nil {
		t.Fatalf("FromBlocks failed: %v", err)
	}
	return c
}

// Flat builds a flat collection with one unstyled block per key/text pair.
func Flat(t testing.TB, pairs ...string) *content.ContentState {
	t.Helper()
	if len(pairs)%2 != 0 {
		t.Fatal("Flat needs key/text pairs")
	}
	blocks := make([]*block.Block, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		blocks = append(blocks, block.Must(block.Config{Key: pairs[i], Text: pairs[i+1]}))
	}
	c, err := content.FromBlocks(blocks)
	if err != nil {
		t.Fatalf("FromBlocks failed: %v", err)
	}
	return c
}

// AssertValid fails the test when bm breaks a tree invariant.
func AssertValid(t testing.TB, bm content.BlockMap) {
	t.Helper()
	if err := treeops.Validate(bm); err != nil {
		t.Fatalf("invalid tree: %v", err)
	}
}

// Texts returns the text of every block in order.
func Texts(bm content.BlockMap) []string {
	out := make([]string, 0, bm.Len())
	for _, b := range bm.Blocks() {
		out = append(out, b.Text())
	}
	return out
}
