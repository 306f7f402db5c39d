package raw

import (
	"github.com/dshills/inkblock/internal/engine/block"
	"github.com/dshills/inkblock/internal/engine/content"
)

// node is a mutable block used while nesting.
type node struct {
	Block
	kids []*node
}

func (n *node) materialize() Block {
	b := n.Block
	b.Children = nil
	for _, k := range n.kids {
		b.Children = append(b.Children, k.materialize())
	}
	return b
}

// ToTree nests a flat block list. A list item of depth d > 0 becomes a
// child of a container at level d-1; containers are created as needed,
// take the item's type and are shared by consecutive items. Any other
// block, or a list item of depth 0, closes all open containers.
func ToTree(blocks []Block) []Block {
	var (
		roots []*node
		open  []*node // open[i] is the container at level i
	)
	for _, b := range blocks {
		b.Children = nil
		n := &node{Block: b}
		if !block.IsListItem(b.Type) || b.Depth == 0 {
			roots = append(roots, n)
			open = open[:0]
			continue
		}
		if len(open) > b.Depth {
			open = open[:b.Depth]
		}
		for len(open) < b.Depth {
			parent := &node{Block: Block{
				Key:   content.GenerateKey(),
				Type:  b.Type,
				Depth: len(open),
			}}
			if len(open) == 0 {
				roots = append(roots, parent)
			} else {
				top := open[len(open)-1]
				top.kids = append(top.kids, parent)
			}
			open = append(open, parent)
		}
		top := open[len(open)-1]
		top.kids = append(top.kids, n)
	}

	out := make([]Block, len(roots))
	for i, r := range roots {
		out[i] = r.materialize()
	}
	return out
}

// ToFlat flattens a tree block list in document order. Blocks with
// children are dropped; list items take their nesting level as depth.
func ToFlat(blocks []Block) []Block {
	var out []Block
	var walk func(bs []Block, level int)
	walk = func(bs []Block, level int) {
		for _, b := range bs {
			if len(b.Children) > 0 {
				walk(b.Children, level+1)
				continue
			}
			if block.IsListItem(b.Type) {
				b.Depth = level
			}
			out = append(out, b)
		}
	}
	walk(blocks, 0)
	return out
}
