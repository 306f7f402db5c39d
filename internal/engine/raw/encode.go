package raw

import (
	"encoding/json"

	"github.com/tidwall/pretty"

	"github.com/dshills/inkblock/internal/engine/block"
	"github.com/dshills/inkblock/internal/engine/content"
)

// Encode returns the compact interchange JSON of c.
func Encode(c *content.ContentState) ([]byte, error) {
	return json.Marshal(ToRaw(c))
}

// EncodeIndent returns the interchange JSON of c, indented for reading.
func EncodeIndent(c *content.ContentState) ([]byte, error) {
	data, err := Encode(c)
	if err != nil {
		return nil, err
	}
	return pretty.PrettyOptions(data, &pretty.Options{Width: 80, Indent: "  "}), nil
}

// ToRaw converts c to its interchange representation. Every entity of c
// is included, referenced or not.
func ToRaw(c *content.ContentState) *Document {
	doc := &Document{EntityMap: make(map[string]Entity, c.EntityCount())}
	for _, key := range c.EntityKeys() {
		e := c.Entity(key)
		doc.EntityMap[key] = Entity{
			Type:       e.Type(),
			Mutability: string(e.Mutability()),
			Data:       dataOrEmpty(e.Data()),
		}
	}

	bm := c.BlockMap()
	if !c.IsTree() {
		doc.Blocks = make([]Block, 0, bm.Len())
		bm.Each(func(_ int, b *block.Block) bool {
			doc.Blocks = append(doc.Blocks, encodeBlock(b))
			return true
		})
		return doc
	}

	var nest func(keys []string) []Block
	nest = func(keys []string) []Block {
		out := make([]Block, 0, len(keys))
		for _, k := range keys {
			b := bm.Get(k)
			rb := encodeBlock(b)
			if b.HasChildren() {
				rb.Children = nest(b.Children())
			}
			out = append(out, rb)
		}
		return out
	}
	var roots []string
	bm.Each(func(_ int, b *block.Block) bool {
		if b.Parent() == "" {
			roots = append(roots, b.Key())
		}
		return true
	})
	doc.Blocks = nest(roots)
	return doc
}

func encodeBlock(b *block.Block) Block {
	return Block{
		Key:               b.Key(),
		Type:              b.Type(),
		Text:              b.Text(),
		Depth:             b.Depth(),
		InlineStyleRanges: encodeStyles(b),
		EntityRanges:      encodeEntities(b),
		Data:              dataOrEmpty(b.Data()),
	}
}

// encodeStyles emits, for each style in order of first appearance, the
// maximal runs of characters carrying it.
func encodeStyles(b *block.Block) []InlineStyleRange {
	out := []InlineStyleRange{}
	var styles []string
	seen := make(map[string]struct{})
	for _, m := range b.Chars() {
		for _, name := range m.Style().Names() {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				styles = append(styles, name)
			}
		}
	}
	chars := b.Chars()
	for _, style := range styles {
		for i := 0; i < len(chars); {
			if !chars[i].HasStyle(style) {
				i++
				continue
			}
			j := i + 1
			for j < len(chars) && chars[j].HasStyle(style) {
				j++
			}
			out = append(out, InlineStyleRange{Offset: i, Length: j - i, Style: style})
			i = j
		}
	}
	return out
}

func encodeEntities(b *block.Block) []EntityRange {
	out := []EntityRange{}
	b.FindEntityRanges(block.HasEntity, func(start, end int) {
		out = append(out, EntityRange{Offset: start, Length: end - start, Key: b.EntityAt(start)})
	})
	return out
}

func dataOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
