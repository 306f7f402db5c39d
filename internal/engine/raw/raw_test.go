package raw

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"

	"github.com/dshills/inkblock/internal/engine/block"
	"github.com/dshills/inkblock/internal/engine/blocktest"
	"github.com/dshills/inkblock/internal/engine/content"
	"github.com/dshills/inkblock/internal/engine/docerr"
	"github.com/dshills/inkblock/internal/engine/entity"
	"github.com/dshills/inkblock/internal/engine/selection"
	"github.com/dshills/inkblock/internal/engine/transaction"
)

func mustEncode(t *testing.T, c *content.ContentState) []byte {
	t.Helper()
	data, err := Encode(c)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	return data
}

func mustDecode(t *testing.T, data []byte, opts Options) *content.ContentState {
	t.Helper()
	c, err := Decode(data, opts)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return c
}

// assertSameBlocks compares blocks field by field, metadata by value.
func assertSameBlocks(t *testing.T, want, got *content.ContentState) {
	t.Helper()
	if diff := cmp.Diff(want.BlockMap().Keys(), got.BlockMap().Keys()); diff != "" {
		t.Fatalf("keys (-want +got):\n%s", diff)
	}
	for _, w := range want.Blocks() {
		g := got.BlockForKey(w.Key())
		if w.Type() != g.Type() || w.Text() != g.Text() || w.Depth() != g.Depth() {
			t.Errorf("block %s = %s %q %d, want %s %q %d", w.Key(), g.Type(), g.Text(), g.Depth(), w.Type(), w.Text(), w.Depth())
		}
		if !w.Chars().Equal(g.Chars()) {
			t.Errorf("block %s metadata differs", w.Key())
		}
		if diff := cmp.Diff(map[string]any(w.Data()), map[string]any(g.Data())); diff != "" {
			t.Errorf("block %s data (-want +got):\n%s", w.Key(), diff)
		}
		if w.IsTree() {
			if w.Parent() != g.Parent() || w.PrevSibling() != g.PrevSibling() || w.NextSibling() != g.NextSibling() {
				t.Errorf("block %s links differ", w.Key())
			}
			if diff := cmp.Diff(w.Children(), g.Children()); diff != "" {
				t.Errorf("block %s children (-want +got):\n%s", w.Key(), diff)
			}
		}
	}
}

func richContent(t *testing.T) *content.ContentState {
	t.Helper()
	c := blocktest.Flat(t, "a", "hello world", "b", "item", "c", "")
	c = c.CreateEntity("LINK", entity.Mutable, map[string]any{"url": "https://example.com"})
	link := c.LastCreatedEntityKey()

	var err error
	steps := []func() (*content.ContentState, error){
		func() (*content.ContentState, error) {
			return transaction.ApplyInlineStyle(c, selection.Range("a", 0, "a", 7), "BOLD")
		},
		func() (*content.ContentState, error) {
			return transaction.ApplyInlineStyle(c, selection.Range("a", 3, "a", 11), "ITALIC")
		},
		func() (*content.ContentState, error) {
			return transaction.ApplyEntity(c, selection.Range("a", 6, "a", 11), link)
		},
		func() (*content.ContentState, error) {
			return transaction.SetBlockType(c, selection.Collapsed("b", 0), block.OrderedListItem)
		},
		func() (*content.ContentState, error) {
			return transaction.AdjustDepth(c, selection.Collapsed("b", 0), 1, 4)
		},
		func() (*content.ContentState, error) {
			return transaction.SetBlockData(c, selection.Collapsed("c", 0), block.Data{"align": "center"})
		},
	}
	for _, step := range steps {
		if c, err = step(); err != nil {
			t.Fatalf("building content: %v", err)
		}
	}
	return c
}

// ============================================================================
// Round trip
// ============================================================================

func TestRoundTripFlat(t *testing.T) {
	tests := []struct {
		name string
		c    *content.ContentState
	}{
		{"empty document", blocktest.Flat(t, "a", "")},
		{"single character", blocktest.Flat(t, "a", "x")},
		{"overlapping ranges", richContent(t)},
		{"multibyte text", blocktest.Flat(t, "a", "日本語 ✓", "b", "😀")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := mustEncode(t, tt.c)
			got := mustDecode(t, data, Options{})
			assertSameBlocks(t, tt.c, got)
			if again := mustEncode(t, got); !bytes.Equal(data, again) {
				t.Errorf("re-encoding differs:\n%s\n%s", data, again)
			}
		})
	}
}

func TestRoundTripEntities(t *testing.T) {
	c := richContent(t)
	got := mustDecode(t, mustEncode(t, c), Options{})

	if diff := cmp.Diff(c.EntityKeys(), got.EntityKeys()); diff != "" {
		t.Fatalf("entity keys (-want +got):\n%s", diff)
	}
	for _, k := range c.EntityKeys() {
		w, g := c.Entity(k), got.Entity(k)
		if w.Type() != g.Type() || w.Mutability() != g.Mutability() {
			t.Errorf("entity %s = %s/%s", k, g.Type(), g.Mutability())
		}
		if diff := cmp.Diff(w.Data(), g.Data()); diff != "" {
			t.Errorf("entity %s data (-want +got):\n%s", k, diff)
		}
	}
	if next := got.CreateEntity("X", entity.Immutable, nil).LastCreatedEntityKey(); next == "1" {
		t.Error("new entities should not reuse decoded keys")
	}
}

func TestRoundTripTree(t *testing.T) {
	c := blocktest.Tree(t,
		blocktest.N("p", "", blocktest.N("x", "ab"), blocktest.N("q", "", blocktest.N("y", "cd"))),
		blocktest.N("z", "e"),
	)
	data := mustEncode(t, c)
	if got := gjson.GetBytes(data, "blocks.0.children.1.children.0.key").String(); got != "y" {
		t.Errorf("nested key = %q, want y", got)
	}
	if gjson.GetBytes(data, "blocks.1.children").Exists() {
		t.Error("leaf blocks should not encode children")
	}

	got := mustDecode(t, data, Options{Tree: true})
	blocktest.AssertValid(t, got.BlockMap())
	assertSameBlocks(t, c, got)
}

func TestEncodeShape(t *testing.T) {
	data := mustEncode(t, richContent(t))
	checks := map[string]string{
		"blocks.0.inlineStyleRanges.#": "2",
		"blocks.0.inlineStyleRanges.0": `{"offset":0,"length":7,"style":"BOLD"}`,
		"blocks.0.inlineStyleRanges.1": `{"offset":3,"length":8,"style":"ITALIC"}`,
		"blocks.0.entityRanges.0":      `{"offset":6,"length":5,"key":1}`,
		"blocks.1.type":                block.OrderedListItem,
		"blocks.1.depth":               "1",
		"blocks.2.data.align":          "center",
		"entityMap.1.mutability":       "MUTABLE",
		"entityMap.1.data.url":         "https://example.com",
		"blocks.2.inlineStyleRanges":   "[]",
		"blocks.2.entityRanges":        "[]",
	}
	for path, want := range checks {
		if got := gjson.GetBytes(data, path).Raw; got != want && gjson.GetBytes(data, path).String() != want {
			t.Errorf("%s = %s, want %s", path, got, want)
		}
	}
}

func TestEncodeIndent(t *testing.T) {
	c := blocktest.Flat(t, "a", "x")
	data, err := EncodeIndent(c)
	if err != nil {
		t.Fatalf("EncodeIndent failed: %v", err)
	}
	if !bytes.Contains(data, []byte("\n  ")) || !gjson.ValidBytes(data) {
		t.Errorf("indented output = %s", data)
	}
	assertSameBlocks(t, c, mustDecode(t, data, Options{}))
}

// ============================================================================
// Decode
// ============================================================================

func TestDecodeDraftDocument(t *testing.T) {
	data := []byte(`{
		"blocks": [
			{"key": "k1", "text": "see docs", "type": "unstyled",
			 "inlineStyleRanges": [{"offset": 0, "length": 3, "style": "BOLD"}],
			 "entityRanges": [{"offset": 4, "length": 4, "key": 0}, {"offset": 0, "length": 3, "key": "9"}]},
			{"text": "untyped"}
		],
		"entityMap": {"0": {"type": "LINK", "mutability": "IMMUTABLE", "data": {"url": "/docs"}}}
	}`)
	c := mustDecode(t, data, Options{})

	first := c.BlockForKey("k1")
	if first == nil {
		t.Fatal("block k1 missing")
	}
	if !first.InlineStyleAt(2).Has("BOLD") || first.InlineStyleAt(3).Has("BOLD") {
		t.Error("style range decoded incorrectly")
	}
	if first.EntityAt(4) != "0" || first.EntityAt(7) != "0" {
		t.Errorf("entity at 4 = %q", first.EntityAt(4))
	}
	if first.EntityAt(0) != "" {
		t.Error("ranges naming unknown entities should be dropped")
	}
	if e := c.Entity("0"); e == nil || e.Mutability() != entity.Immutable {
		t.Errorf("entity 0 = %+v", e)
	}

	second := c.Blocks()[1]
	if second.Key() == "" || second.Type() != block.Unstyled {
		t.Errorf("second block = %q %s", second.Key(), second.Type())
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		opts Options
	}{
		{"malformed", `{"blocks": [`, Options{}},
		{"not an object", `[1, 2]`, Options{}},
		{"missing blocks", `{"entityMap": {}}`, Options{}},
		{"no blocks", `{"blocks": []}`, Options{}},
		{"block not object", `{"blocks": ["x"]}`, Options{}},
		{"text not string", `{"blocks": [{"key": "a", "text": 3}]}`, Options{}},
		{"negative depth", `{"blocks": [{"key": "a", "depth": -1}]}`, Options{}},
		{"fractional offset", `{"blocks": [{"key": "a", "text": "ab", "inlineStyleRanges": [{"offset": 0.5, "length": 1, "style": "B"}]}]}`, Options{}},
		{"style range too long", `{"blocks": [{"key": "a", "text": "ab", "inlineStyleRanges": [{"offset": 1, "length": 2, "style": "B"}]}]}`, Options{}},
		{"entity range too long", `{"blocks": [{"key": "a", "text": "ab", "entityRanges": [{"offset": 0, "length": 3, "key": 1}]}]}`, Options{}},
		{"entity key type", `{"blocks": [{"key": "a", "text": "ab", "entityRanges": [{"offset": 0, "length": 1, "key": true}]}]}`, Options{}},
		{"bad mutability", `{"blocks": [{"key": "a"}], "entityMap": {"1": {"type": "LINK", "mutability": "SOMETIMES"}}}`, Options{}},
		{"duplicate key", `{"blocks": [{"key": "a"}, {"key": "a"}]}`, Options{}},
		{"container with text", `{"blocks": [{"key": "p", "text": "x", "children": [{"key": "c"}]}]}`, Options{Tree: true}},
		{"duplicate nested key", `{"blocks": [{"key": "p", "children": [{"key": "p"}]}]}`, Options{Tree: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Decode([]byte(tt.data), tt.opts)
			if err == nil {
				t.Fatal("expected error")
			}
			if c != nil {
				t.Error("decode should return no partial result")
			}
			if !errors.Is(err, docerr.ErrValidation) {
				t.Errorf("error %v should be a validation error", err)
			}
		})
	}
}

func TestDecodeValidationPath(t *testing.T) {
	_, err := Decode([]byte(`{"blocks": [{"key": "a"}, {"key": "b", "inlineStyleRanges": [{"offset": 0, "length": 1}]}]}`), Options{})
	var verr *docerr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v", err)
	}
	if verr.Path != "blocks[1].inlineStyleRanges[0].style" {
		t.Errorf("path = %q", verr.Path)
	}
}

// ============================================================================
// Flat and tree adaptation
// ============================================================================

func listDoc() []Block {
	return []Block{
		{Key: "h", Type: block.HeaderOne, Text: "Title"},
		{Key: "a", Type: block.UnorderedListItem, Text: "a"},
		{Key: "b", Type: block.UnorderedListItem, Text: "b", Depth: 1},
		{Key: "c", Type: block.UnorderedListItem, Text: "c", Depth: 2},
		{Key: "d", Type: block.UnorderedListItem, Text: "d", Depth: 1},
		{Key: "p", Type: block.Unstyled, Text: "after"},
	}
}

func TestToTree(t *testing.T) {
	tree := ToTree(listDoc())
	if len(tree) != 4 {
		t.Fatalf("roots = %d, want 4", len(tree))
	}
	if tree[0].Key != "h" || tree[1].Key != "a" || tree[3].Key != "p" {
		t.Errorf("roots = %s %s %s", tree[0].Key, tree[1].Key, tree[3].Key)
	}
	outer := tree[2]
	if outer.Text != "" || outer.Type != block.UnorderedListItem || len(outer.Children) != 3 {
		t.Fatalf("outer container = %+v", outer)
	}
	if outer.Children[0].Key != "b" || outer.Children[2].Key != "d" {
		t.Errorf("outer children = %s .. %s", outer.Children[0].Key, outer.Children[2].Key)
	}
	inner := outer.Children[1]
	if len(inner.Children) != 1 || inner.Children[0].Key != "c" || inner.Depth != 1 {
		t.Errorf("inner container = %+v", inner)
	}
}

func TestToFlatInvertsToTree(t *testing.T) {
	flat := ToFlat(ToTree(listDoc()))
	if diff := cmp.Diff(listDoc(), flat); diff != "" {
		t.Errorf("blocks (-want +got):\n%s", diff)
	}
}

func TestDecodeAdaptsShape(t *testing.T) {
	data, err := json.Marshal(&Document{Blocks: listDoc(), EntityMap: map[string]Entity{}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	tree := mustDecode(t, data, Options{Tree: true})
	blocktest.AssertValid(t, tree.BlockMap())
	if !tree.IsTree() || tree.BlockForKey("c").Parent() == "" {
		t.Error("flat input should decode into nested tree blocks")
	}

	flat := mustDecode(t, mustEncode(t, tree), Options{})
	if flat.IsTree() {
		t.Fatal("tree input should decode into flat blocks")
	}
	if diff := cmp.Diff([]string{"h", "a", "b", "c", "d", "p"}, flat.BlockMap().Keys()); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
	if got := flat.BlockForKey("c").Depth(); got != 2 {
		t.Errorf("depth of c = %d, want 2", got)
	}
}
