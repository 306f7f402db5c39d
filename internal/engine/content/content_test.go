package content

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/inkblock/internal/engine/block"
	"github.com/dshills/inkblock/internal/engine/docerr"
	"github.com/dshills/inkblock/internal/engine/entity"
	"github.com/dshills/inkblock/internal/engine/selection"
)

func flat(key, text string) *block.Block {
	return block.Must(block.Config{Key: key, Text: text})
}

func mustContent(t *testing.T, blocks ...*block.Block) *ContentState {
	t.Helper()
	c, err := FromBlocks(blocks)
	if err != nil {
		t.Fatalf("FromBlocks failed: %v", err)
	}
	return c
}

// ============================================================================
// BlockMap
// ============================================================================

func TestBlockMapOrder(t *testing.T) {
	bm, err := NewBlockMap([]*block.Block{flat("a", "1"), flat("b", "2"), flat("c", "3")})
	if err != nil {
		t.Fatalf("NewBlockMap failed: %v", err)
	}

	if diff := cmp.Diff([]string{"a", "b", "c"}, bm.Keys()); diff != "" {
		t.Errorf("Keys (-want +got):\n%s", diff)
	}
	if bm.KeyBefore("a") != "" || bm.KeyBefore("b") != "a" || bm.KeyAfter("c") != "" {
		t.Error("neighbor lookup mismatch")
	}

	inserted := bm.InsertAfter("a", flat("x", ""), flat("y", ""))
	if diff := cmp.Diff([]string{"a", "x", "y", "b", "c"}, inserted.Keys()); diff != "" {
		t.Errorf("InsertAfter (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, bm.Keys()); diff != "" {
		t.Errorf("receiver changed (-want +got):\n%s", diff)
	}

	front := bm.InsertAfter("", flat("z", ""))
	if front.First().Key() != "z" {
		t.Errorf("First() = %s", front.First().Key())
	}
	end := bm.InsertBefore("", flat("z", ""))
	if end.Last().Key() != "z" {
		t.Errorf("Last() = %s", end.Last().Key())
	}

	deleted := inserted.Delete("x", "c")
	if diff := cmp.Diff([]string{"a", "y", "b"}, deleted.Keys()); diff != "" {
		t.Errorf("Delete (-want +got):\n%s", diff)
	}
	if deleted.Has("x") {
		t.Error("deleted key still present")
	}
}

func TestBlockMapSetSharesOrder(t *testing.T) {
	bm, _ := NewBlockMap([]*block.Block{flat("a", "1"), flat("b", "2")})
	b := bm.Get("b")

	updated := bm.Set(bm.Get("a").WithText("changed", nil))
	if &updated.Keys()[0] != &bm.Keys()[0] {
		t.Error("replacing a value should share the order slice")
	}
	if updated.Get("b") != b {
		t.Error("untouched block should be shared")
	}
	if bm.Get("a").Text() != "1" {
		t.Error("receiver changed")
	}

	moved := bm.InsertAfter("b", bm.Get("a"))
	if diff := cmp.Diff([]string{"b", "a"}, moved.Keys()); diff != "" {
		t.Errorf("re-inserting an existing key should move it (-want +got):\n%s", diff)
	}
}

func TestBlockMapDuplicate(t *testing.T) {
	_, err := NewBlockMap([]*block.Block{flat("a", ""), flat("a", "")})
	if !docerr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestBlockMapRange(t *testing.T) {
	bm, _ := NewBlockMap([]*block.Block{flat("a", ""), flat("b", ""), flat("c", "")})
	if diff := cmp.Diff([]string{"b", "c"}, bm.Range("b", "c")); diff != "" {
		t.Errorf("Range (-want +got):\n%s", diff)
	}
	if bm.Range("c", "a") != nil {
		t.Error("reversed range should be nil")
	}
}

// ============================================================================
// ContentState
// ============================================================================

func TestFromText(t *testing.T) {
	c := FromText("one\ntwo\r\nthree")
	if c.BlockMap().Len() != 3 {
		t.Fatalf("Len() = %d", c.BlockMap().Len())
	}
	if got := c.PlainText(""); got != "one\ntwo\nthree" {
		t.Errorf("PlainText() = %q", got)
	}
	if c.IsTree() {
		t.Error("expected flat collection")
	}
	first := c.FirstBlock().Key()
	if c.SelectionBefore() != selection.CreateEmpty(first) || c.SelectionAfter() != selection.CreateEmpty(first) {
		t.Error("initial selections should be empty at the first block")
	}

	tree := FromText("a\nb", AsTree())
	if !tree.IsTree() {
		t.Fatal("expected tree collection")
	}
	a, b := tree.Blocks()[0], tree.Blocks()[1]
	if a.NextSibling() != b.Key() || b.PrevSibling() != a.Key() {
		t.Error("roots should be linked as siblings")
	}

	custom := FromText("a|b", WithDelimiter("|"))
	if custom.BlockMap().Len() != 2 {
		t.Errorf("custom delimiter Len() = %d", custom.BlockMap().Len())
	}
}

func TestFromBlocksErrors(t *testing.T) {
	if _, err := FromBlocks(nil); !docerr.IsValidation(err) {
		t.Errorf("empty: %v", err)
	}
	mixed := []*block.Block{flat("a", ""), block.Must(block.Config{Key: "b", Tree: true})}
	if _, err := FromBlocks(mixed); !docerr.IsValidation(err) {
		t.Errorf("mixed: %v", err)
	}
}

func TestHasText(t *testing.T) {
	tests := []struct {
		name string
		c    *ContentState
		want bool
	}{
		{"empty", Empty(), false},
		{"zero width", mustContent(t, flat("a", "\u200b\u200b")), false},
		{"text", mustContent(t, flat("a", "x")), true},
		{"two empty blocks", mustContent(t, flat("a", ""), flat("b", "")), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.HasText(); got != tt.want {
				t.Errorf("HasText() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBlockChildren(t *testing.T) {
	p := block.Must(block.Config{Key: "p", Tree: true, Children: []string{"x", "y"}})
	x := block.Must(block.Config{Key: "x", Tree: true, Parent: "p", NextSibling: "y", Text: "x"})
	y := block.Must(block.Config{Key: "y", Tree: true, Parent: "p", PrevSibling: "x", Text: "y"})
	c := mustContent(t, p, x, y)

	kids := c.BlockChildren("p")
	if len(kids) != 2 || kids[0] != x || kids[1] != y {
		t.Errorf("BlockChildren = %v", kids)
	}
	if c.BlockChildren("x") != nil {
		t.Error("leaf should have no children")
	}
	if got := c.PlainText("|"); got != "x|y" {
		t.Errorf("PlainText() = %q, containers contribute no line", got)
	}
}

func TestEntities(t *testing.T) {
	c := Empty()
	c1 := c.CreateEntity("LINK", entity.Mutable, map[string]any{"url": "a"})
	k1 := c1.LastCreatedEntityKey()
	c2 := c1.CreateEntity("MENTION", entity.Immutable, nil)
	k2 := c2.LastCreatedEntityKey()

	if k1 != "1" || k2 != "2" {
		t.Errorf("keys = %q, %q", k1, k2)
	}
	if c.Entity(k1) != nil {
		t.Error("CreateEntity modified receiver")
	}
	if c2.Entity(k1).Type() != "LINK" || c2.Entity(k2).Mutability() != entity.Immutable {
		t.Error("entity lookup mismatch")
	}

	merged, err := c2.MergeEntityData(k1, map[string]any{"title": "t"})
	if err != nil {
		t.Fatalf("MergeEntityData failed: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"url": "a", "title": "t"}, merged.Entity(k1).Data()); diff != "" {
		t.Errorf("merged data (-want +got):\n%s", diff)
	}
	if _, ok := c2.Entity(k1).Data()["title"]; ok {
		t.Error("MergeEntityData modified receiver")
	}

	replaced, err := merged.ReplaceEntityData(k1, map[string]any{"url": "b"})
	if err != nil {
		t.Fatalf("ReplaceEntityData failed: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"url": "b"}, replaced.Entity(k1).Data()); diff != "" {
		t.Errorf("replaced data (-want +got):\n%s", diff)
	}

	if _, err := c.MergeEntityData("99", nil); !docerr.IsValidation(err) {
		t.Errorf("unknown entity: %v", err)
	}

	put := c.PutEntity("10", entity.New("X", entity.Mutable, nil)).CreateEntity("Y", entity.Mutable, nil)
	if put.LastCreatedEntityKey() != "11" {
		t.Errorf("counter should advance past explicit keys, got %q", put.LastCreatedEntityKey())
	}
	if diff := cmp.Diff([]string{"10", "11"}, put.EntityKeys()); diff != "" {
		t.Errorf("EntityKeys (-want +got):\n%s", diff)
	}
}

func TestGenerateKey(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 2000; i++ {
		k := GenerateKey()
		if len(k) != 5 {
			t.Fatalf("key %q has length %d", k, len(k))
		}
		if isNumeric(k) {
			t.Fatalf("key %q is numeric", k)
		}
		if seen[k] {
			t.Fatalf("duplicate key %q", k)
		}
		seen[k] = true
	}
}
