package raw

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/dshills/inkblock/internal/engine/block"
	"github.com/dshills/inkblock/internal/engine/charmeta"
	"github.com/dshills/inkblock/internal/engine/content"
	"github.com/dshills/inkblock/internal/engine/docerr"
	"github.com/dshills/inkblock/internal/engine/entity"
	"github.com/dshills/inkblock/internal/engine/treeops"
)

// Decode parses interchange JSON into a ContentState of the variant named
// by opts.
func Decode(data []byte, opts Options) (*content.ContentState, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return FromRaw(doc, opts)
}

// Parse reads interchange JSON into a Document without building blocks.
func Parse(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, docerr.Validation("", "malformed JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, docerr.Validation("", "document must be an object")
	}

	doc := &Document{EntityMap: map[string]Entity{}}
	if em := root.Get("entityMap"); em.Exists() && em.Type != gjson.Null {
		if !em.IsObject() {
			return nil, docerr.Validation("entityMap", "must be an object")
		}
		var err error
		em.ForEach(func(k, v gjson.Result) bool {
			var e Entity
			e, err = parseEntity("entityMap."+k.String(), v)
			doc.EntityMap[k.String()] = e
			return err == nil
		})
		if err != nil {
			return nil, err
		}
	}

	blocks, err := parseBlocks("blocks", root.Get("blocks"))
	if err != nil {
		return nil, err
	}
	doc.Blocks = blocks
	return doc, nil
}

func parseEntity(path string, v gjson.Result) (Entity, error) {
	if !v.IsObject() {
		return Entity{}, docerr.Validation(path, "must be an object")
	}
	typ, err := stringField(path, v, "type")
	if err != nil {
		return Entity{}, err
	}
	mut, err := stringField(path, v, "mutability")
	if err != nil {
		return Entity{}, err
	}
	data, err := objectField(path, v, "data")
	if err != nil {
		return Entity{}, err
	}
	return Entity{Type: typ, Mutability: mut, Data: data}, nil
}

func parseBlocks(path string, v gjson.Result) ([]Block, error) {
	if !v.IsArray() {
		return nil, docerr.Validation(path, "must be an array")
	}
	items := v.Array()
	out := make([]Block, 0, len(items))
	for i, item := range items {
		b, err := parseBlock(fmt.Sprintf("%s[%d]", path, i), item)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func parseBlock(path string, v gjson.Result) (Block, error) {
	var b Block
	if !v.IsObject() {
		return b, docerr.Validation(path, "must be an object")
	}
	var err error
	if b.Key, err = stringField(path, v, "key"); err != nil {
		return b, err
	}
	if b.Type, err = stringField(path, v, "type"); err != nil {
		return b, err
	}
	if b.Text, err = stringField(path, v, "text"); err != nil {
		return b, err
	}
	if b.Depth, err = intField(path, v, "depth"); err != nil {
		return b, err
	}
	if b.Data, err = objectField(path, v, "data"); err != nil {
		return b, err
	}

	if styles := v.Get("inlineStyleRanges"); styles.Exists() && styles.Type != gjson.Null {
		if !styles.IsArray() {
			return b, docerr.Validation(path+".inlineStyleRanges", "must be an array")
		}
		for i, r := range styles.Array() {
			p := fmt.Sprintf("%s.inlineStyleRanges[%d]", path, i)
			if !r.IsObject() {
				return b, docerr.Validation(p, "must be an object")
			}
			var sr InlineStyleRange
			if sr.Offset, err = intField(p, r, "offset"); err != nil {
				return b, err
			}
			if sr.Length, err = intField(p, r, "length"); err != nil {
				return b, err
			}
			if sr.Style, err = stringField(p, r, "style"); err != nil {
				return b, err
			}
			if sr.Style == "" {
				return b, docerr.Validation(p+".style", "is required")
			}
			b.InlineStyleRanges = append(b.InlineStyleRanges, sr)
		}
	}

	if entities := v.Get("entityRanges"); entities.Exists() && entities.Type != gjson.Null {
		if !entities.IsArray() {
			return b, docerr.Validation(path+".entityRanges", "must be an array")
		}
		for i, r := range entities.Array() {
			p := fmt.Sprintf("%s.entityRanges[%d]", path, i)
			if !r.IsObject() {
				return b, docerr.Validation(p, "must be an object")
			}
			var er EntityRange
			if er.Offset, err = intField(p, r, "offset"); err != nil {
				return b, err
			}
			if er.Length, err = intField(p, r, "length"); err != nil {
				return b, err
			}
			key := r.Get("key")
			switch key.Type {
			case gjson.String, gjson.Number:
				er.Key = key.String()
			default:
				return b, docerr.Validation(p+".key", "must be a string or number")
			}
			b.EntityRanges = append(b.EntityRanges, er)
		}
	}

	if children := v.Get("children"); children.Exists() && children.Type != gjson.Null {
		if b.Children, err = parseBlocks(path+".children", children); err != nil {
			return b, err
		}
	}
	return b, nil
}

// stringField returns an optional string member; absent and null read as
// "".
func stringField(path string, v gjson.Result, name string) (string, error) {
	f := v.Get(name)
	switch f.Type {
	case gjson.Null:
		return "", nil
	case gjson.String:
		return f.Str, nil
	}
	return "", docerr.Validation(path+"."+name, "must be a string")
}

// intField returns an optional non-negative integer member.
func intField(path string, v gjson.Result, name string) (int, error) {
	f := v.Get(name)
	switch f.Type {
	case gjson.Null:
		return 0, nil
	case gjson.Number:
		if f.Num < 0 || f.Num != math.Trunc(f.Num) || f.Num > math.MaxInt32 {
			return 0, docerr.Validationf(path+"."+name, "must be a non-negative integer, got %s", f.Raw)
		}
		return int(f.Num), nil
	}
	return 0, docerr.Validation(path+"."+name, "must be a number")
}

func objectField(path string, v gjson.Result, name string) (map[string]any, error) {
	f := v.Get(name)
	if f.Type == gjson.Null {
		return nil, nil
	}
	if !f.IsObject() {
		return nil, docerr.Validation(path+"."+name, "must be an object")
	}
	m, _ := f.Value().(map[string]any)
	return m, nil
}

// ============================================================================
// Building blocks
// ============================================================================

// FromRaw builds a ContentState from doc, adapting between the flat and
// tree shapes as opts requires.
func FromRaw(doc *Document, opts Options) (*content.ContentState, error) {
	if len(doc.Blocks) == 0 {
		return nil, docerr.Validation("blocks", "at least one block is required")
	}

	entities := make(map[string]*entity.Entity, len(doc.EntityMap))
	for key, e := range doc.EntityMap {
		m, err := entity.ParseMutability(e.Mutability)
		if err != nil {
			return nil, &docerr.ValidationError{Path: "entityMap." + key + ".mutability", Msg: "invalid mutability", Err: err}
		}
		entities[key] = entity.New(e.Type, m, e.Data)
	}

	blocks := withKeys(doc.Blocks)
	switch {
	case opts.Tree && !doc.IsTree():
		blocks = ToTree(blocks)
	case !opts.Tree && doc.IsTree():
		blocks = ToFlat(blocks)
	}

	bld := builder{entities: entities, seen: make(map[string]struct{})}
	if opts.Tree {
		if err := bld.tree("blocks", "", blocks); err != nil {
			return nil, err
		}
	} else {
		for i, rb := range blocks {
			b, err := bld.block(fmt.Sprintf("blocks[%d]", i), rb, block.Config{})
			if err != nil {
				return nil, err
			}
			bld.out = append(bld.out, b)
		}
	}

	c, err := content.FromBlocks(bld.out)
	if err != nil {
		return nil, err
	}
	if opts.Tree {
		if err := treeops.Validate(c.BlockMap()); err != nil {
			return nil, &docerr.ValidationError{Path: "blocks", Msg: "invalid tree", Err: err}
		}
	}

	keys := make([]string, 0, len(entities))
	for k := range entities {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)
	for _, k := range keys {
		c = c.PutEntity(k, entities[k])
	}
	for _, b := range bld.out {
		content.ReserveKey(b.Key())
	}
	return c, nil
}

func compareKeys(a, b string) int {
	x, errA := strconv.Atoi(a)
	y, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return x - y
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

type builder struct {
	entities map[string]*entity.Entity
	seen     map[string]struct{}
	out      []*block.Block
}

// tree appends siblings and their descendants in document order. Keys
// must already be assigned.
func (bld *builder) tree(path, parent string, siblings []Block) error {
	for i, rb := range siblings {
		p := fmt.Sprintf("%s[%d]", path, i)
		cfg := block.Config{Tree: true, Parent: parent}
		if i > 0 {
			cfg.PrevSibling = siblings[i-1].Key
		}
		if i < len(siblings)-1 {
			cfg.NextSibling = siblings[i+1].Key
		}
		for _, child := range rb.Children {
			cfg.Children = append(cfg.Children, child.Key)
		}
		if len(rb.Children) > 0 && rb.Text != "" {
			return docerr.Validation(p, "a block with children cannot have text")
		}
		b, err := bld.block(p, rb, cfg)
		if err != nil {
			return err
		}
		bld.out = append(bld.out, b)
		if err := bld.tree(p+".children", b.Key(), rb.Children); err != nil {
			return err
		}
	}
	return nil
}

// block converts rb using the links already set in cfg.
func (bld *builder) block(path string, rb Block, cfg block.Config) (*block.Block, error) {
	if _, dup := bld.seen[rb.Key]; dup {
		return nil, docerr.Validationf(path+".key", "duplicate block key %q", rb.Key)
	}
	bld.seen[rb.Key] = struct{}{}

	n := utf8.RuneCountInString(rb.Text)
	chars := charmeta.Repeat(charmeta.Empty, n)
	for i, r := range rb.InlineStyleRanges {
		if r.Offset+r.Length > n {
			return nil, docerr.Validationf(fmt.Sprintf("%s.inlineStyleRanges[%d]", path, i),
				"range %d+%d exceeds text length %d", r.Offset, r.Length, n)
		}
		for j := r.Offset; j < r.Offset+r.Length; j++ {
			chars[j] = charmeta.ApplyStyle(chars[j], r.Style)
		}
	}
	for i, r := range rb.EntityRanges {
		if r.Offset+r.Length > n {
			return nil, docerr.Validationf(fmt.Sprintf("%s.entityRanges[%d]", path, i),
				"range %d+%d exceeds text length %d", r.Offset, r.Length, n)
		}
		if _, ok := bld.entities[r.Key]; !ok {
			continue
		}
		for j := r.Offset; j < r.Offset+r.Length; j++ {
			chars[j] = charmeta.ApplyEntity(chars[j], r.Key)
		}
	}

	cfg.Key = rb.Key
	cfg.Type = rb.Type
	cfg.Text = rb.Text
	cfg.Chars = chars
	cfg.Depth = rb.Depth
	if len(rb.Data) > 0 {
		cfg.Data = rb.Data
	}
	b, err := block.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// withKeys returns a copy of blocks with missing keys generated.
func withKeys(blocks []Block) []Block {
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		if b.Key == "" {
			b.Key = content.GenerateKey()
		}
		if len(b.Children) > 0 {
			b.Children = withKeys(b.Children)
		}
		out[i] = b
	}
	return out
}
