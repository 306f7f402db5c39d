package history

// ChangeType tags an edit pushed onto the editor state.
type ChangeType string

// Change types produced by the transaction primitives and editor utilities.
const (
	AdjustDepth        ChangeType = "adjust-depth"
	ApplyEntity        ChangeType = "apply-entity"
	BackspaceCharacter ChangeType = "backspace-character"
	ChangeBlockData    ChangeType = "change-block-data"
	ChangeBlockType    ChangeType = "change-block-type"
	ChangeInlineStyle  ChangeType = "change-inline-style"
	MoveBlock          ChangeType = "move-block"
	DeleteCharacter    ChangeType = "delete-character"
	InsertCharacters   ChangeType = "insert-characters"
	InsertFragment     ChangeType = "insert-fragment"
	Redo               ChangeType = "redo"
	RemoveRange        ChangeType = "remove-range"
	SpellcheckChange   ChangeType = "spellcheck-change"
	SplitBlock         ChangeType = "split-block"
	Undo               ChangeType = "undo"
)

var changeTypes = map[ChangeType]bool{
	AdjustDepth: true, ApplyEntity: true, BackspaceCharacter: true,
	ChangeBlockData: true, ChangeBlockType: true, ChangeInlineStyle: true,
	MoveBlock: true, DeleteCharacter: true, InsertCharacters: true,
	InsertFragment: true, Redo: true, RemoveRange: true,
	SpellcheckChange: true, SplitBlock: true, Undo: true,
}

// IsKnown reports whether c is one of the predefined change types.
// Hosts may push their own types; they never coalesce.
func (c ChangeType) IsKnown() bool { return changeTypes[c] }

// Coalescable reports whether consecutive edits of type c can share one
// undo entry.
func (c ChangeType) Coalescable() bool {
	switch c {
	case InsertCharacters, BackspaceCharacter, DeleteCharacter:
		return true
	}
	return false
}

// KeepsStyleOverride reports whether an edit of type c preserves the
// pending inline style override.
func (c ChangeType) KeepsStyleOverride() bool {
	switch c {
	case AdjustDepth, ChangeBlockType, SplitBlock:
		return true
	}
	return false
}

// Boundary reports whether an edit of type change must start a new undo
// entry after an edit of type last. A changed selection, a different type
// or a non-coalescable type all start a new entry.
func Boundary(last, change ChangeType, selectionChanged bool) bool {
	return selectionChanged || last != change || !change.Coalescable()
}
