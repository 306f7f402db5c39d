// Package engine provides the rich-text document engine for inkblock.
//
// The engine package is the facade over an immutable document model: it
// holds one EditorState and applies edits to it under a lock, so hosts can
// share a document between goroutines.
//
// # Architecture
//
// The engine is built on several sub-packages, leaves first:
//
//   - charmeta: interned per-character style and entity metadata
//   - entity: typed entities with mutability rules
//   - block: immutable flat and tree blocks
//   - selection: anchor/focus selection values
//   - content: ContentState, the persistent block map plus entity map
//   - treeops: structural tree primitives that keep links consistent
//   - transaction: split, remove, insert-fragment, move and style edits
//   - history: change types, the undo boundary rule and bounded stacks
//   - decorator: regex, entity and Lua decoration strategies
//   - state: EditorState with undo/redo, leaf cache and directions
//   - raw: the JSON interchange codec
//
// Every edit produces new values; nothing is modified in place. Older
// states, including those held by the undo stack, stay valid forever.
//
// # Thread Safety
//
// All Engine operations are thread-safe. Reads take a read lock; edits
// take the write lock and replace the current state. State returns the
// current immutable snapshot, which may be used without locking.
//
// # Basic Usage
//
//	e := engine.New(engine.WithText("Hello"))
//
//	// Place the cursor and type
//	e.Select(selection.Collapsed(e.Content().FirstBlock().Key(), 5))
//	e.InsertText(", World!")
//
//	// Split the block and undo it
//	e.Split()
//	e.Undo()
//
//	// Export the document
//	data, err := e.Encode(true)
//
// # Loading Documents
//
//	e, err := engine.NewFromJSON(data, engine.WithTree())
//
// # Undo and Redo
//
// Consecutive typing, backspacing or deleting with an unbroken selection
// coalesce into one undo entry. Undo and Redo return ErrNothingToUndo and
// ErrNothingToRedo when their stacks are empty.
//
// # Logging
//
// Pass a *zap.Logger with WithLogger. Undo boundaries and undo/redo are
// logged at debug level; invariant violations at error level.
package engine
