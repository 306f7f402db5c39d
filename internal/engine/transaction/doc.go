// Package transaction implements document edits as pure functions over
// content.ContentState.
//
// Every function takes a collection and a selection and returns a new
// collection whose selectionBefore and selectionAfter describe the edit for
// undo bookkeeping. The input collection is never modified.
//
// # Primitives
//
//   - SplitBlock splits a block at a collapsed selection
//   - RemoveRange deletes the content between two positions
//   - InsertFragment inserts a block fragment at a collapsed selection
//   - MoveBlock moves a block, or a tree block with its subtree, next to another
//   - AdjustDepth changes block depth within [0, maxDepth]
//
// The remaining functions are modifiers built from these: text insertion
// and replacement, inline style and entity application, block type and data
// changes, and tree indentation.
//
// # Errors
//
// docerr.ErrNotApplicable reports an edit that does not apply to the given
// selection, such as splitting a ranged selection. Callers fall through to
// their default behavior. *docerr.InvariantError reports an illegal
// structural request and must not be retried.
package transaction
