package engine

import (
	"go.uber.org/zap"

	"github.com/dshills/inkblock/internal/config"
	"github.com/dshills/inkblock/internal/engine/content"
	"github.com/dshills/inkblock/internal/engine/decorator"
	"github.com/dshills/inkblock/internal/engine/history"
)

// Default configuration values.
const (
	DefaultMaxDepth       = 4
	DefaultMaxUndoEntries = history.DefaultMaxEntries
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithContent sets the initial document.
func WithContent(c *content.ContentState) Option {
	return func(e *Engine) {
		e.initContent = c
	}
}

// WithText sets the initial document to one unstyled block per line.
func WithText(text string) Option {
	return func(e *Engine) {
		e.initText = &text
	}
}

// WithTree makes the engine build tree-variant documents.
func WithTree() Option {
	return func(e *Engine) {
		e.tree = true
	}
}

// WithMaxDepth sets the maximum list depth reachable with tab.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		if depth >= 0 {
			e.maxDepth = depth
		}
	}
}

// WithMaxUndoEntries sets the maximum number of undo history entries.
func WithMaxUndoEntries(max int) Option {
	return func(e *Engine) {
		if max > 0 {
			e.maxUndoEntries = max
		}
	}
}

// WithAllowUndo enables or disables undo history.
func WithAllowUndo(allow bool) Option {
	return func(e *Engine) {
		e.allowUndo = allow
	}
}

// WithVerifyTree checks every tree invariant after each edit and rejects
// edits that break one.
func WithVerifyTree(verify bool) Option {
	return func(e *Engine) {
		e.verifyTree = verify
	}
}

// WithDecorator sets the decorator used for block leaves.
func WithDecorator(d decorator.Decorator) Option {
	return func(e *Engine) {
		e.decorator = d
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithReadOnly creates a read-only engine.
// Write operations will return ErrReadOnly.
func WithReadOnly() Option {
	return func(e *Engine) {
		e.readOnly = true
	}
}

// WithEditorConfig applies the editor section of a configuration.
func WithEditorConfig(cfg config.EditorConfig) Option {
	return func(e *Engine) {
		e.tree = cfg.Tree
		WithMaxDepth(cfg.MaxDepth)(e)
		WithMaxUndoEntries(cfg.MaxUndoEntries)(e)
		e.allowUndo = cfg.AllowUndo
		e.verifyTree = cfg.VerifyTree
	}
}
