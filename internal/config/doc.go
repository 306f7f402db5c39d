// Package config provides inkblock's configuration.
//
// Settings come from three layers, higher layers overriding lower:
//
//	┌──────────────────────────────┐
//	│  3. Environment (INKBLOCK_*) │  ← Highest priority
//	├──────────────────────────────┤
//	│  2. Config file (TOML/YAML)  │
//	├──────────────────────────────┤
//	│  1. Built-in defaults        │  ← Lowest priority
//	└──────────────────────────────┘
//
// Files are read by the loader sub-package and merged into a Config
// through a table of known setting paths:
//
//	editor.tree            bool   build tree-variant documents
//	editor.maxDepth        int    maximum list depth for tab
//	editor.maxUndoEntries  int    undo/redo stack bound
//	editor.allowUndo       bool   record undo history
//	editor.verifyTree      bool   check tree invariants after every edit
//	log.level              string debug, info, warn or error
//	log.development        bool   human-readable log output
//
// # Basic Usage
//
//	cfg, err := config.Load("inkblock.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.ApplyEnv("INKBLOCK"); err != nil {
//	    log.Fatal(err)
//	}
//	logger, err := cfg.Log.Build()
//
// A missing file is not an error; Load returns the defaults.
package config
