package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/inkblock/internal/engine"
	"github.com/dshills/inkblock/internal/engine/entity"
	"github.com/dshills/inkblock/internal/engine/selection"
)

// Command is one parsed script line.
type Command struct {
	Line int
	Name string
	Args []string
}

// ScriptError reports a script line that failed to parse or run.
type ScriptError struct {
	Line int
	Cmd  string
	Err  error
}

// Error implements error.
func (e *ScriptError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Cmd, e.Err)
}

// Unwrap returns the underlying error.
func (e *ScriptError) Unwrap() error { return e.Err }

type handler struct {
	min, max int // argument count bounds, max < 0 means unbounded
	run      func(e *engine.Engine, args []string) error
}

var handlers = map[string]handler{
	"select": {min: 2, max: 4, run: runSelect},
	"insert": {min: 1, max: 1, run: func(e *engine.Engine, args []string) error {
		return e.InsertText(args[0])
	}},
	"split":          {run: func(e *engine.Engine, _ []string) error { return e.Split() }},
	"backspace":      {run: func(e *engine.Engine, _ []string) error { return e.Backspace() }},
	"delete":         {run: func(e *engine.Engine, _ []string) error { return e.Delete() }},
	"backspace-word": {run: func(e *engine.Engine, _ []string) error { return e.BackspaceWord() }},
	"delete-word":    {run: func(e *engine.Engine, _ []string) error { return e.DeleteWord() }},
	"indent":         {run: func(e *engine.Engine, _ []string) error { return e.Indent() }},
	"outdent":        {run: func(e *engine.Engine, _ []string) error { return e.Outdent() }},
	"end": {run: func(e *engine.Engine, _ []string) error {
		e.MoveToEnd()
		return nil
	}},
	"style": {min: 1, max: 1, run: func(e *engine.Engine, args []string) error {
		return e.ToggleInlineStyle(args[0])
	}},
	"block": {min: 1, max: 1, run: func(e *engine.Engine, args []string) error {
		return e.ToggleBlockType(args[0])
	}},
	"tab": {max: 1, run: func(e *engine.Engine, args []string) error {
		shift := len(args) == 1 && args[0] == "shift"
		if len(args) == 1 && !shift {
			return fmt.Errorf("unknown modifier %q", args[0])
		}
		return e.Tab(shift)
	}},
	"move":   {min: 3, max: 3, run: runMove},
	"entity": {min: 2, max: -1, run: runEntity},
	"unlink": {run: func(e *engine.Engine, _ []string) error { return e.RemoveEntity() }},
	"undo":   {run: func(e *engine.Engine, _ []string) error { return e.Undo() }},
	"redo":   {run: func(e *engine.Engine, _ []string) error { return e.Redo() }},
}

// ParseScript parses an edit script. Each non-blank line holds a command
// and its arguments separated by spaces; arguments may be double-quoted
// Go strings. Lines starting with # are comments.
func ParseScript(src string) ([]Command, error) {
	var cmds []Command
	for i, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields, err := splitArgs(line)
		if err != nil {
			return nil, &ScriptError{Line: i + 1, Cmd: line, Err: err}
		}
		cmd := Command{Line: i + 1, Name: fields[0], Args: fields[1:]}
		h, ok := handlers[cmd.Name]
		if !ok {
			return nil, &ScriptError{Line: cmd.Line, Cmd: cmd.Name, Err: errors.New("unknown command")}
		}
		if n := len(cmd.Args); n < h.min || (h.max >= 0 && n > h.max) {
			return nil, &ScriptError{Line: cmd.Line, Cmd: cmd.Name, Err: fmt.Errorf("wrong number of arguments: %d", n)}
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// RunScript applies cmds to e in order, stopping at the first failure.
func RunScript(e *engine.Engine, cmds []Command, logger *zap.Logger) error {
	for _, cmd := range cmds {
		logger.Debug("script command", zap.Int("line", cmd.Line), zap.String("cmd", cmd.Name))
		h, ok := handlers[cmd.Name]
		if !ok {
			return &ScriptError{Line: cmd.Line, Cmd: cmd.Name, Err: errors.New("unknown command")}
		}
		if err := h.run(e, cmd.Args); err != nil {
			return &ScriptError{Line: cmd.Line, Cmd: cmd.Name, Err: err}
		}
	}
	return nil
}

// splitArgs splits a line on spaces, keeping double-quoted arguments
// together.
func splitArgs(line string) ([]string, error) {
	var out []string
	for line != "" {
		if line[0] == '"' {
			prefix, err := strconv.QuotedPrefix(line)
			if err != nil {
				return nil, fmt.Errorf("bad quoted argument: %w", err)
			}
			s, _ := strconv.Unquote(prefix)
			out = append(out, s)
			line = strings.TrimLeft(line[len(prefix):], " \t")
			continue
		}
		end := strings.IndexAny(line, " \t")
		if end < 0 {
			end = len(line)
		}
		out = append(out, line[:end])
		line = strings.TrimLeft(line[end:], " \t")
	}
	return out, nil
}

func parseOffset(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad offset %q", s)
	}
	return n, nil
}

// runSelect handles "select KEY OFFSET [KEY OFFSET]".
func runSelect(e *engine.Engine, args []string) error {
	if len(args) == 3 {
		return errors.New("focus needs a key and an offset")
	}
	anchor, err := parseOffset(args[1])
	if err != nil {
		return err
	}
	sel := selection.Collapsed(args[0], anchor)
	if len(args) == 4 {
		focus, err := parseOffset(args[3])
		if err != nil {
			return err
		}
		sel = selection.Range(args[0], anchor, args[2], focus)
	}
	return e.ForceSelect(sel.WithFocus(true))
}

// runMove handles "move KEY TARGET before|after".
func runMove(e *engine.Engine, args []string) error {
	var mode engine.InsertionMode
	switch args[2] {
	case "before":
		mode = engine.Before
	case "after":
		mode = engine.After
	default:
		return fmt.Errorf("unknown insertion mode %q", args[2])
	}
	return e.MoveBlock(args[0], args[1], mode)
}

// runEntity handles "entity TYPE MUTABILITY [name=value...]".
func runEntity(e *engine.Engine, args []string) error {
	m, err := entity.ParseMutability(args[1])
	if err != nil {
		return err
	}
	data := make(map[string]any, len(args)-2)
	for _, kv := range args[2:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("bad entity data %q", kv)
		}
		data[k] = v
	}
	_, err = e.CreateEntity(args[0], m, data)
	return err
}
