package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/dshills/inkblock/internal/engine"
)

const helloDoc = `{"blocks":[{"key":"a","text":"hello","type":"unstyled"}],"entityMap":{}}`

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// ============================================================================
// Script parsing
// ============================================================================

func TestParseScript(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []Command
	}{
		{
			name: "empty",
			src:  "\n  \n# only a comment\n",
			want: nil,
		},
		{
			name: "plain arguments",
			src:  "select a 0 b 2\nsplit\ntab shift",
			want: []Command{
				{Line: 1, Name: "select", Args: []string{"a", "0", "b", "2"}},
				{Line: 2, Name: "split", Args: []string{}},
				{Line: 3, Name: "tab", Args: []string{"shift"}},
			},
		},
		{
			name: "quoted argument",
			src:  `insert "hello, \"world\"\n"`,
			want: []Command{
				{Line: 1, Name: "insert", Args: []string{"hello, \"world\"\n"}},
			},
		},
		{
			name: "entity data",
			src:  "# link\nentity LINK MUTABLE url=x",
			want: []Command{
				{Line: 2, Name: "entity", Args: []string{"LINK", "MUTABLE", "url=x"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScript(tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("commands mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"unknown command", "split\njump", 2},
		{"missing argument", "style", 1},
		{"extra argument", "undo now", 1},
		{"too many select args", "select a 0 b 1 c", 1},
		{"unterminated quote", `insert "abc`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScript(tt.src)
			var se *ScriptError
			if !errors.As(err, &se) {
				t.Fatalf("expected ScriptError, got %v", err)
			}
			if se.Line != tt.line {
				t.Errorf("Line = %d, want %d", se.Line, tt.line)
			}
		})
	}
}

// ============================================================================
// Script execution
// ============================================================================

func runScript(t *testing.T, e *engine.Engine, src string) error {
	t.Helper()
	cmds, err := ParseScript(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return RunScript(e, cmds, zap.NewNop())
}

func TestRunScript(t *testing.T) {
	e, err := engine.NewFromJSON([]byte(helloDoc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	src := strings.Join([]string{
		"select a 5",
		`insert " world"`,
		"select a 0 a 5",
		"style BOLD",
		"entity LINK MUTABLE url=https://example.com",
		"end",
		"split",
		"block unordered-list-item",
	}, "\n")

	if err := runScript(t, e, src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := e.PlainText(), "hello world\n"; got != want {
		t.Errorf("PlainText() = %q, want %q", got, want)
	}
	a := e.Block("a")
	if !a.InlineStyleAt(0).Has("BOLD") || a.InlineStyleAt(5).Has("BOLD") {
		t.Error("BOLD should cover exactly the first word")
	}
	key := a.EntityAt(0)
	if key == "" || e.Content().Entity(key).Data()["url"] != "https://example.com" {
		t.Errorf("entity not applied: key=%q", key)
	}
	if got := e.Content().LastBlock().Type(); got != "unordered-list-item" {
		t.Errorf("last block type = %q, want unordered-list-item", got)
	}
}

func TestRunScriptStopsAtFailure(t *testing.T) {
	e, err := engine.NewFromJSON([]byte(helloDoc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = runScript(t, e, "select a 5\ninsert !\nundo\nundo\ninsert ?")
	var se *ScriptError
	if !errors.As(err, &se) {
		t.Fatalf("expected ScriptError, got %v", err)
	}
	if se.Line != 4 || !errors.Is(err, engine.ErrNothingToUndo) {
		t.Errorf("got %v, want ErrNothingToUndo on line 4", err)
	}
	if e.PlainText() != "hello" {
		t.Errorf("PlainText() = %q, commands after the failure should not run", e.PlainText())
	}
}

func TestRunScriptArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"bad offset", "select a x"},
		{"anchor only focus key", "select a 0 a"},
		{"unknown block", "select zz 0"},
		{"bad tab modifier", "tab sideways"},
		{"bad move mode", "move a a beside"},
		{"bad mutability", "entity LINK SOMETIMES"},
		{"bad entity data", "select a 0 a 2\nentity LINK MUTABLE url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := engine.NewFromJSON([]byte(helloDoc))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := runScript(t, e, tt.src); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// ============================================================================
// Command line
// ============================================================================

func TestRun(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "doc.json", helloDoc)
	script := writeFile(t, dir, "edits.txt", "select a 5\ninsert !\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-in", in, "-script", script}, strings.NewReader(""), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
	out := stdout.Bytes()
	if got := gjson.GetBytes(out, "blocks.0.text").String(); got != "hello!" {
		t.Errorf("blocks.0.text = %q, want %q", got, "hello!")
	}
	if got := gjson.GetBytes(out, "blocks.0.key").String(); got != "a" {
		t.Errorf("blocks.0.key = %q, want a", got)
	}
}

func TestRunStdinTreePretty(t *testing.T) {
	doc := `{"blocks":[
		{"key":"a","text":"one","type":"ordered-list-item","depth":0},
		{"key":"b","text":"two","type":"ordered-list-item","depth":1}
	]}`

	var stdout, stderr bytes.Buffer
	code := run([]string{"-tree", "-pretty"}, strings.NewReader(doc), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, "\n  ") {
		t.Errorf("output is not indented:\n%s", out)
	}
	if got := gjson.Get(out, "blocks.1.children.0.key").String(); got != "b" {
		t.Errorf("blocks.1.children.0.key = %q, want b\n%s", got, out)
	}
}

func TestRunConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "inkblock.toml", "[editor]\nallowUndo = false\n")
	script := writeFile(t, dir, "edits.txt", "insert x\nundo\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", cfg, "-script", script}, strings.NewReader(helloDoc), &stdout, &stderr)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1 with undo disabled", code)
	}
	if !strings.Contains(stderr.String(), "nothing to undo") {
		t.Errorf("stderr = %q, want the undo failure", stderr.String())
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	badScript := writeFile(t, dir, "bad.txt", "fly away\n")
	badConfig := writeFile(t, dir, "bad.toml", "[editor\n")

	tests := []struct {
		name  string
		args  []string
		stdin string
		code  int
	}{
		{"unknown flag", []string{"-nope"}, helloDoc, 2},
		{"extra arguments", []string{"file.json"}, helloDoc, 2},
		{"invalid document", nil, `{"blocks":`, 1},
		{"missing input", []string{"-in", filepath.Join(dir, "missing.json")}, "", 1},
		{"bad script", []string{"-script", badScript}, helloDoc, 1},
		{"bad config", []string{"-config", badConfig}, helloDoc, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, strings.NewReader(tt.stdin), &stdout, &stderr); code != tt.code {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.code, stderr.String())
			}
			if tt.code != 0 && stdout.Len() != 0 {
				t.Errorf("stdout should be empty on failure, got %q", stdout.String())
			}
		})
	}
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-version"}, strings.NewReader(""), &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.HasPrefix(stdout.String(), "inkblock dev") {
		t.Errorf("stdout = %q", stdout.String())
	}
}
