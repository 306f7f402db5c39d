// Package main is the entry point for the inkblock command.
//
// inkblock reads an interchange document, applies an edit script to it and
// prints the resulting document.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/dshills/inkblock/internal/config"
	"github.com/dshills/inkblock/internal/engine"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// envPrefix is the prefix of environment overrides.
const envPrefix = "INKBLOCK"

type options struct {
	in         string
	configPath string
	script     string
	tree       bool
	pretty     bool
	version    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if opts.version {
		fmt.Fprintf(stdout, "inkblock %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to load config: %v\n", err)
		return 1
	}
	if err := cfg.ApplyEnv(envPrefix); err != nil {
		fmt.Fprintf(stderr, "Error: invalid environment: %v\n", err)
		return 1
	}
	if opts.tree {
		cfg.Editor.Tree = true
	}

	logger, err := cfg.Log.Build()
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	if err := process(opts, cfg, logger, stdin, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("inkblock", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.in, "in", "", "Interchange document to read (default stdin)")
	fs.StringVar(&opts.configPath, "config", "", "Path to configuration file (.toml, .yaml)")
	fs.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&opts.script, "script", "", "Edit script to apply")
	fs.StringVar(&opts.script, "s", "", "Edit script to apply (shorthand)")
	fs.BoolVar(&opts.tree, "tree", false, "Load the document as a block tree")
	fs.BoolVar(&opts.pretty, "pretty", false, "Indent the output document")
	fs.BoolVar(&opts.version, "version", false, "Show version information")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "inkblock - rich text document engine\n\n")
		fmt.Fprintf(stderr, "Usage: inkblock [options]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  inkblock -in doc.json -pretty            Normalize a document\n")
		fmt.Fprintf(stderr, "  inkblock -in doc.json -script edits.txt  Apply an edit script\n")
		fmt.Fprintf(stderr, "  inkblock -tree < doc.json                Convert to a block tree\n")
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "Error: unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return opts, errors.New("unexpected arguments")
	}
	return opts, nil
}

func process(opts options, cfg *config.Config, logger *zap.Logger, stdin io.Reader, stdout io.Writer) error {
	in := stdin
	if opts.in != "" {
		f, err := os.Open(opts.in)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	e, err := engine.NewFromReader(in,
		engine.WithEditorConfig(cfg.Editor),
		engine.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	if opts.script != "" {
		script, err := os.ReadFile(opts.script)
		if err != nil {
			return err
		}
		cmds, err := ParseScript(string(script))
		if err != nil {
			return fmt.Errorf("%s: %w", opts.script, err)
		}
		if err := RunScript(e, cmds, logger); err != nil {
			return fmt.Errorf("%s: %w", opts.script, err)
		}
	}

	out, err := e.Encode(opts.pretty)
	if err != nil {
		return err
	}
	if len(out) == 0 || out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	_, err = stdout.Write(out)
	return err
}
