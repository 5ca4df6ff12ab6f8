// Copyright 2026 The Azadi Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pipeline glues macro expansion, chunk resolution, and safe
// writing into the two-phase run the CLI drives. See SPEC_FULL.md §2.
package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/azadi-lang/azadi/internal/azlog"
	"github.com/azadi-lang/azadi/internal/macro/ast"
	"github.com/azadi-lang/azadi/internal/macro/eval"
	"github.com/azadi-lang/azadi/internal/noweb"
	"github.com/azadi-lang/azadi/internal/safewriter"
)

// Options mirrors the grounding source's Args/Options split, already
// resolved from flags+config by the caller (cmd/azadi).
type Options struct {
	Files     []string
	InputDir  string
	OutputDir string
	Special   rune
	WorkDir   string
	SaveMacro bool
	MacroOnly bool
	NowebOnly bool
	Include   string
	Pathsep   string

	OpenDelim      string
	CloseDelim     string
	ChunkEnd       string
	CommentMarkers string
	Chunks         string

	Pydef   bool
	DumpAST bool
}

// DefaultOptions returns the option set the original CLI defaults to.
func DefaultOptions() Options {
	pathsep := ":"
	if os.PathSeparator == '\\' {
		pathsep = ";"
	}
	return Options{
		InputDir:       ".",
		OutputDir:      "gen",
		Special:        '%',
		WorkDir:        "_azadi_work",
		Include:        ".",
		Pathsep:        pathsep,
		OpenDelim:      "<[",
		CloseDelim:     "]>",
		ChunkEnd:       "$$",
		CommentMarkers: "#,//",
	}
}

func isStdioPath(path string) bool { return path == "-" }

// ResolveInputPaths joins each relative input against opts.InputDir
// (stdio and absolute paths pass through unchanged) and errors if the
// resulting file is missing.
func ResolveInputPaths(opts Options) ([]string, error) {
	var resolved []string
	for _, in := range opts.Files {
		if isStdioPath(in) {
			resolved = append(resolved, in)
			continue
		}
		path := in
		if !filepath.IsAbs(in) {
			path = filepath.Join(opts.InputDir, in)
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("input file not found: %s", path)
		}
		resolved = append(resolved, path)
	}
	return resolved, nil
}

func readInput(path string) (string, error) {
	if isStdioPath(path) {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(content), nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	return string(content), nil
}

func writeOutput(path string, content []byte) error {
	if isStdioPath(path) {
		_, err := os.Stdout.Write(content)
		return err
	}
	if parent := filepath.Dir(path); parent != "." {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return fmt.Errorf("cannot create dir %s: %w", parent, err)
		}
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}

// setupDirectories creates the pipeline's working tree and returns the
// macro-output staging directory.
func setupDirectories(opts Options) (string, error) {
	if err := os.MkdirAll(opts.WorkDir, 0o755); err != nil {
		return "", err
	}
	macroDir := filepath.Join(opts.WorkDir, "macro_out")
	if err := os.MkdirAll(macroDir, 0o755); err != nil {
		return "", err
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return "", err
	}
	return macroDir, nil
}

func macroOutputPath(input, macroDir string) string {
	if isStdioPath(input) {
		return "-"
	}
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext) + ".txt"
	return filepath.Join(macroDir, name)
}

func processMacroPhase(input, output string, cfg eval.Config, log azlog.Logger) error {
	content, err := readInput(input)
	if err != nil {
		return err
	}
	e := eval.NewEvaluator(cfg)
	result, err := eval.EvalString(content, input, e)
	if err != nil {
		return err
	}
	log.Debug("macro phase done", "input", input, "output", output)
	return writeOutput(output, []byte(result))
}

func processNowebPhase(input string, clip *noweb.Clip, chunks string, log azlog.Logger) error {
	content, err := readInput(input)
	if err != nil {
		return err
	}
	clip.Read(content, input)

	if chunks != "" {
		for _, name := range strings.Split(chunks, ",") {
			expanded, err := clip.Expand(strings.TrimSpace(name), "")
			if err != nil {
				return err
			}
			for _, line := range expanded {
				fmt.Println(line)
			}
		}
		return nil
	}

	if err := clip.WriteFiles(); err != nil {
		return err
	}
	log.Debug("noweb phase done", "input", input)
	return nil
}

// Run drives the full pipeline: for each input, optionally run the macro
// phase, then optionally run the noweb phase, honoring MacroOnly (the
// expand subcommand), NowebOnly (the tangle subcommand), --dump-ast, and
// --chunks.
func Run(opts Options, log azlog.Logger) error {
	if log == nil {
		log = azlog.Discard()
	}

	inputFiles, err := ResolveInputPaths(opts)
	if err != nil {
		return err
	}
	if len(inputFiles) == 0 {
		return nil
	}

	if opts.DumpAST {
		return dumpAST(opts, inputFiles)
	}

	macroConfig := eval.Config{
		SpecialChar:  opts.Special,
		Pydef:        opts.Pydef,
		IncludePaths: strings.Split(opts.Include, opts.Pathsep),
		BackupDir:    opts.WorkDir,
	}

	sw, err := safewriter.New(opts.OutputDir, opts.WorkDir, true)
	if err != nil {
		return err
	}

	var commentMarkers []string
	for _, m := range strings.Split(opts.CommentMarkers, ",") {
		commentMarkers = append(commentMarkers, strings.TrimSpace(m))
	}

	clip := noweb.NewClip(sw, opts.OpenDelim, opts.CloseDelim, opts.ChunkEnd, commentMarkers)

	var macroDir string
	if !opts.NowebOnly && !isStdioPath(inputFiles[0]) {
		macroDir, err = setupDirectories(opts)
		if err != nil {
			return err
		}
	}

	for _, input := range inputFiles {
		var macroOut string
		if !opts.NowebOnly {
			macroOut = macroOutputPath(input, macroDir)
			if err := processMacroPhase(input, macroOut, macroConfig, log); err != nil {
				log.Error("macro phase failed", "input", input, "error", err)
				return err
			}
			if opts.MacroOnly && isStdioPath(macroOut) {
				continue
			}
		}

		if !opts.MacroOnly {
			nowebInput := macroOut
			if opts.NowebOnly {
				nowebInput = input
			}
			if err := processNowebPhase(nowebInput, clip, opts.Chunks, log); err != nil {
				log.Error("noweb phase failed", "input", nowebInput, "error", err)
				return err
			}
		}
	}

	if !opts.SaveMacro && !opts.MacroOnly && macroDir != "" {
		if err := os.RemoveAll(macroDir); err != nil {
			return err
		}
	}

	return nil
}

// dumpAST parses each input and writes its AST as JSONL-style lines to
// a sibling file whose extension is replaced by ".ast" (or stdout, for a
// "-" input), mirroring
// `dump_macro_ast`/`write_ast_to_file`.
func dumpAST(opts Options, inputFiles []string) error {
	for _, input := range inputFiles {
		content, err := readInput(input)
		if err != nil {
			return err
		}

		e := eval.NewEvaluator(eval.Config{SpecialChar: opts.Special, IncludePaths: []string{"."}})
		tree, err := e.ParseString(content, input)
		if err != nil {
			return err
		}
		lines := ast.Serialize(tree)

		if isStdioPath(input) {
			for _, l := range lines {
				fmt.Println(l)
			}
			continue
		}

		ext := filepath.Ext(input)
		outPath := strings.TrimSuffix(input, ext) + ".ast"
		var sb strings.Builder
		for _, l := range lines {
			sb.WriteString(l)
			sb.WriteByte('\n')
		}
		if err := writeOutput(outPath, []byte(sb.String())); err != nil {
			return err
		}
	}
	return nil
}
