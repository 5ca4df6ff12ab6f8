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

package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/azadi-lang/azadi/internal/azlog"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.InputDir != "." {
		t.Errorf("InputDir = %q, want \".\"", opts.InputDir)
	}
	if opts.OutputDir != "gen" {
		t.Errorf("OutputDir = %q, want \"gen\"", opts.OutputDir)
	}
	if opts.Special != '%' {
		t.Errorf("Special = %q, want '%%'", opts.Special)
	}
	if opts.OpenDelim != "<[" || opts.CloseDelim != "]>" || opts.ChunkEnd != "$$" {
		t.Errorf("delimiters = %q/%q/%q, want \"<[\"/\"]>\"/\"$$\"", opts.OpenDelim, opts.CloseDelim, opts.ChunkEnd)
	}
	if os.PathSeparator != '\\' && opts.Pathsep != ":" {
		t.Errorf("Pathsep = %q, want \":\" on a POSIX path separator", opts.Pathsep)
	}
}

func TestResolveInputPaths(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "in.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	opts := Options{InputDir: dir, Files: []string{"in.txt"}}
	got, err := ResolveInputPaths(opts)
	if err != nil {
		t.Fatalf("ResolveInputPaths error: %v", err)
	}
	want := filepath.Join(dir, "in.txt")
	if len(got) != 1 || got[0] != want {
		t.Errorf("got %v, want [%q]", got, want)
	}
}

func TestResolveInputPathsMissingFileErrors(t *testing.T) {
	opts := Options{InputDir: t.TempDir(), Files: []string{"nope.txt"}}
	if _, err := ResolveInputPaths(opts); err == nil {
		t.Error("expected an error for a missing input file")
	}
}

func TestResolveInputPathsPassesStdioThrough(t *testing.T) {
	opts := Options{InputDir: t.TempDir(), Files: []string{"-"}}
	got, err := ResolveInputPaths(opts)
	if err != nil {
		t.Fatalf("ResolveInputPaths error: %v", err)
	}
	if len(got) != 1 || got[0] != "-" {
		t.Errorf("got %v, want [\"-\"]", got)
	}
}

func TestRunMacroThenNowebEndToEnd(t *testing.T) {
	dir := t.TempDir()
	src := "%set(name, World)<<@file out.txt>>=\nHello, %(name)!\n@\n"
	if err := os.WriteFile(filepath.Join(dir, "src.txt"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := Options{
		Files:          []string{"src.txt"},
		InputDir:       dir,
		OutputDir:      filepath.Join(dir, "gen"),
		WorkDir:        filepath.Join(dir, "work"),
		Special:        '%',
		Include:        ".",
		Pathsep:        ":",
		OpenDelim:      "<<",
		CloseDelim:     ">>",
		ChunkEnd:       "@",
		CommentMarkers: "#,//",
	}

	if err := Run(opts, azlog.Discard()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(opts.OutputDir, "out.txt"))
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if string(got) != "Hello, World!\n" {
		t.Errorf("got %q, want %q", got, "Hello, World!\n")
	}
}

func TestRunNoInputsIsNoop(t *testing.T) {
	opts := Options{InputDir: t.TempDir()}
	if err := Run(opts, azlog.Discard()); err != nil {
		t.Errorf("Run with no files returned an error: %v", err)
	}
}

func TestRunMacroOnlySkipsNowebPhase(t *testing.T) {
	dir := t.TempDir()
	src := "<<@file out.txt>>=\nliteral\n@\n"
	if err := os.WriteFile(filepath.Join(dir, "src.txt"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := Options{
		Files:          []string{"src.txt"},
		InputDir:       dir,
		OutputDir:      filepath.Join(dir, "gen"),
		WorkDir:        filepath.Join(dir, "work"),
		Special:        '%',
		Include:        ".",
		Pathsep:        ":",
		OpenDelim:      "<<",
		CloseDelim:     ">>",
		ChunkEnd:       "@",
		CommentMarkers: "#,//",
		MacroOnly:      true,
		SaveMacro:      true,
	}

	if err := Run(opts, azlog.Discard()); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(opts.OutputDir, "out.txt")); err == nil {
		t.Error("macro-only run should not have produced a noweb-tangled file")
	}
	if _, err := os.Stat(filepath.Join(opts.WorkDir, "macro_out", "src.txt")); err != nil {
		t.Errorf("expected the macro output to survive under work dir with --save-macro: %v", err)
	}
}
