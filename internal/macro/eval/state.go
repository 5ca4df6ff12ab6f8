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

// Package eval evaluates a cleaned AST: macro expansion, variable
// substitution, includes, and the built-in macro table. See SPEC_FULL.md §4.4.
package eval

import (
	"os"
	"path/filepath"

	"github.com/azadi-lang/azadi/internal/macro/ast"
)

// Config holds the evaluator's run-time options.
type Config struct {
	SpecialChar  rune
	Pydef        bool
	IncludePaths []string
	BackupDir    string
	Python       PythonConfig
}

// DefaultConfig returns the evaluator's zero-value-safe defaults.
func DefaultConfig() Config {
	return Config{
		SpecialChar:  '%',
		Pydef:        false,
		IncludePaths: []string{"."},
		BackupDir:    "_azadi_work",
		Python:       DefaultPythonConfig(),
	}
}

// MacroDefinition is a user-defined macro: its formal parameters, body, and
// whether it runs through the Python backend, plus the free variables it
// captured at `export` time (frozen_args in the grounding source).
type MacroDefinition struct {
	Name       string
	Params     []string
	Body       *ast.Node
	IsPython   bool
	FrozenArgs map[string]string
}

// ScopeFrame holds the variables and macros visible within one lexical
// scope: the global frame, or one pushed per macro call.
type ScopeFrame struct {
	Variables map[string]string
	Macros    map[string]MacroDefinition
}

func newScopeFrame() ScopeFrame {
	return ScopeFrame{Variables: make(map[string]string), Macros: make(map[string]MacroDefinition)}
}

// SourceManager is an append-only table of source file contents, keyed by
// canonical path, indexed by the small integers tokens carry as Src.
type SourceManager struct {
	sourceFiles   [][]byte
	fileNames     []string
	sourcesByPath map[string]int
}

// NewSourceManager creates an empty source manager.
func NewSourceManager() *SourceManager {
	return &SourceManager{sourcesByPath: make(map[string]int)}
}

// AddSourceIfNotPresent reads path (canonicalized) and registers its
// contents, returning the existing index if already registered.
func (m *SourceManager) AddSourceIfNotPresent(path string) (int, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		resolved = abs
	}
	if idx, ok := m.sourcesByPath[resolved]; ok {
		return idx, nil
	}
	content, err := os.ReadFile(resolved)
	if err != nil {
		return 0, err
	}
	return m.AddSourceBytes(content, resolved), nil
}

// AddSourceBytes registers content under path unconditionally and returns
// its new index.
func (m *SourceManager) AddSourceBytes(content []byte, path string) int {
	idx := len(m.sourceFiles)
	m.sourceFiles = append(m.sourceFiles, content)
	m.fileNames = append(m.fileNames, path)
	m.sourcesByPath[path] = idx
	return idx
}

// GetSource returns the bytes registered under src, or false if unset.
func (m *SourceManager) GetSource(src int) ([]byte, bool) {
	if src < 0 || src >= len(m.sourceFiles) {
		return nil, false
	}
	return m.sourceFiles[src], true
}

// FileName returns the path registered under src, or "" if unset.
func (m *SourceManager) FileName(src int) string {
	if src < 0 || src >= len(m.fileNames) {
		return ""
	}
	return m.fileNames[src]
}

// NumSources returns how many sources have been registered.
func (m *SourceManager) NumSources() int { return len(m.sourceFiles) }

// State is the evaluator's mutable world: scope stack, open-include cycle
// guard, current file, and the source manager.
type State struct {
	Config        Config
	ScopeStack    []ScopeFrame
	OpenIncludes  map[string]struct{}
	CurrentFile   string
	SourceManager *SourceManager
}

// NewState creates an evaluator state with a single global scope frame.
func NewState(cfg Config) *State {
	return &State{
		Config:        cfg,
		ScopeStack:    []ScopeFrame{newScopeFrame()},
		OpenIncludes:  make(map[string]struct{}),
		SourceManager: NewSourceManager(),
	}
}

// PushScope pushes a fresh lexical scope, e.g. on macro-call entry.
func (s *State) PushScope() {
	s.ScopeStack = append(s.ScopeStack, newScopeFrame())
}

// PopScope pops the innermost scope. The global frame (index 0) is never
// popped.
func (s *State) PopScope() {
	if len(s.ScopeStack) > 1 {
		s.ScopeStack = s.ScopeStack[:len(s.ScopeStack)-1]
	}
}

// CurrentScope returns the innermost scope frame.
func (s *State) CurrentScope() *ScopeFrame {
	return &s.ScopeStack[len(s.ScopeStack)-1]
}

// SetVariable binds name to value in the innermost scope.
func (s *State) SetVariable(name, value string) {
	s.CurrentScope().Variables[name] = value
}

// GetVariable looks name up innermost-scope-first, returning "" if unbound
// anywhere on the stack.
func (s *State) GetVariable(name string) string {
	for i := len(s.ScopeStack) - 1; i >= 0; i-- {
		if v, ok := s.ScopeStack[i].Variables[name]; ok {
			return v
		}
	}
	return ""
}

// DefineMacro binds mac by name in the innermost scope.
func (s *State) DefineMacro(mac MacroDefinition) {
	s.CurrentScope().Macros[mac.Name] = mac
}

// GetMacro looks a user-defined macro up innermost-scope-first.
func (s *State) GetMacro(name string) (MacroDefinition, bool) {
	for i := len(s.ScopeStack) - 1; i >= 0; i-- {
		if m, ok := s.ScopeStack[i].Macros[name]; ok {
			return m, true
		}
	}
	return MacroDefinition{}, false
}

// SpecialBytes returns the configured special character as a one-rune byte
// slice, used when re-emitting literal sigils.
func (s *State) SpecialBytes() []byte {
	return []byte(string(s.Config.SpecialChar))
}
