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

package eval

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/azadi-lang/azadi/internal/macro/ast"
	"github.com/azadi-lang/azadi/internal/macro/lexer"
	"github.com/azadi-lang/azadi/internal/macro/parser"
	"github.com/azadi-lang/azadi/internal/macro/token"
)

// BuiltinFn is a built-in macro's implementation: given the evaluator and
// the macro-call node, it returns the call's expansion.
type BuiltinFn func(e *Evaluator, node *ast.Node) (string, error)

// Evaluator walks a cleaned AST, expanding macros and variables against a
// mutable State.
type Evaluator struct {
	state      *State
	builtins   map[string]BuiltinFn
	pythonEval PythonEvaluator
}

// NewEvaluator creates an Evaluator over a fresh State built from cfg.
func NewEvaluator(cfg Config) *Evaluator {
	e := &Evaluator{
		state:    NewState(cfg),
		builtins: defaultBuiltins(),
	}
	if cfg.Python.Enabled {
		e.pythonEval = NewSubprocessEvaluator(cfg.Python)
	}
	return e
}

// DefineMacro binds mac in the innermost scope.
func (e *Evaluator) DefineMacro(mac MacroDefinition) { e.state.DefineMacro(mac) }

// SetVariable binds name to value in the innermost scope.
func (e *Evaluator) SetVariable(name, value string) { e.state.SetVariable(name, value) }

// AddSourceIfNotPresent registers path's contents with the source manager.
func (e *Evaluator) AddSourceIfNotPresent(path string) (int, error) {
	return e.state.SourceManager.AddSourceIfNotPresent(path)
}

// AddSourceBytes registers content under path unconditionally.
func (e *Evaluator) AddSourceBytes(content []byte, path string) int {
	return e.state.SourceManager.AddSourceBytes(content, path)
}

// SetCurrentFile records the file currently being evaluated, consulted by
// the `here` builtin.
func (e *Evaluator) SetCurrentFile(path string) { e.state.CurrentFile = path }

// CurrentFilePath returns the file currently being evaluated.
func (e *Evaluator) CurrentFilePath() string { return e.state.CurrentFile }

// BackupDirPath returns the configured backup directory for `here`.
func (e *Evaluator) BackupDirPath() string { return e.state.Config.BackupDir }

// SpecialChar returns the configured macro sigil.
func (e *Evaluator) SpecialChar() rune { return e.state.Config.SpecialChar }

// NumSourceFiles reports how many sources have been registered.
func (e *Evaluator) NumSourceFiles() int { return e.state.SourceManager.NumSources() }

// Evaluate walks node and returns its expansion.
func (e *Evaluator) Evaluate(node *ast.Node) (string, error) {
	switch node.Kind {
	case parser.KindText, parser.KindSpace, parser.KindIdent:
		return e.NodeText(node), nil
	case parser.KindVar:
		name := e.NodeText(node)
		return e.state.GetVariable(name), nil
	case parser.KindMacro:
		name := e.NodeText(node)
		return e.EvaluateMacroCall(node, name)
	case parser.KindLineComment, parser.KindBlockComment:
		return "", nil
	default:
		var out []byte
		for _, child := range node.Parts {
			s, err := e.Evaluate(child)
			if err != nil {
				return "", err
			}
			out = append(out, s...)
		}
		return string(out), nil
	}
}

// NodeText returns the source text a node's token spans, stripping the
// delimiter bytes the lexer included for structural token kinds (the
// surrounding %{/%}, %name(, %(var), or the last byte of a %% escape).
func (e *Evaluator) NodeText(node *ast.Node) string {
	source, ok := e.state.SourceManager.GetSource(node.Token.Src)
	if !ok {
		fmt.Fprintln(os.Stderr, "node_text: invalid src index")
		return ""
	}
	start := node.Token.Pos
	end := node.Token.Pos + node.Token.Length
	if end > len(source) || start > len(source) {
		fmt.Fprintf(os.Stderr, "node_text: out of range - start: %d, end: %d, source len: %d\n", start, end, len(source))
		return ""
	}

	var slice []byte
	switch node.Token.Kind {
	case token.BlockOpen, token.BlockClose, token.Macro:
		if end > start+2 {
			slice = source[start+1 : end-1]
		} else {
			slice = source[start:end]
		}
	case token.Var:
		if end > start+3 {
			slice = source[start+2 : end-1]
		} else {
			slice = source[start:end]
		}
	case token.Special:
		if end > start+1 {
			slice = source[start : end-1]
		} else {
			slice = source[start:end]
		}
	default:
		slice = source[start:end]
	}
	return string(slice)
}

// EvaluateMacroCall dispatches a Macro node by name: built-ins always win
// over a same-named user macro (SPEC_FULL.md §4.4, decision 3).
func (e *Evaluator) EvaluateMacroCall(node *ast.Node, name string) (string, error) {
	if bf, ok := e.builtins[name]; ok {
		return bf(e, node)
	}

	mac, ok := e.state.GetMacro(name)
	if !ok {
		return "", errUndefinedMacro(name)
	}

	var paramNodes []*ast.Node
	for _, p := range node.Parts {
		if p.Kind == parser.KindParam {
			paramNodes = append(paramNodes, p)
		}
	}

	e.state.PushScope()
	defer e.state.PopScope()

	for varName, frozenVal := range mac.FrozenArgs {
		e.state.SetVariable(varName, frozenVal)
	}

	for i, paramName := range mac.Params {
		val := ""
		if i < len(paramNodes) {
			v, err := e.Evaluate(paramNodes[i])
			if err != nil {
				return "", err
			}
			val = v
		}
		e.state.SetVariable(paramName, val)
	}

	result, err := e.Evaluate(mac.Body)
	if err != nil {
		return "", err
	}

	if mac.IsPython && e.state.Config.Python.Enabled {
		if e.pythonEval == nil {
			return "", errRuntime("python evaluator not configured")
		}
		vars := make(map[string]string, len(e.state.CurrentScope().Variables))
		for k, v := range e.state.CurrentScope().Variables {
			vars[k] = v
		}
		result, err = e.pythonEval.Evaluate(result, vars)
		if err != nil {
			return "", err
		}
	}

	return result, nil
}

// Export copies name (variable and/or macro) from the current scope into
// its parent, freezing any exported macro's free variables at the
// definition site (export is what lets a macro survive past the scope
// that defined it).
func (e *Evaluator) Export(name string) {
	stackLen := len(e.state.ScopeStack)
	if stackLen <= 1 {
		return
	}
	parentIdx := stackLen - 2

	if val, ok := e.state.ScopeStack[stackLen-1].Variables[name]; ok {
		e.state.ScopeStack[parentIdx].Variables[name] = val
	}

	if mac, ok := e.state.ScopeStack[stackLen-1].Macros[name]; ok {
		frozen := e.freezeMacroDefinition(mac)
		e.state.ScopeStack[parentIdx].Macros[name] = frozen
	}
}

func (e *Evaluator) freezeMacroDefinition(mac MacroDefinition) MacroDefinition {
	keep := make(map[string]struct{}, len(mac.Params))
	for _, p := range mac.Params {
		keep[p] = struct{}{}
	}
	frozen := make(map[string]string)
	e.collectFreezeVars(mac.Body, keep, frozen)

	return MacroDefinition{
		Name:       mac.Name,
		Params:     mac.Params,
		Body:       mac.Body,
		IsPython:   mac.IsPython,
		FrozenArgs: frozen,
	}
}

func (e *Evaluator) collectFreezeVars(node *ast.Node, keep map[string]struct{}, frozen map[string]string) {
	if node.Kind == parser.KindVar {
		varName := e.NodeText(node)
		if _, kept := keep[varName]; !kept {
			if _, already := frozen[varName]; !already {
				val, err := e.Evaluate(node)
				if err != nil {
					val = ""
				}
				frozen[varName] = val
			}
		}
	}
	for _, child := range node.Parts {
		e.collectFreezeVars(child, keep, frozen)
	}
}

// ParseString lexes and parses text (registering it under path in the
// source manager if path names an existing file, else registering text
// itself) and returns the cleaned AST ready for Evaluate.
func (e *Evaluator) ParseString(text, path string) (*ast.Node, error) {
	var src int
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		idx, err := e.AddSourceIfNotPresent(path)
		if err != nil {
			return nil, err
		}
		src = idx
	} else {
		src = e.AddSourceBytes([]byte(text), path)
	}

	tree, err := lexParseContent(text, e.state.Config.SpecialChar, src)
	if err != nil {
		return nil, errParse(err.Error(), err)
	}
	return tree, nil
}

// lexParseContent runs the lexer, parser, and AST cleaner over source,
// stamping src onto every resulting node.
func lexParseContent(source string, special rune, src int) (*ast.Node, error) {
	lx := lexer.New(source, special, src)
	tokens := lx.Run()
	if len(lx.Errors) > 0 {
		return nil, fmt.Errorf("lexer errors: %v", lx.Errors)
	}

	p := parser.New()
	if err := p.Parse(tokens); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	tree, err := ast.ProcessAST([]byte(source), p)
	if err != nil {
		return nil, fmt.Errorf("ast build error: %w", err)
	}
	return tree, nil
}

func (e *Evaluator) findFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
	}
	for _, inc := range e.state.Config.IncludePaths {
		candidate := filepath.Join(inc, filename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", errIncludeNotFound(filename)
}

// DoInclude resolves filename against the configured include paths, guards
// against re-entering a file whose include is already open (SPEC_FULL.md
// §4.4, decision 1: a failed include leaves its path marked open — only a
// successful return clears it), and evaluates it.
func (e *Evaluator) DoInclude(filename string) (string, error) {
	path, err := e.findFile(filename)
	if err != nil {
		return "", err
	}
	if _, open := e.state.OpenIncludes[path]; open {
		return "", errCircularInclude(path)
	}
	e.state.OpenIncludes[path] = struct{}{}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", errIncludeNotFound(filename)
	}
	tree, err := e.ParseString(string(content), path)
	if err != nil {
		return "", err
	}
	out, err := e.Evaluate(tree)
	if err != nil {
		return "", err
	}
	delete(e.state.OpenIncludes, path)
	return out, nil
}
