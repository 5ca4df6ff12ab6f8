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
	"strings"

	"github.com/azadi-lang/azadi/internal/macro/ast"
	"github.com/azadi-lang/azadi/internal/macro/parser"
)

func defaultBuiltins() map[string]BuiltinFn {
	return map[string]BuiltinFn{
		"def":               builtinDef,
		"pydef":             builtinPydef,
		"include":           builtinInclude,
		"include_silent":    builtinIncludeSilent,
		"if":                builtinIf,
		"equal":             builtinEqual,
		"set":               builtinSet,
		"export":            builtinExport,
		"eval":              builtinEval,
		"here":              builtinHere,
		"capitalize":        builtinCapitalize,
		"decapitalize":      builtinDecapitalize,
		"convert_case":      builtinConvertCase,
		"to_snake_case":     builtinToSnakeCase,
		"to_camel_case":     builtinToCamelCase,
		"to_pascal_case":    builtinToPascalCase,
		"to_screaming_case": builtinToScreamingCase,
	}
}

type defMacroConfig struct {
	minParamsError      string
	nameParamContext    string
	formalParamContext  string
	duplicateParamError string
	isPython            bool
}

// singleIdentParam checks that paramNode is a Param node holding exactly
// one non-space, non-comment Ident child and returns its text.
func singleIdentParam(e *Evaluator, paramNode *ast.Node, desc string) (string, error) {
	if paramNode.Kind != parser.KindParam {
		return "", errInvalidUsage(desc + " must be a Param node")
	}
	if paramNode.Name != nil {
		return "", errInvalidUsage(desc + " must be a single identifier (found an '=' style param?)")
	}

	var nonspace []*ast.Node
	for _, child := range paramNode.Parts {
		if child.Kind == parser.KindSpace || child.Kind == parser.KindLineComment || child.Kind == parser.KindBlockComment {
			continue
		}
		nonspace = append(nonspace, child)
	}

	if len(nonspace) != 1 {
		return "", errInvalidUsage(desc + " must be a single identifier")
	}
	identNode := nonspace[0]
	if identNode.Kind != parser.KindIdent {
		return "", errInvalidUsage(desc + " must be a single identifier")
	}

	text := strings.TrimSpace(e.NodeText(identNode))
	if text == "" {
		return "", errInvalidUsage(desc + " cannot be empty")
	}
	if text[0] >= '0' && text[0] <= '9' {
		return "", errInvalidUsage(desc + " cannot start with a number")
	}
	return text, nil
}

func defineMacro(e *Evaluator, node *ast.Node, cfg defMacroConfig) (string, error) {
	if len(node.Parts) < 2 {
		return "", errInvalidUsage(cfg.minParamsError)
	}

	macroName, err := singleIdentParam(e, node.Parts[0], cfg.nameParamContext)
	if err != nil {
		return "", err
	}
	body := node.Parts[len(node.Parts)-1]

	seen := make(map[string]struct{})
	var params []string
	for _, paramNode := range node.Parts[1 : len(node.Parts)-1] {
		paramName, err := singleIdentParam(e, paramNode, cfg.formalParamContext)
		if err != nil {
			return "", err
		}
		if _, dup := seen[paramName]; dup {
			return "", errInvalidUsage(cfg.duplicateParamError + ": parameter '" + paramName + "' already used")
		}
		seen[paramName] = struct{}{}
		params = append(params, paramName)
	}

	e.DefineMacro(MacroDefinition{
		Name:       macroName,
		Params:     params,
		Body:       body,
		IsPython:   cfg.isPython,
		FrozenArgs: map[string]string{},
	})
	return "", nil
}

func builtinDef(e *Evaluator, node *ast.Node) (string, error) {
	return defineMacro(e, node, defMacroConfig{
		minParamsError:      "def requires at least (name, body)",
		nameParamContext:    "macro name",
		formalParamContext:  "formal parameter",
		duplicateParamError: "def",
		isPython:            false,
	})
}

func builtinPydef(e *Evaluator, node *ast.Node) (string, error) {
	return defineMacro(e, node, defMacroConfig{
		minParamsError:      "pydef requires at least (name, body)",
		nameParamContext:    "pydef name",
		formalParamContext:  "pydef parameter",
		duplicateParamError: "pydef",
		isPython:            true,
	})
}

func processIncludeFile(e *Evaluator, node *ast.Node) (string, error) {
	if len(node.Parts) == 0 {
		return "", nil
	}
	filename, err := e.Evaluate(node.Parts[0])
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(filename) == "" {
		return "", nil
	}
	return e.DoInclude(filename)
}

func builtinInclude(e *Evaluator, node *ast.Node) (string, error) {
	return processIncludeFile(e, node)
}

func builtinIncludeSilent(e *Evaluator, node *ast.Node) (string, error) {
	if _, err := processIncludeFile(e, node); err != nil {
		return "", err
	}
	return "", nil
}

func builtinIf(e *Evaluator, node *ast.Node) (string, error) {
	parts := node.Parts
	if len(parts) == 0 {
		return "", nil
	}
	cond, err := e.Evaluate(parts[0])
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(cond) != "" {
		if len(parts) > 1 {
			return e.Evaluate(parts[1])
		}
		return "", nil
	}
	if len(parts) > 2 {
		return e.Evaluate(parts[2])
	}
	return "", nil
}

func builtinEqual(e *Evaluator, node *ast.Node) (string, error) {
	parts := node.Parts
	if len(parts) != 2 {
		return "", errInvalidUsage("equal: exactly 2 args")
	}
	a, err := e.Evaluate(parts[0])
	if err != nil {
		return "", err
	}
	b, err := e.Evaluate(parts[1])
	if err != nil {
		return "", err
	}
	if a == b {
		return a, nil
	}
	return "", nil
}

func builtinSet(e *Evaluator, node *ast.Node) (string, error) {
	parts := node.Parts
	if len(parts) != 2 {
		return "", errInvalidUsage("set: exactly 2 args")
	}
	varName, err := singleIdentParam(e, node.Parts[0], "var name")
	if err != nil {
		return "", err
	}
	value, err := e.Evaluate(parts[1])
	if err != nil {
		return "", err
	}
	e.SetVariable(varName, value)
	return "", nil
}

func builtinExport(e *Evaluator, node *ast.Node) (string, error) {
	parts := node.Parts
	if len(parts) != 1 {
		return "", errInvalidUsage("export: exactly 1 arg")
	}
	name, err := singleIdentParam(e, node.Parts[0], "var name")
	if err != nil {
		return "", err
	}
	e.Export(name)
	return "", nil
}

func builtinEval(e *Evaluator, node *ast.Node) (string, error) {
	parts := node.Parts
	if len(parts) == 0 {
		return "", errInvalidUsage("eval requires macroName")
	}
	macroName, err := e.Evaluate(parts[0])
	if err != nil {
		return "", err
	}
	macroName = strings.TrimSpace(macroName)
	if macroName == "" {
		return "", nil
	}
	rest := []*ast.Node{}
	if len(parts) > 1 {
		rest = parts[1:]
	}
	callNode := &ast.Node{
		Kind:   parser.KindMacro,
		Src:    node.Src,
		Token:  node.Token,
		EndPos: node.EndPos,
		Parts:  rest,
	}
	return e.EvaluateMacroCall(callNode, macroName)
}

func builtinHere(e *Evaluator, node *ast.Node) (string, error) {
	if len(node.Parts) == 0 {
		return "", nil
	}

	expansion, err := builtinEval(e, node)
	if err != nil {
		return "", err
	}
	path := e.CurrentFilePath()
	startPos := node.Token.Pos

	prepend := insertion{pos: startPos, text: []byte(string(e.SpecialChar())), skipToNewline: false}
	append_ := insertion{pos: node.EndPos, text: []byte(expansion), skipToNewline: true}

	if err := modifySource(path, []insertion{prepend, append_}, e.BackupDirPath()); err != nil {
		return "", errRuntimef("here: %v", err)
	}

	return "", Terminate{}
}

func builtinCapitalize(e *Evaluator, node *ast.Node) (string, error) {
	if len(node.Parts) == 0 {
		return "", nil
	}
	original, err := e.Evaluate(node.Parts[0])
	if err != nil {
		return "", err
	}
	if original == "" {
		return "", nil
	}
	return Capitalize(original), nil
}

func builtinDecapitalize(e *Evaluator, node *ast.Node) (string, error) {
	if len(node.Parts) == 0 {
		return "", nil
	}
	original, err := e.Evaluate(node.Parts[0])
	if err != nil {
		return "", err
	}
	if original == "" {
		return "", nil
	}
	return Decapitalize(original), nil
}

func builtinConvertCase(e *Evaluator, node *ast.Node) (string, error) {
	parts := node.Parts
	if len(parts) != 2 {
		return "", errInvalidUsage("convert_case: exactly 2 args")
	}
	original, err := e.Evaluate(parts[0])
	if err != nil {
		return "", err
	}
	if original == "" {
		return "", nil
	}
	style, err := e.Evaluate(parts[1])
	if err != nil {
		return "", err
	}
	return ConvertCaseStr(original, style)
}

func toCaseBuiltin(style string) BuiltinFn {
	return func(e *Evaluator, node *ast.Node) (string, error) {
		if len(node.Parts) == 0 {
			return "", nil
		}
		original, err := e.Evaluate(node.Parts[0])
		if err != nil {
			return "", err
		}
		if original == "" {
			return "", nil
		}
		return ConvertCaseStr(original, style)
	}
}

var builtinToSnakeCase = toCaseBuiltin("snake")
var builtinToCamelCase = toCaseBuiltin("camel")
var builtinToPascalCase = toCaseBuiltin("pascal")
var builtinToScreamingCase = toCaseBuiltin("screaming")
