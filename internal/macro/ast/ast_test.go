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

package ast

import (
	"testing"

	"github.com/azadi-lang/azadi/internal/macro/lexer"
	"github.com/azadi-lang/azadi/internal/macro/parser"
)

func build(t *testing.T, input string) *Node {
	t.Helper()
	l := lexer.New(input, '%', 0)
	toks := l.Run()
	p := parser.New()
	if err := p.Parse(toks); err != nil {
		t.Fatalf("Parse(%q) error: %v", input, err)
	}
	n, err := ProcessAST([]byte(input), p)
	if err != nil {
		t.Fatalf("ProcessAST(%q) error: %v", input, err)
	}
	return n
}

func TestBuildNamedParam(t *testing.T) {
	input := "%def(name=value)"
	root := build(t, input)
	macro := root.Parts[0]
	if macro.Kind != parser.KindMacro {
		t.Fatalf("kind = %v, want KindMacro", macro.Kind)
	}
	if len(macro.Parts) != 1 {
		t.Fatalf("macro has %d params, want 1", len(macro.Parts))
	}
	param := macro.Parts[0]
	if param.Name == nil || input[param.Name.Pos:param.Name.End()] != "name" {
		t.Fatalf("param.Name = %v, want \"name\"", param.Name)
	}
	if len(param.Parts) != 1 {
		t.Fatalf("param has %d value parts, want 1", len(param.Parts))
	}
}

func TestBuildPositionalParam(t *testing.T) {
	input := "%def(x)"
	root := build(t, input)
	macro := root.Parts[0]
	param := macro.Parts[0]
	if param.Name != nil {
		t.Fatalf("param.Name = %v, want nil", param.Name)
	}
	if len(param.Parts) != 1 || param.Parts[0].Kind != parser.KindIdent {
		t.Fatalf("param.Parts = %v, want one KindIdent", param.Parts)
	}
}

func TestBuildBlankNamedParam(t *testing.T) {
	input := "%def(name=)"
	root := build(t, input)
	macro := root.Parts[0]
	param := macro.Parts[0]
	if param.Name == nil {
		t.Fatalf("param.Name = nil, want \"name\"")
	}
	if len(param.Parts) != 0 {
		t.Fatalf("param.Parts = %v, want empty", param.Parts)
	}
}

func TestBuildDropsComments(t *testing.T) {
	root := build(t, "%foo{bar %// note\nbaz%}")
	block := root.Parts[0]
	if block.Kind != parser.KindBlock {
		t.Fatalf("kind = %v, want KindBlock", block.Kind)
	}
	for _, c := range block.Parts {
		if c.Kind == parser.KindLineComment || c.Kind == parser.KindBlockComment {
			t.Errorf("comment node survived Build: %+v", c)
		}
	}
}

func TestBuildEmptyTreeErrors(t *testing.T) {
	p := parser.New()
	if _, err := Build(p); err == nil {
		t.Error("Build on an empty parser returned nil error, want one")
	}
}

func TestStripSpaceBeforeCommentsStripsTrailingSpace(t *testing.T) {
	content := []byte("bar %// note\nbaz")
	l := lexer.New(string(content), '%', 0)
	p := parser.New()
	if err := p.Parse(l.Run()); err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if err := StripSpaceBeforeComments(content, p, p.RootIndex()); err != nil {
		t.Fatalf("StripSpaceBeforeComments error: %v", err)
	}
	root := p.MustNode(p.RootIndex())
	// The space before the line comment should have been stripped off the
	// preceding Text node's token length.
	first := p.MustNode(root.Parts[0])
	if first.Kind == parser.KindText && string(content[first.Token.Pos:first.Token.End()]) != "bar" {
		t.Errorf("leading text = %q, want \"bar\"", content[first.Token.Pos:first.Token.End()])
	}
}
