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

package parser

import (
	"testing"

	"github.com/azadi-lang/azadi/internal/macro/lexer"
)

func parse(t *testing.T, input string) *Parser {
	t.Helper()
	l := lexer.New(input, '%', 0)
	toks := l.Run()
	p := New()
	if err := p.Parse(toks); err != nil {
		t.Fatalf("Parse(%q) error: %v", input, err)
	}
	return p
}

func TestParsePlainText(t *testing.T) {
	p := parse(t, "hello")
	root := p.MustNode(p.RootIndex())
	if root.Kind != KindBlock {
		t.Fatalf("root kind = %v, want KindBlock", root.Kind)
	}
	if len(root.Parts) != 1 || p.MustNode(root.Parts[0]).Kind != KindText {
		t.Fatalf("root children = %v, want one KindText", root.Parts)
	}
}

func TestParseMacroCall(t *testing.T) {
	p := parse(t, "%def(x, y)")
	root := p.MustNode(p.RootIndex())
	if len(root.Parts) != 1 {
		t.Fatalf("root has %d children, want 1", len(root.Parts))
	}
	macro := p.MustNode(root.Parts[0])
	if macro.Kind != KindMacro {
		t.Fatalf("child kind = %v, want KindMacro", macro.Kind)
	}
	// One KindParam per argument (comma starts a fresh param).
	var params int
	for _, c := range macro.Parts {
		if p.MustNode(c).Kind == KindParam {
			params++
		}
	}
	if params != 2 {
		t.Errorf("got %d params, want 2", params)
	}
}

func TestParseNestedBlock(t *testing.T) {
	p := parse(t, "%foo{bar%}")
	root := p.MustNode(p.RootIndex())
	if len(root.Parts) != 1 {
		t.Fatalf("root has %d children, want 1", len(root.Parts))
	}
	block := p.MustNode(root.Parts[0])
	if block.Kind != KindBlock {
		t.Fatalf("child kind = %v, want KindBlock", block.Kind)
	}
	if len(block.Parts) != 1 || p.MustNode(block.Parts[0]).Kind != KindText {
		t.Fatalf("block children = %v, want one KindText", block.Parts)
	}
}

func TestParseBlockComment(t *testing.T) {
	p := parse(t, "%/* note %*/")
	root := p.MustNode(p.RootIndex())
	if len(root.Parts) != 1 || p.MustNode(root.Parts[0]).Kind != KindBlockComment {
		t.Fatalf("root children = %v, want one KindBlockComment", root.Parts)
	}
}

func TestParseVar(t *testing.T) {
	p := parse(t, "%(x)")
	root := p.MustNode(p.RootIndex())
	if len(root.Parts) != 1 || p.MustNode(root.Parts[0]).Kind != KindVar {
		t.Fatalf("root children = %v, want one KindVar", root.Parts)
	}
}

func TestParseEmptyTokenStream(t *testing.T) {
	p := New()
	if err := p.Parse(nil); err != nil {
		t.Fatalf("Parse(nil) error: %v", err)
	}
	if p.NumNodes() != 0 {
		t.Errorf("NumNodes() = %d, want 0", p.NumNodes())
	}
	if p.RootIndex() != -1 {
		t.Errorf("RootIndex() = %d, want -1", p.RootIndex())
	}
}

func TestNodeOutOfRange(t *testing.T) {
	p := New()
	if _, ok := p.Node(5); ok {
		t.Errorf("Node(5) on empty arena returned ok=true")
	}
}

func TestStripEndingSpace(t *testing.T) {
	p := parse(t, "hi  \n")
	root := p.MustNode(p.RootIndex())
	textIdx := root.Parts[0]
	if err := p.StripEndingSpace([]byte("hi  \n"), textIdx); err != nil {
		t.Fatalf("StripEndingSpace error: %v", err)
	}
	n := p.MustNode(textIdx)
	if n.Token.Length != 2 {
		t.Errorf("Token.Length = %d, want 2 (trailing whitespace stripped)", n.Token.Length)
	}
}

func TestRemoveChild(t *testing.T) {
	p := parse(t, "%def(x, y)")
	root := p.MustNode(p.RootIndex())
	macroIdx := root.Parts[0]
	before := len(p.MustNode(macroIdx).Parts)
	p.RemoveChild(macroIdx, 0)
	after := len(p.MustNode(macroIdx).Parts)
	if after != before-1 {
		t.Errorf("after RemoveChild: %d parts, want %d", after, before-1)
	}
}
