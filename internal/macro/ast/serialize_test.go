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
	"strings"
	"testing"
)

func TestSerializeNil(t *testing.T) {
	if lines := Serialize(nil); lines != nil {
		t.Errorf("Serialize(nil) = %v, want nil", lines)
	}
}

func TestSerializeLeaf(t *testing.T) {
	root := build(t, "hello")
	lines := Serialize(root)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (root + one Text child):\n%s", len(lines), strings.Join(lines, "\n"))
	}
	if !strings.HasSuffix(lines[0], "[1]]") {
		t.Errorf("root line = %q, want it to reference child index 1", lines[0])
	}
	if !strings.HasSuffix(lines[1], "[]]") {
		t.Errorf("leaf line = %q, want an empty child list", lines[1])
	}
}

func TestSerializeOneLinePerNode(t *testing.T) {
	// root -> macro -> one param -> its Ident value: 4 nodes.
	root := build(t, "%def(x)")
	lines := Serialize(root)
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), strings.Join(lines, "\n"))
	}
}

func TestSerializeBreadthFirstChildIndices(t *testing.T) {
	root := build(t, "%def(x, y)")
	lines := Serialize(root)
	// root(0) -> macro(1); macro -> param(2), param(3); each param -> one
	// value node (4, 5). 6 nodes total, breadth-first.
	if len(lines) != 6 {
		t.Fatalf("got %d lines, want 6:\n%s", len(lines), strings.Join(lines, "\n"))
	}
	if !strings.HasSuffix(lines[0], "[1]]") {
		t.Errorf("root line = %q, want it to reference child index 1 only", lines[0])
	}
	if !strings.HasSuffix(lines[1], "[2,3]]") {
		t.Errorf("macro line = %q, want it to reference children 2 and 3", lines[1])
	}
}
