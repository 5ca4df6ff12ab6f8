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
	"fmt"
	"strconv"
	"strings"
)

// Serialize renders root as a breadth-first list of lines, each line
// `[kind,tokenKind,pos,length,endPos,[childIndex,...]]`, one line per node
// in the order children are discovered. This is the on-disk `.ast` dump
// format read back by diagnostic tooling (SPEC_FULL.md §6, `--dump-ast`).
func Serialize(root *Node) []string {
	if root == nil {
		return nil
	}

	var lines []string
	type queued struct{ node *Node }
	queue := []queued{{root}}
	nextIdx := 1

	for len(queue) > 0 {
		n := queue[0].node
		queue = queue[1:]

		childIndices := make([]string, len(n.Parts))
		for i := range n.Parts {
			childIndices[i] = strconv.Itoa(nextIdx)
			nextIdx++
		}
		parts := "[]"
		if len(childIndices) > 0 {
			parts = "[" + strings.Join(childIndices, ",") + "]"
		}

		lines = append(lines, fmt.Sprintf("[%d,%d,%d,%d,%d,%s]",
			n.Kind, int(n.Token.Kind), n.Token.Pos, n.Token.Length, n.EndPos, parts))

		for _, child := range n.Parts {
			queue = append(queue, queued{child})
		}
	}

	return lines
}
