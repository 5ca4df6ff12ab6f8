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

// Package ast cleans a parser.Parser's flat node arena into an owning AST:
// comments are dropped, trailing space before a comment is trimmed, and
// Param nodes are split into name/value. See SPEC_FULL.md §4.3.
package ast

import (
	"fmt"

	"github.com/azadi-lang/azadi/internal/macro/parser"
	"github.com/azadi-lang/azadi/internal/macro/token"
)

// Node is one entry in a cleaned, owning AST: unlike parser.Node it holds
// its children directly rather than by arena index, and a Param node
// additionally carries the name token split out of its first parts.
type Node struct {
	Kind   parser.NodeKind
	Src    int
	Token  token.Token
	EndPos int
	Parts  []*Node
	Name   *token.Token
}

// Error reports a malformed parse tree (a dangling child index). Only
// hand-built or corrupted parser.Parser state triggers this.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

const notFound = -1

// Build turns p's flat arena into a cleaned, owning AST rooted at its root
// node. It does not mutate p; call StripSpaceBeforeComments first if that
// pass is wanted.
func Build(p *parser.Parser) (*Node, error) {
	rootIdx := p.RootIndex()
	if rootIdx < 0 {
		return nil, &Error{Message: "empty parse tree"}
	}
	n, err := cleanNode(p, rootIdx)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, &Error{Message: "root node was skipped"}
	}
	return n, nil
}

func cleanNode(p *parser.Parser, nodeIdx int) (*Node, error) {
	node, ok := p.Node(nodeIdx)
	if !ok {
		return nil, &Error{Message: fmt.Sprintf("node index %d not found", nodeIdx)}
	}

	if node.Kind == parser.KindLineComment || node.Kind == parser.KindBlockComment {
		return nil, nil
	}

	if node.Kind == parser.KindParam {
		return analyzeParam(p, nodeIdx)
	}

	children := make([]*Node, 0, len(node.Parts))
	for _, childIdx := range node.Parts {
		child, err := cleanNode(p, childIdx)
		if err != nil {
			return nil, err
		}
		if child != nil {
			children = append(children, child)
		}
	}

	return &Node{
		Kind:   node.Kind,
		Src:    node.Src,
		Token:  node.Token,
		EndPos: node.EndPos,
		Parts:  children,
	}, nil
}

func analyzeParam(p *parser.Parser, nodeIdx int) (*Node, error) {
	node, ok := p.Node(nodeIdx)
	if !ok {
		return nil, &Error{Message: fmt.Sprintf("node index %d not found", nodeIdx)}
	}

	var paramName *token.Token
	firstNotSkippable := notFound
	nameIndex := notFound
	firstGoodAfterEqual := notFound
	seenEqual := false

	for i, partIdx := range node.Parts {
		part, ok := p.Node(partIdx)
		if !ok {
			return nil, &Error{Message: fmt.Sprintf("node index %d not found", partIdx)}
		}

		if part.Kind == parser.KindSpace || part.Kind == parser.KindLineComment || part.Kind == parser.KindBlockComment {
			continue
		}

		if firstNotSkippable == notFound {
			firstNotSkippable = i
		}

		if paramName == nil && !seenEqual && part.Kind == parser.KindIdent {
			tok := part.Token
			paramName = &tok
			nameIndex = i
			continue
		}

		if paramName != nil && !seenEqual && part.Kind == parser.KindEqual {
			seenEqual = true
			continue
		}

		if seenEqual {
			firstGoodAfterEqual = i
		}
		break
	}

	switch {
	case seenEqual && firstGoodAfterEqual != notFound:
		// handled below via startIdx
	case seenEqual:
		// name = <blank>
		return &Node{Kind: parser.KindParam, Src: node.Src, Token: node.Token, EndPos: node.EndPos, Name: paramName}, nil
	case firstNotSkippable == notFound:
		return &Node{Kind: parser.KindParam, Src: node.Src, Token: node.Token, EndPos: node.EndPos}, nil
	}

	var startIdx int
	switch {
	case seenEqual:
		startIdx = firstGoodAfterEqual
	case paramName != nil:
		startIdx = nameIndex
	default:
		startIdx = firstNotSkippable
	}

	valueParts := make([]*Node, 0, len(node.Parts)-startIdx)
	for _, partIdx := range node.Parts[startIdx:] {
		child, err := cleanNode(p, partIdx)
		if err != nil {
			return nil, err
		}
		if child != nil {
			valueParts = append(valueParts, child)
		}
	}

	name := paramName
	if !seenEqual {
		name = nil
	}

	return &Node{
		Kind:   parser.KindParam,
		Src:    node.Src,
		Token:  node.Token,
		EndPos: node.EndPos,
		Parts:  valueParts,
		Name:   name,
	}, nil
}

// StripSpaceBeforeComments walks p's flat tree starting at nodeIdx and, for
// every comment child whose preceding sibling is whitespace (a Space node,
// or trailing space inside a Text node) immediately before a line comment or
// a block comment followed by a newline, removes or trims that sibling so
// the comment doesn't leave a blank line behind once it is dropped by Build.
// It mutates p in place.
func StripSpaceBeforeComments(content []byte, p *parser.Parser, nodeIdx int) error {
	node, ok := p.Node(nodeIdx)
	if !ok {
		return &Error{Message: fmt.Sprintf("node index %d not found", nodeIdx)}
	}

	var toRemove []int
	var spacesToStrip []int
	children := append([]int(nil), node.Parts...)

	for i, partIdx := range children {
		part, ok := p.Node(partIdx)
		if !ok {
			return &Error{Message: fmt.Sprintf("node index %d not found", partIdx)}
		}

		isLineComment := part.Kind == parser.KindLineComment
		isBlockComment := part.Kind == parser.KindBlockComment

		if !isLineComment && !isBlockComment {
			continue
		}

		blockCommentNewline := false
		if isBlockComment {
			nl, err := isFollowedByNewline(content, p, partIdx)
			if err != nil {
				return err
			}
			blockCommentNewline = nl
		}

		if !isLineComment && !blockCommentNewline {
			continue
		}
		if i == 0 {
			continue
		}

		prevIdx := children[i-1]
		prev, ok := p.Node(prevIdx)
		if !ok {
			return &Error{Message: fmt.Sprintf("node index %d not found", prevIdx)}
		}

		switch prev.Kind {
		case parser.KindSpace:
			toRemove = append(toRemove, i-1)
		case parser.KindText:
			spacesToStrip = append(spacesToStrip, prevIdx)
		}
	}

	for i := len(toRemove) - 1; i >= 0; i-- {
		p.RemoveChild(nodeIdx, toRemove[i])
	}

	for _, idx := range spacesToStrip {
		if err := p.StripEndingSpace(content, idx); err != nil {
			return err
		}
	}

	for _, childIdx := range children {
		if _, ok := p.Node(childIdx); !ok {
			continue
		}
		if err := StripSpaceBeforeComments(content, p, childIdx); err != nil {
			return err
		}
	}

	return nil
}

func isFollowedByNewline(content []byte, p *parser.Parser, nodeIdx int) (bool, error) {
	node, ok := p.Node(nodeIdx)
	if !ok {
		return false, &Error{Message: fmt.Sprintf("node index %d not found", nodeIdx)}
	}
	return node.EndPos < len(content) && content[node.EndPos] == '\n', nil
}

// ProcessAST runs the full two-pass pipeline (strip, then build) over p.
func ProcessAST(content []byte, p *parser.Parser) (*Node, error) {
	rootIdx := p.RootIndex()
	if rootIdx < 0 {
		return nil, &Error{Message: "empty parse tree"}
	}
	if err := StripSpaceBeforeComments(content, p, rootIdx); err != nil {
		return nil, err
	}
	return Build(p)
}
