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

// Package lexer turns macro source text into a flat token stream.
//
// The lexer is a state machine over three states — Block, Macro, Comment —
// tracked on an explicit stack so that deeply nested constructs don't grow
// the Go call stack. See SPEC_FULL.md §4.1.
package lexer

import (
	"unicode/utf8"

	"github.com/azadi-lang/azadi/internal/macro/token"
)

// Error is a lexical error: an unmatched close, an unrecognized character
// after the special char, or an unterminated construct. Lexical errors do
// not stop lexing — the offending span is still emitted as Text so parsing
// can continue.
type Error struct {
	Row     int
	Col     int
	Message string
}

type state int

const (
	stateBlock state = iota
	stateMacro
	stateComment
)

// Lexer converts a UTF-8 byte stream into a token.Token stream.
type Lexer struct {
	input   string
	pos     int
	line    int
	column  int
	src     int
	special rune

	stack  []state
	tokens []token.Token

	Errors []Error
}

// New creates a lexer over input, using special as the macro sigil and src
// as the source-file index to stamp onto every emitted token.
func New(input string, special rune, src int) *Lexer {
	return &Lexer{
		input:   input,
		pos:     0,
		line:    1,
		column:  1,
		src:     src,
		special: special,
		stack:   []state{stateBlock},
	}
}

func isIdentStart(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentContinue(c rune) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isWhitespace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func (l *Lexer) peek() (rune, int, int) {
	if l.pos >= len(l.input) {
		return 0, l.line, l.column
	}
	c, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return c, l.line, l.column
}

func (l *Lexer) advance() (rune, bool) {
	if l.pos >= len(l.input) {
		return 0, false
	}
	c, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size
	if c == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return c, true
}

func (l *Lexer) readUntil(end rune) {
	for {
		c, ok := l.advance()
		if !ok || c == end {
			return
		}
	}
}

// identifierEnd returns the byte offset of the end of the identifier
// starting at start, or start itself if there is no identifier there.
func (l *Lexer) identifierEnd(start int) int {
	end := start
	rest := l.input[start:]
	c, size := utf8.DecodeRuneInString(rest)
	if size == 0 || !isIdentStart(c) {
		return end
	}
	end += size
	rest = rest[size:]
	for len(rest) > 0 {
		c, size := utf8.DecodeRuneInString(rest)
		if !isIdentContinue(c) {
			break
		}
		end += size
		rest = rest[size:]
	}
	return end
}

func (l *Lexer) emit(pos, length int, kind token.Kind) {
	if length == 0 && kind != token.EOF {
		return
	}
	l.tokens = append(l.tokens, token.Token{Kind: kind, Src: l.src, Pos: pos, Length: length})
}

func (l *Lexer) errorAt(row, col int, msg string) {
	l.Errors = append(l.Errors, Error{Row: row, Col: col, Message: msg})
}

// Run drives the state machine to completion and returns the resulting
// token stream (always terminated by an EOF token).
func (l *Lexer) Run() []token.Token {
	for {
		if len(l.stack) == 0 {
			l.emit(l.pos, 0, token.EOF)
			return l.tokens
		}
		var keep bool
		switch l.stack[len(l.stack)-1] {
		case stateBlock:
			keep = l.runBlock()
		case stateMacro:
			keep = l.runMacro()
		case stateComment:
			keep = l.runComment()
		}
		if !keep {
			l.stack = l.stack[:len(l.stack)-1]
		}
	}
}

// handleVar lexes "%(ident)" starting at the already-consumed '%'.
func (l *Lexer) handleVar(start, line, col int) {
	l.advance() // consume '('
	identStart := l.pos
	identEnd := l.identifierEnd(identStart)
	if identEnd > identStart {
		l.pos = identEnd
		if c, _, _ := l.peek(); c == ')' {
			l.advance()
			l.emit(start, l.pos-start, token.Var)
			return
		}
		l.errorAt(line, col, "Var missing closing ')'")
	} else {
		l.errorAt(line, col, "Var missing identifier after '%('")
	}
	l.emit(start, l.pos-start, token.Text)
}

// runBlock lexes plain text and structural markers. Returns whether the
// current (Block) state frame should remain on the stack.
func (l *Lexer) runBlock() bool {
	textStart := l.pos
	for {
		ch, line, col := l.peek()
		if l.pos >= len(l.input) {
			break
		}
		if ch != l.special {
			l.advance()
			continue
		}
		if l.pos > textStart {
			l.emit(textStart, l.pos-textStart, token.Text)
		}
		l.advance()
		pctStart := l.pos - utf8.RuneLen(l.special)
		nch, nLine, nCol := l.peek()
		if l.pos >= len(l.input) {
			l.emit(pctStart, 1, token.Text)
			return false
		}
		switch {
		case nch == '(':
			l.handleVar(pctStart, line, col)
		case nch == '{':
			l.advance()
			l.emit(pctStart, l.pos-pctStart, token.BlockOpen)
			l.stack = append(l.stack, stateBlock)
			return true
		case nch == '}':
			if len(l.stack) <= 1 {
				l.errorAt(nLine, max0(nCol-1), "Unmatched block close: no open block")
			}
			l.advance()
			l.emit(pctStart, l.pos-pctStart, token.BlockClose)
			return false
		case nch == '/':
			l.lexSlashComment(pctStart, "in block")
			if l.stack[len(l.stack)-1] == stateComment {
				return true
			}
		case nch == '-':
			l.lexDashComment(pctStart, "in block")
		case nch == '#':
			l.advance()
			l.readUntil('\n')
			l.emit(pctStart, l.pos-pctStart, token.LineComment)
		case nch == l.special:
			l.advance()
			l.emit(pctStart, l.pos-pctStart, token.Special)
		case isIdentStart(nch):
			switch l.lexNamedBlockOrMacro(pctStart) {
			case namedPushed:
				return true
			case namedClosed:
				return false
			}
		default:
			l.errorAt(nLine, nCol, "Unrecognized char after '%' in block")
			l.emit(pctStart, 1, token.Text)
		}
		textStart = l.pos
	}
	if l.pos > textStart {
		l.emit(textStart, l.pos-textStart, token.Text)
	}
	return false
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// lexSlashComment handles "%/" followed by '/' (line comment) or '*' (block
// comment open). On success for a block comment it pushes stateComment.
func (l *Lexer) lexSlashComment(pctStart int, where string) {
	l.advance() // consume '/'
	c2, c2Line, c2Col := l.peek()
	if l.pos >= len(l.input) {
		return
	}
	switch c2 {
	case '/':
		l.advance()
		l.readUntil('\n')
		l.emit(pctStart, l.pos-pctStart, token.LineComment)
	case '*':
		l.advance()
		l.emit(pctStart, l.pos-pctStart, token.CommentOpen)
		l.stack = append(l.stack, stateComment)
	default:
		l.errorAt(c2Line, c2Col, "Unexpected char after '%/' "+where)
		l.emit(pctStart, l.pos-pctStart, token.Text)
	}
}

func (l *Lexer) lexDashComment(pctStart int, where string) {
	l.advance() // consume '-'
	d, dLine, dCol := l.peek()
	if l.pos >= len(l.input) {
		return
	}
	if d == '-' {
		l.advance()
		l.readUntil('\n')
		l.emit(pctStart, l.pos-pctStart, token.LineComment)
	} else {
		l.errorAt(dLine, dCol, "Unexpected char after '%-' "+where)
		l.emit(pctStart, l.pos-pctStart, token.Text)
	}
}

// namedOutcome is the result of lexNamedBlockOrMacro: whether the enclosing
// state frame should keep running, stay as is, or be popped.
type namedOutcome int

const (
	namedContinue namedOutcome = iota // fell back to a bare Macro token; stay in the same state
	namedPushed                       // opened a nested Block/Macro state
	namedClosed                       // closed the enclosing block
)

// lexNamedBlockOrMacro handles "%ident{", "%ident}", "%ident(" (and the bare
// "%ident" fallback, treated as Macro per the grounding source's FIXME).
func (l *Lexer) lexNamedBlockOrMacro(afterPct int) namedOutcome {
	idStart := l.pos
	idEnd := l.identifierEnd(idStart)
	l.pos = idEnd
	ma, aLine, aCol := l.peek()
	if l.pos >= len(l.input) {
		return namedContinue
	}
	switch ma {
	case '{':
		l.advance()
		l.emit(afterPct, l.pos-afterPct, token.BlockOpen)
		l.stack = append(l.stack, stateBlock)
		return namedPushed
	case '}':
		if len(l.stack) <= 1 {
			l.errorAt(aLine, max0(aCol-1), "Unmatched block close: no open block")
		}
		l.advance()
		l.emit(afterPct, l.pos-afterPct, token.BlockClose)
		return namedClosed
	case '(':
		l.advance()
		l.emit(afterPct, l.pos-afterPct, token.Macro)
		l.stack = append(l.stack, stateMacro)
		return namedPushed
	default:
		l.emit(afterPct, l.pos-afterPct, token.Macro)
		return namedContinue
	}
}

// runMacro lexes the interior of a %name(...) call.
func (l *Lexer) runMacro() bool {
	for {
		ch, line, col := l.peek()
		if l.pos >= len(l.input) {
			return false
		}
		switch {
		case ch == ')':
			start := l.pos
			l.advance()
			l.emit(start, 1, token.CloseParen)
			return false
		case ch == ',':
			start := l.pos
			l.advance()
			l.emit(start, 1, token.Comma)
		case ch == '=':
			start := l.pos
			l.advance()
			l.emit(start, 1, token.Equal)
		case isWhitespace(ch):
			wsStart := l.pos
			for {
				wc, _, _ := l.peek()
				if l.pos >= len(l.input) || !isWhitespace(wc) {
					break
				}
				l.advance()
			}
			l.emit(wsStart, l.pos-wsStart, token.Space)
		case ch == l.special:
			l.advance()
			pctStart := l.pos - utf8.RuneLen(l.special)
			nch, nLine, nCol := l.peek()
			if l.pos >= len(l.input) {
				l.errorAt(line, col, "EOF after '%' in macro, incomplete token")
				l.emit(pctStart, 1, token.Text)
				return false
			}
			switch {
			case nch == '(':
				l.handleVar(pctStart, line, col)
			case nch == '{':
				l.advance()
				l.emit(pctStart, l.pos-pctStart, token.BlockOpen)
				l.stack = append(l.stack, stateBlock)
				return true
			case nch == '}':
				if len(l.stack) <= 1 {
					l.errorAt(nLine, max0(nCol-1), "Unmatched block close: no open block")
				}
				l.advance()
				l.emit(pctStart, l.pos-pctStart, token.BlockClose)
				return false
			case nch == '/':
				l.lexSlashComment(pctStart, "in macro")
				if l.stack[len(l.stack)-1] == stateComment {
					return true
				}
			case nch == '-':
				l.lexDashComment(pctStart, "in macro")
			case nch == '#':
				l.advance()
				l.readUntil('\n')
				l.emit(pctStart, l.pos-pctStart, token.LineComment)
			case nch == l.special:
				l.advance()
				l.emit(pctStart, l.pos-pctStart, token.Special)
			case isIdentStart(nch):
				switch l.lexNamedBlockOrMacro(pctStart) {
				case namedPushed:
					return true
				case namedClosed:
					return false
				}
			default:
				l.errorAt(nLine, nCol, "Unrecognized char after '%' in macro")
				l.emit(pctStart, 1, token.Text)
			}
		case isIdentStart(ch):
			startID := l.pos
			endID := l.identifierEnd(startID)
			l.pos = endID
			l.emit(startID, endID-startID, token.Ident)
		default:
			startO := l.pos
			for {
				c2, _, _ := l.peek()
				if l.pos >= len(l.input) || isWhitespace(c2) || c2 == ')' || c2 == ',' || c2 == '=' || c2 == l.special {
					break
				}
				l.advance()
			}
			l.emit(startO, l.pos-startO, token.Text)
		}
		if l.stack[len(l.stack)-1] != stateMacro {
			return false
		}
	}
}

// runComment lexes the interior of a %/* ... */ block comment, supporting
// arbitrary nesting via recursive pushes of stateComment.
func (l *Lexer) runComment() bool {
	textStart := l.pos
	for {
		ch, _, _ := l.peek()
		if l.pos >= len(l.input) {
			break
		}
		if ch == l.special {
			l.advance()
			pctStart := l.pos - utf8.RuneLen(l.special)
			nch, nLine, nCol := l.peek()
			switch nch {
			case '*':
				l.advance()
				maybeSlash, slashLine, slashCol := l.peek()
				if maybeSlash == '/' {
					l.advance()
					if before := pctStart - textStart; before > 0 {
						l.emit(textStart, before, token.Text)
					}
					l.emit(pctStart, l.pos-pctStart, token.CommentClose)
					return false
				}
				l.errorAt(slashLine, slashCol, "Expected '/' after '%*' to close block comment")
			case '/':
				l.advance()
				maybeStar, starLine, starCol := l.peek()
				if maybeStar == '*' {
					l.advance()
					if before := pctStart - textStart; before > 0 {
						l.emit(textStart, before, token.Text)
					}
					l.emit(pctStart, l.pos-pctStart, token.CommentOpen)
					l.stack = append(l.stack, stateComment)
					return true
				}
				l.errorAt(starLine, starCol, "Expected '*' after '%/' to nest a block comment")
			default:
				l.errorAt(nLine, nCol, "Expected '*' after '%' to close block comment")
			}
			textStart = l.pos
			continue
		}
		l.advance()
	}
	if l.pos > textStart {
		l.emit(textStart, l.pos-textStart, token.Text)
	}
	return false
}
