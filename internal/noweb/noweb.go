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

// Package noweb resolves noweb-style named chunks — "<<name>>=" openings,
// "<<name>>" references, "@" closings — into tangled output files. See
// SPEC_FULL.md §4.5.
package noweb

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/azadi-lang/azadi/internal/safewriter"
)

// ErrorKind classifies a chunk-resolution failure.
type ErrorKind int

const (
	ErrRecursionLimit ErrorKind = iota
	ErrRecursiveReference
	ErrUndefinedChunk
	ErrFileChunkRedefinition
	ErrSecurityViolation
)

// Error reports a chunk-resolution failure with the file/line it occurred
// at, mirroring the grounding source's AzadiError chunk variants.
type Error struct {
	Kind     ErrorKind
	Chunk    string
	FileName string
	Line     int
	Message  string
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrRecursionLimit:
		return fmt.Sprintf("%s line %d: recursion limit in '%s'", e.FileName, e.Line+1, e.Chunk)
	case ErrRecursiveReference:
		return fmt.Sprintf("%s line %d: recursive reference in '%s'", e.FileName, e.Line+1, e.Chunk)
	case ErrUndefinedChunk:
		return fmt.Sprintf("%s line %d: chunk '%s' is undefined", e.FileName, e.Line+1, e.Chunk)
	case ErrFileChunkRedefinition:
		return fmt.Sprintf("%s line %d: file chunk '%s' is already defined (use @replace)", e.FileName, e.Line+1, e.Chunk)
	default:
		return "security violation: " + e.Message
	}
}

const maxDepth = 100

// Location is a (file, line) pair for error reporting.
type Location struct {
	FileIdx int
	Line    int
}

type chunkDef struct {
	content    []string
	baseIndent int
	fileIdx    int
	line       int
}

type namedChunk struct {
	definitions []*chunkDef
	references  int
}

// Store holds every named chunk discovered while reading one or more
// source files, plus the compiled line-pattern regexes used to recognize
// chunk opens/references/closes.
type Store struct {
	chunks      map[string]*namedChunk
	fileChunks  []string
	fileNames   []string

	openRe  *regexp.Regexp
	slotRe  *regexp.Regexp
	closeRe *regexp.Regexp
}

func pathIsSafe(path string) error {
	if filepath.IsAbs(path) {
		return &Error{Kind: ErrSecurityViolation, Message: "absolute paths are not allowed"}
	}
	if strings.Contains(path, ":") {
		return &Error{Kind: ErrSecurityViolation, Message: "windows-style paths are not allowed"}
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return &Error{Kind: ErrSecurityViolation, Message: "path traversal is not allowed"}
		}
	}
	return nil
}

// NewStore compiles the chunk open/reference/close patterns from the given
// delimiters and comment markers (e.g. "<<", ">>", "@", ["#", "//"]).
func NewStore(openDelim, closeDelim, chunkEnd string, commentMarkers []string) *Store {
	od := regexp.QuoteMeta(openDelim)
	cd := regexp.QuoteMeta(closeDelim)

	escapedComments := make([]string, len(commentMarkers))
	for i, m := range commentMarkers {
		escapedComments[i] = regexp.QuoteMeta(m)
	}
	comments := strings.Join(escapedComments, "|")

	openPattern := fmt.Sprintf(`^(\s*)(?:%s)?[ \t]*%s(?:@replace[ \t]+)?(?:@file[ \t]+)?([^\s]+)%s=`, comments, od, cd)
	slotPattern := fmt.Sprintf(`^(\s*)(?:%s)?\s*%s(?:@file\s+|@reversed\s+)?([^\s>]+)%s\s*$`, comments, od, cd)
	closePattern := fmt.Sprintf(`^(?:%s)?[ \t]*%s\s*$`, comments, regexp.QuoteMeta(chunkEnd))

	return &Store{
		chunks:  make(map[string]*namedChunk),
		openRe:  regexp.MustCompile(openPattern),
		slotRe:  regexp.MustCompile(slotPattern),
		closeRe: regexp.MustCompile(closePattern),
	}
}

// AddFileName registers fname for error reporting and returns its index.
func (s *Store) AddFileName(fname string) int {
	idx := len(s.fileNames)
	s.fileNames = append(s.fileNames, fname)
	return idx
}

func (s *Store) validateChunkName(chunkName, line string) bool {
	if strings.Contains(line, "@file") {
		return pathIsSafe(strings.TrimPrefix(chunkName, "@file ")) == nil
	}
	return chunkName != "" && !strings.ContainsFunc(chunkName, func(r rune) bool { return r == ' ' || r == '\t' })
}

// Read scans text line by line, recording chunk definitions keyed by name,
// and refreshes the file-chunk index.
func (s *Store) Read(text string, fileIdx int) {
	var currentChunk string
	var currentDefIdx int
	inChunk := false
	lineNo := -1

	lines := splitKeepingNone(text)
	for _, line := range lines {
		lineNo++

		if m := s.openRe.FindStringSubmatch(line); m != nil {
			indentation := m[1]
			baseName := m[2]

			isReplace := strings.Contains(line, "@replace")
			isFile := strings.Contains(line, "@file")
			fullName := baseName
			if isFile {
				fullName = "@file " + baseName
			}

			if s.validateChunkName(fullName, line) {
				if strings.HasPrefix(fullName, "@file ") {
					if _, exists := s.chunks[fullName]; exists && !isReplace {
						delete(s.chunks, fullName)
						continue
					}
					if isReplace {
						delete(s.chunks, fullName)
					}
				} else if isReplace {
					delete(s.chunks, fullName)
				}

				nc, ok := s.chunks[fullName]
				if !ok {
					nc = &namedChunk{}
					s.chunks[fullName] = nc
				}
				defIdx := len(nc.definitions)
				nc.definitions = append(nc.definitions, &chunkDef{
					baseIndent: len(indentation),
					fileIdx:    fileIdx,
					line:       lineNo,
				})
				currentChunk = fullName
				currentDefIdx = defIdx
				inChunk = true
			}
			continue
		}

		if s.closeRe.MatchString(line) {
			inChunk = false
			continue
		}

		if inChunk {
			if nc, ok := s.chunks[currentChunk]; ok {
				def := nc.definitions[currentDefIdx]
				if strings.HasSuffix(line, "\n") {
					def.content = append(def.content, line)
				} else {
					def.content = append(def.content, line+"\n")
				}
			}
		}
	}

	var fc []string
	for name := range s.chunks {
		if strings.HasPrefix(name, "@file ") {
			fc = append(fc, name)
		}
	}
	s.fileChunks = fc
}

// splitKeepingNone splits text into lines the way Rust's str::lines does:
// no trailing empty element for a final newline, and no line terminators
// kept.
func splitKeepingNone(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func (s *Store) incReferences(chunkName string, loc Location) error {
	nc, ok := s.chunks[chunkName]
	if !ok {
		return &Error{Kind: ErrUndefinedChunk, Chunk: chunkName, FileName: s.fileName(loc.FileIdx), Line: loc.Line}
	}
	nc.references++
	return nil
}

func (s *Store) fileName(idx int) string {
	if idx < 0 || idx >= len(s.fileNames) {
		return ""
	}
	return s.fileNames[idx]
}

// ExpandWithDepth recursively expands chunkName's definitions, indenting
// each line by targetIndent plus whatever relative indent its reference
// carried, honoring reversedMode (iterate definitions in reverse) and
// guarding against runaway recursion (depth, cycles via seen).
func (s *Store) ExpandWithDepth(chunkName, targetIndent string, depth int, seen *[]string, refLoc Location, reversedMode bool) ([]string, error) {
	if depth > maxDepth {
		return nil, &Error{Kind: ErrRecursionLimit, Chunk: chunkName, FileName: s.fileName(refLoc.FileIdx), Line: refLoc.Line}
	}

	for _, nm := range *seen {
		if nm == chunkName {
			return nil, &Error{Kind: ErrRecursiveReference, Chunk: chunkName, FileName: s.fileName(refLoc.FileIdx), Line: refLoc.Line}
		}
	}

	if err := s.incReferences(chunkName, refLoc); err != nil {
		return nil, err
	}

	nc, ok := s.chunks[chunkName]
	if !ok {
		return nil, &Error{Kind: ErrUndefinedChunk, Chunk: chunkName, FileName: s.fileName(refLoc.FileIdx), Line: refLoc.Line}
	}

	defs := nc.definitions
	order := make([]*chunkDef, len(defs))
	copy(order, defs)
	if reversedMode {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}

	*seen = append(*seen, chunkName)
	defer func() { *seen = (*seen)[:len(*seen)-1] }()

	var result []string
	for _, def := range order {
		lineCount := 0
		for _, line := range def.content {
			lineCount++
			if m := s.slotRe.FindStringSubmatch(line); m != nil {
				addIndent := m[1]
				referencedChunk := m[2]

				lineIsReversed := strings.Contains(line, "@reversed")
				relativeIndent := ""
				if len(addIndent) > def.baseIndent {
					relativeIndent = addIndent[def.baseIndent:]
				}
				newIndent := relativeIndent
				if targetIndent != "" {
					newIndent = targetIndent + relativeIndent
				}
				newLoc := Location{FileIdx: def.fileIdx, Line: def.line + lineCount - 1}

				expanded, err := s.ExpandWithDepth(strings.TrimSpace(referencedChunk), newIndent, depth+1, seen, newLoc, lineIsReversed)
				if err != nil {
					return nil, err
				}
				result = append(result, expanded...)
			} else {
				lineIndent := line
				if len(line) > def.baseIndent {
					lineIndent = line[def.baseIndent:]
				}
				if targetIndent == "" {
					result = append(result, lineIndent)
				} else {
					result = append(result, targetIndent+lineIndent)
				}
			}
		}
	}

	return result, nil
}

// Expand expands chunkName from the top level (not reversed).
func (s *Store) Expand(chunkName, indent string) ([]string, error) {
	var seen []string
	return s.ExpandWithDepth(chunkName, indent, 0, &seen, Location{}, false)
}

// GetChunkContent expands chunkName with no indentation, for direct
// inspection (tests, `--chunks` diagnostics).
func (s *Store) GetChunkContent(chunkName string) ([]string, error) {
	return s.Expand(chunkName, "")
}

// GetFileChunks returns every chunk name that begins with "@file ".
func (s *Store) GetFileChunks() []string {
	return s.fileChunks
}

// HasChunk reports whether name has at least one definition.
func (s *Store) HasChunk(name string) bool {
	_, ok := s.chunks[name]
	return ok
}

// Reset clears all chunk definitions, file-chunk index, and file names.
func (s *Store) Reset() {
	s.chunks = make(map[string]*namedChunk)
	s.fileChunks = nil
	s.fileNames = nil
}

// CheckUnusedChunks returns a sorted list of warnings for every non-file
// chunk that was defined but never referenced.
func (s *Store) CheckUnusedChunks() []string {
	var warns []string
	for name, nc := range s.chunks {
		if strings.HasPrefix(name, "@file ") {
			continue
		}
		if nc.references == 0 && len(nc.definitions) > 0 {
			first := nc.definitions[0]
			warns = append(warns, fmt.Sprintf("Warning: %s line %d: chunk '%s' is defined but never referenced",
				s.fileName(first.fileIdx), first.line+1, name))
		}
	}
	sort.Strings(warns)
	return warns
}

// ChunkWriter commits "@file ..." chunks to disk through a safewriter.Writer.
type ChunkWriter struct {
	writer *safewriter.Writer
}

// NewChunkWriter creates a ChunkWriter over sw.
func NewChunkWriter(sw *safewriter.Writer) *ChunkWriter {
	return &ChunkWriter{writer: sw}
}

// WriteChunk writes content to the path named by chunkName (a "@file ..."
// chunk name); non-file chunk names are a no-op.
func (cw *ChunkWriter) WriteChunk(chunkName string, content []string) error {
	if !strings.HasPrefix(chunkName, "@file ") {
		return nil
	}
	pathStr := strings.TrimSpace(chunkName[len("@file "):])
	finalPath, err := cw.writer.BeforeWrite(pathStr)
	if err != nil {
		return err
	}
	f, err := os.Create(finalPath)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, line := range content {
		if _, err := w.WriteString(line); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return cw.writer.AfterWrite(pathStr)
}

// Clip is the noweb package's high-level read/expand/write API, mirroring
// the grounding source's struct of the same name.
type Clip struct {
	store  *Store
	writer *safewriter.Writer
}

// NewClip creates a Clip over sw using the given chunk syntax.
func NewClip(sw *safewriter.Writer, openDelim, closeDelim, chunkEnd string, commentMarkers []string) *Clip {
	return &Clip{store: NewStore(openDelim, closeDelim, chunkEnd, commentMarkers), writer: sw}
}

// Reset clears the underlying store.
func (c *Clip) Reset() { c.store.Reset() }

// HasChunk reports whether name is defined.
func (c *Clip) HasChunk(name string) bool { return c.store.HasChunk(name) }

// GetFileChunks returns every "@file ..." chunk name.
func (c *Clip) GetFileChunks() []string { return append([]string(nil), c.store.GetFileChunks()...) }

// CheckUnusedChunks returns unused-chunk warnings.
func (c *Clip) CheckUnusedChunks() []string { return c.store.CheckUnusedChunks() }

// ReadFile reads path from disk, recording its chunk definitions.
func (c *Clip) ReadFile(path string) error {
	idx := c.store.AddFileName(path)
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	c.store.Read(string(content), idx)
	return nil
}

// Read records text's chunk definitions under fileName (used for error
// reporting only).
func (c *Clip) Read(text, fileName string) {
	idx := c.store.AddFileName(fileName)
	c.store.Read(text, idx)
}

// ReadFiles reads each of paths in order.
func (c *Clip) ReadFiles(paths []string) error {
	for _, p := range paths {
		if err := c.ReadFile(p); err != nil {
			return err
		}
	}
	return nil
}

// WriteFiles expands and writes every "@file ..." chunk to disk, then
// prints unused-chunk warnings to stderr.
func (c *Clip) WriteFiles() error {
	fc := append([]string(nil), c.store.GetFileChunks()...)
	for _, name := range fc {
		expanded, err := c.store.Expand(name, "")
		if err != nil {
			return err
		}
		cw := NewChunkWriter(c.writer)
		if err := cw.WriteChunk(name, expanded); err != nil {
			return err
		}
	}
	for _, w := range c.store.CheckUnusedChunks() {
		fmt.Fprintln(os.Stderr, w)
	}
	return nil
}

// GetChunk expands chunkName and writes it to out, followed by a trailing
// newline.
func (c *Clip) GetChunk(chunkName string, out *bufio.Writer) error {
	lines, err := c.store.Expand(chunkName, "")
	if err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := out.WriteString(line); err != nil {
			return err
		}
	}
	_, err = out.WriteString("\n")
	return err
}

// Expand expands chunkName at the given indent.
func (c *Clip) Expand(chunkName, indent string) ([]string, error) {
	return c.store.Expand(chunkName, indent)
}

// GetChunkContent expands chunkName with no indentation.
func (c *Clip) GetChunkContent(name string) ([]string, error) {
	return c.store.GetChunkContent(name)
}
