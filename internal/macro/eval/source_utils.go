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
	"os"
	"path/filepath"
	"sort"
)

// insertion is one byte-offset text insertion applied by modifySource: at
// pos, splice in text; if skipToNewline, also drop the original bytes from
// pos up to and including the next newline (used by `here` to replace the
// rest of the line after the macro call with its expansion).
type insertion struct {
	pos           int
	text          []byte
	skipToNewline bool
}

// backupSourceFile copies sourceFile into backupDir, preserving its path
// relative to the filesystem root, before `here` rewrites it in place.
func backupSourceFile(sourceFile, backupDir string) error {
	absSource, err := filepath.Abs(sourceFile)
	if err != nil {
		return err
	}
	rel := absSource
	if filepath.IsAbs(absSource) {
		rel = absSource[1:]
	}
	backupPath := filepath.Join(backupDir, rel)
	if err := os.MkdirAll(filepath.Dir(backupPath), 0o755); err != nil {
		return err
	}
	content, err := os.ReadFile(absSource)
	if err != nil {
		return err
	}
	return os.WriteFile(backupPath, content, 0o644)
}

// modifySource rewrites sourceFile by splicing insertions into its current
// content at the recorded byte offsets, optionally backing the original up
// first.
func modifySource(sourceFile string, insertions []insertion, backupDir string) error {
	if backupDir != "" {
		if err := backupSourceFile(sourceFile, backupDir); err != nil {
			return err
		}
	}

	content, err := os.ReadFile(sourceFile)
	if err != nil {
		return err
	}

	sorted := append([]insertion(nil), insertions...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].pos < sorted[j].pos })

	var result []byte
	lastPos := 0

	for _, ins := range sorted {
		pos := ins.pos
		if pos < len(content) {
			result = append(result, content[lastPos:pos]...)
		} else {
			result = append(result, content[lastPos:]...)
		}
		result = append(result, ins.text...)

		if ins.skipToNewline {
			idx := pos
			for idx < len(content) && content[idx] != '\n' {
				idx++
			}
			if idx < len(content) {
				idx++
			}
			lastPos = idx
		} else {
			lastPos = pos
			if lastPos > len(content) {
				lastPos = len(content)
			}
		}
	}
	if lastPos < len(content) {
		result = append(result, content[lastPos:]...)
	}

	return os.WriteFile(sourceFile, result, 0o644)
}
