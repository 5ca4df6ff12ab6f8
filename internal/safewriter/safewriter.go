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

// Package safewriter stages tangled output through a generated/private/old
// directory triplet so an external edit to a previously generated file is
// detected rather than silently clobbered. See SPEC_FULL.md §4.7.
package safewriter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// Error classifies a safewriter failure.
type Error struct {
	Kind    ErrorKind
	Message string
}

// ErrorKind names one AzadiError safe-writer variant.
type ErrorKind int

const (
	ErrSecurityViolation ErrorKind = iota
	ErrModifiedExternally
	ErrIO
)

func (e *Error) Error() string {
	switch e.Kind {
	case ErrSecurityViolation:
		return "security violation: " + e.Message
	case ErrModifiedExternally:
		return "file was modified externally: " + e.Message
	default:
		return "io error: " + e.Message
	}
}

func securityErr(msg string) error { return &Error{Kind: ErrSecurityViolation, Message: msg} }
func modifiedErr(msg string) error { return &Error{Kind: ErrModifiedExternally, Message: msg} }

// Writer stages writes through gen/priv/old directories: before_write hands
// the caller a path to write into (private staging when safe mode is on,
// the final path directly otherwise); after_write commits the staged file
// atomically and records the hash of the copy kept in old/ (the previously
// committed content, or the new file on its first commit) for next time's
// comparison.
type Writer struct {
	genDir  string
	privDir string
	oldDir  string
	safe    bool
}

// New creates a Writer rooted at genBase (the final output tree) with
// privateDir holding staging and `__old__` hash-tracking state. When safe
// is false, before_write/after_write degrade to plain direct writes.
//
// Staged writes land under a session subdirectory named with a fresh UUID,
// so two pipeline runs sharing the same privateDir (e.g. concurrent `azadi`
// invocations against one work dir) never collide while writing the same
// staged path; `__old__`, which must persist across runs for the
// hash-mismatch check to mean anything, stays directly under privateDir.
func New(genBase, privateDir string, safe bool) (*Writer, error) {
	oldDir := filepath.Join(privateDir, "__old__")
	sessionDir := filepath.Join(privateDir, "sessions", uuid.New().String())
	for _, d := range []string{genBase, privateDir, oldDir, sessionDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, err
		}
	}
	return &Writer{genDir: genBase, privDir: sessionDir, oldDir: oldDir, safe: safe}, nil
}

func checkPath(f string) error {
	if filepath.IsAbs(f) {
		return securityErr("absolute paths not allowed")
	}
	if strings.Contains(f, ":") {
		return securityErr("windows-style paths not allowed")
	}
	if strings.Contains(f, "..") {
		return securityErr("path traversal not allowed")
	}
	return nil
}

func computeHash(path string) (string, error) {
	h := blake3.New()
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

func sidecarPath(oldPath string) string {
	dir := filepath.Dir(oldPath)
	name := filepath.Base(oldPath)
	return filepath.Join(dir, name+".hash")
}

func readOrWriteOldHash(oldFile string) (string, error) {
	sc := sidecarPath(oldFile)
	if info, err := os.Stat(sc); err == nil && !info.IsDir() {
		content, err := os.ReadFile(sc)
		if err != nil {
			return "", err
		}
		if t := strings.TrimSpace(string(content)); t != "" {
			return t, nil
		}
	}
	h, err := computeHash(oldFile)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(sc, []byte(h), 0o644); err != nil {
		return "", err
	}
	return h, nil
}

// BeforeWrite validates fileName and returns the path the caller should
// write its content to. In safe mode it also detects whether the
// previously committed file was modified outside this tool since the last
// commit, returning a *Error(ErrModifiedExternally) if so.
func (w *Writer) BeforeWrite(fileName string) (string, error) {
	if err := checkPath(fileName); err != nil {
		return "", err
	}
	if !w.safe {
		finalFile := filepath.Join(w.genDir, fileName)
		if err := os.MkdirAll(filepath.Dir(finalFile), 0o755); err != nil {
			return "", err
		}
		return finalFile, nil
	}

	finalFile := filepath.Join(w.genDir, fileName)
	oldFile := filepath.Join(w.oldDir, fileName)

	finalInfo, finalErr := os.Stat(finalFile)
	oldInfo, oldErr := os.Stat(oldFile)
	if finalErr == nil && !finalInfo.IsDir() && oldErr == nil && !oldInfo.IsDir() {
		finalHash, err := computeHash(finalFile)
		if err != nil {
			return "", err
		}
		oldHash, err := readOrWriteOldHash(oldFile)
		if err != nil {
			return "", err
		}
		if finalHash != oldHash {
			return "", modifiedErr(fmt.Sprintf("%s was modified externally", finalFile))
		}
	}

	privFile := filepath.Join(w.privDir, fileName)
	if err := os.MkdirAll(filepath.Dir(privFile), 0o755); err != nil {
		return "", err
	}
	return privFile, nil
}

// AfterWrite commits a file staged via BeforeWrite: moves the previous
// generated copy into old/, atomically renames the staged file into place,
// and refreshes the old copy's hash sidecar.
func (w *Writer) AfterWrite(fileName string) error {
	if err := checkPath(fileName); err != nil {
		return err
	}
	if !w.safe {
		return nil
	}

	privFile := filepath.Join(w.privDir, fileName)
	oldFile := filepath.Join(w.oldDir, fileName)
	finalFile := filepath.Join(w.genDir, fileName)

	if _, err := os.Stat(finalFile); err == nil {
		if err := copyFile(finalFile, oldFile); err != nil {
			return fmt.Errorf("failed to backup %s to %s: %w", finalFile, oldFile, err)
		}
		if err := os.Remove(finalFile); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(finalFile), 0o755); err != nil {
		return err
	}
	if err := os.Rename(privFile, finalFile); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", privFile, finalFile, err)
	}

	if info, err := os.Stat(oldFile); err == nil && !info.IsDir() {
		newOldHash, err := computeHash(oldFile)
		if err != nil {
			return err
		}
		sc := sidecarPath(oldFile)
		if err := os.MkdirAll(filepath.Dir(sc), 0o755); err != nil {
			return err
		}
		return os.WriteFile(sc, []byte(newOldHash), 0o644)
	}

	if err := os.MkdirAll(filepath.Dir(oldFile), 0o755); err != nil {
		return err
	}
	if err := copyFile(finalFile, oldFile); err != nil {
		return err
	}
	newOldHash, err := computeHash(oldFile)
	if err != nil {
		return err
	}
	return os.WriteFile(sidecarPath(oldFile), []byte(newOldHash), 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}
