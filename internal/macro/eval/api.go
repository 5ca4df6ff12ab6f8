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
	"fmt"
	"os"
	"path/filepath"
)

// EvalString evaluates source. If realPath is non-empty it is used as the
// source's registered path and becomes the evaluator's current file (the
// file `here` rewrites); otherwise a synthetic
// "<string-N>" placeholder is registered.
func EvalString(source, realPath string, e *Evaluator) (string, error) {
	pathForParsing := realPath
	if pathForParsing == "" {
		pathForParsing = fmt.Sprintf("<string-%d>", e.NumSourceFiles())
	}
	tree, err := e.ParseString(source, pathForParsing)
	if err != nil {
		return "", err
	}
	if realPath != "" {
		e.SetCurrentFile(realPath)
	}
	return e.Evaluate(tree)
}

// EvalFile reads inputFile, evaluates it, and writes the result to
// outputFile, creating outputFile's parent directory if needed.
func EvalFile(inputFile, outputFile string, e *Evaluator) error {
	content, err := os.ReadFile(inputFile)
	if err != nil {
		return errRuntimef("cannot read %s: %v", inputFile, err)
	}

	expanded, err := EvalString(string(content), inputFile, e)
	if err != nil {
		return err
	}

	if parent := filepath.Dir(outputFile); parent != "." {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return errRuntimef("cannot create dir %s: %v", parent, err)
		}
	}

	if err := os.WriteFile(outputFile, []byte(expanded), 0o644); err != nil {
		return errRuntimef("cannot write %s: %v", outputFile, err)
	}
	return nil
}

// EvalFileWithConfig is a convenience wrapper that builds a fresh Evaluator
// from cfg before delegating to EvalFile.
func EvalFileWithConfig(inputFile, outputFile string, cfg Config) error {
	e := NewEvaluator(cfg)
	return EvalFile(inputFile, outputFile, e)
}

// EvalFiles evaluates each of inputs into outputDir, naming each output
// after its input file's base name with a ".txt" suffix appended.
func EvalFiles(inputs []string, outputDir string, e *Evaluator) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return errRuntimef("cannot create %s: %v", outputDir, err)
	}

	for _, inputPath := range inputs {
		outName := filepath.Base(inputPath)
		if outName == "" || outName == "." {
			outName = "output"
		}
		outName += ".txt"
		outFile := filepath.Join(outputDir, outName)

		if err := EvalFile(inputPath, outFile, e); err != nil {
			return err
		}
	}
	return nil
}

// EvalFilesWithConfig is a convenience wrapper that builds a fresh
// Evaluator from cfg before delegating to EvalFiles.
func EvalFilesWithConfig(inputs []string, outputDir string, cfg Config) error {
	e := NewEvaluator(cfg)
	return EvalFiles(inputs, outputDir, e)
}

// EvalStringWithDefaults evaluates source with a default-configured,
// disposable Evaluator — useful for tests.
func EvalStringWithDefaults(source string) (string, error) {
	e := NewEvaluator(DefaultConfig())
	return EvalString(source, "", e)
}
