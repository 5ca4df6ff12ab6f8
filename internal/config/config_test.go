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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsNilNil(t *testing.T) {
	f, err := Load(filepath.Join(t.TempDir(), "does_not_exist.toml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if f != nil {
		t.Errorf("Load on a missing file = %+v, want nil", f)
	}
}

func TestLoadParsesFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "azadi.toml")
	content := `
input_dir = "src"
output_dir = "out"
special = "%"
pydef = true
save_macro = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if f == nil {
		t.Fatal("Load returned nil *File for an existing file")
	}
	if f.InputDir == nil || *f.InputDir != "src" {
		t.Errorf("InputDir = %v, want \"src\"", f.InputDir)
	}
	if f.OutputDir == nil || *f.OutputDir != "out" {
		t.Errorf("OutputDir = %v, want \"out\"", f.OutputDir)
	}
	if f.Special == nil || *f.Special != "%" {
		t.Errorf("Special = %v, want \"%%\"", f.Special)
	}
	if f.Pydef == nil || *f.Pydef != true {
		t.Errorf("Pydef = %v, want true", f.Pydef)
	}
	if f.SaveMacro == nil || *f.SaveMacro != false {
		t.Errorf("SaveMacro = %v, want false", f.SaveMacro)
	}
	if f.WorkDir != nil {
		t.Errorf("WorkDir = %v, want nil (field absent from the file)", f.WorkDir)
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "azadi.toml")
	if err := os.WriteFile(path, []byte("this is not = = toml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load on malformed TOML returned nil error, want one")
	}
}

func TestLoadNearestFallsBackToDefaultName(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	content := `input_dir = "from_default"`
	if err := os.WriteFile("azadi.toml", []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := LoadNearest("")
	if err != nil {
		t.Fatalf("LoadNearest error: %v", err)
	}
	if f == nil || f.InputDir == nil || *f.InputDir != "from_default" {
		t.Errorf("LoadNearest(\"\") = %+v, want InputDir \"from_default\"", f)
	}
}

func TestLoadNearestPrefersExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	if err := os.WriteFile(path, []byte(`input_dir = "explicit"`), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := LoadNearest(path)
	if err != nil {
		t.Fatalf("LoadNearest error: %v", err)
	}
	if f == nil || f.InputDir == nil || *f.InputDir != "explicit" {
		t.Errorf("LoadNearest(%q) = %+v, want InputDir \"explicit\"", path, f)
	}
}
