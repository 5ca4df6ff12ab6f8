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

// Package config loads azadi.toml overrides for the fields flags don't set
// explicitly. See SPEC_FULL.md §4.8.
package config

import (
	"errors"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// File is the set of fields loadable from azadi.toml. Every field is a
// pointer so a present-but-unset flag can fall back to the file, and a key
// absent from the file stays nil.
type File struct {
	InputDir  *string `toml:"input_dir"`
	OutputDir *string `toml:"output_dir"`
	WorkDir   *string `toml:"work_dir"`

	Special        *string `toml:"special"`
	OpenDelim      *string `toml:"open_delim"`
	CloseDelim     *string `toml:"close_delim"`
	ChunkEnd       *string `toml:"chunk_end"`
	CommentMarkers *string `toml:"comment_markers"`

	Include *string `toml:"include"`
	Pathsep *string `toml:"pathsep"`

	Pydef     *bool `toml:"pydef"`
	SaveMacro *bool `toml:"save_macro"`
	DumpAST   *bool `toml:"dump_ast"`
}

// Load reads and parses path. A missing file is not an error: it returns a
// nil *File so callers can treat "no config" the same as "empty config".
func Load(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var f File
	if err := toml.Unmarshal(content, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadNearest tries path first if non-empty, else falls back to
// "azadi.toml" in the working directory.
func LoadNearest(path string) (*File, error) {
	if path != "" {
		return Load(path)
	}
	return Load("azadi.toml")
}
