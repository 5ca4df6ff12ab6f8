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

// Package azlog is a thin leveled-logging facade over hclog, used by the
// pipeline to report phase progress and phase failures.
package azlog

import (
	"os"

	"github.com/hashicorp/go-hclog"
)

// Logger is the subset of hclog.Logger the pipeline and CLI actually use.
type Logger = hclog.Logger

// New creates a named logger writing to stderr at the given level name
// ("debug", "info", "warn", "error"); an unrecognized name falls back to
// info.
func New(name, level string) Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:            name,
		Level:           hclog.LevelFromString(level),
		Output:          os.Stderr,
		IncludeLocation: false,
	})
}

// Discard is a no-op logger for tests and library callers that don't want
// pipeline progress on stderr.
func Discard() Logger {
	return hclog.NewNullLogger()
}
