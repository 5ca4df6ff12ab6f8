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

// Package clierr renders a pipeline error to a human-readable message and
// classifies it to a process exit code, the way cue/errors composes Error
// values from many producers at the CLI boundary (trimmed to this domain's
// needs — no localization, no position-list printing).
package clierr

import (
	"errors"
	"fmt"
	"os"

	"github.com/azadi-lang/azadi/internal/macro/eval"
	"github.com/azadi-lang/azadi/internal/noweb"
	"github.com/azadi-lang/azadi/internal/safewriter"
)

// Exit codes, per the CLI contract: 0 on success or a clean `here`
// termination, non-zero otherwise.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitUsage    = 2
	ExitNotFound = 3
	ExitSecurity = 4
	ExitExternal = 5
)

// ExitCode classifies err to a process exit status. A nil error, or the
// eval.Terminate sentinel, both mean "success".
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, eval.Terminate{}) {
		return ExitOK
	}

	var evalErr *eval.Error
	if errors.As(err, &evalErr) {
		switch evalErr.Kind {
		case eval.ErrInvalidUsage:
			return ExitUsage
		case eval.ErrIncludeNotFound:
			return ExitNotFound
		default:
			return ExitError
		}
	}

	var chunkErr *noweb.Error
	if errors.As(err, &chunkErr) {
		if chunkErr.Kind == noweb.ErrSecurityViolation {
			return ExitSecurity
		}
		return ExitError
	}

	var swErr *safewriter.Error
	if errors.As(err, &swErr) {
		switch swErr.Kind {
		case safewriter.ErrSecurityViolation:
			return ExitSecurity
		case safewriter.ErrModifiedExternally:
			return ExitExternal
		default:
			return ExitError
		}
	}

	return ExitError
}

// Message renders err the way a user should see it on stderr: no Go type
// names, no stack frames, just the chain of "because" messages.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("azadi: %s", err.Error())
}

// Report writes err's message to stderr (if err is non-nil and not a clean
// Terminate) and returns the exit code the caller's main() should use.
func Report(err error) int {
	code := ExitCode(err)
	if err != nil && code != ExitOK {
		fmt.Fprintln(os.Stderr, Message(err))
	}
	return code
}
