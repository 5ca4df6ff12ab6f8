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

package clierr

import (
	"errors"
	"testing"

	"github.com/azadi-lang/azadi/internal/macro/eval"
	"github.com/azadi-lang/azadi/internal/noweb"
	"github.com/azadi-lang/azadi/internal/safewriter"
)

func TestExitCodeNilIsOK(t *testing.T) {
	if got := ExitCode(nil); got != ExitOK {
		t.Errorf("ExitCode(nil) = %d, want %d", got, ExitOK)
	}
}

func TestExitCodeTerminateIsOK(t *testing.T) {
	if got := ExitCode(eval.Terminate{}); got != ExitOK {
		t.Errorf("ExitCode(Terminate{}) = %d, want %d", got, ExitOK)
	}
}

func TestExitCodeEvalErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&eval.Error{Kind: eval.ErrInvalidUsage, Message: "bad flag"}, ExitUsage},
		{&eval.Error{Kind: eval.ErrIncludeNotFound, Message: "missing.txt"}, ExitNotFound},
		{&eval.Error{Kind: eval.ErrUndefinedMacro, Message: "foo"}, ExitError},
		{&eval.Error{Kind: eval.ErrCircularInclude, Message: "a.txt"}, ExitError},
	}
	for _, c := range cases {
		if got := ExitCode(c.err); got != c.want {
			t.Errorf("ExitCode(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestExitCodeNowebErrors(t *testing.T) {
	if got := ExitCode(&noweb.Error{Kind: noweb.ErrSecurityViolation, Message: "bad path"}); got != ExitSecurity {
		t.Errorf("ExitCode(security noweb.Error) = %d, want %d", got, ExitSecurity)
	}
	if got := ExitCode(&noweb.Error{Kind: noweb.ErrUndefinedChunk, Chunk: "x"}); got != ExitError {
		t.Errorf("ExitCode(undefined-chunk noweb.Error) = %d, want %d", got, ExitError)
	}
}

func TestExitCodeSafewriterErrors(t *testing.T) {
	if got := ExitCode(&safewriter.Error{Kind: safewriter.ErrSecurityViolation, Message: "m"}); got != ExitSecurity {
		t.Errorf("ExitCode(security safewriter.Error) = %d, want %d", got, ExitSecurity)
	}
	if got := ExitCode(&safewriter.Error{Kind: safewriter.ErrModifiedExternally, Message: "m"}); got != ExitExternal {
		t.Errorf("ExitCode(modified-externally safewriter.Error) = %d, want %d", got, ExitExternal)
	}
}

func TestExitCodeUnknownErrorIsGenericError(t *testing.T) {
	if got := ExitCode(errors.New("boom")); got != ExitError {
		t.Errorf("ExitCode(plain error) = %d, want %d", got, ExitError)
	}
}

func TestMessagePrefixesWithAzadi(t *testing.T) {
	err := &eval.Error{Kind: eval.ErrUndefinedMacro, Message: "foo"}
	want := "azadi: undefined macro: foo"
	if got := Message(err); got != want {
		t.Errorf("Message() = %q, want %q", got, want)
	}
}

func TestMessageNilIsEmpty(t *testing.T) {
	if got := Message(nil); got != "" {
		t.Errorf("Message(nil) = %q, want empty string", got)
	}
}

func TestReportTerminateIsSilentAndOK(t *testing.T) {
	if got := Report(eval.Terminate{}); got != ExitOK {
		t.Errorf("Report(Terminate{}) = %d, want %d", got, ExitOK)
	}
}
