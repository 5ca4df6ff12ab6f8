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

import "fmt"

// Terminate is a sentinel, not a failure: the `here` builtin returns it to
// signal that the current file has been rewritten in place and evaluation
// of this pass should stop. Callers must check for it with errors.As before
// treating a non-nil error as a real failure.
type Terminate struct{}

func (Terminate) Error() string { return "terminate execution" }

// Error classifies an evaluation failure the way the grounding source's
// EvalError enum does, so callers (in particular internal/clierr) can map
// failures to distinct exit codes.
type Error struct {
	Kind    ErrorKind
	Message string
	Wrapped error
}

// ErrorKind names one EvalError variant.
type ErrorKind int

const (
	ErrUndefinedMacro ErrorKind = iota
	ErrBuiltin
	ErrIncludeNotFound
	ErrCircularInclude
	ErrInvalidUsage
	ErrRuntime
	ErrParse
)

func (e *Error) Error() string {
	prefix := map[ErrorKind]string{
		ErrUndefinedMacro:  "undefined macro",
		ErrBuiltin:         "builtin error",
		ErrIncludeNotFound: "include not found",
		ErrCircularInclude: "circular include",
		ErrInvalidUsage:    "invalid usage",
		ErrRuntime:         "runtime error",
		ErrParse:           "parse error",
	}[e.Kind]
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *Error) Unwrap() error { return e.Wrapped }

func errUndefinedMacro(name string) error { return &Error{Kind: ErrUndefinedMacro, Message: name} }
func errIncludeNotFound(name string) error {
	return &Error{Kind: ErrIncludeNotFound, Message: name}
}
func errCircularInclude(path string) error {
	return &Error{Kind: ErrCircularInclude, Message: path}
}
func errInvalidUsage(msg string) error { return &Error{Kind: ErrInvalidUsage, Message: msg} }
func errRuntime(msg string) error      { return &Error{Kind: ErrRuntime, Message: msg} }
func errRuntimef(format string, args ...any) error {
	return &Error{Kind: ErrRuntime, Message: fmt.Sprintf(format, args...)}
}
func errParse(msg string, wrapped error) error {
	return &Error{Kind: ErrParse, Message: msg, Wrapped: wrapped}
}
