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

package azlog

import "testing"

func TestNewReturnsNamedLogger(t *testing.T) {
	l := New("azadi", "debug")
	if l == nil {
		t.Fatal("New returned a nil Logger")
	}
	if l.Name() != "azadi" {
		t.Errorf("Name() = %q, want %q", l.Name(), "azadi")
	}
}

func TestDiscardSuppressesOutput(t *testing.T) {
	l := Discard()
	if l == nil {
		t.Fatal("Discard returned a nil Logger")
	}
	// A null logger must tolerate calls at every level without panicking.
	l.Debug("ignored")
	l.Info("ignored")
	l.Warn("ignored")
	l.Error("ignored")
}
