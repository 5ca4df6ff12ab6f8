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

// Command azadi expands macros and tangles noweb-style chunks.
package main

import (
	"os"

	"github.com/azadi-lang/azadi/cmd/azadi/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
