// Copyright 2026 The Vault Authors
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

package vault

// Branch identifies one of the vault's subdirectories (spec.md §4.2,
// GLOSSARY "Branch"). Archive and Stash are distinct physical
// directories: the walker (spec.md §4.3) must be able to tell them apart
// from filesystem state alone, with no persistence lookup, so each gets
// its own directory rather than a flag recorded only in the database —
// see DESIGN.md's note on this Open Question.
type Branch string

const (
	Keep    Branch = "keep"
	Archive Branch = "archive"
	Stash   Branch = "stash"
	Staged  Branch = ".staged"
	Limbo   Branch = ".limbo"
)

// dirName is the subdirectory name under .vault for this branch.
func (b Branch) dirName() string { return string(b) }

// userAddable reports whether a user's `vault` CLI invocation may add
// directly into this branch. Staged and Limbo are sweep/drain-internal.
func (b Branch) userAddable() bool {
	return b == Keep || b == Archive || b == Stash
}

// minLinks is the minimum hardlink count a consistent entry in this
// branch may have (spec.md §4.2: "must have link count >= 2... except in
// limbo where 1 is permitted").
func (b Branch) minLinks() uint64 {
	if b == Limbo {
		return 1
	}
	return 2
}

// All branches, in a stable order used for `all`-context listings and
// directory bootstrap.
var AllBranches = []Branch{Keep, Archive, Stash, Staged, Limbo}
