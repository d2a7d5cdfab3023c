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

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

// Corruption describes one inconsistent entry found by CheckConsistency.
type Corruption struct {
	Branch Branch
	Path   string
	Reason string
}

// CheckConsistency walks every branch verifying the hardlink-count
// invariant spec.md §4.2 states: "a hardlink in a branch must have link
// count >= 2... except in limbo where 1 is permitted. If the link count
// decreases unexpectedly... the entry is corrupt."
func (v *Vault) CheckConsistency() ([]Corruption, error) {
	var out []Corruption

	for _, b := range AllBranches {
		root := v.branchDir(b)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			info, statErr := os.Lstat(path)
			if statErr != nil {
				return nil
			}
			st, ok := info.Sys().(*syscall.Stat_t)
			if !ok {
				return nil
			}
			if uint64(st.Nlink) < b.minLinks() {
				out = append(out, Corruption{
					Branch: b,
					Path:   path,
					Reason: fmt.Sprintf("link count %d below minimum %d for branch %s", st.Nlink, b.minLinks(), b),
				})
			}
			return nil
		})
		if err != nil {
			return out, err
		}
	}

	return out, nil
}
