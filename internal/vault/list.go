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
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/wtsi-hgi/vault/internal/vaultkey"
)

// Context selects which entries List returns.
type Context string

const (
	ContextAll  Context = "all"
	ContextHere Context = "here"
	ContextMine Context = "mine"
)

// Entry is one tracked file returned by List.
type Entry struct {
	Branch  Branch
	Inode   uint64
	Key     string
	RelPath string
	AbsPath string
	UID     uint32
}

// List enumerates branch's keys, decoding each back to its original
// relative path (spec.md §4.2).
func (v *Vault) List(branch Branch, ctx Context, cwd string, caller uint32) ([]Entry, error) {
	root := v.branchDir(branch)
	var out []Entry

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries rather than aborting the whole listing
		}
		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		key := filepath.ToSlash(rel)

		inode, relpath, decErr := vaultkey.Decode(key)
		if decErr != nil {
			return nil
		}

		info, statErr := os.Lstat(path)
		var uid uint32
		if statErr == nil {
			if st, ok := info.Sys().(*syscall.Stat_t); ok {
				uid = st.Uid
			}
		}

		e := Entry{
			Branch:  branch,
			Inode:   inode,
			Key:     key,
			RelPath: relpath,
			AbsPath: filepath.Join(v.Root, relpath),
			UID:     uid,
		}

		switch ctx {
		case ContextMine:
			if uid != caller {
				return nil
			}
		case ContextHere:
			absCwd, cwdErr := filepath.Abs(cwd)
			if cwdErr != nil {
				return nil
			}
			if !strings.HasPrefix(e.AbsPath, absCwd+string(filepath.Separator)) && e.AbsPath != absCwd {
				return nil
			}
		}

		out = append(out, e)
		return nil
	})

	return out, err
}
