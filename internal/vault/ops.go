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
	"os"
	"path/filepath"

	"github.com/wtsi-hgi/vault/internal/fileattr"
	"github.com/wtsi-hgi/vault/internal/vaultkey"
)

// Add admits a regular file into branch, hardlinking it at the
// key-codec-determined location (spec.md §4.2).
func (v *Vault) Add(branch Branch, sourcePath string) error {
	if !branch.userAddable() && branch != Limbo {
		return fmt.Errorf("vault: branch %s cannot be added to directly", branch)
	}

	attrs, err := fileattr.Stat(sourcePath)
	if err != nil {
		return err
	}
	parentInfo, err := os.Lstat(filepath.Dir(sourcePath))
	if err != nil {
		return err
	}
	if err := checkPermissions(attrs, parentInfo.Mode()); err != nil {
		return err
	}

	rel, err := v.relPath(sourcePath)
	if err != nil {
		return err
	}

	if existingBranch, existingKey, found := v.Lookup(attrs.Inode); found {
		if existingBranch == branch {
			return v.correctKey(branch, attrs.Inode, rel, existingKey)
		}
		if keepArchivePair(existingBranch, branch) {
			return v.move(attrs.Inode, existingBranch, branch, rel)
		}
		return ErrAlreadyTracked
	}

	dest := v.entryPath(branch, attrs.Inode, rel)
	if err := os.MkdirAll(filepath.Dir(dest), 0o2770|os.ModeSetgid); err != nil {
		return err
	}
	if err := os.Link(sourcePath, dest); err != nil {
		return err
	}
	v.auditf("add branch=%s inode=%d path=%s", branch, attrs.Inode, rel)
	return nil
}

// keepArchivePair reports whether (from, to) is the one re-add move the
// spec allows: "only keep<->archive may move; staged/limbo are terminal
// for add".
func keepArchivePair(from, to Branch) bool {
	return (from == Keep && to == Archive) || (from == Archive && to == Keep)
}

// correctKey renames a branch hardlink to the key its current relative
// path now encodes to, used when a file has been renamed in place
// without an intervening untrack/re-add (spec.md §4.2: "if the inode
// already exists in this... branch with a stale key, correct the key via
// rename and log").
func (v *Vault) correctKey(branch Branch, inode uint64, newRel, oldKey string) error {
	newKey := vaultkey.Encode(inode, newRel, v.nameMax)
	if newKey == oldKey {
		return nil
	}
	oldPath := filepath.Join(v.branchDir(branch), oldKey)
	newPath := filepath.Join(v.branchDir(branch), newKey)
	if err := os.MkdirAll(filepath.Dir(newPath), 0o2770|os.ModeSetgid); err != nil {
		return err
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return err
	}
	v.pruneEmptyDirs(filepath.Dir(oldPath), v.branchDir(branch))
	v.auditf("correct-key branch=%s inode=%d old=%s new=%s", branch, inode, oldKey, newKey)
	return nil
}

// Move atomically renames inode's hardlink from one branch to another.
func (v *Vault) Move(inode uint64, from, to Branch) error {
	key, _, found := v.findByInode(from, inode)
	if !found {
		return ErrNotTracked
	}
	_, relpath, err := vaultkey.Decode(key)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVaultCorrupt, err)
	}
	return v.move(inode, from, to, relpath)
}

func (v *Vault) move(inode uint64, from, to Branch, relpath string) error {
	oldPath := v.entryPath(from, inode, relpath)
	newPath := v.entryPath(to, inode, relpath)
	if err := os.MkdirAll(filepath.Dir(newPath), 0o2770|os.ModeSetgid); err != nil {
		return err
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return err
	}
	v.pruneEmptyDirs(filepath.Dir(oldPath), v.branchDir(from))
	v.auditf("move inode=%d from=%s to=%s", inode, from, to)
	return nil
}

// Remove unlinks inode's hardlink from branch and prunes now-empty
// ancestor directories up to the branch root.
func (v *Vault) Remove(branch Branch, inode uint64) error {
	key, path, found := v.findByInode(branch, inode)
	if !found {
		return ErrNotTracked
	}
	if err := os.Remove(path); err != nil {
		return err
	}
	v.pruneEmptyDirs(filepath.Dir(path), v.branchDir(branch))
	v.auditf("remove branch=%s inode=%d key=%s", branch, inode, key)
	return nil
}

// UntrackPath is the spec.md §6 `untrack FILE` convenience: look up the
// inode at path and remove it from whichever of keep/archive/stash it
// lives in.
func (v *Vault) UntrackPath(path string) (Branch, error) {
	attrs, err := fileattr.Stat(path)
	if err != nil {
		return "", err
	}
	branch, _, found := v.Lookup(attrs.Inode)
	if !found || !branch.userAddable() {
		return "", ErrNotTracked
	}
	return branch, v.Remove(branch, attrs.Inode)
}

// pruneEmptyDirs removes dir and its empty ancestors, stopping at (and
// never removing) stopAt.
func (v *Vault) pruneEmptyDirs(dir, stopAt string) {
	for dir != stopAt && dir != "." && dir != "/" {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
