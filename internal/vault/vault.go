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

// Package vault implements the on-disk, hardlink-based, inode-addressed
// side channel described in spec.md §4.2: a .vault directory at the root
// of a homogroupic subtree, holding branch subdirectories that record a
// file's retention state in-band with the filesystem.
package vault

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/wtsi-hgi/vault/internal/fileattr"
	"github.com/wtsi-hgi/vault/internal/logger"
	"github.com/wtsi-hgi/vault/internal/vaultkey"
)

const vaultDirName = ".vault"

// Vault is the per-group on-disk object rooted at <Root>/.vault.
type Vault struct {
	// Root is the highest ancestor directory sharing the vault's gid —
	// the homogroupic subtree root, not the .vault directory itself.
	Root string
	GID  uint32

	nameMax int
	audit   *slog.Logger
}

// dir returns the absolute path of the .vault directory.
func (v *Vault) dir() string { return filepath.Join(v.Root, vaultDirName) }

// branchDir returns the absolute path of a branch subdirectory.
func (v *Vault) branchDir(b Branch) string { return filepath.Join(v.dir(), b.dirName()) }

// Locate climbs from referencePath to the highest ancestor sharing its
// gid, and opens the vault rooted there (spec.md §4.2).
func Locate(referencePath string) (*Vault, error) {
	abs, err := filepath.Abs(referencePath)
	if err != nil {
		return nil, err
	}
	if filepath.Base(abs) == vaultDirName {
		return nil, ErrIsVault
	}

	start := abs
	if fi, err := os.Lstat(abs); err == nil && !fi.IsDir() {
		start = filepath.Dir(abs)
	}

	startInfo, err := os.Lstat(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoVault, err)
	}
	startSt, ok := startInfo.Sys().(*syscall.Stat_t)
	if !ok {
		return nil, ErrNoVault
	}
	gid, dev := startSt.Gid, startSt.Dev

	highest := start
	cur := start
	for {
		parent := filepath.Dir(cur)
		if parent == cur {
			break // reached filesystem root
		}
		pi, err := os.Lstat(parent)
		if err != nil {
			break
		}
		pst, ok := pi.Sys().(*syscall.Stat_t)
		if !ok || pst.Dev != dev || pst.Gid != gid {
			break
		}
		highest = parent
		cur = parent
	}

	vdir := filepath.Join(highest, vaultDirName)
	if fi, err := os.Lstat(vdir); err != nil || !fi.IsDir() {
		return nil, ErrNoVault
	}

	nameMax, err := vaultkey.QueryNameMax(vdir)
	if err != nil {
		nameMax = vaultkey.DefaultNameMax
	}

	al, auditErr := logger.NewAuditLogger(filepath.Join(highest, ".audit"))
	if auditErr != nil {
		al = nil
	}

	return &Vault{Root: highest, GID: gid, nameMax: nameMax, audit: al}, nil
}

// Create bootstraps a new .vault directory under root, with group
// inherited from root and the setgid bit set (spec.md §3, §6).
func Create(root string, gid uint32) (*Vault, error) {
	vdir := filepath.Join(root, vaultDirName)
	if err := os.Mkdir(vdir, 0o2770|os.ModeSetgid); err != nil && !os.IsExist(err) {
		return nil, err
	}
	if err := os.Chown(vdir, -1, int(gid)); err != nil {
		return nil, err
	}
	if err := os.Chmod(vdir, 0o2770|os.ModeSetgid); err != nil {
		return nil, err
	}
	for _, b := range AllBranches {
		if err := os.MkdirAll(filepath.Join(vdir, b.dirName()), 0o2770|os.ModeSetgid); err != nil {
			return nil, err
		}
	}
	return Locate(root)
}

func (v *Vault) auditf(format string, args ...any) {
	if v.audit == nil {
		return
	}
	v.audit.Info(fmt.Sprintf(format, args...))
}

// relPath returns path relative to the vault root, the path form
// vaultkey.Encode expects.
func (v *Vault) relPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(v.Root, abs)
	if err != nil {
		return "", err
	}
	return rel, nil
}

// checkPermissions enforces the upfront preconditions spec.md §4.2 lists
// for Add: regular file, mode at least ug+rw, equal u/g bits, and a
// writable+executable parent directory.
func checkPermissions(a fileattr.Attrs, parentMode os.FileMode) error {
	if a.Mode&os.ModeType != 0 {
		return ErrNotRegular
	}
	perm := a.Mode.Perm()
	if perm&0o660 != 0o660 {
		return ErrPermissionMode
	}
	if (perm>>6)&7 != (perm>>3)&7 {
		return ErrOwnerMismatch
	}
	if parentMode.Perm()&0o330 != 0o330 {
		return ErrParentMode
	}
	return nil
}

// entryPath returns the path of the key-codec-determined hardlink
// location for (inode, relpath) under branch.
func (v *Vault) entryPath(b Branch, inode uint64, relpath string) string {
	key := vaultkey.Encode(inode, relpath, v.nameMax)
	return filepath.Join(v.branchDir(b), key)
}

// findByInode locates an inode's entry in branch b, without needing its
// current relative path, by listing the bounded directory the key-codec
// hierarchy maps it to (spec.md §4.2 lookup is "O(1) by key-codec
// structure").
func (v *Vault) findByInode(b Branch, inode uint64) (key string, path string, found bool) {
	dirPrefix := vaultkey.DirHexPrefix(inode)
	lsb := vaultkey.LSBHex(inode)
	searchDir := v.branchDir(b)
	if dirPrefix != "" {
		searchDir = filepath.Join(searchDir, dirPrefix)
	}
	entries, err := os.ReadDir(searchDir)
	if err != nil {
		return "", "", false
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), lsb+"-") {
			full, err := resolveChunkedEntry(searchDir, e, dirPrefix)
			if err != nil {
				continue
			}
			rel, err := filepath.Rel(v.branchDir(b), full)
			if err != nil {
				continue
			}
			return filepath.ToSlash(rel), full, true
		}
	}
	return "", "", false
}

// resolveChunkedEntry follows the long-filename chunk directories (if
// e is itself a directory rather than the terminal hardlink) down to the
// actual hardlink file, returning its absolute path.
func resolveChunkedEntry(baseDir string, e os.DirEntry, dirPrefix string) (string, error) {
	full := filepath.Join(baseDir, e.Name())
	info, err := os.Lstat(full)
	if err != nil {
		return "", err
	}
	for info.IsDir() {
		children, err := os.ReadDir(full)
		if err != nil || len(children) != 1 {
			return "", fmt.Errorf("%w: chunk directory %s malformed", ErrVaultCorrupt, full)
		}
		full = filepath.Join(full, children[0].Name())
		info, err = os.Lstat(full)
		if err != nil {
			return "", err
		}
	}
	return full, nil
}

// EntryAbsPath returns the absolute path of key within branch, for
// callers (sweep's limbo mtime reset) that already hold a key from
// Lookup and need the file on disk.
func (v *Vault) EntryAbsPath(b Branch, key string) (string, error) {
	return filepath.Join(v.branchDir(b), key), nil
}

// Lookup finds which branch, if any, holds inode, returning its key.
func (v *Vault) Lookup(inode uint64) (branch Branch, key string, ok bool) {
	for _, b := range AllBranches {
		if k, _, found := v.findByInode(b, inode); found {
			return b, k, true
		}
	}
	return "", "", false
}
