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

// Package walker produces the (vault, file_attrs, status) stream the
// sweeper consumes (spec.md §4.3), either by live filesystem traversal
// of a set of roots or by reading a pre-computed stat listing.
package walker

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wtsi-hgi/vault/internal/fileattr"
	"github.com/wtsi-hgi/vault/internal/logger"
	"github.com/wtsi-hgi/vault/internal/vault"
)

// Status is a walked entry's classification relative to its vault
// (spec.md §4.3): "outside, keep, archive, stash, staged, limbo".
type Status string

const (
	StatusOutside Status = "outside"
	StatusKeep    Status = "keep"
	StatusArchive Status = "archive"
	StatusStash   Status = "stash"
	StatusStaged  Status = "staged"
	StatusLimbo   Status = "limbo"
)

var branchStatus = map[vault.Branch]Status{
	vault.Keep:    StatusKeep,
	vault.Archive: StatusArchive,
	vault.Stash:   StatusStash,
	vault.Staged:  StatusStaged,
	vault.Limbo:   StatusLimbo,
}

// Entry is one item in the walk stream.
type Entry struct {
	Vault  *vault.Vault
	Attrs  fileattr.Attrs
	Status Status
}

// Sink receives walked entries. Returning an error from Visit aborts
// that root's traversal; it does not abort sibling roots.
type Sink func(Entry) error

// WalkRoots traverses each root concurrently (spec.md §5: "Parallelism
// inside a phase is permitted for walking independent roots"), calling
// visit for every regular file found. Each root must be covered by
// exactly one vault and must not itself be a vault root.
func WalkRoots(ctx context.Context, roots []string, visit Sink) error {
	g, _ := errgroup.WithContext(ctx)
	for _, root := range roots {
		root := root
		g.Go(func() error {
			return walkOneRoot(root, visit)
		})
	}
	return g.Wait()
}

func walkOneRoot(root string, visit Sink) error {
	v, err := vault.Locate(root)
	if err != nil {
		return err
	}

	auditPath := filepath.Join(v.Root, ".audit")
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warnf("walker: skipping %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() || path == auditPath {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logger.Warnf("walker: stat %s: %v", path, err)
			return nil
		}
		attrs, ok := fileattr.FromStat(path, info)
		if !ok {
			return nil
		}

		status := classify(v, path, attrs)
		return visit(Entry{Vault: v, Attrs: attrs, Status: status})
	})
}

// classify determines an entry's status from its path relative to the
// vault: files physically under a branch directory are classified by
// that branch; everything else under the vault's covered tree is
// "outside" (spec.md §4.3).
func classify(v *vault.Vault, path string, attrs fileattr.Attrs) Status {
	rel, err := filepath.Rel(filepath.Join(v.Root, ".vault"), path)
	if err != nil || rel == "." || len(rel) >= 2 && rel[:2] == ".." {
		return StatusOutside
	}
	for _, b := range vault.AllBranches {
		bdir := b.dirName()
		if rel == bdir || hasPathPrefix(rel, bdir) {
			return branchStatus[b]
		}
	}
	return StatusOutside
}

func hasPathPrefix(rel, prefix string) bool {
	if len(rel) <= len(prefix) {
		return false
	}
	return rel[:len(prefix)] == prefix && rel[len(prefix)] == filepath.Separator
}

// StatRecord is one line of an externally supplied stat-listing file:
// path plus the stat fields a live Lstat would have produced.
type StatRecord struct {
	Path   string
	Device uint64
	Inode  uint64
	Mtime  int64
	UID    uint32
	GID    uint32
	Size   int64
	Links  uint64
}

// WalkListing replays a pre-computed stat listing instead of hitting the
// filesystem directly (spec.md §4.3: "consuming a pre-computed stat
// listing"). Each record's vault is located from its path the same way
// a live walk would.
func WalkListing(records []StatRecord, visit Sink) error {
	vaultCache := map[string]*vault.Vault{}
	for _, r := range records {
		v, err := locateCached(vaultCache, r.Path)
		if err != nil {
			logger.Warnf("walker: no vault for %s: %v", r.Path, err)
			continue
		}
		attrs := fileattr.Attrs{
			Device: r.Device,
			Inode:  r.Inode,
			Path:   r.Path,
			Mtime:  time.Unix(r.Mtime, 0),
			UID:    r.UID,
			GID:    r.GID,
			Size:   r.Size,
			Links:  r.Links,
		}
		status := classify(v, r.Path, attrs)
		if err := visit(Entry{Vault: v, Attrs: attrs, Status: status}); err != nil {
			return err
		}
	}
	return nil
}

func locateCached(cache map[string]*vault.Vault, path string) (*vault.Vault, error) {
	dir := filepath.Dir(path)
	if v, ok := cache[dir]; ok {
		return v, nil
	}
	v, err := vault.Locate(dir)
	if err != nil {
		return nil, err
	}
	cache[dir] = v
	return v, nil
}

