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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wtsi-hgi/vault/internal/fileattr"
)

func newTestVault(t *testing.T) (*Vault, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Chmod(root, 0o2770))
	v, err := Create(root, uint32(os.Getgid()))
	require.NoError(t, err)
	return v, root
}

func writeSource(t *testing.T, root, rel string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o770))
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o660))
	return path
}

func TestAddAndLookup(t *testing.T) {
	v, root := newTestVault(t)
	src := writeSource(t, root, "proj/data.csv")

	err := v.Add(Keep, src)
	require.NoError(t, err)

	st, err := os.Lstat(src)
	require.NoError(t, err)
	assert.True(t, st.Mode().IsRegular())

	entries, err := v.List(Keep, ContextAll, root, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "proj/data.csv", entries[0].RelPath)
}

func TestAddRejectsNonRegular(t *testing.T) {
	v, root := newTestVault(t)
	dir := filepath.Join(root, "adir")
	require.NoError(t, os.Mkdir(dir, 0o770))

	err := v.Add(Keep, dir)
	assert.ErrorIs(t, err, ErrNotRegular)
}

func TestAddRejectsBadPermissions(t *testing.T) {
	v, root := newTestVault(t)
	path := filepath.Join(root, "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o640)) // missing group write

	err := v.Add(Keep, path)
	assert.ErrorIs(t, err, ErrPermissionMode)
}

func TestKeepToArchiveMoveOnReAdd(t *testing.T) {
	v, root := newTestVault(t)
	src := writeSource(t, root, "a.txt")

	require.NoError(t, v.Add(Keep, src))
	require.NoError(t, v.Add(Archive, src))

	keepEntries, _ := v.List(Keep, ContextAll, root, 0)
	archiveEntries, _ := v.List(Archive, ContextAll, root, 0)
	assert.Len(t, keepEntries, 0)
	assert.Len(t, archiveEntries, 1)
}

func TestAddAlreadyTrackedInStagedIsTerminal(t *testing.T) {
	v, root := newTestVault(t)
	src := writeSource(t, root, "b.txt")
	require.NoError(t, v.Add(Archive, src))

	attrs, err := fileattr.Stat(src)
	require.NoError(t, err)

	require.NoError(t, v.Move(attrs.Inode, Archive, Staged))

	err = v.Add(Keep, src)
	assert.ErrorIs(t, err, ErrAlreadyTracked)
}

func TestRemoveNotTracked(t *testing.T) {
	v, _ := newTestVault(t)
	err := v.Remove(Keep, 999999)
	assert.ErrorIs(t, err, ErrNotTracked)
}

func TestLocateIsFixedPoint(t *testing.T) {
	_, root := newTestVault(t)
	sub := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(sub, 0o770))

	v1, err := Locate(sub)
	require.NoError(t, err)
	v2, err := Locate(v1.Root)
	require.NoError(t, err)

	assert.Equal(t, v1.Root, v2.Root)
}

func TestLocateOnVaultDirItself(t *testing.T) {
	_, root := newTestVault(t)
	_, err := Locate(filepath.Join(root, ".vault"))
	assert.ErrorIs(t, err, ErrIsVault)
}
