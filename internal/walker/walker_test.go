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

package walker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wtsi-hgi/vault/internal/vault"
)

func setupVault(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Chmod(root, 0o2770))
	_, err := vault.Create(root, uint32(os.Getgid()))
	require.NoError(t, err)
	return root
}

func TestWalkRootsClassifiesOutsideAndKeep(t *testing.T) {
	root := setupVault(t)
	src := filepath.Join(root, "data.csv")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o660))

	v, err := vault.Locate(root)
	require.NoError(t, err)
	require.NoError(t, v.Add(vault.Keep, src))

	var outside, keep int
	err = WalkRoots(context.Background(), []string{root}, func(e Entry) error {
		switch e.Status {
		case StatusOutside:
			outside++
		case StatusKeep:
			keep++
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, outside)
	assert.Equal(t, 1, keep)
}

func TestWalkListingClassifiesByStatRecord(t *testing.T) {
	root := setupVault(t)
	src := filepath.Join(root, "a.bin")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o660))

	var got []Entry
	err := WalkListing([]StatRecord{{Path: src, Device: 1, Inode: 77, Size: 1}}, func(e Entry) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, StatusOutside, got[0].Status)
}
