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

package drain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wtsi-hgi/vault/internal/vault"
)

func TestVaultAbsPathResolvesUnderStaged(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Chmod(root, 0o2770))
	v, err := vault.Create(root, uint32(os.Getgid()))
	require.NoError(t, err)

	path, err := vaultAbsPath(v, "AA/BB-xyz")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ".vault", ".staged", "AA/BB-xyz"), path)
}
