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

package vaultcli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveArgsFallsBackToBareArgsWithoutFofn(t *testing.T) {
	fofnFlag = ""
	got, err := resolveArgs([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestResolveArgsReadsNulDelimitedFofn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "files.fofn")
	require.NoError(t, os.WriteFile(path, []byte("/a/b\x00/c/d\x00"), 0o644))

	fofnFlag = path
	defer func() { fofnFlag = "" }()

	got, err := resolveArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/a/b", "/c/d"}, got)
}

func TestResolveArgsReadsNewlineDelimitedFofn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "files.fofn")
	require.NoError(t, os.WriteFile(path, []byte("/a/b\n/c/d\n"), 0o644))

	fofnFlag = path
	defer func() { fofnFlag = "" }()

	got, err := resolveArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/a/b", "/c/d"}, got)
}

func TestCheckCapRejectsOverTen(t *testing.T) {
	files := make([]string, 11)
	err := checkCap(files)
	require.Error(t, err)
}

func TestCheckCapAllowsTen(t *testing.T) {
	files := make([]string, 10)
	assert.NoError(t, checkCap(files))
}
