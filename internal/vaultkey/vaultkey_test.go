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

package vaultkey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundTripSmallInode(t *testing.T) {
	key := Encode(42, "projects/alice/results.csv", 255)
	i, p, err := Decode(key)

	assert.NoError(t, err)
	assert.EqualValues(t, 42, i)
	assert.Equal(t, "projects/alice/results.csv", p)
}

func TestRoundTripLargeInode(t *testing.T) {
	key := Encode(0x0102030405, "a/b/c.txt", 255)
	i, p, err := Decode(key)

	assert.NoError(t, err)
	assert.EqualValues(t, 0x0102030405, i)
	assert.Equal(t, "a/b/c.txt", p)
}

func TestRoundTripEmptyPath(t *testing.T) {
	key := Encode(7, "", 255)
	i, p, err := Decode(key)

	assert.NoError(t, err)
	assert.EqualValues(t, 7, i)
	assert.Equal(t, "", p)
}

func TestLongFilenameIsSplit(t *testing.T) {
	longPath := strings.Repeat("x", 1000) + ".dat"
	key := Encode(99, longPath, 255)

	// every path component must itself respect NAME_MAX.
	for _, seg := range strings.Split(key, "/") {
		assert.LessOrEqual(t, len(seg), 255)
	}

	i, p, err := Decode(key)
	assert.NoError(t, err)
	assert.EqualValues(t, 99, i)
	assert.Equal(t, longPath, p)
}

func TestDecodeMalformedKey(t *testing.T) {
	_, _, err := Decode("not-a-valid-key-at-all")
	assert.ErrorIs(t, err, ErrMalformedKey)
}

func TestDecodeMalformedKeyBadHexWord(t *testing.T) {
	_, _, err := Decode("zz/00-abc")
	assert.ErrorIs(t, err, ErrMalformedKey)
}

func TestKeysEqualIffPairsEqual(t *testing.T) {
	k1 := Encode(10, "a/b", 255)
	k2 := Encode(10, "a/b", 255)
	k3 := Encode(10, "a/c", 255)
	k4 := Encode(11, "a/b", 255)

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.NotEqual(t, k1, k4)
}
