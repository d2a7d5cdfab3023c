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

package consensus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wtsi-hgi/vault/internal/fileattr"
)

func alwaysTrue(fileattr.Attrs, int64) bool  { return true }
func alwaysFalse(fileattr.Attrs, int64) bool { return false }

func TestGateRequiresAtLeastThreePredicates(t *testing.T) {
	_, err := NewGate(alwaysTrue, alwaysTrue)
	assert.Error(t, err)
}

func TestGateUnanimousTrue(t *testing.T) {
	g, err := NewGate(alwaysTrue, alwaysTrue, alwaysTrue)
	require.NoError(t, err)
	assert.NoError(t, g.CanDelete(fileattr.Attrs{}, 0))
}

func TestGateAnyDisagreementIsFatal(t *testing.T) {
	g, err := NewGate(alwaysTrue, alwaysFalse, alwaysTrue)
	require.NoError(t, err)

	err = g.CanDelete(fileattr.Attrs{}, 0)
	require.Error(t, err)
	var de *ErrDisagreement
	require.ErrorAs(t, err, &de)
	assert.Equal(t, []bool{true, false, true}, de.Results)
}

func TestAgeAtLeast(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	mtime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pred := AgeAtLeast(func() int64 { return now.Unix() })

	assert.True(t, pred(fileattr.Attrs{Mtime: mtime}, int64(8*24*time.Hour/time.Second)))
	assert.False(t, pred(fileattr.Attrs{Mtime: mtime}, int64(10*24*time.Hour/time.Second)))
}

func TestDefaultPredicatesDisagreeOnNegativeSize(t *testing.T) {
	now := func() int64 { return time.Now().Unix() }
	g, err := NewGate(DefaultPredicates(now)...)
	require.NoError(t, err)

	err = g.CanDelete(fileattr.Attrs{Mtime: time.Unix(0, 0), Size: -1, Links: 2}, 0)
	assert.Error(t, err)
}
