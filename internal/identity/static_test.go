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

package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticResolverGroupOwners(t *testing.T) {
	r := NewStaticResolver()
	r.Users[100] = User{UID: 100, Name: "alice", Email: "alice@example.org"}
	r.Users[200] = User{UID: 200, Name: "bob", Email: "bob@example.org"}
	r.GroupOwning[5000] = []uint32{100, 200}

	owners, err := r.GroupOwners(5000)
	require.NoError(t, err)
	assert.Len(t, owners, 2)
	assert.Equal(t, "alice", owners[0].Name)
}

func TestStaticResolverUnknownUID(t *testing.T) {
	r := NewStaticResolver()
	_, err := r.User(999)
	assert.ErrorIs(t, err, ErrNoSuchIdentity)
}
