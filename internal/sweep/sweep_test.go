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

package sweep

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wtsi-hgi/vault/internal/fileattr"
	"github.com/wtsi-hgi/vault/internal/persistence"
)

func TestSortedHoursDoesNotMutateInput(t *testing.T) {
	hours := []int{720, 24, 168}
	out := sortedHours(hours)
	assert.Equal(t, []int{24, 168, 720}, out)
	assert.Equal(t, []int{720, 24, 168}, hours)
}

func TestFileRecordCarriesIdentity(t *testing.T) {
	a := fileattr.Attrs{
		Device: 1, Inode: 2, Path: "/a/b", Mtime: time.Unix(1000, 0),
		UID: 100, GID: 200, Size: 4096,
	}
	f := fileRecord(a)
	assert.Equal(t, uint64(1), f.Device)
	assert.Equal(t, uint64(2), f.Inode)
	assert.Equal(t, "/a/b", f.SourcePath)
	assert.Equal(t, int64(4096), f.Size)
}

func TestFileFactCarriesWarningHours(t *testing.T) {
	a := fileattr.Attrs{Path: "/x", GID: 7, Size: 10}
	f := fileFact(a, persistence.StateWarned, 24)
	assert.Equal(t, 24, f.WarningHours)
	assert.Equal(t, persistence.StateWarned, f.Sweep)
}
