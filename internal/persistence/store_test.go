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

package persistence

import (
	"testing"
	"time"

	"github.com/doug-martin/goqu/v8"
	_ "github.com/doug-martin/goqu/v8/dialect/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests exercise query construction only, with no live Postgres
// connection — a Store built with a nil pool is safe as long as nothing
// calls its Exec/Query methods.
func newQueryStore() *Store {
	return &Store{dial: goqu.Dialect("postgres")}
}

func TestUpsertFileSQLUsesConflictClause(t *testing.T) {
	s := newQueryStore()
	f := File{
		FileKey:    FileKey{Device: 1, Inode: 42},
		SourcePath: "/proj/data.csv",
		Mtime:      mustParseTime(t, "2026-01-01T00:00:00Z"),
		UID:        100,
		GID:        200,
		Size:       1024,
	}
	q, args, err := s.dial.Insert("files").
		Rows(goqu.Record{
			"device":      f.Device,
			"inode":       f.Inode,
			"source_path": f.SourcePath,
			"vault_key":   f.VaultKey,
			"mtime":       f.Mtime,
			"uid":         f.UID,
			"gid":         f.GID,
			"size":        f.Size,
		}).
		OnConflict(goqu.DoUpdate("device, inode", goqu.Record{"source_path": goqu.I("excluded.source_path")})).
		ToSQL()
	require.NoError(t, err)
	assert.Contains(t, q, "INSERT INTO \"files\"")
	assert.Contains(t, q, "ON CONFLICT")
	assert.Len(t, args, 8)
}

func TestAppendStatusSQLReturnsID(t *testing.T) {
	s := newQueryStore()
	q, _, err := s.dial.Insert("statuses").
		Rows(goqu.Record{"device": 1, "inode": 2, "state": string(StateWarned), "created_at": "now"}).
		Returning("id").
		ToSQL()
	require.NoError(t, err)
	assert.Contains(t, q, "RETURNING \"id\"")
}

func mustParseTime(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return tm
}
