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
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Enqueue adds a staged row to the drain queue, grounded on the same
// statusID appended for the `staged` status event.
func (s *Store) Enqueue(ctx context.Context, tx pgx.Tx, statusID int64, key FileKey, vaultKey string) error {
	_, err := execer(tx, s.pool).Exec(ctx, `
		INSERT INTO staging_queue (status_id, device, inode, vault_key)
		VALUES ($1, $2, $3, $4)
	`, statusID, key.Device, key.Inode, vaultKey)
	return err
}

// StagedBacklog returns the full backlog of staged rows (spec.md §4.7:
// "select the full backlog of staged rows").
func (s *Store) StagedBacklog(ctx context.Context) ([]StagedEntry, error) {
	rows, err := s.pool.Query(ctx, `SELECT status_id, device, inode, vault_key FROM staging_queue ORDER BY status_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StagedEntry
	for rows.Next() {
		var e StagedEntry
		if err := rows.Scan(&e.StatusID, &e.Device, &e.Inode, &e.VaultKey); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// BacklogCount reports the current staged backlog size, used by the
// drainer to decide whether archive.threshold has been reached.
func (s *Store) BacklogCount(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM staging_queue`).Scan(&n)
	return n, err
}

// AssignBatch tags statusIDs' staging_queue rows with a fresh batch UUID
// before handing them to the archival handler, returning the batch ID
// for the drainer's log line. If the process crashes between the
// handler invocation and MarkDrained, the surviving batch_id on restart
// identifies exactly which rows were already streamed to the handler.
func (s *Store) AssignBatch(ctx context.Context, statusIDs []int64) (string, error) {
	batchID := uuid.New().String()
	if len(statusIDs) == 0 {
		return batchID, nil
	}
	_, err := s.pool.Exec(ctx, `UPDATE staging_queue SET batch_id = $1 WHERE status_id = ANY($2)`, batchID, statusIDs)
	return batchID, err
}

// MarkDrained removes drained rows from the queue and their backing
// `staged` status rows (spec.md §4.7: "mark drained rows as acted-upon
// (effectively: delete the `staged` status and its row)"). The handler
// is responsible for unlinking the physical staged hardlink.
func (s *Store) MarkDrained(ctx context.Context, statusIDs []int64) error {
	if len(statusIDs) == 0 {
		return nil
	}
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		for _, id := range statusIDs {
			if _, err := tx.Exec(ctx, `DELETE FROM staging_queue WHERE status_id = $1`, id); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `DELETE FROM statuses WHERE id = $1`, id); err != nil {
				return err
			}
		}
		return nil
	})
}
