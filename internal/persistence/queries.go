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
	"time"

	"github.com/jackc/pgx/v5"
)

// Stakeholders is the "file-stakeholders" view (spec.md §3): the union
// of the file's owner uid and every owner uid of the file's gid.
func (s *Store) Stakeholders(ctx context.Context, gid uint32, ownerUID uint32) ([]uint32, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT uid FROM group_owners WHERE gid = $1
		UNION
		SELECT $2::integer
	`, gid, ownerUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uint32
	for rows.Next() {
		var uid uint32
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		out = append(out, uid)
	}
	return out, rows.Err()
}

// UpsertGroupOwners replaces the owner set for gid with uids, refreshed
// from the identity resolver ahead of each sweep/notify cycle.
func (s *Store) UpsertGroupOwners(ctx context.Context, tx pgx.Tx, gid uint32, uids []uint32) error {
	h := execer(tx, s.pool)
	if _, err := h.Exec(ctx, `INSERT INTO groups (gid) VALUES ($1) ON CONFLICT DO NOTHING`, gid); err != nil {
		return err
	}
	if _, err := h.Exec(ctx, `DELETE FROM group_owners WHERE gid = $1`, gid); err != nil {
		return err
	}
	for _, uid := range uids {
		if _, err := h.Exec(ctx, `INSERT INTO group_owners (gid, uid) VALUES ($1, $2) ON CONFLICT DO NOTHING`, gid, uid); err != nil {
			return err
		}
	}
	return nil
}

// StatusFullyNotified is the "status notified" view (spec.md §4.4):
// reports whether every stakeholder of the status's file has a
// notification row for it.
func (s *Store) StatusFullyNotified(ctx context.Context, statusID int64) (bool, error) {
	var pending int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM (
			SELECT go.uid AS uid
			FROM statuses st
			JOIN files f ON f.device = st.device AND f.inode = st.inode
			JOIN group_owners go ON go.gid = f.gid
			WHERE st.id = $1
			UNION
			SELECT f.uid AS uid
			FROM statuses st
			JOIN files f ON f.device = st.device AND f.inode = st.inode
			WHERE st.id = $1
		) stakeholders
		WHERE NOT EXISTS (
			SELECT 1 FROM notifications n
			WHERE n.status_id = $1 AND n.stakeholder_uid = stakeholders.uid
		)
	`, statusID).Scan(&pending)
	if err != nil {
		return false, err
	}
	return pending == 0, nil
}

// WarnedSince reports the tminus-hours checkpoints already warned for
// key since sinceMtime, implementing the re-arm rule of spec.md §4.5:
// "rows whose status timestamp predates the current mtime are ignored."
func (s *Store) WarnedSince(ctx context.Context, key FileKey, sinceMtime time.Time) (map[int]bool, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT w.tminus_hours
		FROM warnings w
		JOIN statuses st ON st.id = w.status_id
		WHERE st.device = $1 AND st.inode = $2 AND st.state = 'warned' AND st.created_at >= $3
	`, key.Device, key.Inode, sinceMtime)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int]bool{}
	for rows.Next() {
		var h int
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		out[h] = true
	}
	return out, rows.Err()
}

// LatestDeletedStatus returns the most recent `deleted` status row id
// for key, if any, used to silence/supersede prior warnings.
func (s *Store) LatestDeletedStatus(ctx context.Context, key FileKey) (int64, bool, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		SELECT id FROM statuses
		WHERE device = $1 AND inode = $2 AND state = 'deleted'
		ORDER BY created_at DESC LIMIT 1
	`, key.Device, key.Inode).Scan(&id)
	if err == pgx.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// PurgeDeletedWarnings removes a file's prior non-deleted statuses once
// its `deleted` status is fully notified (spec.md §4.4): "remove all of
// that file's prior non-deleted statuses first (so warnings for a now-
// deleted file are silenced)".
func (s *Store) PurgeDeletedWarnings(ctx context.Context, tx pgx.Tx, key FileKey) error {
	_, err := execer(tx, s.pool).Exec(ctx, `
		DELETE FROM statuses
		WHERE device = $1 AND inode = $2 AND state != 'deleted'
	`, key.Device, key.Inode)
	return err
}

// Purge runs the purge step (spec.md §4.4), invoked at init and after
// each sweep:
//   - a file whose `deleted` status is fully notified: purge its prior
//     warnings, then the file itself;
//   - a file whose every non-staged status is fully notified and older
//     than 90 days: purge the file.
func (s *Store) Purge(ctx context.Context, now time.Time) (purged int, err error) {
	err = s.WithTx(ctx, func(tx pgx.Tx) error {
		rows, qerr := tx.Query(ctx, `
			SELECT DISTINCT f.device, f.inode, st.id
			FROM files f
			JOIN statuses st ON st.device = f.device AND st.inode = f.inode AND st.state = 'deleted'
		`)
		if qerr != nil {
			return qerr
		}
		type candidate struct {
			key      FileKey
			statusID int64
		}
		var candidates []candidate
		for rows.Next() {
			var c candidate
			if err := rows.Scan(&c.key.Device, &c.key.Inode, &c.statusID); err != nil {
				rows.Close()
				return err
			}
			candidates = append(candidates, c)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, c := range candidates {
			notified, err := s.statusFullyNotifiedTx(ctx, tx, c.statusID)
			if err != nil {
				return err
			}
			if !notified {
				continue
			}
			if err := s.PurgeDeletedWarnings(ctx, tx, c.key); err != nil {
				return err
			}
			if err := s.DeleteFile(ctx, tx, c.key); err != nil {
				return err
			}
			purged++
		}

		expired, eerr := s.purgeExpired(ctx, tx, now.AddDate(0, 0, -90))
		if eerr != nil {
			return eerr
		}
		purged += expired
		return nil
	})
	return purged, err
}

func (s *Store) statusFullyNotifiedTx(ctx context.Context, tx pgx.Tx, statusID int64) (bool, error) {
	var pending int
	err := tx.QueryRow(ctx, `
		SELECT count(*) FROM (
			SELECT go.uid AS uid
			FROM statuses st
			JOIN files f ON f.device = st.device AND f.inode = st.inode
			JOIN group_owners go ON go.gid = f.gid
			WHERE st.id = $1
			UNION
			SELECT f.uid AS uid
			FROM statuses st
			JOIN files f ON f.device = st.device AND f.inode = st.inode
			WHERE st.id = $1
		) stakeholders
		WHERE NOT EXISTS (
			SELECT 1 FROM notifications n
			WHERE n.status_id = $1 AND n.stakeholder_uid = stakeholders.uid
		)
	`, statusID).Scan(&pending)
	if err != nil {
		return false, err
	}
	return pending == 0, nil
}

// purgeExpired removes files whose every non-staged status is fully
// notified and whose newest status predates cutoff (spec.md §4.4
// "Expire").
func (s *Store) purgeExpired(ctx context.Context, tx pgx.Tx, cutoff time.Time) (int, error) {
	rows, err := tx.Query(ctx, `
		SELECT f.device, f.inode
		FROM files f
		WHERE NOT EXISTS (
			SELECT 1 FROM statuses st WHERE st.device = f.device AND st.inode = f.inode AND st.state = 'staged'
		)
		AND NOT EXISTS (
			SELECT 1 FROM statuses st
			WHERE st.device = f.device AND st.inode = f.inode AND st.created_at > $1
		)
	`, cutoff)
	if err != nil {
		return 0, err
	}
	var keys []FileKey
	for rows.Next() {
		var k FileKey
		if err := rows.Scan(&k.Device, &k.Inode); err != nil {
			rows.Close()
			return 0, err
		}
		keys = append(keys, k)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	n := 0
	for _, k := range keys {
		allNotified := true
		stRows, err := tx.Query(ctx, `SELECT id FROM statuses WHERE device = $1 AND inode = $2`, k.Device, k.Inode)
		if err != nil {
			return n, err
		}
		var ids []int64
		for stRows.Next() {
			var id int64
			if err := stRows.Scan(&id); err != nil {
				stRows.Close()
				return n, err
			}
			ids = append(ids, id)
		}
		stRows.Close()
		for _, id := range ids {
			notified, err := s.statusFullyNotifiedTx(ctx, tx, id)
			if err != nil {
				return n, err
			}
			if !notified {
				allNotified = false
				break
			}
		}
		if allNotified {
			if err := s.DeleteFile(ctx, tx, k); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}
