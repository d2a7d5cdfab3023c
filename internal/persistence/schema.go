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

// schema is applied idempotently at startup, the same CREATE-TABLE-IF-
// NOT-EXISTS idiom used for small embedded-schema stores elsewhere in
// the ecosystem (e.g. sqlite-backed issue trackers): no separate
// migration runner, just a schema that is safe to re-apply.
const schema = `
CREATE TABLE IF NOT EXISTS files (
    device      BIGINT NOT NULL,
    inode       BIGINT NOT NULL,
    source_path TEXT NOT NULL,
    vault_key   TEXT,
    mtime       TIMESTAMPTZ NOT NULL,
    uid         INTEGER NOT NULL,
    gid         INTEGER NOT NULL,
    size        BIGINT NOT NULL CHECK (size >= 0),
    PRIMARY KEY (device, inode)
);

CREATE TABLE IF NOT EXISTS statuses (
    id         BIGSERIAL PRIMARY KEY,
    device     BIGINT NOT NULL,
    inode      BIGINT NOT NULL,
    state      TEXT NOT NULL CHECK (state IN ('warned', 'staged', 'deleted')),
    created_at TIMESTAMPTZ NOT NULL,
    FOREIGN KEY (device, inode) REFERENCES files (device, inode) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_statuses_file ON statuses (device, inode);

CREATE TABLE IF NOT EXISTS warnings (
    status_id BIGINT PRIMARY KEY REFERENCES statuses (id) ON DELETE CASCADE,
    tminus_hours INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
    status_id      BIGINT NOT NULL REFERENCES statuses (id) ON DELETE CASCADE,
    stakeholder_uid INTEGER NOT NULL,
    notified_at    TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (status_id, stakeholder_uid)
);

CREATE TABLE IF NOT EXISTS groups (
    gid INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS group_owners (
    gid INTEGER NOT NULL REFERENCES groups (gid) ON DELETE CASCADE,
    uid INTEGER NOT NULL,
    PRIMARY KEY (gid, uid)
);

CREATE TABLE IF NOT EXISTS staging_queue (
    status_id BIGINT PRIMARY KEY REFERENCES statuses (id) ON DELETE CASCADE,
    device    BIGINT NOT NULL,
    inode     BIGINT NOT NULL,
    vault_key TEXT NOT NULL,
    batch_id  UUID
);
`

// warningTriggersFKEnforced documents the invariant a FK constraint
// enforces per spec.md §3: "Foreign-key constraint enforces that only
// 'warned' statuses can carry a warning." Postgres can't express a
// conditional FK directly, so this is enforced at the write path
// (AppendWarning always follows an AppendStatus(StateWarned) in the same
// transaction) rather than a CHECK — documented here rather than left
// implicit.
const warningTriggersFKEnforced = true
