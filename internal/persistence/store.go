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
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v8"
	_ "github.com/doug-martin/goqu/v8/dialect/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wtsi-hgi/vault/internal/config"
)

// Store is the persistence handle: a pooled Postgres connection plus a
// goqu dialect for building queries (spec.md §4.4).
type Store struct {
	pool *pgxpool.Pool
	dial goqu.DialectWrapper
}

// Open connects to Postgres per cfg and applies the schema.
func Open(ctx context.Context, cfg config.PostgresConfig) (*Store, error) {
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=prefer",
		cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("persistence: connect: %w", err)
	}

	s := &Store{pool: pool, dial: goqu.Dialect("postgres")}
	if err := s.applySchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) applySchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close releases the pool.
func (s *Store) Close() { s.pool.Close() }

// WithTx runs fn inside a transaction, committing on nil return and
// rolling back otherwise. Every sweep decision that mutates both disk
// and persistence commits through exactly one such transaction
// (spec.md §4.4 "Transactionality").
func (s *Store) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpsertFile inserts or idempotently replaces a file record, keyed by
// (device, inode) (spec.md §4.4: "Insert file (idempotent by (device,
// inode); re-insert replaces)").
func (s *Store) UpsertFile(ctx context.Context, tx pgx.Tx, f File) error {
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
		OnConflict(goqu.DoUpdate("device, inode", goqu.Record{
			"source_path": goqu.I("excluded.source_path"),
			"vault_key":   goqu.I("excluded.vault_key"),
			"mtime":       goqu.I("excluded.mtime"),
			"uid":         goqu.I("excluded.uid"),
			"gid":         goqu.I("excluded.gid"),
			"size":        goqu.I("excluded.size"),
		})).
		ToSQL()
	if err != nil {
		return err
	}
	_, err = execer(tx, s.pool).Exec(ctx, q, args...)
	return err
}

// DeleteFile removes a file row and (via ON DELETE CASCADE) all of its
// statuses, warnings and notifications.
func (s *Store) DeleteFile(ctx context.Context, tx pgx.Tx, key FileKey) error {
	q, args, err := s.dial.Delete("files").
		Where(goqu.Ex{"device": key.Device, "inode": key.Inode}).
		ToSQL()
	if err != nil {
		return err
	}
	_, err = execer(tx, s.pool).Exec(ctx, q, args...)
	return err
}

// AppendStatus appends a status event and returns its id.
func (s *Store) AppendStatus(ctx context.Context, tx pgx.Tx, key FileKey, state State, at time.Time) (int64, error) {
	q, args, err := s.dial.Insert("statuses").
		Rows(goqu.Record{
			"device":     key.Device,
			"inode":      key.Inode,
			"state":      state,
			"created_at": at,
		}).
		Returning("id").
		ToSQL()
	if err != nil {
		return 0, err
	}
	var id int64
	if err := execer(tx, s.pool).QueryRow(ctx, q, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// AppendWarning attaches a tminus-hours checkpoint to a `warned` status.
func (s *Store) AppendWarning(ctx context.Context, tx pgx.Tx, statusID int64, tminusHours int) error {
	q, args, err := s.dial.Insert("warnings").
		Rows(goqu.Record{"status_id": statusID, "tminus_hours": tminusHours}).
		ToSQL()
	if err != nil {
		return err
	}
	_, err = execer(tx, s.pool).Exec(ctx, q, args...)
	return err
}

// AppendNotification records that uid was informed of statusID.
func (s *Store) AppendNotification(ctx context.Context, tx pgx.Tx, statusID int64, uid uint32, at time.Time) error {
	q, args, err := s.dial.Insert("notifications").
		Rows(goqu.Record{"status_id": statusID, "stakeholder_uid": uid, "notified_at": at}).
		OnConflict(goqu.DoNothing()).
		ToSQL()
	if err != nil {
		return err
	}
	_, err = execer(tx, s.pool).Exec(ctx, q, args...)
	return err
}

// execer lets callers pass either an open transaction or fall back to
// the pool directly for read-only helper queries.
func execer(tx pgx.Tx, pool *pgxpool.Pool) dbHandle {
	if tx != nil {
		return tx
	}
	return pool
}

// dbHandle is the subset of pgx.Tx/*pgxpool.Pool this package needs.
type dbHandle interface {
	Exec(ctx context.Context, sql string, args ...any) (pgx.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
