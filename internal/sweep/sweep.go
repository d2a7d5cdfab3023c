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

// Package sweep implements the state-machine handler spec.md §4.5
// describes: for each walked entry, decide soft-delete / hard-delete /
// stage / warn / no-op and execute it atomically against the vault and
// the persistence layer.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wtsi-hgi/vault/clock"
	"github.com/wtsi-hgi/vault/internal/config"
	"github.com/wtsi-hgi/vault/internal/consensus"
	"github.com/wtsi-hgi/vault/internal/fileattr"
	"github.com/wtsi-hgi/vault/internal/identity"
	"github.com/wtsi-hgi/vault/internal/lockfile"
	"github.com/wtsi-hgi/vault/internal/logger"
	"github.com/wtsi-hgi/vault/internal/metrics"
	"github.com/wtsi-hgi/vault/internal/notify"
	"github.com/wtsi-hgi/vault/internal/persistence"
	"github.com/wtsi-hgi/vault/internal/vault"
	"github.com/wtsi-hgi/vault/internal/walker"
)

// ErrFatal wraps the two conditions the sweep treats as fatal: a
// consensus-gate disagreement on a soft-delete, and a file for which no
// stakeholder can be resolved. A caller seeing ErrFatal must terminate
// the process immediately, matching §4.5's "abort the entire process
// immediately". The sweep does not call the identity resolver and does
// not check vault consistency, so neither an identity-lookup failure nor
// vault corruption is reported through ErrFatal.
var ErrFatal = errors.New("sweep: fatal condition, process must terminate")

// Sweeper runs the state machine over a walk stream.
type Sweeper struct {
	Store    *persistence.Store
	Gate     *consensus.Gate
	Resolver identity.Resolver
	Clock    clock.Clock
	Cfg      config.DeletionConfig
	Metrics  *metrics.Registry
	DryRun   bool

	agg *notify.Aggregator
	// statusIDsByUID accumulates the status ids backing each uid's
	// payload, so Notifier.Dispatch can report back which (status,
	// stakeholder) pairs to record as notified.
	statusIDsByUID map[uint32][]int64
}

// New builds a Sweeper.
func New(store *persistence.Store, gate *consensus.Gate, resolver identity.Resolver, clk clock.Clock, cfg config.DeletionConfig, m *metrics.Registry, dryRun bool) *Sweeper {
	return &Sweeper{
		Store: store, Gate: gate, Resolver: resolver, Clock: clk, Cfg: cfg, Metrics: m, DryRun: dryRun,
		agg:            notify.NewAggregator(),
		statusIDsByUID: map[uint32][]int64{},
	}
}

// Aggregator exposes the accumulated per-stakeholder payload builder
// for the caller to hand to a Notifier after the walk completes.
func (s *Sweeper) Aggregator() *notify.Aggregator { return s.agg }

// StatusIDsByUID exposes the status ids backing each payload.
func (s *Sweeper) StatusIDsByUID() map[uint32][]int64 { return s.statusIDsByUID }

// Visit handles one walked entry; it is passed directly as a
// walker.Sink. Per-file recoverable errors (lock contention, and the
// vault's NotRegular, NotTracked, AlreadyTracked and permission-mode
// errors) are logged and swallowed; fatal conditions return
// ErrFatal-wrapped errors the caller must treat as a signal to abort
// sandman entirely (spec.md §7).
func (s *Sweeper) Visit(ctx context.Context, e walker.Entry) error {
	now := s.Clock.Now()
	age := e.Attrs.Age(now)

	var err error
	switch e.Status {
	case walker.StatusOutside:
		err = s.visitOutside(ctx, e, now, age)
	case walker.StatusKeep:
		err = s.visitKeep(ctx, e, age)
	case walker.StatusArchive:
		err = s.visitArchiveOrStash(ctx, e, true)
	case walker.StatusStash:
		err = s.visitArchiveOrStash(ctx, e, false)
	case walker.StatusStaged:
		// drain owns it
	case walker.StatusLimbo:
		err = s.visitLimbo(ctx, e, age)
	}
	for _, perFile := range []error{vault.ErrNotRegular, vault.ErrNotTracked, vault.ErrAlreadyTracked,
		vault.ErrPermissionMode, vault.ErrOwnerMismatch, vault.ErrParentMode} {
		if errors.Is(err, perFile) {
			logger.Warnf("sweep: skip %s: %v", e.Attrs.Path, err)
			return nil
		}
	}
	return err
}

func (s *Sweeper) visitOutside(ctx context.Context, e walker.Entry, now time.Time, age time.Duration) error {
	thresholdDays := time.Duration(s.Cfg.ThresholdDays) * 24 * time.Hour

	if age >= thresholdDays {
		return s.softDelete(ctx, e, now)
	}

	for _, h := range sortedHours(s.Cfg.WarningHours) {
		remaining := thresholdDays - age
		if remaining <= time.Duration(h)*time.Hour {
			if err := s.maybeWarn(ctx, e, h); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedHours(hours []int) []int {
	out := append([]int(nil), hours...)
	sort.Ints(out)
	return out
}

// maybeWarn appends a `warned` status+warning row unless a prior warned
// status for this checkpoint already exists since the file's current
// mtime (spec.md §4.5's re-arm rule).
func (s *Sweeper) maybeWarn(ctx context.Context, e walker.Entry, h int) error {
	key := persistence.FileKey{Device: e.Attrs.Device, Inode: e.Attrs.Inode}
	warned, err := s.Store.WarnedSince(ctx, key, e.Attrs.Mtime)
	if err != nil {
		return err
	}
	if warned[h] {
		return nil
	}

	if s.DryRun {
		logger.Infof("sweep: dry-run would-warn path=%s checkpoint=%dh", e.Attrs.Path, h)
		return nil
	}

	var statusID int64
	err = s.Store.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.Store.UpsertFile(ctx, tx, fileRecord(e.Attrs)); err != nil {
			return err
		}
		id, err := s.Store.AppendStatus(ctx, tx, key, persistence.StateWarned, s.Clock.Now())
		if err != nil {
			return err
		}
		statusID = id
		return s.Store.AppendWarning(ctx, tx, id, h)
	})
	if err != nil {
		return err
	}

	if err := s.fanOutToStakeholders(ctx, e, statusID, func(uid uint32) {
		s.agg.AddWarning(uid, h, fileFact(e.Attrs, persistence.StateWarned, h))
	}); err != nil {
		return err
	}
	if s.Metrics != nil {
		s.Metrics.FilesWarned.Inc()
	}
	logger.Infof("sweep: warned path=%s checkpoint=%dh", e.Attrs.Path, h)
	return nil
}

// softDelete runs the consensus gate then adds to limbo (spec.md §4.5
// state 1, §5's ordering: "add-to-limbo (link) -> delete source -> DB
// commit of deleted status").
func (s *Sweeper) softDelete(ctx context.Context, e walker.Entry, now time.Time) error {
	unlock, err := lockfile.TryLockSource(e.Attrs.Path)
	if err != nil {
		if errors.Is(err, lockfile.ErrContended) {
			logger.Warnf("sweep: skip locked %s", e.Attrs.Path)
			if s.Metrics != nil {
				s.Metrics.FilesSkipped.Inc()
			}
			return nil
		}
		logger.Warnf("sweep: lock %s: %v", e.Attrs.Path, err)
		return nil
	}
	defer unlock()

	thresholdAge := int64(s.Cfg.ThresholdDays) * 24 * 3600
	if err := s.Gate.CanDelete(e.Attrs, thresholdAge); err != nil {
		logger.Errorf("sweep: CONSENSUS FAILURE on %s: %v", e.Attrs.Path, err)
		return fmt.Errorf("%w: %v", ErrFatal, err)
	}

	if s.DryRun {
		logger.Infof("sweep: dry-run would-soft-delete path=%s", e.Attrs.Path)
		return nil
	}

	if err := e.Vault.Add(vault.Limbo, e.Attrs.Path); err != nil {
		return fmt.Errorf("sweep: add to limbo: %w", err)
	}
	if err := removeSource(e.Attrs.Path); err != nil {
		return fmt.Errorf("sweep: delete source after limbo-link: %w", err)
	}
	if err := resetMtime(e.Vault, e.Attrs.Inode); err != nil {
		logger.Warnf("sweep: reset limbo mtime for inode %d: %v", e.Attrs.Inode, err)
	}

	key := persistence.FileKey{Device: e.Attrs.Device, Inode: e.Attrs.Inode}
	var statusID int64
	err = s.Store.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.Store.UpsertFile(ctx, tx, fileRecord(e.Attrs)); err != nil {
			return err
		}
		id, err := s.Store.AppendStatus(ctx, tx, key, persistence.StateDeleted, now)
		statusID = id
		return err
	})
	if err != nil {
		return err
	}

	if err := s.fanOutToStakeholders(ctx, e, statusID, func(uid uint32) {
		s.agg.AddDeleted(uid, fileFact(e.Attrs, persistence.StateDeleted, 0))
	}); err != nil {
		return err
	}
	if s.Metrics != nil {
		s.Metrics.FilesDeleted.Inc()
	}
	logger.Infof("sweep: soft-deleted path=%s inode=%d", e.Attrs.Path, e.Attrs.Inode)
	return nil
}

func (s *Sweeper) visitKeep(ctx context.Context, e walker.Entry, age time.Duration) error {
	if e.Attrs.Links < 2 {
		// Source vanished: permanent loss by user intent (spec.md §4.5
		// state 2).
		if s.DryRun {
			logger.Infof("sweep: dry-run would-unlink-vanished-keep path=%s", e.Attrs.Path)
			return nil
		}
		if err := e.Vault.Remove(vault.Keep, e.Attrs.Inode); err != nil && !errors.Is(err, vault.ErrNotTracked) {
			return err
		}
		logger.Warnf("sweep: keep source vanished, unlinked inode=%d", e.Attrs.Inode)
		return nil
	}

	if s.Cfg.KeepDays == nil {
		return nil
	}
	keepThreshold := time.Duration(*s.Cfg.KeepDays) * 24 * time.Hour
	if age < keepThreshold {
		return nil
	}

	if s.DryRun {
		logger.Infof("sweep: dry-run would-untrack-keep path=%s", e.Attrs.Path)
		return nil
	}
	if err := e.Vault.Remove(vault.Keep, e.Attrs.Inode); err != nil {
		return err
	}
	if s.Metrics != nil {
		s.Metrics.FilesUntracked.Inc()
	}
	logger.Infof("sweep: untracked keep-expired path=%s", e.Attrs.Path)
	return nil
}

// visitArchiveOrStash implements spec.md §4.5 states 3 and 4: lock,
// correct stale key, move to staged, and (archive only) delete source.
func (s *Sweeper) visitArchiveOrStash(ctx context.Context, e walker.Entry, deleteSource bool) error {
	unlock, err := lockfile.TryLockSource(e.Attrs.Path)
	if err != nil {
		if errors.Is(err, lockfile.ErrContended) {
			logger.Warnf("sweep: skip locked %s", e.Attrs.Path)
			if s.Metrics != nil {
				s.Metrics.FilesSkipped.Inc()
			}
			return nil
		}
		logger.Warnf("sweep: lock %s: %v", e.Attrs.Path, err)
		return nil
	}
	defer unlock()

	branch := vault.Archive
	if !deleteSource {
		branch = vault.Stash
	}

	if s.DryRun {
		logger.Infof("sweep: dry-run would-stage path=%s branch=%s", e.Attrs.Path, branch)
		return nil
	}

	if err := e.Vault.Add(branch, e.Attrs.Path); err != nil && !errors.Is(err, vault.ErrAlreadyTracked) {
		return fmt.Errorf("sweep: correct key before stage: %w", err)
	}

	if deleteSource {
		if err := removeSource(e.Attrs.Path); err != nil {
			return fmt.Errorf("sweep: delete source before stage: %w", err)
		}
	}
	if err := e.Vault.Move(e.Attrs.Inode, branch, vault.Staged); err != nil {
		return fmt.Errorf("sweep: move to staged: %w", err)
	}

	key := persistence.FileKey{Device: e.Attrs.Device, Inode: e.Attrs.Inode}
	var statusID int64
	err = s.Store.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.Store.UpsertFile(ctx, tx, fileRecord(e.Attrs)); err != nil {
			return err
		}
		id, err := s.Store.AppendStatus(ctx, tx, key, persistence.StateStaged, s.Clock.Now())
		if err != nil {
			return err
		}
		statusID = id
		_, vaultKey, found := e.Vault.Lookup(e.Attrs.Inode)
		if !found {
			return fmt.Errorf("sweep: staged entry vanished before enqueue")
		}
		return s.Store.Enqueue(ctx, tx, id, key, vaultKey)
	})
	if err != nil {
		return err
	}

	if err := s.fanOutToStakeholders(ctx, e, statusID, func(uid uint32) {
		s.agg.AddStaged(uid, fileFact(e.Attrs, persistence.StateStaged, 0))
	}); err != nil {
		return err
	}
	if s.Metrics != nil {
		s.Metrics.FilesStaged.Inc()
	}
	logger.Infof("sweep: staged path=%s branch=%s", e.Attrs.Path, branch)
	return nil
}

// visitLimbo implements spec.md §4.5 state 6: hard-delete once
// limbo-grace has elapsed; no new status row (the `deleted` status
// already exists from soft-delete).
func (s *Sweeper) visitLimbo(ctx context.Context, e walker.Entry, age time.Duration) error {
	limboThreshold := time.Duration(s.Cfg.LimboDays) * 24 * time.Hour
	if age < limboThreshold {
		return nil
	}

	if s.DryRun {
		logger.Infof("sweep: dry-run would-hard-delete path=%s", e.Attrs.Path)
		return nil
	}

	if err := e.Vault.Remove(vault.Limbo, e.Attrs.Inode); err != nil {
		return err
	}
	if s.Metrics != nil {
		s.Metrics.FilesDeleted.Inc()
	}
	logger.Infof("sweep: hard-deleted inode=%d", e.Attrs.Inode)
	return nil
}

// fanOutToStakeholders resolves the file's stakeholders and records
// both the aggregator side-effect and the statusID bookkeeping used
// later for notification rows.
func (s *Sweeper) fanOutToStakeholders(ctx context.Context, e walker.Entry, statusID int64, record func(uid uint32)) error {
	uids, err := s.Store.Stakeholders(ctx, e.Attrs.GID, e.Attrs.UID)
	if err != nil {
		return err
	}
	if len(uids) == 0 {
		return fmt.Errorf("%w: no stakeholders resolvable for gid=%d uid=%d", ErrFatal, e.Attrs.GID, e.Attrs.UID)
	}
	for _, uid := range uids {
		record(uid)
		s.statusIDsByUID[uid] = append(s.statusIDsByUID[uid], statusID)
	}
	return nil
}

func fileRecord(a fileattr.Attrs) persistence.File {
	return persistence.File{
		FileKey:    persistence.FileKey{Device: a.Device, Inode: a.Inode},
		SourcePath: a.Path,
		Mtime:      a.Mtime,
		UID:        a.UID,
		GID:        a.GID,
		Size:       a.Size,
	}
}

func fileFact(a fileattr.Attrs, state persistence.State, warningHours int) notify.FileFact {
	return notify.FileFact{Path: a.Path, GID: a.GID, Size: a.Size, Sweep: state, WarningHours: warningHours}
}
