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

package sandmancli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/wtsi-hgi/vault/clock"
	"github.com/wtsi-hgi/vault/internal/consensus"
	"github.com/wtsi-hgi/vault/internal/drain"
	"github.com/wtsi-hgi/vault/internal/handler"
	"github.com/wtsi-hgi/vault/internal/identity"
	"github.com/wtsi-hgi/vault/internal/logger"
	"github.com/wtsi-hgi/vault/internal/mailer"
	"github.com/wtsi-hgi/vault/internal/metrics"
	"github.com/wtsi-hgi/vault/internal/notify"
	"github.com/wtsi-hgi/vault/internal/persistence"
	"github.com/wtsi-hgi/vault/internal/sweep"
	"github.com/wtsi-hgi/vault/internal/vault"
	"github.com/wtsi-hgi/vault/internal/walker"
)

func runSandman(cmd *cobra.Command, roots []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := persistence.Open(ctx, cfg.Persistence.Postgres)
	if err != nil {
		return fmt.Errorf("sandman: connect to persistence: %w", err)
	}
	defer store.Close()

	if !dryRun {
		if _, err := store.Purge(ctx, clock.RealClock{}.Now()); err != nil {
			logger.Errorf("sandman: initial purge: %v", err)
		}
	}

	resolver := identity.NewLDAPResolver(cfg.Identity.LDAP)
	clk := clock.RealClock{}
	gate, err := consensus.NewGate(consensus.DefaultPredicates(func() int64 { return clk.Now().Unix() })...)
	if err != nil {
		return fmt.Errorf("sandman: build consensus gate: %w", err)
	}
	m := metrics.New()

	eligibleRoots, vaults, err := refreshGroupOwners(ctx, store, resolver, roots, cfg.MinGroupOwners)
	if err != nil {
		return fmt.Errorf("sandman: refresh group owners: %w", err)
	}

	sweeper := sweep.New(store, gate, resolver, clk, cfg.Deletion, m, dryRun)
	sinkErr := walker.WalkRoots(ctx, eligibleRoots, func(e walker.Entry) error {
		return sweeper.Visit(ctx, e)
	})
	if sinkErr != nil {
		if errors.Is(sinkErr, sweep.ErrFatal) {
			return fmt.Errorf("sandman: fatal sweep condition, aborting: %w", sinkErr)
		}
		return fmt.Errorf("sandman: sweep: %w", sinkErr)
	}

	if err := dispatchNotifications(ctx, store, resolver, sweeper, dryRun); err != nil {
		return fmt.Errorf("sandman: notify: %w", err)
	}

	if dryRun {
		logger.Infof("sandman: dry-run, skipping purge and drain")
	} else if purged, err := store.Purge(ctx, clk.Now()); err != nil {
		logger.Errorf("sandman: purge: %v", err)
	} else {
		logger.Infof("sandman: purged %d fully-notified/expired records", purged)
	}

	if err := runDrain(ctx, store, m, vaults); err != nil {
		return fmt.Errorf("sandman: drain: %w", err)
	}

	if statsPath != "" {
		if err := m.WriteStatsFile(statsPath); err != nil {
			return fmt.Errorf("sandman: write stats: %w", err)
		}
	}
	return nil
}

// refreshGroupOwners locates the vault covering each root and refreshes
// that vault's group_owners row from the identity resolver, since the
// sweeper's stakeholder fan-out (spec.md §3) reads group_owners rather
// than calling out to LDAP per file. Groups with fewer than
// minGroupOwners LDAP-resolved owners are "ineligible for vault
// operations" (spec.md §6): their root is logged and excluded from this
// run rather than aborting the whole invocation.
func refreshGroupOwners(ctx context.Context, store *persistence.Store, resolver identity.Resolver, roots []string, minGroupOwners int) ([]string, []*vault.Vault, error) {
	ownerCount := map[uint32]int{}
	var eligibleRoots []string
	var vaults []*vault.Vault

	for _, root := range roots {
		v, err := vault.Locate(root)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", root, err)
		}

		if _, seen := ownerCount[v.GID]; !seen {
			owners, err := resolver.GroupOwners(v.GID)
			if err != nil {
				return nil, nil, fmt.Errorf("resolve owners for gid %d: %w", v.GID, err)
			}
			ownerCount[v.GID] = len(owners)

			uids := make([]uint32, len(owners))
			for i, o := range owners {
				uids[i] = o.UID
			}
			if dryRun {
				logger.Infof("sandman: dry-run, not refreshing group_owners for gid %d", v.GID)
			} else if err := store.WithTx(ctx, func(tx pgx.Tx) error {
				return store.UpsertGroupOwners(ctx, tx, v.GID, uids)
			}); err != nil {
				return nil, nil, err
			}
		}

		if ownerCount[v.GID] < minGroupOwners {
			logger.Errorf("sandman: gid %d has %d owner(s), below min_group_owners=%d; skipping %s", v.GID, ownerCount[v.GID], minGroupOwners, root)
			continue
		}
		eligibleRoots = append(eligibleRoots, root)
		vaults = append(vaults, v)
	}
	return eligibleRoots, vaults, nil
}

// dispatchNotifications sends the aggregated payloads accumulated
// during the sweep and records which (status, stakeholder) pairs were
// actually notified (spec.md §4.6).
func dispatchNotifications(ctx context.Context, store *persistence.Store, resolver identity.Resolver, sweeper *sweep.Sweeper, dryRun bool) error {
	payloads := sweeper.Aggregator().Payloads()
	if len(payloads) == 0 {
		return nil
	}
	if dryRun {
		logger.Infof("sandman: dry-run, skipping %d notification(s)", len(payloads))
		return nil
	}

	sender := mailer.NewSMTPSender(cfg.Email.SMTP, cfg.Email.Sender)
	notifier := notify.New(resolver, sender)
	refs := notifier.Dispatch(ctx, payloads, sweeper.StatusIDsByUID())

	now := clock.RealClock{}.Now()
	return store.WithTx(ctx, func(tx pgx.Tx) error {
		for _, ref := range refs {
			if err := store.AppendNotification(ctx, tx, ref.StatusID, ref.UID, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// runDrain runs one drain cycle per distinct vault encountered.
func runDrain(ctx context.Context, store *persistence.Store, m *metrics.Registry, vaults []*vault.Vault) error {
	if dryRun {
		return nil
	}
	seen := map[string]bool{}
	for _, v := range vaults {
		if seen[v.Root] {
			continue
		}
		seen[v.Root] = true

		h := handler.New(cfg.Archive.Handler)
		d := drain.New(store, h, cfg.Archive.Threshold, m)
		if err := d.Run(ctx, v, forceDrain); err != nil {
			return err
		}
	}
	return nil
}
