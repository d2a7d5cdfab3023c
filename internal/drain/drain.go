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

// Package drain implements the threshold-gated staged-entry consumer
// (spec.md §4.7): probe the downstream handler for readiness, then
// stream the staged backlog's absolute paths to it.
package drain

import (
	"context"
	"errors"
	"fmt"

	"github.com/wtsi-hgi/vault/internal/handler"
	"github.com/wtsi-hgi/vault/internal/logger"
	"github.com/wtsi-hgi/vault/internal/metrics"
	"github.com/wtsi-hgi/vault/internal/persistence"
	"github.com/wtsi-hgi/vault/internal/vault"
)

// Drainer owns the staged-backlog handoff to the archival handler.
type Drainer struct {
	Store     *persistence.Store
	Handler   *handler.Handler
	Threshold int
	Metrics   *metrics.Registry
}

// New builds a Drainer.
func New(store *persistence.Store, h *handler.Handler, threshold int, m *metrics.Registry) *Drainer {
	return &Drainer{Store: store, Handler: h, Threshold: threshold, Metrics: m}
}

// vaultAbsPath resolves a StagedEntry's on-disk location under
// `<vaultRoot>/.vault/.staged/<key>`. Callers supply the vault so the
// drainer never itself needs to re-locate it.
func vaultAbsPath(v *vault.Vault, key string) (string, error) {
	return v.EntryAbsPath(vault.Staged, key)
}

// Run executes one drain cycle. force bypasses the threshold gate
// (spec.md §4.7: "threshold of staged entries reached, or force-drain
// requested").
func (d *Drainer) Run(ctx context.Context, v *vault.Vault, force bool) error {
	count, err := d.Store.BacklogCount(ctx)
	if err != nil {
		return err
	}
	if d.Metrics != nil {
		d.Metrics.DrainBacklog.Set(float64(count))
	}
	if count == 0 {
		return nil
	}
	if !force && count < d.Threshold {
		logger.Infof("drain: backlog %d below threshold %d, skipping", count, d.Threshold)
		return nil
	}

	backlog, err := d.Store.StagedBacklog(ctx)
	if err != nil {
		return err
	}

	var totalBytes int64 // per-entry sizes are not tracked at this layer; zero probes without a byte count
	readiness, err := d.Handler.Probe(ctx, totalBytes)
	if err != nil {
		switch readiness {
		case handler.Busy:
			logger.Warnf("drain: handler busy, leaving backlog intact")
		case handler.NoCapacity:
			logger.Warnf("drain: handler lacks capacity, leaving backlog intact")
		default:
			logger.Errorf("drain: probe failed: %v", err)
		}
		return nil
	}
	if readiness != handler.Ready {
		return nil
	}

	paths := make([]string, 0, len(backlog))
	statusIDs := make([]int64, 0, len(backlog))
	for _, e := range backlog {
		path, err := vaultAbsPath(v, e.VaultKey)
		if err != nil {
			logger.Errorf("drain: resolve path for status %d: %v", e.StatusID, err)
			continue
		}
		paths = append(paths, path)
		statusIDs = append(statusIDs, e.StatusID)
	}

	batchID, err := d.Store.AssignBatch(ctx, statusIDs)
	if err != nil {
		return fmt.Errorf("drain: assign batch: %w", err)
	}
	logger.Infof("drain: batch=%s streaming %d files to handler", batchID, len(paths))

	if err := d.Handler.Stream(ctx, paths); err != nil {
		if errors.Is(err, handler.ErrHandlerFailed) {
			logger.Errorf("drain: batch=%s handler failed, leaving backlog intact: %v", batchID, err)
			return nil
		}
		return fmt.Errorf("drain: stream: %w", err)
	}

	if err := d.Store.MarkDrained(ctx, statusIDs); err != nil {
		return err
	}
	if d.Metrics != nil {
		d.Metrics.DrainedFiles.Add(float64(len(statusIDs)))
		d.Metrics.DrainBacklog.Set(0)
	}
	logger.Infof("drain: handed off %d files", len(statusIDs))
	return nil
}
