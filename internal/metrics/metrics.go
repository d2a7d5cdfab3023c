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

// Package metrics exposes sweep/drain counters through
// prometheus/client_golang, dumped to a file in Prometheus text
// exposition format for `sandman --stats FILE` — a textfile-collector
// style ops pattern, filling the spot the teacher uses
// client_golang for its own FUSE op metrics.
package metrics

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Registry holds every counter/gauge this run touches.
type Registry struct {
	reg *prometheus.Registry

	FilesWarned   prometheus.Counter
	FilesDeleted  prometheus.Counter
	FilesStaged   prometheus.Counter
	FilesUntracked prometheus.Counter
	FilesCorrupt  prometheus.Counter
	FilesSkipped  prometheus.Counter

	DrainBacklog prometheus.Gauge
	DrainedFiles prometheus.Counter
}

// New builds a fresh, registered Registry.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		FilesWarned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vault_sweep_files_warned_total",
			Help: "Files that received a new deletion warning this sweep.",
		}),
		FilesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vault_sweep_files_deleted_total",
			Help: "Files soft- or hard-deleted this sweep.",
		}),
		FilesStaged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vault_sweep_files_staged_total",
			Help: "Files moved to the staged branch this sweep.",
		}),
		FilesUntracked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vault_sweep_files_untracked_total",
			Help: "Files untracked from keep by the keep-threshold policy.",
		}),
		FilesCorrupt: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vault_sweep_files_corrupt_total",
			Help: "Vault entries found inconsistent during this sweep.",
		}),
		FilesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vault_sweep_files_skipped_total",
			Help: "Files skipped due to lock contention or recoverable errors.",
		}),
		DrainBacklog: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vault_drain_backlog",
			Help: "Staged entries awaiting drain as of the last probe.",
		}),
		DrainedFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vault_drain_files_total",
			Help: "Files handed off to the archival handler and marked drained.",
		}),
	}

	reg.MustRegister(
		r.FilesWarned, r.FilesDeleted, r.FilesStaged, r.FilesUntracked,
		r.FilesCorrupt, r.FilesSkipped, r.DrainBacklog, r.DrainedFiles,
	)
	return r
}

// WriteStatsFile dumps the registry to path in Prometheus text
// exposition format (spec.md §6's `--stats FILE`).
func (r *Registry) WriteStatsFile(path string) error {
	mfs, err := r.reg.Gather()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := expfmt.NewEncoder(f, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
