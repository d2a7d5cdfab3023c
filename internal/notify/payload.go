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

// Package notify assembles and dispatches per-stakeholder notification
// e-mails for the sweep's warning, deletion and staging outcomes
// (spec.md §4.6).
package notify

import "github.com/wtsi-hgi/vault/internal/persistence"

// FileFact is one file's outcome this sweep, enough to aggregate and
// render a notification line for it.
type FileFact struct {
	Path  string
	GID   uint32
	Size  int64
	Sweep persistence.State
	// WarningHours is set only when Sweep == StateWarned.
	WarningHours int
}

// Payload is one stakeholder's full notification for this sweep
// (spec.md §4.6): "Per warning checkpoint h, the list of files due
// within h hours. The list of files soft-deleted this sweep. The list
// of files staged for archival this sweep."
type Payload struct {
	UID uint32

	// WarningsByHour maps checkpoint hours to the files due within them.
	WarningsByHour map[int][]FileFact
	Deleted        []FileFact
	Staged         []FileFact
}

// IsEmpty reports whether the payload has nothing to say.
func (p Payload) IsEmpty() bool {
	if len(p.Deleted) > 0 || len(p.Staged) > 0 {
		return false
	}
	for _, files := range p.WarningsByHour {
		if len(files) > 0 {
			return false
		}
	}
	return true
}

// Aggregator accumulates per-uid payloads across a sweep; Payloads then
// yields one payload per uid, which Notifier.Dispatch sends as one
// message (spec.md §4.6: "Exactly one message per uid per sweep").
type Aggregator struct {
	payloads map[uint32]*Payload
}

// NewAggregator builds an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{payloads: map[uint32]*Payload{}}
}

func (a *Aggregator) payloadFor(uid uint32) *Payload {
	p, ok := a.payloads[uid]
	if !ok {
		p = &Payload{UID: uid, WarningsByHour: map[int][]FileFact{}}
		a.payloads[uid] = p
	}
	return p
}

// AddWarning adds f to stakeholder uid's due-within-h list.
func (a *Aggregator) AddWarning(uid uint32, h int, f FileFact) {
	p := a.payloadFor(uid)
	p.WarningsByHour[h] = append(p.WarningsByHour[h], f)
}

// AddDeleted adds f to stakeholder uid's soft-deleted list.
func (a *Aggregator) AddDeleted(uid uint32, f FileFact) {
	p := a.payloadFor(uid)
	p.Deleted = append(p.Deleted, f)
}

// AddStaged adds f to stakeholder uid's staged-for-archival list.
func (a *Aggregator) AddStaged(uid uint32, f FileFact) {
	p := a.payloadFor(uid)
	p.Staged = append(p.Staged, f)
}

// Payloads returns the accumulated per-uid payloads, skipping any uid
// with nothing to report.
func (a *Aggregator) Payloads() []Payload {
	out := make([]Payload, 0, len(a.payloads))
	for _, p := range a.payloads {
		if !p.IsEmpty() {
			out = append(out, *p)
		}
	}
	return out
}
