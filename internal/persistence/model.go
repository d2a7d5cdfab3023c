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

// Package persistence implements the relational store backing the sweep
// and drain phases (spec.md §4.4): files, their status history, warning
// checkpoints, per-stakeholder notification bookkeeping, and the staged
// drain queue.
package persistence

import "time"

// State is a status event kind (spec.md §3 "Status record").
type State string

const (
	StateWarned  State = "warned"
	StateStaged  State = "staged"
	StateDeleted State = "deleted"
)

// FileKey identifies a file record; (device, inode) is the only stable
// identity spec.md permits as a persistence key.
type FileKey struct {
	Device uint64
	Inode  uint64
}

// File is the immutable file record (spec.md §3): "Once inserted, rows
// are immutable — a change-of-facts requires delete-and-reinsert."
type File struct {
	FileKey
	SourcePath string
	VaultKey   string
	Mtime      time.Time
	UID        uint32
	GID        uint32
	Size       int64
}

// Status is one transition event for a file.
type Status struct {
	ID        int64
	FileKey
	State     State
	CreatedAt time.Time
}

// Warning is 1-to-1 with a Status whose State is StateWarned.
type Warning struct {
	StatusID     int64
	TminusHours int
}

// Notification records that stakeholder uid was informed of a status
// event. Primary key is (StatusID, UID).
type Notification struct {
	StatusID   int64
	UID        uint32
	NotifiedAt time.Time
}

// StagedEntry is one row in the drain queue.
type StagedEntry struct {
	StatusID int64
	FileKey
	VaultKey string
	BatchID  string
}
