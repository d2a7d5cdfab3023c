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

// Package fileattr holds the (device, inode)-keyed file attributes that
// flow from the walker through the sweeper, persistence and consensus
// gate (spec.md §3 "File record").
package fileattr

import (
	"os"
	"syscall"
	"time"
)

// Attrs are the facts about a file observed at walk time. Device+Inode is
// the only stable identity (spec.md: "never use inode alone as a
// persistence key").
type Attrs struct {
	Device uint64
	Inode  uint64

	// Path is the source path at observation time, relative to nothing in
	// particular on disk but absolute as walked.
	Path string

	Mtime time.Time
	UID   uint32
	GID   uint32
	Size  int64
	Mode  os.FileMode

	// Links is the current hardlink count, used by the vault's
	// consistency checks (spec.md §4.2).
	Links uint64
}

// FromStat builds Attrs from a Lstat'd os.FileInfo at path. Vault
// consumers never follow symlinks: a tracked file is always a regular
// file or a vault hardlink to one.
func FromStat(path string, fi os.FileInfo) (Attrs, bool) {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return Attrs{}, false
	}
	return Attrs{
		Device: uint64(st.Dev),
		Inode:  st.Ino,
		Path:   path,
		Mtime:  time.Unix(st.Mtim.Sec, st.Mtim.Nsec),
		UID:    st.Uid,
		GID:    st.Gid,
		Size:   fi.Size(),
		Mode:   fi.Mode(),
		Links:  uint64(st.Nlink),
	}, true
}

// Stat lstats path directly.
func Stat(path string) (Attrs, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return Attrs{}, err
	}
	a, ok := FromStat(path, fi)
	if !ok {
		return Attrs{}, os.ErrInvalid
	}
	return a, nil
}

// Age reports how long ago Mtime was, relative to now.
func (a Attrs) Age(now time.Time) time.Duration {
	return now.Sub(a.Mtime)
}
