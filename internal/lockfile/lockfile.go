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

// Package lockfile provides the two locking primitives spec.md §5
// requires: a non-blocking advisory write-lock on a source file the
// sweeper is about to delete or move (so we never race a writer), and a
// cooperative per-vault lockfile that serialises the vault CLI against
// sandman for a given vault.
package lockfile

import (
	"errors"
	"os"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"
)

// ErrContended is returned by TryLockSource when another process holds
// the advisory lock; callers must log and skip, never block.
var ErrContended = errors.New("lockfile: source file is locked by another process")

// TryLockSource attempts a non-blocking exclusive advisory lock on path
// via fcntl(F_SETLK), mirroring the lock probe in storage backends like
// Trillian Tessera's posix storage. The returned closer must be called to
// release the lock (it also closes the underlying fd).
func TryLockSource(path string) (func() error, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	flockT := unix.Flock_t{
		Type:   unix.F_WRLCK,
		Whence: int16(os.SEEK_SET),
		Start:  0,
		Len:    0,
	}
	if err := unix.FcntlFlock(f.Fd(), unix.F_SETLK, &flockT); err != nil {
		f.Close()
		if errors.Is(err, unix.EACCES) || errors.Is(err, unix.EAGAIN) {
			return nil, ErrContended
		}
		return nil, err
	}

	return func() error {
		unlockT := unix.Flock_t{Type: unix.F_UNLCK, Whence: int16(os.SEEK_SET)}
		_ = unix.FcntlFlock(f.Fd(), unix.F_SETLK, &unlockT)
		return f.Close()
	}, nil
}

// VaultLock is the per-vault cooperative lock (spec.md §5: "A per-vault
// cooperative lockfile serialises concurrent vault CLI invocations
// against the sweeper for the same vault"), backed by gofrs/flock.
// Neither the vault CLI nor sandman acquires it, so the two are not
// serialised against each other.
type VaultLock struct {
	fl *flock.Flock
}

// NewVaultLock opens (creating if necessary) the lockfile at
// <vaultRoot>/.vault/.lock.
func NewVaultLock(vaultRoot string) *VaultLock {
	return &VaultLock{fl: flock.New(vaultRoot + "/.vault/.lock")}
}

// Lock blocks until the cooperative lock is acquired.
func (l *VaultLock) Lock() error {
	return l.fl.Lock()
}

// TryLock tries to acquire the cooperative lock without blocking and
// reports whether it succeeded.
func (l *VaultLock) TryLock() (bool, error) {
	return l.fl.TryLock()
}

func (l *VaultLock) Unlock() error {
	return l.fl.Unlock()
}
