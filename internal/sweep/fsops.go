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

package sweep

import (
	"os"
	"time"

	"github.com/wtsi-hgi/vault/internal/vault"
)

// removeSource deletes the original source file once its content is
// safely hardlinked into the vault (spec.md §5's soft-delete/archive
// orderings: "delete source" happens only after the corresponding
// vault link exists).
func removeSource(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// resetMtime resets the limbo-resident hardlink's mtime to now, the
// clock the limbo-grace age is measured from (spec.md §4.2: "Ageing
// from the limboed record's reset mtime").
func resetMtime(v *vault.Vault, inode uint64) error {
	_, key, found := v.Lookup(inode)
	if !found {
		return vault.ErrNotTracked
	}
	path, err := v.EntryAbsPath(vault.Limbo, key)
	if err != nil {
		return err
	}
	now := time.Now()
	return os.Chtimes(path, now, now)
}
