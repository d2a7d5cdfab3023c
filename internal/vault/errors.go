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

package vault

import "errors"

// The error kinds from spec.md §7 that originate in this package.
var (
	ErrNoVault        = errors.New("vault: reference has no covering vault")
	ErrIsVault        = errors.New("vault: reference is itself a vault root")
	ErrNotRegular     = errors.New("vault: not a regular file")
	ErrPermissionMode = errors.New("vault: permission mode does not satisfy ug+rw")
	ErrOwnerMismatch  = errors.New("vault: user and group permission bits are unequal")
	ErrParentMode     = errors.New("vault: parent directory mode does not satisfy ug+wx")
	ErrAlreadyTracked = errors.New("vault: inode already tracked in another branch")
	ErrNotTracked     = errors.New("vault: file not tracked in expected branch")
	ErrVaultCorrupt   = errors.New("vault: link-count or key inconsistency")
)
