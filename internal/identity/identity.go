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

// Package identity resolves uids/gids to users, group owners, and
// e-mail addresses (spec.md §1: "identity-management lookup... treated
// as external collaborator with stated interfaces").
package identity

import "errors"

// ErrNoSuchIdentity is the NoSuchIdentity error kind (spec.md §7): IdM
// cannot resolve an owner. The sweeper fails fast on this rather than
// skipping the file, "so silently-undeletable files surface."
var ErrNoSuchIdentity = errors.New("identity: no such identity")

// User is the subset of directory attributes this system needs.
type User struct {
	UID   uint32
	Name  string
	Email string
}

// Resolver answers the identity questions the sweeper, notifier and
// vault-ownership checks need.
type Resolver interface {
	User(uid uint32) (User, error)
	GroupOwners(gid uint32) ([]User, error)
	Email(uid uint32) (string, error)
}
