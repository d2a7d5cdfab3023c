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

package vaultkey

import "golang.org/x/sys/unix"

// DefaultNameMax is used only when Statfs fails; filesystems like Lustre
// that this system targets always report their real limit via statfs, so
// this is a conservative fallback, not an assumption baked into Encode.
const DefaultNameMax = 255

// QueryNameMax reads NAME_MAX for the filesystem containing path via
// statfs(2), rather than assuming the common 255 byte POSIX default —
// spec.md §4.1 requires it be queried from the target path.
func QueryNameMax(path string) (int, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return DefaultNameMax, err
	}
	if st.Namelen <= 0 {
		return DefaultNameMax, nil
	}
	return int(st.Namelen), nil
}
