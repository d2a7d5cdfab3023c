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

// Package display renders `vault --view`/`--view-staged` listings.
// Purely columnar text alignment; no ecosystem table-formatting library
// appears anywhere in the examples pack, so text/tabwriter is the
// grounded choice here (see DESIGN.md).
package display

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/wtsi-hgi/vault/internal/vault"
)

// WriteEntries renders entries as an aligned table: branch, inode, and
// path (absolute if absolute is true, else relative).
func WriteEntries(w io.Writer, entries []vault.Entry, absolute bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BRANCH\tINODE\tPATH")
	for _, e := range entries {
		path := e.RelPath
		if absolute {
			path = e.AbsPath
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", e.Branch, e.Inode, path)
	}
	return tw.Flush()
}
