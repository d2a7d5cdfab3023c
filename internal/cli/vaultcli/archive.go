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

package vaultcli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wtsi-hgi/vault/internal/vault"
)

var (
	archiveStash    bool
	archiveViewCtx  string
	archiveViewStg  bool
	archiveAbsolute bool
)

var archiveCmd = &cobra.Command{
	Use:   "archive FILE...",
	Short: "Annotate up to 10 files for archival (or stash with --stash).",
	RunE:  runArchive,
}

func init() {
	archiveCmd.Flags().BoolVar(&archiveStash, "stash", false, "Stash instead of archive: keep the source copy when staged.")
	archiveCmd.Flags().StringVar(&archiveViewCtx, "view", "", "List archive/stash entries instead of adding: all, here or mine.")
	archiveCmd.Flags().BoolVar(&archiveViewStg, "view-staged", false, "List the staged-for-handoff backlog instead of adding.")
	archiveCmd.Flags().BoolVar(&archiveAbsolute, "absolute", false, "Show absolute paths in listings.")
}

func runArchive(cmd *cobra.Command, args []string) error {
	if archiveViewStg {
		return viewOneVault(args, []vault.Branch{vault.Staged}, string(vault.ContextAll), archiveAbsolute)
	}
	if cmd.Flags().Changed("view") {
		return viewOneVault(args, []vault.Branch{vault.Archive, vault.Stash}, archiveViewCtx, archiveAbsolute)
	}

	files, err := resolveArgs(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return withExitCode(ExitInvalidInvocation, fmt.Errorf("archive requires at least one FILE"))
	}
	if err := checkCap(files); err != nil {
		return err
	}

	branch := vault.Archive
	if archiveStash {
		branch = vault.Stash
	}
	return addFiles(branch, files)
}
