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
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wtsi-hgi/vault/internal/logger"
	"github.com/wtsi-hgi/vault/internal/vault"
)

var (
	keepViewCtx  string
	keepAbsolute bool
)

var keepCmd = &cobra.Command{
	Use:   "keep FILE...",
	Short: "Annotate up to 10 regular files for indefinite retention.",
	RunE:  runKeep,
}

func init() {
	keepCmd.Flags().StringVar(&keepViewCtx, "view", "", "List keep entries instead of adding: all, here or mine.")
	keepCmd.Flags().BoolVar(&keepAbsolute, "absolute", false, "Show absolute paths in --view listings.")
}

func runKeep(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("view") {
		return viewOneVault(args, []vault.Branch{vault.Keep}, keepViewCtx, keepAbsolute)
	}

	files, err := resolveArgs(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return withExitCode(ExitInvalidInvocation, fmt.Errorf("keep requires at least one FILE"))
	}
	if err := checkCap(files); err != nil {
		return err
	}
	return addFiles(vault.Keep, files)
}

// addFiles is shared by keep and archive: both are "hardlink each file
// into branch" verbs differing only in the target branch.
func addFiles(branch vault.Branch, files []string) error {
	failures := 0
	for _, path := range files {
		v, err := vault.Locate(path)
		if err != nil {
			if errors.Is(err, vault.ErrNoVault) {
				return withExitCode(ExitNoVault, fmt.Errorf("%s: %w", path, err))
			}
			logger.Errorf("%s: %v", path, err)
			failures++
			continue
		}
		if err := v.Add(branch, path); err != nil {
			logger.Errorf("%s: %v", path, err)
			failures++
		}
	}
	if failures > 0 {
		return withExitCode(ExitPartialFailure, fmt.Errorf("%d of %d files failed", failures, len(files)))
	}
	return nil
}

// viewOneVault resolves the vault covering the first argument (or the
// working directory, absent any) and renders a --view listing across
// branches.
func viewOneVault(args []string, branches []vault.Branch, viewCtx string, absolute bool) error {
	ref := "."
	if len(args) > 0 {
		ref = args[0]
	}
	v, err := vault.Locate(ref)
	if err != nil {
		return withExitCode(ExitNoVault, err)
	}
	return listBranches(v, branches, parseViewContext(viewCtx), absolute, fofnFlag)
}
