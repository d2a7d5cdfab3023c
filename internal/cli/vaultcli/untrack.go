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

var untrackCmd = &cobra.Command{
	Use:   "untrack FILE...",
	Short: "Remove files from whichever of keep/archive/stash the inode lives in.",
	RunE:  runUntrack,
}

func runUntrack(cmd *cobra.Command, args []string) error {
	files, err := resolveArgs(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return withExitCode(ExitInvalidInvocation, fmt.Errorf("untrack requires at least one FILE"))
	}

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
		if _, err := v.UntrackPath(path); err != nil {
			logger.Errorf("%s: %v", path, err)
			failures++
		}
	}
	if failures > 0 {
		return withExitCode(ExitPartialFailure, fmt.Errorf("%d of %d files failed", failures, len(files)))
	}
	return nil
}
