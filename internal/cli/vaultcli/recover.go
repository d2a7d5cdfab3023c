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
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/wtsi-hgi/vault/internal/logger"
	"github.com/wtsi-hgi/vault/internal/vault"
)

var (
	recoverViewCtx  string
	recoverAbsolute bool
	recoverAll      bool
)

var recoverCmd = &cobra.Command{
	Use:   "recover [FILE...]",
	Short: "Restore files out of limbo by hardlinking them back to their original path.",
	RunE:  runRecover,
}

func init() {
	recoverCmd.Flags().StringVar(&recoverViewCtx, "view", "", "List limbo entries instead of recovering: all, here or mine.")
	recoverCmd.Flags().BoolVar(&recoverAbsolute, "absolute", false, "Show absolute paths in listings.")
	recoverCmd.Flags().BoolVar(&recoverAll, "all", false, "Recover every file currently in limbo.")
}

func runRecover(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("view") {
		return viewOneVault(args, []vault.Branch{vault.Limbo}, recoverViewCtx, recoverAbsolute)
	}

	files, err := resolveArgs(args)
	if err != nil {
		return err
	}
	if !recoverAll && len(files) == 0 {
		return withExitCode(ExitInvalidInvocation, fmt.Errorf("recover requires --all or at least one FILE"))
	}

	ref := "."
	if len(files) > 0 {
		ref = filepath.Dir(files[0])
	}
	v, err := vault.Locate(ref)
	if err != nil {
		return withExitCode(ExitNoVault, err)
	}

	if recoverAll {
		return recoverAllLimbo(v)
	}

	failures := 0
	for _, path := range files {
		if err := recoverOne(v, path); err != nil {
			logger.Errorf("%s: %v", path, err)
			failures++
		}
	}
	if failures > 0 {
		return withExitCode(ExitPartialFailure, fmt.Errorf("%d of %d files failed", failures, len(files)))
	}
	return nil
}

func recoverAllLimbo(v *vault.Vault) error {
	entries, err := v.List(vault.Limbo, vault.ContextAll, ".", uint32(os.Getuid()))
	if err != nil {
		return err
	}
	failures := 0
	for _, e := range entries {
		if err := recoverEntry(v, e); err != nil {
			logger.Errorf("%s: %v", e.RelPath, err)
			failures++
		}
	}
	if failures > 0 {
		return withExitCode(ExitPartialFailure, fmt.Errorf("%d of %d files failed", failures, len(entries)))
	}
	return nil
}

// recoverOne locates path's limbo entry by its decoded relative path (the
// source copy no longer exists, so path cannot itself be stat'd) and
// restores it (spec.md §6: "fail if source exists; reset mtime on
// restored file; then unlink the limbo entry").
func recoverOne(v *vault.Vault, path string) error {
	rel, err := relTo(v, path)
	if err != nil {
		return err
	}
	entries, err := v.List(vault.Limbo, vault.ContextAll, ".", 0)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.RelPath == rel {
			return recoverEntry(v, e)
		}
	}
	return vault.ErrNotTracked
}

func recoverEntry(v *vault.Vault, e vault.Entry) error {
	if _, err := os.Lstat(e.AbsPath); err == nil {
		return fmt.Errorf("recover: %s already exists", e.AbsPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	src, err := v.EntryAbsPath(vault.Limbo, e.Key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(e.AbsPath), 0o2770|os.ModeSetgid); err != nil {
		return err
	}
	if err := os.Link(src, e.AbsPath); err != nil {
		return err
	}
	now := time.Now()
	if err := os.Chtimes(e.AbsPath, now, now); err != nil {
		return err
	}
	return v.Remove(vault.Limbo, e.Inode)
}

func relTo(v *vault.Vault, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Rel(v.Root, abs)
}
