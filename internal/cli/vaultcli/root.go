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

// Package vaultcli implements the user-facing `vault` command tree
// (spec.md §6): keep, archive, recover, untrack.
package vaultcli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wtsi-hgi/vault/internal/config"
	"github.com/wtsi-hgi/vault/internal/logger"
)

// Exit codes (spec.md §6): 0 ok; 1 one-or-more per-file failures;
// 2 invalid invocation; 3 no vault for given reference.
const (
	ExitOK             = 0
	ExitPartialFailure = 1
	ExitInvalidInvocation = 2
	ExitNoVault        = 3
)

var (
	cfgFileFlag string
	cfg         *config.Config
	bindErr     error
	loadErr     error
)

var rootCmd = &cobra.Command{
	Use:           "vault",
	Short:         "Annotate files for retention, archival or stash in a vault.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		if loadErr != nil {
			return loadErr
		}
		return logger.Init(cfg.Logging)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFileFlag, "config", "", "Path to the vaultrc configuration file.")
	flags.StringVar(&fofnFlag, "fofn", "", "Alternative input: a file-of-filenames, one path per line or NUL-delimited.")
	bindErr = config.BindFlags(flags)
	_ = viper.BindPFlags(flags)

	rootCmd.AddCommand(keepCmd, archiveCmd, recoverCmd, untrackCmd)
}

func initConfig() {
	path, err := config.ResolvePath(cfgFileFlag)
	if err != nil {
		loadErr = err
		return
	}
	cfg, loadErr = config.Load(path)
}

// Execute runs the vault CLI, returning the process exit code
// (spec.md §6).
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCodeFor(err)
	}
	return ExitOK
}

func exitCodeFor(err error) int {
	if ce, ok := err.(*cliError); ok {
		return ce.code
	}
	return ExitInvalidInvocation
}

// cliError carries an explicit exit code alongside its message.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}
