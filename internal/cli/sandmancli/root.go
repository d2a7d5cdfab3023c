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

// Package sandmancli implements the batch `sandman` command (spec.md
// §6): run a sweep then a drain across the supplied roots.
package sandmancli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wtsi-hgi/vault/internal/config"
	"github.com/wtsi-hgi/vault/internal/logger"
)

var (
	cfgFileFlag string
	dryRun      bool
	forceDrain  bool
	statsPath   string

	cfg     *config.Config
	bindErr error
	loadErr error
)

var rootCmd = &cobra.Command{
	Use:           "sandman [--dry-run] [--force-drain] [--stats FILE] DIR...",
	Short:         "Sweep and drain the retention vaults covering the given directories.",
	Args:          cobra.MinimumNArgs(1),
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
	RunE: runSandman,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFileFlag, "config", "", "Path to the vaultrc configuration file.")
	bindErr = config.BindFlags(flags)
	_ = viper.BindPFlags(flags)

	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Evaluate the sweep without mutating the vault, database or sending mail.")
	rootCmd.Flags().BoolVar(&forceDrain, "force-drain", false, "Drain the staged backlog regardless of the threshold.")
	rootCmd.Flags().StringVar(&statsPath, "stats", "", "Write run counters to this path in Prometheus text exposition format.")
}

func initConfig() {
	path, err := config.ResolvePath(cfgFileFlag)
	if err != nil {
		loadErr = err
		return
	}
	cfg, loadErr = config.Load(path)
}

// Execute runs the sandman CLI, returning the process exit code.
// Exit codes follow the teacher's run-to-completion RunE convention:
// 0 on a clean run, 1 on any error including a fatal sweep condition.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
