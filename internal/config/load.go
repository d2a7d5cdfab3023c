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

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ResolvePath implements the $VAULTRC > ~/.vaultrc > /etc/vaultrc
// precedence from spec.md §6, generalizing the teacher's single
// --config-file flag resolution (cmd/root.go's initConfig) into a
// three-tier search.
func ResolvePath(flagOverride string) (string, error) {
	if flagOverride != "" {
		return flagOverride, nil
	}
	if p := os.Getenv("VAULTRC"); p != "" {
		return p, nil
	}
	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, ".vaultrc")
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	if _, err := os.Stat("/etc/vaultrc"); err == nil {
		return "/etc/vaultrc", nil
	}
	return "", nil
}

// Load reads and validates the configuration from the resolved path,
// using Viper the way the teacher's initConfig does: SetConfigFile,
// SetConfigType("yaml"), ReadInConfig, Unmarshal.
func Load(path string) (*Config, error) {
	v := viper.New()
	var cfg Config
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if viper.IsSet("log-format") {
		cfg.Logging.Format = viper.GetString("log-format")
	}
	if viper.IsSet("log-severity") {
		cfg.Logging.Severity = viper.GetString("log-severity")
	}
	if viper.IsSet("log-file") {
		cfg.Logging.FilePath = viper.GetString("log-file")
	}

	Rationalize(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
