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
	"sort"
)

// Validate checks the invariants spec.md §6 lists for the deletion and
// archive blocks, the way the teacher's cfg.isValidLogRotateConfig and
// friends check theirs.
func Validate(c *Config) error {
	if c.Deletion.ThresholdDays <= 0 {
		return fmt.Errorf("deletion.threshold must be positive")
	}
	if c.Deletion.LimboDays <= 0 {
		return fmt.Errorf("deletion.limbo must be positive")
	}
	for _, h := range c.Deletion.WarningHours {
		if h <= 0 {
			return fmt.Errorf("deletion.warnings entries must be positive hours")
		}
		if h > MaxWarningHours {
			return fmt.Errorf("deletion.warnings entry %d exceeds max of %d hours", h, MaxWarningHours)
		}
	}
	if c.Deletion.KeepDays != nil && *c.Deletion.KeepDays <= 0 {
		return fmt.Errorf("deletion.keep must be positive when set")
	}
	if c.Archive.Threshold <= 0 {
		return fmt.Errorf("archive.threshold must be positive")
	}
	if c.Archive.Handler == "" {
		return fmt.Errorf("archive.handler must be set")
	}
	if info, err := os.Stat(c.Archive.Handler); err != nil {
		return fmt.Errorf("archive.handler: %w", err)
	} else if info.IsDir() || info.Mode()&0111 == 0 {
		return fmt.Errorf("archive.handler %q is not an executable regular file", c.Archive.Handler)
	}
	if c.MinGroupOwners < 1 {
		return fmt.Errorf("min_group_owners must be at least 1")
	}
	return nil
}

// Rationalize normalises derived fields, mirroring the teacher's
// cfg.Rationalize: it never rejects a config, only fixes it up.
func Rationalize(c *Config) {
	sort.Ints(c.Deletion.WarningHours)
	if c.Logging.Severity == "" {
		c.Logging.Severity = INFO
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.MaxFileSizeMB == 0 {
		c.Logging.MaxFileSizeMB = 100
	}
}
