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

// Package config defines the vaultrc schema (spec.md §6), bound through
// Viper/pflag the way the teacher's cfg package binds its MountConfig.
package config

import "github.com/spf13/pflag"

// Severity levels recognised by logging.severity, named after the
// teacher's config.{TRACE,DEBUG,...} constants.
const (
	TRACE   = "TRACE"
	DEBUG   = "DEBUG"
	INFO    = "INFO"
	WARNING = "WARNING"
	ERROR   = "ERROR"
	OFF     = "OFF"
)

// MaxWarningHours bounds deletion.warnings entries (spec.md §6: "none may
// exceed 2160").
const MaxWarningHours = 2160

type Config struct {
	Identity    IdentityConfig    `yaml:"identity"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Email       EmailConfig       `yaml:"email"`
	Deletion    DeletionConfig    `yaml:"deletion"`
	Archive     ArchiveConfig     `yaml:"archive"`

	MinGroupOwners     int `yaml:"min_group_owners"`
	SandmanRunInterval int `yaml:"sandman_run_interval"`

	Logging LogConfig `yaml:"logging"`
}

type IdentityConfig struct {
	LDAP LDAPConfig `yaml:"ldap"`
}

type LDAPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	UserDN   string `yaml:"user_dn"`
	GroupDN  string `yaml:"group_dn"`
	UIDAttr  string `yaml:"uid_attr"`
	NameAttr string `yaml:"name_attr"`
	MailAttr string `yaml:"email_attr"`
	GIDAttr  string `yaml:"gid_attr"`

	OwnerAttr  string `yaml:"owners_attr"`
	MemberAttr string `yaml:"members_attr"`
}

type PersistenceConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type EmailConfig struct {
	SMTP   SMTPConfig `yaml:"smtp"`
	Sender string     `yaml:"sender"`
}

type SMTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	TLS  bool   `yaml:"tls"`
}

type DeletionConfig struct {
	ThresholdDays int   `yaml:"threshold"`
	LimboDays     int   `yaml:"limbo"`
	WarningHours  []int `yaml:"warnings"`
	// KeepDays, when non-nil, is the keep-threshold (spec.md §4.2 "keep
	// threshold policy"); nil means keep is never auto-untracked.
	KeepDays *int `yaml:"keep"`
}

type ArchiveConfig struct {
	Threshold int    `yaml:"threshold"`
	Handler   string `yaml:"handler"`
}

// LogConfig mirrors the teacher's LogConfig (File/Format/Severity) plus
// the rotation knobs bound from LogRotateConfig.
type LogConfig struct {
	FilePath        string `yaml:"file"`
	Format          string `yaml:"format"`
	Severity        string `yaml:"severity"`
	MaxFileSizeMB   int    `yaml:"max-file-size-mb"`
	BackupFileCount int    `yaml:"backup-file-count"`
	Compress        bool   `yaml:"compress"`
}

// BindFlags registers the logging flags shared by both cmd/vault and
// cmd/sandman (--log-format, --log-severity, --log-file), one
// flagSet.XxxP call per flag. It does not bind them to viper: each CLI
// binds its whole flag set with viper.BindPFlags, and Load copies the
// flags that were set over the file's logging settings.
func BindFlags(flagSet *pflag.FlagSet) error {
	flagSet.StringP("log-format", "", "text", "Log output format: text or json.")
	flagSet.StringP("log-severity", "", INFO, "Minimum severity to log.")
	flagSet.StringP("log-file", "", "", "Path to a log file; stderr if empty.")
	return nil
}
