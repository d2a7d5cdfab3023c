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

// Package logger provides the structured logger shared by the vault CLI
// and sandman: a package-level slog.Logger that can be reconfigured at
// process startup for severity, output format (text or json) and
// destination (stderr or a rotating file), plus a constructor for the
// per-vault append-only .audit log.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/wtsi-hgi/vault/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Custom severities, layered below/above the slog defaults so TRACE can
// sit under DEBUG and OFF can sit above ERROR.
const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelOff   = slog.Level(12)
)

var severityNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARNING",
	LevelError: "ERROR",
}

type loggerFactory struct {
	file      *lumberjack.Logger
	sysWriter io.Writer
	format    string
	level     string
}

var (
	defaultLoggerFactory = &loggerFactory{
		sysWriter: os.Stderr,
		format:    "text",
		level:     config.INFO,
	}
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(os.Stderr, new(slog.LevelVar), ""))
)

// Init configures the package-level logger from the resolved config.
// It is the moral equivalent of the teacher's InitLogFile: called once at
// process start by cmd/vault and cmd/sandman.
func Init(cfg config.LogConfig) error {
	programLevel := new(slog.LevelVar)
	setLoggingLevel(cfg.Severity, programLevel)

	factory := &loggerFactory{
		format: cfg.Format,
		level:  cfg.Severity,
	}

	var w io.Writer
	if cfg.FilePath == "" {
		factory.sysWriter = os.Stderr
		w = os.Stderr
	} else {
		factory.file = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxFileSizeMB,
			MaxBackups: cfg.BackupFileCount,
			Compress:   cfg.Compress,
		}
		w = factory.file
	}

	defaultLoggerFactory = factory
	defaultLogger = slog.New(factory.createJsonOrTextHandler(w, programLevel, ""))
	return nil
}

// NewAuditLogger builds the per-vault .audit sink: one JSON line per
// vault-mutating operation, independent of the process-wide logger's
// level or format so audit trails are never silenced by a debug setting.
func NewAuditLogger(path string) (*slog.Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		return nil, err
	}
	h := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: LevelTrace})
	return slog.New(h), nil
}

func setLoggingLevel(severity string, level *slog.LevelVar) {
	switch severity {
	case config.TRACE:
		level.Set(LevelTrace)
	case config.DEBUG:
		level.Set(LevelDebug)
	case config.INFO:
		level.Set(LevelInfo)
	case config.WARNING:
		level.Set(LevelWarn)
	case config.ERROR:
		level.Set(LevelError)
	case config.OFF:
		level.Set(LevelOff)
	default:
		level.Set(LevelInfo)
	}
}

// SetLogFormat switches the package logger between "text" and "json"
// without touching its destination or level, mirroring the teacher's
// SetLogFormat used by tests and by --format overrides.
func SetLogFormat(format string) {
	defaultLoggerFactory.format = format
	var w io.Writer = defaultLoggerFactory.sysWriter
	if defaultLoggerFactory.file != nil {
		w = defaultLoggerFactory.file
	}
	programLevel := new(slog.LevelVar)
	setLoggingLevel(defaultLoggerFactory.level, programLevel)
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(w, programLevel, ""))
}

func (f *loggerFactory) createJsonOrTextHandler(w io.Writer, level *slog.LevelVar, prefix string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.LevelKey:
				lvl := a.Value.Any().(slog.Level)
				if name, ok := severityNames[lvl]; ok {
					a.Value = slog.StringValue(name)
				}
				a.Key = "severity"
			case slog.MessageKey:
				a.Value = slog.StringValue(prefix + a.Value.String())
			case slog.TimeKey:
				a.Key = "time"
			}
			return a
		},
	}
	if f.format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func log(level slog.Level, format string, v ...any) {
	defaultLogger.Log(context.Background(), level, sprintf(format, v...))
}

func sprintf(format string, v ...any) string {
	if len(v) == 0 {
		return format
	}
	return fmt.Sprintf(format, v...)
}

func Tracef(format string, v ...any) { log(LevelTrace, format, v...) }
func Debugf(format string, v ...any) { log(LevelDebug, format, v...) }
func Infof(format string, v ...any)  { log(LevelInfo, format, v...) }
func Warnf(format string, v ...any)  { log(LevelWarn, format, v...) }
func Errorf(format string, v ...any) { log(LevelError, format, v...) }

// Fatalf logs at ERROR and terminates the process with exit status 1.
// Nothing in this repository calls it: fatal sweep conditions travel as
// sweep.ErrFatal errors and end sandman through its command's error.
func Fatalf(format string, v ...any) {
	log(LevelError, format, v...)
	os.Exit(1)
}
