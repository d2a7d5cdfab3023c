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
	"bufio"
	"fmt"
	"os"

	"github.com/wtsi-hgi/vault/internal/display"
	"github.com/wtsi-hgi/vault/internal/vault"
)

// maxFilesPerInvocation is spec.md §6's "≤10 regular files" cap on keep
// and archive; recover and untrack are uncapped.
const maxFilesPerInvocation = 10

// fofnFlag holds --fofn PATH, the alternative-input file-of-filenames
// (spec.md §6). When set it supplies the argument list in place of FILE
// operands typed on the command line.
var fofnFlag string

// resolveArgs returns args unless --fofn was given, in which case it
// reads the paths from fofnFlag instead, separated by newlines, NUL
// bytes, or a mix of both.
func resolveArgs(args []string) ([]string, error) {
	if fofnFlag == "" {
		return args, nil
	}
	f, err := os.Open(fofnFlag)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := readAllFields(f)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func readAllFields(f *os.File) ([]string, error) {
	sc := bufio.NewScanner(f)
	sc.Split(splitNulOrLine)
	var out []string
	for sc.Scan() {
		if t := sc.Text(); t != "" {
			out = append(out, t)
		}
	}
	return out, sc.Err()
}

// splitNulOrLine ends a token at every NUL byte and at every newline, so
// a NUL-delimited fofn (as produced by `vault --fofn` listings) and a
// plain newline-delimited one are both accepted inputs.
func splitNulOrLine(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i, b := range data {
		if b == 0 || b == '\n' {
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func checkCap(args []string) error {
	if len(args) > maxFilesPerInvocation {
		return withExitCode(ExitInvalidInvocation, fmt.Errorf("at most %d files per invocation, got %d", maxFilesPerInvocation, len(args)))
	}
	return nil
}

// listBranches renders a --view listing across one or more branches,
// honouring --absolute and --fofn-as-output (the same flag doubles as
// output destination for view listings, spec.md §6's single --fofn
// surface).
func listBranches(v *vault.Vault, branches []vault.Branch, ctx vault.Context, absolute bool, fofnOut string) error {
	var entries []vault.Entry
	for _, b := range branches {
		es, err := v.List(b, ctx, ".", uint32(os.Getuid()))
		if err != nil {
			return err
		}
		entries = append(entries, es...)
	}
	if fofnOut != "" {
		return writeFofn(fofnOut, entries, absolute)
	}
	return display.WriteEntries(os.Stdout, entries, absolute)
}

func writeFofn(path string, entries []vault.Entry, absolute bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, e := range entries {
		p := e.RelPath
		if absolute {
			p = e.AbsPath
		}
		if _, err := f.WriteString(p + "\x00"); err != nil {
			return err
		}
	}
	return nil
}

func parseViewContext(s string) vault.Context {
	switch vault.Context(s) {
	case vault.ContextHere, vault.ContextMine:
		return vault.Context(s)
	default:
		return vault.ContextAll
	}
}
