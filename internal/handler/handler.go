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

// Package handler implements the wire protocol spec.md §6 specifies for
// the external archival handler: a readiness probe invocation, then a
// separate invocation that streams NUL-delimited absolute paths on
// stdin.
package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
)

// Readiness is the result of a probe invocation (spec.md §4.7).
type Readiness int

const (
	Ready Readiness = iota
	Busy
	NoCapacity
	ProbeFailed
)

var (
	ErrHandlerBusy      = errors.New("handler: downstream handler busy")
	ErrHandlerNoCapacity = errors.New("handler: downstream handler has insufficient capacity")
	ErrHandlerFailed    = errors.New("handler: downstream handler failed")
)

// Handler wraps invocations of the configured archival executable.
type Handler struct {
	Path string
}

// New builds a Handler for the executable at path (config's
// archive.handler).
func New(path string) *Handler {
	return &Handler{Path: path}
}

// Probe invokes the handler with `ready[ <bytes-required>]`
// (spec.md §6), translating its exit code to a Readiness.
func (h *Handler) Probe(ctx context.Context, bytesRequired int64) (Readiness, error) {
	args := []string{"ready"}
	if bytesRequired > 0 {
		args = append(args, strconv.FormatInt(bytesRequired, 10))
	}
	cmd := exec.CommandContext(ctx, h.Path, args...)

	err := cmd.Run()
	if err == nil {
		return Ready, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		switch exitErr.ExitCode() {
		case 1:
			return Busy, ErrHandlerBusy
		case 2:
			return NoCapacity, ErrHandlerNoCapacity
		default:
			return ProbeFailed, fmt.Errorf("%w: exit code %d", ErrHandlerFailed, exitErr.ExitCode())
		}
	}
	return ProbeFailed, fmt.Errorf("%w: %v", ErrHandlerFailed, err)
}

// Stream invokes the handler with no arguments, writing paths
// NUL-delimited to its stdin and closing it, then waits for exit.
func (h *Handler) Stream(ctx context.Context, paths []string) error {
	var stdin bytes.Buffer
	for _, p := range paths {
		stdin.WriteString(p)
		stdin.WriteByte(0)
	}

	cmd := exec.CommandContext(ctx, h.Path)
	cmd.Stdin = &stdin

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %v", ErrHandlerFailed, err)
	}
	return nil
}
