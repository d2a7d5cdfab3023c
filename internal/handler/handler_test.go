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

package handler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeProbeScript writes a shell script that exits with the given code
// for `ready` invocations (argv[1] exactly "ready", never a merged
// "ready <bytes>" token) and echoes stdin to a capture file otherwise.
func writeProbeScript(t *testing.T, exitCode int, captureFile string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "handler.sh")
	script := "#!/bin/sh\n" +
		"if [ \"$1\" = \"ready\" ]; then\n" +
		"  exit " + itoa(exitCode) + "\n" +
		"fi\n" +
		"cat > \"" + captureFile + "\"\n" +
		"exit 0\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

// writeArgCaptureScript writes a shell script that records argv[1] and
// argv[2] (pipe-joined) to captureFile and always exits 0.
func writeArgCaptureScript(t *testing.T, captureFile string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "argcapture.sh")
	script := "#!/bin/sh\n" +
		"printf '%s|%s' \"$1\" \"$2\" > \"" + captureFile + "\"\n" +
		"exit 0\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func TestProbeReady(t *testing.T) {
	h := New(writeProbeScript(t, 0, filepath.Join(t.TempDir(), "capture")))
	r, err := h.Probe(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, Ready, r)
}

func TestProbeBusy(t *testing.T) {
	h := New(writeProbeScript(t, 1, filepath.Join(t.TempDir(), "capture")))
	r, err := h.Probe(context.Background(), 0)
	assert.ErrorIs(t, err, ErrHandlerBusy)
	assert.Equal(t, Busy, r)
}

func TestProbeNoCapacity(t *testing.T) {
	h := New(writeProbeScript(t, 2, filepath.Join(t.TempDir(), "capture")))
	r, err := h.Probe(context.Background(), 1<<20)
	assert.ErrorIs(t, err, ErrHandlerNoCapacity)
	assert.Equal(t, NoCapacity, r)
}

func TestProbePassesBytesRequiredAsSeparateArg(t *testing.T) {
	capture := filepath.Join(t.TempDir(), "capture")
	h := New(writeArgCaptureScript(t, capture))

	r, err := h.Probe(context.Background(), 1<<20)
	require.NoError(t, err)
	assert.Equal(t, Ready, r)

	data, err := os.ReadFile(capture)
	require.NoError(t, err)
	assert.Equal(t, "ready|1048576", string(data))
}

func TestProbeOmitsSecondArgWhenBytesRequiredIsZero(t *testing.T) {
	capture := filepath.Join(t.TempDir(), "capture")
	h := New(writeArgCaptureScript(t, capture))

	r, err := h.Probe(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, Ready, r)

	data, err := os.ReadFile(capture)
	require.NoError(t, err)
	assert.Equal(t, "ready|", string(data))
}

func TestStreamWritesNulDelimitedPaths(t *testing.T) {
	capture := filepath.Join(t.TempDir(), "capture")
	h := New(writeProbeScript(t, 0, capture))

	require.NoError(t, h.Stream(context.Background(), []string{"/a/b", "/c/d"}))

	data, err := os.ReadFile(capture)
	require.NoError(t, err)
	assert.Equal(t, "/a/b\x00/c/d\x00", string(data))
}
