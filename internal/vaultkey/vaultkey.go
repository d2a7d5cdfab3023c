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

// Package vaultkey implements the bi-directional mapping between
// (inode, relative path) and a hierarchical hardlink key under a vault
// branch (spec.md §4.1).
//
// A key looks like AA/BB/CC-B64(p)[/B64-chunk...]: the big-endian hex
// byte-words of the inode form a directory hierarchy (all but the
// least-significant word), the LSB word prefixes the leaf name, and the
// path is URL-safe-base64-encoded and appended, split across further
// directory levels when it would otherwise exceed the target
// filesystem's NAME_MAX. URL-safe base64 (RFC 4648 §5) is used rather
// than the standard alphabet because the standard alphabet's '/' would
// otherwise be mistaken for a path separator inside a chunk.
package vaultkey

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedKey is returned by Decode when a key cannot be parsed back
// into an (inode, path) pair.
var ErrMalformedKey = errors.New("vaultkey: malformed key")

const enc = base64.RawURLEncoding

// byteHexLen is the length in characters of one hex-encoded inode byte.
const byteHexLen = 2

// Encode renders the vault key for inode i and path p (relative to the
// vault root). nameMax is the target filesystem's NAME_MAX. Encode never
// truncates: a path of any length round-trips through Decode.
func Encode(i uint64, p string, nameMax int) string {
	words := inodeWords(i)
	dirWords, lsb := words[:len(words)-1], words[len(words)-1]

	var parts []string
	for _, w := range dirWords {
		parts = append(parts, hex.EncodeToString([]byte{w}))
	}

	lsbHex := hex.EncodeToString([]byte{lsb})
	encoded := enc.EncodeToString([]byte(p))

	// Spec: if base64(p) exceeds NAME_MAX-3 bytes, split into
	// NAME_MAX-sized chunks, promoting all but the last to directory
	// levels below the LSB directory.
	firstBudget := nameMax - 3
	if firstBudget < 0 {
		firstBudget = 0
	}

	if len(encoded) <= firstBudget {
		parts = append(parts, lsbHex+"-"+encoded)
		return strings.Join(parts, "/")
	}

	chunkSize := nameMax
	if chunkSize < 1 {
		chunkSize = 1
	}
	first, rest := encoded[:firstBudget], encoded[firstBudget:]
	parts = append(parts, lsbHex+"-"+first)
	for len(rest) > chunkSize {
		parts = append(parts, rest[:chunkSize])
		rest = rest[chunkSize:]
	}
	parts = append(parts, rest)

	return strings.Join(parts, "/")
}

// Decode reverses Encode. Malformed keys yield ErrMalformedKey.
func Decode(key string) (i uint64, p string, err error) {
	segments := strings.Split(key, "/")

	// Pure inode-word directories are always exactly byteHexLen hex
	// characters with no separator; the first segment longer than that
	// is the LSB-word + first base64 chunk.
	lsbIdx := -1
	for idx, seg := range segments {
		if len(seg) > byteHexLen {
			lsbIdx = idx
			break
		}
	}
	if lsbIdx < 0 {
		return 0, "", fmt.Errorf("%w: %s: no LSB/path component found", ErrMalformedKey, key)
	}

	dirHexes := segments[:lsbIdx]
	lsbSeg := segments[lsbIdx]
	if lsbSeg[byteHexLen] != '-' {
		return 0, "", fmt.Errorf("%w: %s: expected '-' after LSB word", ErrMalformedKey, key)
	}
	lsbHex := lsbSeg[:byteHexLen]
	firstChunk := lsbSeg[byteHexLen+1:]

	words := make([]byte, 0, len(dirHexes)+1)
	for _, h := range dirHexes {
		b, decErr := hex.DecodeString(h)
		if decErr != nil || len(b) != 1 {
			return 0, "", fmt.Errorf("%w: %s: bad inode word %q", ErrMalformedKey, key, h)
		}
		words = append(words, b[0])
	}
	lb, decErr := hex.DecodeString(lsbHex)
	if decErr != nil || len(lb) != 1 {
		return 0, "", fmt.Errorf("%w: %s: bad LSB word %q", ErrMalformedKey, key, lsbHex)
	}
	words = append(words, lb[0])
	i = wordsToInode(words)

	var b strings.Builder
	b.WriteString(firstChunk)
	for _, seg := range segments[lsbIdx+1:] {
		b.WriteString(seg)
	}

	raw, decErr := enc.DecodeString(b.String())
	if decErr != nil {
		return 0, "", fmt.Errorf("%w: %s: bad base64 path: %v", ErrMalformedKey, key, decErr)
	}
	return i, string(raw), nil
}

// inodeWords splits i into big-endian bytes: the minimal number needed to
// represent it, at least one.
func inodeWords(i uint64) []byte {
	if i == 0 {
		return []byte{0}
	}
	var words []byte
	for i > 0 {
		words = append([]byte{byte(i & 0xff)}, words...)
		i >>= 8
	}
	return words
}

func wordsToInode(words []byte) uint64 {
	var i uint64
	for _, w := range words {
		i = (i << 8) | uint64(w)
	}
	return i
}

// DirHexPrefix returns the slash-joined directory hierarchy (every word
// but the LSB) for inode i, and LSBHex returns the hex of its LSB word —
// together these let a caller locate an inode's entry within a branch in
// O(1) (bounded directory size) without knowing its encoded path, by
// listing DirHexPrefix and matching the leaf that starts with
// "LSBHex-" (spec.md §4.2 "lookup(inode) -> O(1) by key-codec structure").
func DirHexPrefix(i uint64) string {
	words := inodeWords(i)
	dirs := words[:len(words)-1]
	parts := make([]string, len(dirs))
	for idx, w := range dirs {
		parts[idx] = hex.EncodeToString([]byte{w})
	}
	return strings.Join(parts, "/")
}

func LSBHex(i uint64) string {
	words := inodeWords(i)
	return hex.EncodeToString([]byte{words[len(words)-1]})
}
