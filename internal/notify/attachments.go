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

package notify

import (
	"bytes"
	"compress/gzip"
	"fmt"

	"github.com/wtsi-hgi/vault/internal/mailer"
)

// fofnAttachment builds a gzip-compressed, newline-delimited
// file-of-filenames attachment (spec.md §4.6: "gzip-compressed, NUL- or
// newline-delimited fully-qualified path listings").
func fofnAttachment(name string, files []FileFact) (mailer.Attachment, error) {
	var raw bytes.Buffer
	for _, f := range files {
		raw.WriteString(f.Path)
		raw.WriteByte('\n')
	}

	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	if _, err := w.Write(raw.Bytes()); err != nil {
		return mailer.Attachment{}, err
	}
	if err := w.Close(); err != nil {
		return mailer.Attachment{}, err
	}

	return mailer.Attachment{Name: name, Data: gz.Bytes()}, nil
}

// Attachments builds p's full attachment set: one `delete-<h>.fofn.gz`
// per warning checkpoint, plus `deleted.fofn.gz` and `staged.fofn.gz`
// when non-empty.
func Attachments(p Payload) ([]mailer.Attachment, error) {
	var out []mailer.Attachment

	for h, files := range p.WarningsByHour {
		if len(files) == 0 {
			continue
		}
		a, err := fofnAttachment(fmt.Sprintf("delete-%d.fofn.gz", h), files)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	if len(p.Deleted) > 0 {
		a, err := fofnAttachment("deleted.fofn.gz", p.Deleted)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	if len(p.Staged) > 0 {
		a, err := fofnAttachment("staged.fofn.gz", p.Staged)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	return out, nil
}
