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
	"fmt"
	"path"
	"sort"
	"strings"
	"text/template"
)

// groupSummary is one gid's rollup: common directory prefix, file
// count, and byte total, as spec.md §4.6 requires ("group files by gid
// and summarise to the common directory prefix with file count and
// byte total (MiB)").
type groupSummary struct {
	GID      uint32
	Prefix   string
	Count    int
	MiB      float64
}

func summarizeByGID(files []FileFact) []groupSummary {
	byGID := map[uint32][]FileFact{}
	for _, f := range files {
		byGID[f.GID] = append(byGID[f.GID], f)
	}

	var out []groupSummary
	for gid, fs := range byGID {
		var total int64
		prefix := fs[0].Path
		for _, f := range fs {
			total += f.Size
			prefix = commonDirPrefix(prefix, f.Path)
		}
		out = append(out, groupSummary{
			GID:    gid,
			Prefix: prefix,
			Count:  len(fs),
			MiB:    float64(total) / (1024 * 1024),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GID < out[j].GID })
	return out
}

// commonDirPrefix returns the longest shared directory prefix of a and b.
func commonDirPrefix(a, b string) string {
	aDirs := strings.Split(path.Dir(a), "/")
	bDirs := strings.Split(path.Dir(b), "/")
	n := len(aDirs)
	if len(bDirs) < n {
		n = len(bDirs)
	}
	var shared []string
	for i := 0; i < n; i++ {
		if aDirs[i] != bDirs[i] {
			break
		}
		shared = append(shared, aDirs[i])
	}
	return strings.Join(shared, "/")
}

// bodyTemplate renders a payload's prose. Subject/body must never use
// the word "IRRECOVERABLY" for soft-deletions and must speak in future
// tense for pending reclamation (spec.md §4.6).
const bodyTemplate = `This is an automated notice from the data retention system.
{{range $h, $files := .WarningsByHour}}
The following files will be deleted in approximately {{$h}} hours unless action is taken:
{{range summarize $files}}  {{.Prefix}}: {{.Count}} files, {{printf "%.1f" .MiB}} MiB
{{end}}{{end}}
{{if .Deleted}}
The following files have been moved to recoverable storage and will be permanently removed after the configured grace period:
{{range summarize .Deleted}}  {{.Prefix}}: {{.Count}} files, {{printf "%.1f" .MiB}} MiB
{{end}}{{end}}
{{if .Staged}}
The following files have been staged for archival:
{{range summarize .Staged}}  {{.Prefix}}: {{.Count}} files, {{printf "%.1f" .MiB}} MiB
{{end}}{{end}}
`

var renderTmpl = template.Must(template.New("body").Funcs(template.FuncMap{
	"summarize": summarizeByGID,
}).Parse(bodyTemplate))

// RenderBody renders p's body via the text/template the way the
// teacher's ambient stack renders notification text (spec.md §1 carves
// out "template rendering of notification bodies" as an external
// collaborator concern; this is the stated Renderer implementation).
func RenderBody(p Payload) (string, error) {
	var b strings.Builder
	if err := renderTmpl.Execute(&b, p); err != nil {
		return "", fmt.Errorf("notify: render body: %w", err)
	}
	return b.String(), nil
}

// Subject renders the subject line for p.
func Subject(p Payload) string {
	return fmt.Sprintf("Data retention notice for uid %d", p.UID)
}
