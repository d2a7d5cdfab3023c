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
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wtsi-hgi/vault/internal/identity"
	"github.com/wtsi-hgi/vault/internal/mailer"
	"github.com/wtsi-hgi/vault/internal/persistence"
)

func TestAggregatorSkipsEmptyPayloads(t *testing.T) {
	a := NewAggregator()
	a.payloadFor(100) // touched but never populated
	assert.Empty(t, a.Payloads())
}

func TestAggregatorOneMessagePerUID(t *testing.T) {
	a := NewAggregator()
	a.AddWarning(100, 24, FileFact{Path: "/proj/a.csv", GID: 5, Size: 100, Sweep: persistence.StateWarned, WarningHours: 24})
	a.AddDeleted(100, FileFact{Path: "/proj/b.csv", GID: 5, Size: 200, Sweep: persistence.StateDeleted})

	payloads := a.Payloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, uint32(100), payloads[0].UID)
	assert.Len(t, payloads[0].WarningsByHour[24], 1)
	assert.Len(t, payloads[0].Deleted, 1)
}

func TestRenderBodyNeverSaysIrrecoverably(t *testing.T) {
	p := Payload{
		UID:            100,
		WarningsByHour: map[int][]FileFact{24: {{Path: "/proj/a.csv", GID: 5, Size: 1024 * 1024}}},
		Deleted:        []FileFact{{Path: "/proj/b.csv", GID: 5, Size: 2 * 1024 * 1024}},
	}
	body, err := RenderBody(p)
	require.NoError(t, err)
	assert.NotContains(t, strings.ToUpper(body), "IRRECOVERABLY")
	assert.Contains(t, body, "will be")
}

func TestAttachmentsOnePerCheckpointPlusDeletedAndStaged(t *testing.T) {
	p := Payload{
		UID:            100,
		WarningsByHour: map[int][]FileFact{24: {{Path: "/a"}}, 168: {{Path: "/b"}}},
		Deleted:        []FileFact{{Path: "/c"}},
		Staged:         []FileFact{{Path: "/d"}},
	}
	atts, err := Attachments(p)
	require.NoError(t, err)
	assert.Len(t, atts, 4)
}

func TestNotifierDispatchSendsAndReportsCoverage(t *testing.T) {
	resolver := identity.NewStaticResolver()
	resolver.Users[100] = identity.User{UID: 100, Email: "alice@example.org"}
	sender := &mailer.RecordingSender{}
	n := New(resolver, sender)

	payloads := []Payload{{
		UID:     100,
		Deleted: []FileFact{{Path: "/proj/a.csv", GID: 5, Size: 10}},
	}}
	covered := n.Dispatch(context.Background(), payloads, map[uint32][]int64{100: {7}})

	require.Len(t, sender.Sent, 1)
	assert.Equal(t, "alice@example.org", sender.Sent[0].To)
	require.Len(t, covered, 1)
	assert.Equal(t, int64(7), covered[0].StatusID)
}
