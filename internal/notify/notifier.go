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

	"github.com/wtsi-hgi/vault/internal/identity"
	"github.com/wtsi-hgi/vault/internal/logger"
	"github.com/wtsi-hgi/vault/internal/mailer"
)

// StatusRef is enough information to record a notification row once a
// payload's e-mail is sent successfully.
type StatusRef struct {
	StatusID int64
	UID      uint32
}

// Notifier sends one aggregated e-mail per stakeholder and reports
// which (status, stakeholder) pairs were covered, so the caller can
// append `notification` rows for them (spec.md §4.5: "Append
// notification(status, stakeholder) rows for every (status,
// stakeholder) covered by a successfully sent e-mail").
type Notifier struct {
	resolver identity.Resolver
	sender   mailer.Sender
}

// New builds a Notifier.
func New(resolver identity.Resolver, sender mailer.Sender) *Notifier {
	return &Notifier{resolver: resolver, sender: sender}
}

// Dispatch sends every non-empty payload and returns the StatusRefs
// successfully covered. statusIDsByUID supplies, for each payload's
// uid, every status id that payload's content derives from (the caller
// tracks this while building the Aggregator).
func (n *Notifier) Dispatch(ctx context.Context, payloads []Payload, statusIDsByUID map[uint32][]int64) []StatusRef {
	var covered []StatusRef

	for _, p := range payloads {
		email, err := n.resolver.Email(p.UID)
		if err != nil {
			logger.Errorf("notify: cannot resolve email for uid %d: %v", p.UID, err)
			continue
		}

		body, err := RenderBody(p)
		if err != nil {
			logger.Errorf("notify: render body for uid %d: %v", p.UID, err)
			continue
		}

		attachments, err := Attachments(p)
		if err != nil {
			logger.Errorf("notify: build attachments for uid %d: %v", p.UID, err)
			continue
		}

		msg := mailer.Message{To: email, Subject: Subject(p), Body: body, Attachments: attachments}
		if err := n.sender.Send(ctx, msg); err != nil {
			logger.Errorf("notify: send to uid %d: %v", p.UID, err)
			continue
		}

		for _, sid := range statusIDsByUID[p.UID] {
			covered = append(covered, StatusRef{StatusID: sid, UID: p.UID})
		}
	}

	return covered
}
