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

package mailer

import "context"

// RecordingSender is a Sender for tests: it appends every message to
// Sent instead of delivering it.
type RecordingSender struct {
	Sent []Message
}

func (r *RecordingSender) Send(_ context.Context, msg Message) error {
	r.Sent = append(r.Sent, msg)
	return nil
}
