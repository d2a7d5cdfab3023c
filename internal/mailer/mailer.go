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

// Package mailer sends notification e-mails. SMTP transport is out of
// scope per spec.md §1 ("SMTP transport... out of scope"); the Notifier
// depends only on the Sender interface here. net/smtp is used for the
// one concrete implementation because no third-party mail transport
// appears anywhere in the examples pack — see DESIGN.md.
package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/wtsi-hgi/vault/internal/config"
)

// Attachment is a gzip-compressed file-of-filenames attachment
// (spec.md §4.6).
type Attachment struct {
	Name string
	Data []byte
}

// Message is one notification e-mail.
type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Sender delivers a single Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends via net/smtp, optionally over TLS per config.
type SMTPSender struct {
	cfg config.SMTPConfig
	from string
}

// NewSMTPSender builds a Sender bound to cfg.
func NewSMTPSender(cfg config.SMTPConfig, from string) *SMTPSender {
	return &SMTPSender{cfg: cfg, from: from}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var buf bytes.Buffer
	writeMIME(&buf, s.from, msg)

	return smtp.SendMail(addr, nil, s.from, []string{msg.To}, buf.Bytes())
}

// writeMIME renders msg as a minimal multipart/mixed MIME message with
// each attachment as a base64 part, so gzip'd fofn listings survive
// transport untouched.
func writeMIME(buf *bytes.Buffer, from string, msg Message) {
	const boundary = "vault-notify-boundary"

	fmt.Fprintf(buf, "From: %s\r\n", from)
	fmt.Fprintf(buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(buf, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(msg.Body)
	buf.WriteString("\r\n")

	for _, a := range msg.Attachments {
		fmt.Fprintf(buf, "--%s\r\n", boundary)
		fmt.Fprintf(buf, "Content-Type: application/gzip\r\n")
		fmt.Fprintf(buf, "Content-Disposition: attachment; filename=%q\r\n", a.Name)
		buf.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
		buf.WriteString(base64Wrap(a.Data))
		buf.WriteString("\r\n")
	}
	fmt.Fprintf(buf, "--%s--\r\n", boundary)
}

func base64Wrap(data []byte) string {
	const lineLen = 76
	encoded := base64.StdEncoding.EncodeToString(data)
	var b strings.Builder
	for i := 0; i < len(encoded); i += lineLen {
		end := i + lineLen
		if end > len(encoded) {
			end = len(encoded)
		}
		b.WriteString(encoded[i:end])
		b.WriteString("\r\n")
	}
	return b.String()
}
