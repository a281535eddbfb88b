package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// sendMail is a seam for testing smtp.SendMail without a live server.
var sendMail = smtp.SendMail

// SMTPNotifier sends plain-text mail through a single SMTP endpoint.
type SMTPNotifier struct {
	addr string
	from string
}

func NewSMTPNotifier(addr, from string) *SMTPNotifier {
	return &SMTPNotifier{addr: addr, from: from}
}

// Notify sends one message. The context is honored only up front; SMTP
// dialing is left to its own timeouts since the caller treats any failure
// as non-fatal anyway.
func (n *SMTPNotifier) Notify(ctx context.Context, senderName, body, recipientEmail string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.from)
	fmt.Fprintf(&msg, "To: %s\r\n", recipientEmail)
	fmt.Fprintf(&msg, "Subject: Purchase order update from %s\r\n", senderName)
	fmt.Fprintf(&msg, "\r\n%s\r\n", body)

	return sendMail(n.addr, nil, n.from, []string{recipientEmail}, []byte(msg.String()))
}
