// Package notify delivers email notifications through the Gmail API.
package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailNotifier sends mail as the authenticated user.
type GmailNotifier struct {
	service *gmail.Service
	userID  string
	from    string
}

// NewGmailNotifier creates a notifier. from is the From header address; it
// should match the authenticated account.
func NewGmailNotifier(ctx context.Context, client *http.Client, from string) (*GmailNotifier, error) {
	service, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}

	return &GmailNotifier{
		service: service,
		userID:  "me",
		from:    from,
	}, nil
}

// Send delivers one message. Errors are reported to the caller (the
// dispatcher), which logs and swallows them.
func (n *GmailNotifier) Send(ctx context.Context, to, subject, body string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)

	message := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(b.String())),
	}

	if _, err := n.service.Users.Messages.Send(n.userID, message).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}
