// Package inbox implements the inbox source over the Gmail API.
package inbox

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/quillhq/expenseflow/internal/ingest"
)

// GmailInbox lists, fetches and consumes submission emails.
type GmailInbox struct {
	service *gmail.Service
	userID  string
}

// NewGmailInbox creates an inbox over the authenticated account.
func NewGmailInbox(ctx context.Context, client *http.Client) (*GmailInbox, error) {
	service, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}

	return &GmailInbox{
		service: service,
		userID:  "me",
	}, nil
}

// ListUnreadMatching returns the ids of unread messages addressed to the
// submission address, paging through all results.
func (i *GmailInbox) ListUnreadMatching(ctx context.Context, addressPattern string) ([]string, error) {
	query := fmt.Sprintf("is:unread to:%s", addressPattern)

	var ids []string
	pageToken := ""
	for {
		call := i.service.Users.Messages.List(i.userID).Q(query).MaxResults(100).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}

		for _, msg := range resp.Messages {
			ids = append(ids, msg.Id)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return ids, nil
}

// Fetch retrieves one message with headers and text body.
func (i *GmailInbox) Fetch(ctx context.Context, messageID string) (*ingest.Message, error) {
	msg, err := i.service.Users.Messages.Get(i.userID, messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}

	out := &ingest.Message{ID: messageID}
	for _, header := range msg.Payload.Headers {
		switch header.Name {
		case "Subject":
			out.Subject = header.Value
		case "From":
			out.Sender = header.Value
		case "Date":
			if t, err := parseEmailDate(header.Value); err == nil {
				out.Date = t
			}
		}
	}
	out.Body = extractBody(msg.Payload)

	return out, nil
}

// MarkRead consumes a message by removing its UNREAD label.
func (i *GmailInbox) MarkRead(ctx context.Context, messageID string) error {
	req := &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}
	if _, err := i.service.Users.Messages.Modify(i.userID, messageID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}

// extractBody extracts text body from message parts recursively.
func extractBody(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}

	if strings.HasPrefix(part.MimeType, "text/") && part.Body != nil && part.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err == nil {
			return string(data)
		}
	}

	var result strings.Builder
	for _, p := range part.Parts {
		if body := extractBody(p); body != "" {
			result.WriteString(body)
			result.WriteString("\n")
		}
	}
	return result.String()
}

// parseEmailDate parses an email Date header.
func parseEmailDate(dateStr string) (time.Time, error) {
	formats := []string{
		time.RFC1123Z,
		time.RFC1123,
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"2 Jan 2006 15:04:05 -0700",
		"Mon, 02 Jan 2006 15:04:05 -0700 (MST)",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}
