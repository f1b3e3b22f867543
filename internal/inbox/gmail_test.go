package inbox

import (
	"encoding/base64"
	"testing"
	"time"

	"google.golang.org/api/gmail/v1"
)

func TestParseEmailDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "rfc1123z", input: "Mon, 23 Jun 2025 09:30:00 +0000"},
		{name: "rfc1123", input: "Mon, 23 Jun 2025 09:30:00 UTC"},
		{name: "single digit day", input: "Mon, 2 Jun 2025 09:30:00 -0700"},
		{name: "no weekday", input: "2 Jun 2025 09:30:00 -0700"},
		{name: "zone name suffix", input: "Mon, 23 Jun 2025 09:30:00 -0700 (PDT)"},
		{name: "garbage", input: "sometime last week", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEmailDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseEmailDate(%q) = %v, expected error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseEmailDate(%q) returned error: %v", tt.input, err)
			}
			if got.Year() != 2025 || got.Month() != time.June {
				t.Errorf("parseEmailDate(%q) = %v, expected June 2025", tt.input, got)
			}
		})
	}
}

func TestExtractBody(t *testing.T) {
	encode := func(s string) string {
		return base64.URLEncoding.EncodeToString([]byte(s))
	}

	t.Run("plain text part", func(t *testing.T) {
		part := &gmail.MessagePart{
			MimeType: "text/plain",
			Body:     &gmail.MessagePartBody{Data: encode("Total: $34.20")},
		}
		if got := extractBody(part); got != "Total: $34.20" {
			t.Errorf("extractBody = %q, expected the decoded text", got)
		}
	})

	t.Run("multipart", func(t *testing.T) {
		part := &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Parts: []*gmail.MessagePart{
				{
					MimeType: "text/plain",
					Body:     &gmail.MessagePartBody{Data: encode("first")},
				},
				{
					MimeType: "text/html",
					Body:     &gmail.MessagePartBody{Data: encode("<p>second</p>")},
				},
			},
		}
		got := extractBody(part)
		if got != "first\n<p>second</p>\n" {
			t.Errorf("extractBody = %q, expected both text parts joined", got)
		}
	})

	t.Run("nil part", func(t *testing.T) {
		if got := extractBody(nil); got != "" {
			t.Errorf("extractBody(nil) = %q, expected empty", got)
		}
	})
}
