// Package hosting uploads receipt files to Google Drive and returns a
// shareable link.
package hosting

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DriveHosting uploads files into a fixed Drive folder.
type DriveHosting struct {
	service  *drive.Service
	folderID string
}

// NewDriveHosting creates a hosting client. folderID may be empty, in which
// case files land in the authenticated user's root.
func NewDriveHosting(ctx context.Context, client *http.Client, folderID string) (*DriveHosting, error) {
	service, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive service: %w", err)
	}

	return &DriveHosting{
		service:  service,
		folderID: folderID,
	}, nil
}

// Upload stores the file, makes it link-readable and returns the public URL.
func (h *DriveHosting) Upload(ctx context.Context, filename, mimeType string, data []byte) (string, error) {
	meta := &drive.File{Name: filename}
	if h.folderID != "" {
		meta.Parents = []string{h.folderID}
	}

	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	file, err := h.service.Files.Create(meta).
		Media(bytes.NewReader(data), googleapi.ContentType(mimeType)).
		Fields("id, webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	// Anyone with the link can view; the URL is stored on the expense and
	// shared in notifications.
	permission := &drive.Permission{Type: "anyone", Role: "reader"}
	if _, err := h.service.Permissions.Create(file.Id, permission).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("failed to share file: %w", err)
	}

	return file.WebViewLink, nil
}
