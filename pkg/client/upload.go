package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// maxUploadErrorBody bounds how much of a rejected upload response is kept.
const maxUploadErrorBody = 4 << 10

// UploadMedia requests an upload slot for the file at filePath. When
// filename is empty the base name of filePath is used. The file is not
// transferred; see PutPresigned and UploadAndVerify.
func (c *Client) UploadMedia(ctx context.Context, filePath, contentType, filename string) (Result, error) {
	if filename == "" {
		filename = filepath.Base(filePath)
	}
	return c.CreateMediaUpload(ctx, MediaUpload{
		Filename:    filename,
		ContentType: contentType,
	})
}

// PutPresigned sends body to a presigned upload URL. The request is not
// signed with the API key and is not retried.
func (c *Client) PutPresigned(ctx context.Context, uploadURL, contentType string, body io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return fmt.Errorf("create upload request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if size >= 0 {
		req.ContentLength = size
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: "upload media", Attempts: 1, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxUploadErrorBody))
		return &UploadError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(b)),
		}
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// UploadAndVerify runs the full media flow for the file at filePath: it
// requests an upload slot, PUTs the file to the presigned URL and verifies
// the upload. It returns the verification result.
func (c *Client) UploadAndVerify(ctx context.Context, filePath, contentType string) (Result, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open media file: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat media file: %w", err)
	}

	slot, err := c.UploadMedia(ctx, filePath, contentType, "")
	if err != nil {
		return nil, err
	}

	mediaID := slot.String("media_id")
	if mediaID == "" {
		return nil, fmt.Errorf("%w: media_id", ErrMissingField)
	}
	uploadURL := slot.String("upload_url")
	if uploadURL == "" {
		return nil, fmt.Errorf("%w: upload_url", ErrMissingField)
	}

	c.logger.DebugContext(ctx, "uploading media",
		slog.String("media_id", mediaID),
		slog.Int64("size", info.Size()),
	)

	if err := c.PutPresigned(ctx, uploadURL, contentType, f, info.Size()); err != nil {
		return nil, err
	}

	return c.VerifyMedia(ctx, mediaID)
}
