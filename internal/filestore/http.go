package filestore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/steelsid0609/training-rcf/internal/metrics"
	"github.com/tidwall/gjson"
)

// HTTPStore posts multipart uploads to an unsigned upload endpoint.
// The endpoint answers 2xx with {"secure_url": ...} or non-2xx with {"error": {"message": ...}}.
type HTTPStore struct {
	URL     string
	Preset  string
	Timeout time.Duration
}

// NewHTTP creates an HTTP upload store
func NewHTTP(url, preset string, timeout time.Duration) *HTTPStore {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPStore{URL: url, Preset: preset, Timeout: timeout}
}

// Upload implements Store
func (s *HTTPStore) Upload(ctx context.Context, blob []byte, publicID, contentType string) (url string, err error) {
	started := time.Now()
	defer func() { metrics.RecordUpload("http", started, err) }()

	if len(blob) == 0 {
		return "", ErrEmptyBlob
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	timeout := s.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	a := fiber.Post(s.URL)
	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return "", fmt.Errorf("invalid upload url: %w", err)
	}

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	args.Set("public_id", publicID)
	if s.Preset != "" {
		args.Set("upload_preset", s.Preset)
	}

	name := publicID[strings.LastIndex(publicID, "/")+1:] + Extension(contentType)
	a.FileData(&fiber.FormFile{Fieldname: "file", Name: name, Content: blob})
	a.MultipartForm(args)
	a.Timeout(timeout)

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return "", fmt.Errorf("upload request failed: %w", errs[0])
	}

	if code < 200 || code > 299 {
		msg := gjson.GetBytes(body, "error.message").String()
		if msg == "" {
			msg = fmt.Sprintf("status %d", code)
		}
		return "", fmt.Errorf("upload rejected: %s", msg)
	}

	url = gjson.GetBytes(body, "secure_url").String()
	if url == "" {
		return "", fmt.Errorf("upload response missing secure_url")
	}
	return url, nil
}
