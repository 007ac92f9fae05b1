// Package filestore persists rendered letters and student uploads and returns durable URLs.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/steelsid0609/training-rcf/internal/config"
)

// ErrEmptyBlob is returned when there is nothing to upload
var ErrEmptyBlob = errors.New("filestore: empty blob")

// Store uploads a blob under publicID and returns its URL
type Store interface {
	Upload(ctx context.Context, blob []byte, publicID, contentType string) (string, error)
}

// New builds the store selected by FILE_STORE
func New(cfg *config.Config) (Store, error) {
	switch cfg.FileStore {
	case "http":
		return NewHTTP(cfg.UploadURL, cfg.UploadPreset, cfg.UploadTimeout), nil
	case "oss":
		return NewOSS(OSSConfig{
			Endpoint:        cfg.OSSEndpoint,
			AccessKeyID:     cfg.OSSAccessKeyID,
			AccessKeySecret: cfg.OSSAccessKeySecret,
			Bucket:          cfg.OSSBucket,
			Prefix:          cfg.OSSPrefix,
			Timeout:         cfg.UploadTimeout,
		})
	}
	return nil, fmt.Errorf("unsupported file store: %s", cfg.FileStore)
}

// PublicID builds a collision free identifier such as approval/<application>/<uuid>
func PublicID(kind, applicationID string) string {
	return path.Join(safePart(kind), safePart(applicationID), uuid.NewString())
}

// Extension returns the file extension conventionally used for contentType
func Extension(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])) {
	case "application/pdf":
		return ".pdf"
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}
	return ""
}

func safePart(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "..", "-")
	if s == "" {
		return "_"
	}
	return s
}
