package filestore

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/steelsid0609/training-rcf/internal/metrics"
)

// OSSConfig holds Aliyun OSS credentials and placement
type OSSConfig struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	Prefix          string
	Timeout         time.Duration
}

// OSSStore writes objects to an Aliyun OSS bucket
type OSSStore struct {
	bucket     *oss.Bucket
	endpoint   string
	bucketName string
	prefix     string
}

// NewOSS connects to the configured bucket
func NewOSS(cfg OSSConfig) (*OSSStore, error) {
	opts := []oss.ClientOption{}
	if cfg.Timeout > 0 {
		secs := int64(cfg.Timeout / time.Second)
		if secs < 1 {
			secs = 1
		}
		opts = append(opts, oss.Timeout(secs, secs))
	}

	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret, opts...)
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}
	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}

	return &OSSStore{
		bucket:     bucket,
		endpoint:   cfg.Endpoint,
		bucketName: cfg.Bucket,
		prefix:     strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Upload implements Store
func (s *OSSStore) Upload(ctx context.Context, blob []byte, publicID, contentType string) (url string, err error) {
	started := time.Now()
	defer func() { metrics.RecordUpload("oss", started, err) }()

	if len(blob) == 0 {
		return "", ErrEmptyBlob
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := s.Key(publicID, contentType)
	err = s.bucket.PutObject(key, bytes.NewReader(blob),
		oss.WithContext(ctx),
		oss.ContentType(contentType),
		oss.ContentDisposition("inline"),
		oss.CacheControl("public, max-age=31536000, immutable"),
	)
	if err != nil {
		return "", fmt.Errorf("oss put %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// Key maps a public id onto an object key under the configured prefix
func (s *OSSStore) Key(publicID, contentType string) string {
	key := strings.TrimLeft(publicID, "/") + Extension(contentType)
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

// PublicURL returns the virtual-hosted URL of key
func (s *OSSStore) PublicURL(key string) string {
	end := strings.TrimPrefix(s.endpoint, "https://")
	end = strings.TrimPrefix(end, "http://")
	return fmt.Sprintf("https://%s.%s/%s", s.bucketName, strings.TrimRight(end, "/"), key)
}
