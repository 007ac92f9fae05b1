package filestore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/steelsid0609/training-rcf/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	publicID string
	preset   string
	filename string
	content  string
}

func uploadServer(t *testing.T, status int, body string) (*httptest.Server, chan received) {
	t.Helper()
	got := make(chan received, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		data, _ := io.ReadAll(file)
		got <- received{
			publicID: r.FormValue("public_id"),
			preset:   r.FormValue("upload_preset"),
			filename: header.Filename,
			content:  string(data),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestHTTPUpload(t *testing.T) {
	srv, got := uploadServer(t, http.StatusOK, `{"secure_url":"https://cdn.example.com/approval/a1/x.pdf"}`)
	store := NewHTTP(srv.URL, "unsigned", 5*time.Second)

	url, err := store.Upload(context.Background(), []byte("%PDF-1.3"), "approval/a1/x", "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/approval/a1/x.pdf", url)

	r := <-got
	assert.Equal(t, "approval/a1/x", r.publicID)
	assert.Equal(t, "unsigned", r.preset)
	assert.Equal(t, "x.pdf", r.filename)
	assert.Equal(t, "%PDF-1.3", r.content)
}

func TestHTTPUploadErrorMessage(t *testing.T) {
	srv, _ := uploadServer(t, http.StatusBadRequest, `{"error":{"message":"Upload preset not found"}}`)
	store := NewHTTP(srv.URL, "missing", 5*time.Second)

	_, err := store.Upload(context.Background(), []byte("data"), "receipt/a1/x", "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Upload preset not found")
}

func TestHTTPUploadMissingURL(t *testing.T) {
	srv, _ := uploadServer(t, http.StatusOK, `{}`)
	store := NewHTTP(srv.URL, "", 5*time.Second)

	_, err := store.Upload(context.Background(), []byte("data"), "cover/a1/x", "application/pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secure_url")
}

func TestHTTPUploadEmptyBlob(t *testing.T) {
	store := NewHTTP("http://127.0.0.1:1", "", time.Second)
	_, err := store.Upload(context.Background(), nil, "x", "application/pdf")
	assert.ErrorIs(t, err, ErrEmptyBlob)
}

func TestHTTPUploadCanceled(t *testing.T) {
	store := NewHTTP("http://127.0.0.1:1", "", time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Upload(ctx, []byte("data"), "x", "application/pdf")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOSSKeyAndURL(t *testing.T) {
	store, err := NewOSS(OSSConfig{
		Endpoint:        "https://oss-ap-southeast-5.aliyuncs.com",
		AccessKeyID:     "id",
		AccessKeySecret: "secret",
		Bucket:          "letters",
		Prefix:          "/rcf/",
		Timeout:         10 * time.Second,
	})
	require.NoError(t, err)

	key := store.Key("approval/a1/x", "application/pdf")
	assert.Equal(t, "rcf/approval/a1/x.pdf", key)
	assert.Equal(t, "https://letters.oss-ap-southeast-5.aliyuncs.com/rcf/approval/a1/x.pdf", store.PublicURL(key))

	_, err = store.Upload(context.Background(), nil, "x", "")
	assert.ErrorIs(t, err, ErrEmptyBlob)
}

func TestNewSelectsBackend(t *testing.T) {
	s, err := New(&config.Config{FileStore: "http", UploadURL: "http://localhost/upload"})
	require.NoError(t, err)
	assert.IsType(t, &HTTPStore{}, s)

	s, err = New(&config.Config{
		FileStore:          "oss",
		OSSEndpoint:        "oss-cn-hangzhou.aliyuncs.com",
		OSSAccessKeyID:     "id",
		OSSAccessKeySecret: "secret",
		OSSBucket:          "letters",
	})
	require.NoError(t, err)
	assert.IsType(t, &OSSStore{}, s)

	_, err = New(&config.Config{FileStore: "ftp"})
	assert.Error(t, err)
}

func TestPublicID(t *testing.T) {
	id := PublicID("posting", "app/../1")
	assert.True(t, strings.HasPrefix(id, "posting/app-"), id)
	assert.Len(t, strings.Split(id, "/"), 3)
	assert.NotEqual(t, id, PublicID("posting", "app/../1"))
}
