package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/Brianwan04/PixBackend/constant"
	"github.com/Brianwan04/PixBackend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempDirs(t *testing.T) {
	t.Helper()
	origProcessed := constant.ProcessedDir
	origUploads := constant.PublicUploadsDir
	origBase := constant.PublicBaseURL
	constant.ProcessedDir = t.TempDir()
	constant.PublicUploadsDir = t.TempDir()
	constant.PublicBaseURL = ""
	t.Cleanup(func() {
		constant.ProcessedDir = origProcessed
		constant.PublicUploadsDir = origUploads
		constant.PublicBaseURL = origBase
	})
}

func fakePNG(size int) []byte {
	return bytes.Repeat([]byte{0x89}, size)
}

func TestSaveProcessedImageFromRemoteURL(t *testing.T) {
	useTempDirs(t)
	payload := fakePNG(256)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	saved, err := SaveProcessedImage(context.Background(), server.URL+"/result.png", "no-bg")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(saved.Filename, "no-bg-"))
	assert.True(t, strings.HasSuffix(saved.Filename, ".png"))
	assert.Equal(t, constant.ProcessedURLPrefix+"/"+saved.Filename, saved.PublicPath)

	data, err := os.ReadFile(saved.AbsolutePath)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestSaveProcessedImageFromDataURI(t *testing.T) {
	useTempDirs(t)
	payload := fakePNG(200)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)

	saved, err := SaveProcessedImage(context.Background(), uri, "erased")
	require.NoError(t, err)

	data, err := os.ReadFile(saved.AbsolutePath)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.True(t, strings.HasSuffix(saved.Filename, ".png"))
}

func TestSaveProcessedImageRejectsNonImageContentType(t *testing.T) {
	useTempDirs(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>server error page</html>"))
	}))
	defer server.Close()

	_, err := SaveProcessedImage(context.Background(), server.URL, "x")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrorCodeInvalidContent))
}

func TestSaveProcessedImageRejectsTinyPayload(t *testing.T) {
	useTempDirs(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("tiny"))
	}))
	defer server.Close()

	_, err := SaveProcessedImage(context.Background(), server.URL, "x")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrorCodeInvalidContent))
}

func TestSaveProcessedImageRejectsMalformedDataURI(t *testing.T) {
	useTempDirs(t)
	_, err := SaveProcessedImage(context.Background(), "data:text/plain;base64,aGVsbG8=", "x")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrorCodeInvalidContent))
}

func TestSaveProcessedImageDownloadFailure(t *testing.T) {
	useTempDirs(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := SaveProcessedImage(context.Background(), server.URL, "x")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrorCodeDownloadFailed))
}

func TestExtensionForContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"image/png", "png"},
		{"image/jpeg", "jpg"},
		{"image/jpeg; charset=binary", "jpg"},
		{"image/svg+xml", "svg"},
		{"image/we!rd", "png"},
		{"garbage", "png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extensionForContentType(tt.contentType), tt.contentType)
	}
}
