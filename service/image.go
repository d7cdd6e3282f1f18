package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Brianwan04/PixBackend/common"
	"github.com/Brianwan04/PixBackend/constant"
	"github.com/Brianwan04/PixBackend/logger"
	"github.com/Brianwan04/PixBackend/types"
)

// SavedImage describes a result persisted to the processed directory.
type SavedImage struct {
	Filename     string
	AbsolutePath string
	PublicPath   string
}

var dataURIRegex = regexp.MustCompile(`^data:(image/[a-zA-Z0-9.+-]+);base64,(.*)$`)
var extSanityRegex = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// SaveProcessedImage materializes a result reference, either an inline
// data URI or a remote URL, into the processed directory and returns its
// local download path. The content is validated before it is written:
// an image content type and at least 100 bytes of payload.
func SaveProcessedImage(ctx context.Context, imageRef string, prefix string) (*SavedImage, error) {
	var buffer []byte
	var contentType string

	if strings.HasPrefix(imageRef, "data:") {
		match := dataURIRegex.FindStringSubmatch(imageRef)
		if match == nil {
			return nil, types.NewError(fmt.Errorf("invalid data url"), types.ErrorCodeInvalidContent)
		}
		contentType = match[1]
		decoded, err := base64.StdEncoding.DecodeString(match[2])
		if err != nil {
			return nil, types.NewError(fmt.Errorf("invalid base64 payload in data url: %w", err), types.ErrorCodeInvalidContent)
		}
		buffer = decoded
	} else {
		logger.LogInfo(ctx, fmt.Sprintf("downloading result image from %s", imageRef))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageRef, nil)
		if err != nil {
			return nil, types.NewError(err, types.ErrorCodeDownloadFailed)
		}
		resp, err := GetDownloadClient().Do(req)
		if err != nil {
			return nil, types.NewError(fmt.Errorf("download result image: %w", err), types.ErrorCodeDownloadFailed)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, types.NewError(fmt.Errorf("download result image: status %d", resp.StatusCode), types.ErrorCodeDownloadFailed)
		}
		buffer, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, types.NewError(fmt.Errorf("read result image: %w", err), types.ErrorCodeDownloadFailed)
		}
		contentType = resp.Header.Get("Content-Type")
	}

	if !strings.HasPrefix(contentType, "image/") {
		if len(buffer) > 0 && len(buffer) < 2000 {
			logger.LogError(ctx, fmt.Sprintf("non-image response body: %s", string(buffer)))
		}
		return nil, types.NewError(fmt.Errorf("invalid content type: %s", contentType), types.ErrorCodeInvalidContent)
	}
	if len(buffer) < 100 {
		return nil, types.NewError(fmt.Errorf("downloaded file is too small (%d bytes), likely invalid", len(buffer)), types.ErrorCodeInvalidContent)
	}

	filename := fmt.Sprintf("%s-%d.%s", prefix, common.GetTimestampMilli(), extensionForContentType(contentType))
	if err := os.MkdirAll(constant.ProcessedDir, 0o755); err != nil {
		return nil, types.NewError(fmt.Errorf("create processed dir: %w", err), types.ErrorCodeDownloadFailed)
	}
	absolutePath := filepath.Join(constant.ProcessedDir, filename)
	if err := os.WriteFile(absolutePath, buffer, 0o644); err != nil {
		return nil, types.NewError(fmt.Errorf("write result image: %w", err), types.ErrorCodeDownloadFailed)
	}

	publicPath := constant.ProcessedURLPrefix + "/" + filename
	logger.LogInfo(ctx, fmt.Sprintf("saved result image %s (%d bytes)", absolutePath, len(buffer)))

	verifySavedImage(ctx, publicPath)

	return &SavedImage{
		Filename:     filename,
		AbsolutePath: absolutePath,
		PublicPath:   publicPath,
	}, nil
}

// extensionForContentType derives a filename extension from an image
// content type. jpeg becomes jpg, svg+xml becomes svg, and anything
// unparseable falls back to png.
func extensionForContentType(contentType string) string {
	parts := strings.SplitN(contentType, "/", 2)
	if len(parts) != 2 {
		return "png"
	}
	ext := strings.SplitN(parts[1], ";", 2)[0]
	if ext == "jpeg" {
		ext = "jpg"
	}
	if idx := strings.Index(ext, "+"); idx != -1 {
		ext = ext[:idx]
	}
	if !extSanityRegex.MatchString(ext) {
		return "png"
	}
	return ext
}

// verifySavedImage HEADs the public URL of a freshly saved file. Failures
// are logged and swallowed, serving is the static handler's job.
func verifySavedImage(ctx context.Context, publicPath string) {
	base := strings.TrimSuffix(constant.PublicBaseURL, "/")
	if base == "" {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, base+publicPath, nil)
	if err != nil {
		return
	}
	resp, err := GetDownloadClient().Do(req)
	if err != nil {
		logger.LogWarn(ctx, fmt.Sprintf("local file verification failed: %v", err))
		return
	}
	defer resp.Body.Close()
	logger.LogDebug(ctx, fmt.Sprintf("local file verification status: %d", resp.StatusCode))
}
