package service

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Brianwan04/PixBackend/common"
	"github.com/Brianwan04/PixBackend/constant"
	"github.com/Brianwan04/PixBackend/logger"
	"github.com/Brianwan04/PixBackend/relay/channel/replicate"
	"github.com/pkg/errors"
	"github.com/thanhpk/randstr"
)

// UploadStrategy turns a local image into a reference a model can
// consume: a hosted URL or an inline data URI.
type UploadStrategy struct {
	Name    string
	Prepare func(ctx context.Context, localPath string, mimeType string) (string, error)
}

// RemoteUploadStrategy pushes the file to the upstream files endpoint.
func RemoteUploadStrategy(adaptor *replicate.Adaptor) UploadStrategy {
	return UploadStrategy{
		Name: "remote_upload",
		Prepare: func(ctx context.Context, localPath string, mimeType string) (string, error) {
			return adaptor.UploadFile(ctx, localPath)
		},
	}
}

// LocalHostStrategy copies the file into the public uploads directory so
// the upstream can GET it from our own base URL. The copy gets a random
// suffix so concurrent requests never collide.
func LocalHostStrategy() UploadStrategy {
	return UploadStrategy{
		Name: "local_host",
		Prepare: func(ctx context.Context, localPath string, mimeType string) (string, error) {
			if err := common.ValidateLocalFile(localPath); err != nil {
				return "", err
			}
			if err := os.MkdirAll(constant.PublicUploadsDir, 0o755); err != nil {
				return "", errors.Wrap(err, "create public uploads dir")
			}
			baseName := filepath.Base(localPath)
			ext := filepath.Ext(baseName)
			publicName := strings.TrimSuffix(baseName, ext) + "-" + randstr.Hex(8) + ext
			dest := filepath.Join(constant.PublicUploadsDir, publicName)

			data, err := os.ReadFile(localPath)
			if err != nil {
				return "", errors.Wrap(err, "read local file")
			}
			if err := os.WriteFile(dest, data, 0o644); err != nil {
				return "", errors.Wrap(err, "publish local file")
			}
			base := strings.TrimSuffix(constant.PublicBaseURL, "/")
			return base + constant.UploadsURLPrefix + "/" + url.PathEscape(publicName), nil
		},
	}
}

// InlineDataURIStrategy embeds the file as a base64 data URI. Always the
// last resort, it works everywhere but bloats the request body.
func InlineDataURIStrategy() UploadStrategy {
	return UploadStrategy{
		Name: "inline_data_uri",
		Prepare: func(ctx context.Context, localPath string, mimeType string) (string, error) {
			return common.FileToDataURI(localPath, mimeType)
		},
	}
}

// PrepareImageRef walks the strategies in order and returns the first
// reference produced. The last failure is returned when every strategy
// fails.
func PrepareImageRef(ctx context.Context, localPath string, mimeType string, strategies []UploadStrategy) (string, error) {
	var lastErr error
	for _, strategy := range strategies {
		ref, err := strategy.Prepare(ctx, localPath, mimeType)
		if err == nil {
			logger.LogInfo(ctx, fmt.Sprintf("prepared %s via %s", filepath.Base(localPath), strategy.Name))
			return ref, nil
		}
		lastErr = err
		logger.LogWarn(ctx, fmt.Sprintf("strategy %s failed for %s: %v", strategy.Name, filepath.Base(localPath), err))
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no upload strategies configured")
	}
	return "", lastErr
}
