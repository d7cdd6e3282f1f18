package replicate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"time"

	"github.com/Brianwan04/PixBackend/common"
	"github.com/Brianwan04/PixBackend/logger"
	"github.com/Brianwan04/PixBackend/types"
	"github.com/tidwall/gjson"
)

// UploadFile pushes a local image to the hosted files endpoint and
// returns its public URL. Transient failures are retried with a linear
// 2s, 4s, ... pause between attempts.
func (a *Adaptor) UploadFile(ctx context.Context, filePath string) (string, error) {
	if err := a.checkToken(); err != nil {
		return "", err
	}
	if err := common.ValidateLocalFile(filePath); err != nil {
		return "", err
	}

	filename := filepath.Base(filePath)
	contentType := common.MimeTypeByExtension(filename)

	var lastErr error
	for attempt := 0; attempt <= a.MaxUploadRetries; attempt++ {
		if attempt > 0 {
			a.sleep(2 * time.Second * time.Duration(attempt))
			logger.LogInfo(ctx, fmt.Sprintf("retrying upload of %s (attempt %d)", filename, attempt+1))
		}
		url, err := a.uploadOnce(ctx, filePath, filename, contentType)
		if err == nil {
			return url, nil
		}
		lastErr = err
		logger.LogWarn(ctx, fmt.Sprintf("upload of %s failed on attempt %d: %v", filename, attempt+1, err))
	}

	return "", types.NewError(
		fmt.Errorf("%s adaptor: upload failed after %d attempts: %w", ChannelName, a.MaxUploadRetries+1, lastErr),
		types.ErrorCodeUploadFailed)
}

func (a *Adaptor) uploadOnce(ctx context.Context, filePath, filename, contentType string) (string, error) {
	fileContent, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf("form-data; name=\"content\"; filename=\"%s\"", filename))
	hdr.Set("Content-Type", contentType)

	part, err := writer.CreatePart(hdr)
	if err != nil {
		writer.Close()
		return "", fmt.Errorf("create upload form: %w", err)
	}
	if _, err := part.Write(fileContent); err != nil {
		writer.Close()
		return "", fmt.Errorf("write upload content: %w", err)
	}
	formContentType := writer.FormDataContentType()
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/v1/files", &body)
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", formContentType)
	req.Header.Set("Authorization", "Token "+a.Token)

	resp, err := a.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, upstreamErrorMessage(respBody))
	}

	parsed := gjson.ParseBytes(respBody)
	publicURL := parsed.Get("urls.get").String()
	if publicURL == "" {
		publicURL = parsed.Get("url").String()
	}
	if publicURL == "" {
		return "", fmt.Errorf("no public url in upload response")
	}
	return publicURL, nil
}
