package common

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Brianwan04/PixBackend/types"
)

// ValidateLocalFile checks that path points at a regular, non-empty file.
func ValidateLocalFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return types.NewError(fmt.Errorf("file not accessible: %s: %w", path, err), types.ErrorCodeFileNotAccessible)
	}
	if !info.Mode().IsRegular() {
		return types.NewError(fmt.Errorf("path is not a file: %s", path), types.ErrorCodeFileNotAccessible)
	}
	if info.Size() == 0 {
		return types.NewError(fmt.Errorf("file is empty: %s", path), types.ErrorCodeFileNotAccessible)
	}
	return nil
}

// FileToDataURI reads the file fully and returns a data:<mime>;base64,...
// string. Inputs are user uploads bounded by the request size limit, so
// whole-file reads are fine here.
func FileToDataURI(path string, mimeType string) (string, error) {
	if err := ValidateLocalFile(path); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", types.NewError(fmt.Errorf("failed to read image: %w", err), types.ErrorCodeFileNotAccessible)
	}
	if mimeType == "" {
		mimeType = MimeTypeByExtension(path)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// MimeTypeByExtension infers an image content type from the filename,
// defaulting to image/jpeg the way the upload path always has.
func MimeTypeByExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".svg":
		return "image/svg+xml"
	default:
		return "image/jpeg"
	}
}
