package middleware

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Brianwan04/PixBackend/constant"
	"github.com/Brianwan04/PixBackend/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const stagedFilesKey = "staged_files"

// StagedFile is an uploaded image written to the staging directory for
// the duration of one request.
type StagedFile struct {
	FieldName    string
	OriginalName string
	Path         string
	MimeType     string
}

// GetStagedFiles returns every file staged for this request, in upload
// order.
func GetStagedFiles(c *gin.Context) []StagedFile {
	if v, ok := c.Get(stagedFilesKey); ok {
		if files, ok := v.([]StagedFile); ok {
			return files
		}
	}
	return nil
}

// GetStagedFile returns the first staged file for a form field.
func GetStagedFile(c *gin.Context, field string) *StagedFile {
	for _, f := range GetStagedFiles(c) {
		if f.FieldName == field {
			return &f
		}
	}
	return nil
}

// SingleImage stages one image from the named form field.
func SingleImage(field string) gin.HandlerFunc {
	return stageUpload(func(form *multipart.Form) []fieldFile {
		return filesForFields(form, field)
	})
}

// ImageFields stages at most one image per named form field.
func ImageFields(fields ...string) gin.HandlerFunc {
	return stageUpload(func(form *multipart.Form) []fieldFile {
		return filesForFields(form, fields...)
	})
}

// AnyImages stages every uploaded file regardless of field name, up to
// max files. Preferred fields come first so handlers can rely on the
// primary image being staged at index zero; remaining fields follow in
// name order.
func AnyImages(max int, preferred ...string) gin.HandlerFunc {
	return stageUpload(func(form *multipart.Form) []fieldFile {
		var out []fieldFile
		seen := make(map[string]bool)
		for _, field := range preferred {
			for _, header := range form.File[field] {
				out = append(out, fieldFile{field: field, header: header})
			}
			seen[field] = true
		}
		rest := make([]string, 0, len(form.File))
		for field := range form.File {
			if !seen[field] {
				rest = append(rest, field)
			}
		}
		sort.Strings(rest)
		for _, field := range rest {
			for _, header := range form.File[field] {
				out = append(out, fieldFile{field: field, header: header})
			}
		}
		if len(out) > max {
			out = out[:max]
		}
		return out
	})
}

type fieldFile struct {
	field  string
	header *multipart.FileHeader
}

func filesForFields(form *multipart.Form, fields ...string) []fieldFile {
	var out []fieldFile
	for _, field := range fields {
		if headers := form.File[field]; len(headers) > 0 {
			out = append(out, fieldFile{field: field, header: headers[0]})
		}
	}
	return out
}

func stageUpload(pick func(*multipart.Form) []fieldFile) gin.HandlerFunc {
	return func(c *gin.Context) {
		maxBytes := int64(constant.MaxUploadSizeMB) << 20
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

		if !strings.Contains(c.ContentType(), "multipart/form-data") {
			c.Next()
			cleanupStagedFiles(c)
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			status := http.StatusBadRequest
			if strings.Contains(err.Error(), "request body too large") {
				status = http.StatusRequestEntityTooLarge
			}
			c.AbortWithStatusJSON(status, gin.H{"error": "Failed to parse upload: " + err.Error()})
			return
		}

		var staged []StagedFile
		for _, ff := range pick(form) {
			file, err := stageFile(ff.field, ff.header)
			if err != nil {
				for _, s := range staged {
					_ = os.Remove(s.Path)
				}
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			staged = append(staged, *file)
		}
		c.Set(stagedFilesKey, staged)

		c.Next()
		cleanupStagedFiles(c)
	}
}

func stageFile(field string, header *multipart.FileHeader) (*StagedFile, error) {
	mimeType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("only image files are allowed, got %q for field %q", mimeType, field)
	}

	if err := os.MkdirAll(constant.UploadStagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file: %w", err)
	}
	defer src.Close()

	stagedName := uuid.NewString() + filepath.Ext(header.Filename)
	stagedPath := filepath.Join(constant.UploadStagingDir, stagedName)
	dst, err := os.Create(stagedPath)
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(stagedPath)
		return nil, fmt.Errorf("write staged file: %w", err)
	}

	return &StagedFile{
		FieldName:    field,
		OriginalName: header.Filename,
		Path:         stagedPath,
		MimeType:     mimeType,
	}, nil
}

func cleanupStagedFiles(c *gin.Context) {
	for _, f := range GetStagedFiles(c) {
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			logger.LogWarn(c.Request.Context(), fmt.Sprintf("failed to remove staged file %s: %v", f.Path, err))
		}
	}
}
