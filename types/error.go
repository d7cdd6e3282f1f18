package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is the stable category label attached to every pipeline failure.
type ErrorCode string

const (
	ErrorCodeConfiguration      ErrorCode = "configuration_error"
	ErrorCodeFileNotAccessible  ErrorCode = "file_not_accessible"
	ErrorCodeUploadFailed       ErrorCode = "upload_failed"
	ErrorCodeNoVersionAvailable ErrorCode = "no_version_available"
	ErrorCodeUpstreamError      ErrorCode = "upstream_error"
	ErrorCodeMissingPollUrl     ErrorCode = "missing_poll_url"
	ErrorCodePredictionTimeout  ErrorCode = "prediction_timeout"
	ErrorCodeNoImageFound       ErrorCode = "no_image_found"
	ErrorCodeInvalidContent     ErrorCode = "invalid_content"
	ErrorCodeDownloadFailed     ErrorCode = "download_failed"
)

// PipelineError carries a taxonomy code and, for upstream failures, the
// HTTP status and a body snippet for diagnostics.
type PipelineError struct {
	Code       ErrorCode
	StatusCode int
	Body       string
	Err        error
}

func (e *PipelineError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (http %d): %v", e.Code, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func NewError(err error, code ErrorCode) *PipelineError {
	return &PipelineError{Code: code, Err: err}
}

// NewUpstreamError records a non-2xx upstream response. The body is kept
// so callers can decide on remediation (e.g. unsupported-input retries).
func NewUpstreamError(err error, statusCode int, body string) *PipelineError {
	return &PipelineError{Code: ErrorCodeUpstreamError, StatusCode: statusCode, Body: body, Err: err}
}

// CodeOf returns the taxonomy code of err, or "" when err carries none.
func CodeOf(err error) ErrorCode {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// HTTPStatus maps a taxonomy code to the status the HTTP layer should
// answer with.
func HTTPStatus(err error) int {
	var pe *PipelineError
	if !errors.As(err, &pe) {
		return http.StatusInternalServerError
	}
	switch pe.Code {
	case ErrorCodeFileNotAccessible:
		return http.StatusBadRequest
	case ErrorCodeConfiguration:
		return http.StatusServiceUnavailable
	case ErrorCodeUpstreamError:
		if pe.StatusCode >= 400 {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	case ErrorCodePredictionTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
