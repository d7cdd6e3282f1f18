package service

import (
	"fmt"
	"strings"

	"github.com/Brianwan04/PixBackend/common"
	"github.com/Brianwan04/PixBackend/dto"
	"github.com/Brianwan04/PixBackend/types"
)

// TaskErrorWrapper converts a pipeline error into the shape handlers
// return to clients. Transport-level messages are masked so upstream
// hostnames and tokens never leak into responses.
func TaskErrorWrapper(err error, code types.ErrorCode, statusCode int) *dto.TaskError {
	text := err.Error()
	lowerText := strings.ToLower(text)
	if strings.Contains(lowerText, "post") || strings.Contains(lowerText, "dial") || strings.Contains(lowerText, "http") {
		common.SysLog(fmt.Sprintf("error: %s", text))
		text = common.MaskSensitiveInfo(text)
	}
	return &dto.TaskError{
		Code:       code,
		Message:    text,
		StatusCode: statusCode,
		Error:      err,
	}
}

func TaskErrorWrapperLocal(err error, code types.ErrorCode, statusCode int) *dto.TaskError {
	taskErr := TaskErrorWrapper(err, code, statusCode)
	taskErr.LocalError = true
	return taskErr
}

// WrapPipelineError maps any error from the pipeline onto a TaskError,
// using the taxonomy code and status it already carries when present.
func WrapPipelineError(err error) *dto.TaskError {
	code := types.CodeOf(err)
	if code == "" {
		code = types.ErrorCodeUpstreamError
	}
	return TaskErrorWrapper(err, code, types.HTTPStatus(err))
}
