package dto

import "github.com/Brianwan04/PixBackend/types"

// TaskError is the error shape handlers hand to the HTTP layer. LocalError
// marks failures that happened on our side rather than upstream.
type TaskError struct {
	Code       types.ErrorCode `json:"code"`
	Message    string          `json:"message"`
	StatusCode int             `json:"-"`
	LocalError bool            `json:"-"`
	Error      error           `json:"-"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}
