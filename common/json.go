package common

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
)

func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

const requestBodyKey = "key_request_body"

// GetRequestBody reads and caches the raw request body so it can be
// consumed more than once (validation first, forwarding later).
func GetRequestBody(c *gin.Context) ([]byte, error) {
	if body, exists := c.Get(requestBodyKey); exists {
		return body.([]byte), nil
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}
	_ = c.Request.Body.Close()
	c.Set(requestBodyKey, body)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

// UnmarshalBodyReusable decodes the JSON body without consuming it for
// later readers.
func UnmarshalBodyReusable(c *gin.Context, v any) error {
	body, err := GetRequestBody(c)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}
