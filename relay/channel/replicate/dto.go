package replicate

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// PredictionRequest is the body for POST /v1/predictions.
type PredictionRequest struct {
	Version string         `json:"version"`
	Input   map[string]any `json:"input"`
}

// PredictionResponse is the prediction object returned on submit and poll.
// Output and Error are kept raw because their shapes vary per model.
type PredictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  json.RawMessage `json:"error"`
	Logs   string          `json:"logs,omitempty"`
	Urls   PredictionUrls  `json:"urls"`
}

type PredictionUrls struct {
	Get    string `json:"get"`
	Cancel string `json:"cancel,omitempty"`
}

// ErrorMessage flattens the prediction error field, which upstream emits
// either as a plain string or as an object with message/detail/code.
func (p *PredictionResponse) ErrorMessage() string {
	if len(p.Error) == 0 || string(p.Error) == "null" {
		return ""
	}
	parsed := gjson.ParseBytes(p.Error)
	if parsed.Type == gjson.String {
		return parsed.String()
	}
	for _, key := range []string{"message", "detail", "code"} {
		if v := parsed.Get(key); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return strings.TrimSpace(string(p.Error))
}
