package dto

// OperationResponse is the success payload of every image operation.
// AllImages is only set by multi-output operations; DownloadUrl always
// carries the primary result for client compatibility.
type OperationResponse struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	DownloadUrl  string   `json:"downloadUrl"`
	AllImages    []string `json:"allImages,omitempty"`
	Operation    string   `json:"operation"`
	Prompt       string   `json:"prompt,omitempty"`
	PredictionId string   `json:"prediction_id,omitempty"`
}

type OperationsResponse struct {
	Operations []string `json:"operations"`
}

type StylesResponse struct {
	Success bool `json:"success"`
	Styles  any  `json:"styles"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error,omitempty"`
}
