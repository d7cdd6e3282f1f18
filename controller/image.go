package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Brianwan04/PixBackend/dto"
	"github.com/Brianwan04/PixBackend/logger"
	"github.com/Brianwan04/PixBackend/model"
	"github.com/Brianwan04/PixBackend/relay/channel/replicate"
	"github.com/Brianwan04/PixBackend/service"
	"github.com/Brianwan04/PixBackend/types"
	"github.com/gin-gonic/gin"
)

// ImageController owns the image pipeline: prepare inputs, run the model,
// persist the result, answer with a local download link.
type ImageController struct {
	Catalog    model.Catalog
	Adaptor    *replicate.Adaptor
	Strategies []service.UploadStrategy
}

func NewImageController(adaptor *replicate.Adaptor) *ImageController {
	return &ImageController{
		Catalog: model.DefaultCatalog(),
		Adaptor: adaptor,
		Strategies: []service.UploadStrategy{
			service.RemoteUploadStrategy(adaptor),
			service.LocalHostStrategy(),
			service.InlineDataURIStrategy(),
		},
	}
}

// runModel runs a prediction to completion and rejects every terminal
// status except succeeded.
func (ctl *ImageController) runModel(ctx context.Context, desc model.Descriptor, input map[string]any) (*replicate.PredictionResponse, error) {
	prediction, err := ctl.Adaptor.RunModel(ctx, desc.ID, input)
	if err != nil {
		return nil, err
	}
	if prediction.Status != replicate.StatusSucceeded {
		msg := prediction.ErrorMessage()
		if msg == "" {
			msg = "unknown prediction failure"
		}
		return nil, types.NewError(
			fmt.Errorf("prediction %s ended with status %s: %s", prediction.ID, prediction.Status, msg),
			types.ErrorCodeUpstreamError)
	}
	return prediction, nil
}

// inlineRetryMarkers are upstream complaints that mean the model could
// not fetch a hosted input URL. Resubmitting with inline data URIs is
// the one remediation that reliably helps.
var inlineRetryMarkers = []string{
	"does not support urls",
	"unable to fetch",
	"could not download",
	"failed to download",
	"invalid url",
}

func shouldRetryInline(err error) bool {
	var pe *types.PipelineError
	if !errors.As(err, &pe) || pe.Code != types.ErrorCodeUpstreamError {
		return false
	}
	body := strings.ToLower(pe.Body + " " + pe.Error())
	for _, marker := range inlineRetryMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}

func (ctl *ImageController) respondError(c *gin.Context, operation string, summary string, err error) {
	logger.LogError(c.Request.Context(), fmt.Sprintf("[%s] %v", operation, err))
	taskErr := service.WrapPipelineError(err)
	c.JSON(taskErr.StatusCode, dto.ErrorResponse{
		Error:   summary,
		Message: taskErr.Message,
		Code:    string(taskErr.Code),
	})
}

// GetStyles lists the built-in style presets.
func (ctl *ImageController) GetStyles(c *gin.Context) {
	c.JSON(http.StatusOK, dto.StylesResponse{Success: true, Styles: model.SampleStyles()})
}

// GetOperations lists every operation the API exposes.
func (ctl *ImageController) GetOperations(c *gin.Context) {
	c.JSON(http.StatusOK, dto.OperationsResponse{Operations: model.OperationNames()})
}

// HealthCheck pings the upstream models API and reports reachability.
func (ctl *ImageController) HealthCheck(c *gin.Context) {
	url := ctl.Adaptor.BaseURL + "/v1/models/stability-ai/stable-diffusion"
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, url, nil)
	if err != nil {
		ctl.healthFailure(c, err)
		return
	}
	req.Header.Set("Authorization", "Bearer "+ctl.Adaptor.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ctl.Adaptor.Client.Do(req)
	if err != nil {
		ctl.healthFailure(c, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		ctl.healthFailure(c, fmt.Errorf("upstream status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
		return
	}

	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:    "healthy",
		Service:   "Replicate API",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (ctl *ImageController) healthFailure(c *gin.Context, err error) {
	c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{
		Status:  "unhealthy",
		Service: "Replicate API",
		Error:   err.Error(),
	})
}
