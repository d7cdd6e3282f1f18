package controller

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Brianwan04/PixBackend/common"
	"github.com/Brianwan04/PixBackend/dto"
	"github.com/Brianwan04/PixBackend/logger"
	"github.com/Brianwan04/PixBackend/middleware"
	"github.com/Brianwan04/PixBackend/model"
	"github.com/Brianwan04/PixBackend/relay/channel/replicate"
	"github.com/Brianwan04/PixBackend/service"
	"github.com/gin-gonic/gin"
)

// runInlineImageOp is the shared pipeline for operations that send the
// uploaded image inline as a data URI: stage, run, extract, persist.
func (ctl *ImageController) runInlineImageOp(
	c *gin.Context,
	op model.OperationSpec,
	desc model.Descriptor,
	summary string,
	successMsg string,
	buildInput func(dataURI string) map[string]any,
) {
	staged := middleware.GetStagedFile(c, "image")
	if staged == nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "No image provided"})
		return
	}
	ctx := c.Request.Context()
	logger.LogInfo(ctx, fmt.Sprintf("[%s] processing %s", op.Name, staged.OriginalName))

	dataURI, err := common.FileToDataURI(staged.Path, staged.MimeType)
	if err != nil {
		ctl.respondError(c, op.Name, summary, err)
		return
	}

	prediction, err := ctl.runModel(ctx, desc, buildInput(dataURI))
	if err != nil {
		ctl.respondError(c, op.Name, summary, err)
		return
	}

	resultURL, err := replicate.ExtractImageURL(prediction.Output)
	if err != nil {
		ctl.respondError(c, op.Name, summary, err)
		return
	}

	saved, err := service.SaveProcessedImage(ctx, resultURL, op.SavePrefix)
	if err != nil {
		ctl.respondError(c, op.Name, summary, err)
		return
	}

	c.JSON(http.StatusOK, dto.OperationResponse{
		Success:      true,
		Message:      successMsg,
		DownloadUrl:  saved.PublicPath,
		Operation:    op.Name,
		PredictionId: prediction.ID,
	})
}

// RemoveBackground strips the background and returns a transparent PNG.
func (ctl *ImageController) RemoveBackground(c *gin.Context) {
	ctl.runInlineImageOp(c, model.OpRemoveBackground, ctl.Catalog.BackgroundRemover,
		"Background removal failed", "Background removed",
		func(dataURI string) map[string]any {
			return map[string]any{"image": dataURI, "format": "png"}
		})
}

// EnhanceImage runs face and detail restoration at 2x.
func (ctl *ImageController) EnhanceImage(c *gin.Context) {
	ctl.runInlineImageOp(c, model.OpEnhance, ctl.Catalog.Enhancer,
		"Enhancement failed", "Image enhanced",
		func(dataURI string) map[string]any {
			return map[string]any{"image": dataURI, "scale": 2}
		})
}

// UpscaleImage upscales 4x. The image rides under several common key
// names because upscaler models disagree on the parameter name.
func (ctl *ImageController) UpscaleImage(c *gin.Context) {
	ctl.runInlineImageOp(c, model.OpUpscale, ctl.Catalog.Upscaler,
		"Upscale failed", "Image upscaled",
		func(dataURI string) map[string]any {
			return map[string]any{
				"image":               dataURI,
				"img":                 dataURI,
				"image_url":           dataURI,
				"scale":               4,
				"upscale":             4,
				"face_upsample":       true,
				"background_enhance":  true,
				"codeformer_fidelity": 0.1,
			}
		})
}

// StyleTransfer re-renders the image in a preset or free-form style. A
// recognized "style" form field selects a preset prompt and model.
func (ctl *ImageController) StyleTransfer(c *gin.Context) {
	desc := ctl.Catalog.StyleTransfer
	prompt := "artistic style"
	if styleKey := strings.TrimSpace(c.PostForm("style")); styleKey != "" {
		if preset, ok := model.SampleStyles()[styleKey]; ok {
			prompt = preset.Prompt
			desc = model.Descriptor{ID: preset.Model, Name: preset.Name}
		}
	}
	ctl.runInlineImageOp(c, model.OpStyleTransfer, desc,
		"Style transfer failed", "Style applied",
		func(dataURI string) map[string]any {
			return map[string]any{"image": dataURI, "prompt": prompt}
		})
}

// CreateMockup places the image into a generated scene.
func (ctl *ImageController) CreateMockup(c *gin.Context) {
	bgPrompt := strings.TrimSpace(c.PostForm("bg_prompt"))
	if bgPrompt == "" {
		bgPrompt = "professional"
	}
	ctl.runInlineImageOp(c, model.OpCreateMockup, ctl.Catalog.MockupGenerator,
		"Mockup creation failed", "Mockup created",
		func(dataURI string) map[string]any {
			return map[string]any{"image": dataURI, "bg_prompt": bgPrompt}
		})
}

type textToImageRequest struct {
	Prompt         string `json:"prompt"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	NegativePrompt string `json:"negative_prompt"`
}

// TextToImage generates an image from a prompt, no upload involved.
func (ctl *ImageController) TextToImage(c *gin.Context) {
	op := model.OpTextToImage
	var req textToImageRequest
	if err := common.UnmarshalBodyReusable(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Prompt required"})
		return
	}
	if req.Width <= 0 {
		req.Width = 1024
	}
	if req.Height <= 0 {
		req.Height = 1024
	}
	if req.NegativePrompt == "" {
		req.NegativePrompt = "low quality"
	}

	ctx := c.Request.Context()
	input := map[string]any{
		"prompt":          req.Prompt,
		"width":           req.Width,
		"height":          req.Height,
		"negative_prompt": req.NegativePrompt,
		"num_outputs":     1,
	}

	prediction, err := ctl.runModel(ctx, ctl.Catalog.TextToImage, input)
	if err != nil {
		ctl.respondError(c, op.Name, "Image generation failed", err)
		return
	}
	resultURL, err := replicate.ExtractImageURL(prediction.Output)
	if err != nil {
		ctl.respondError(c, op.Name, "Image generation failed", err)
		return
	}
	saved, err := service.SaveProcessedImage(ctx, resultURL, op.SavePrefix)
	if err != nil {
		ctl.respondError(c, op.Name, "Image generation failed", err)
		return
	}

	c.JSON(http.StatusOK, dto.OperationResponse{
		Success:      true,
		Message:      "Image generated",
		DownloadUrl:  saved.PublicPath,
		Operation:    op.Name,
		Prompt:       req.Prompt,
		PredictionId: prediction.ID,
	})
}
