package controller

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Brianwan04/PixBackend/common"
	"github.com/Brianwan04/PixBackend/dto"
	"github.com/Brianwan04/PixBackend/logger"
	"github.com/Brianwan04/PixBackend/middleware"
	"github.com/Brianwan04/PixBackend/model"
	"github.com/Brianwan04/PixBackend/relay/channel/replicate"
	"github.com/Brianwan04/PixBackend/service"
	"github.com/Brianwan04/PixBackend/types"
	"github.com/gin-gonic/gin"
)

const defaultAvatarNegativePrompt = "flaws in the eyes, flaws in the face, flaws, lowres, non-HDRi, low quality, worst quality," +
	" artifacts noise, text, watermark, glitch, deformed, mutated, ugly, disfigured, hands, low resolution," +
	" partially rendered objects, deformed or partially rendered eyes, deformed, deformed eyeballs, cross-eyed, blurry"

func formFloat(c *gin.Context, key string, def float64) float64 {
	if v := strings.TrimSpace(c.PostForm(key)); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return def
}

func formInt(c *gin.Context, key string, def int) int {
	if v := strings.TrimSpace(c.PostForm(key)); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func formString(c *gin.Context, key string, def string) string {
	if v := strings.TrimSpace(c.PostForm(key)); v != "" {
		return v
	}
	return def
}

func (ctl *ImageController) prepareRef(ctx context.Context, staged *middleware.StagedFile) (string, error) {
	return service.PrepareImageRef(ctx, staged.Path, staged.MimeType, ctl.Strategies)
}

// runModelWithInlineRetry runs the prediction and, when the upstream
// rejects hosted input URLs, resubmits once with the inline variant of
// the input. The original error is kept when the inline rebuild fails.
func (ctl *ImageController) runModelWithInlineRetry(
	ctx context.Context,
	desc model.Descriptor,
	input map[string]any,
	inline func() (map[string]any, error),
) (*replicate.PredictionResponse, error) {
	prediction, err := ctl.runModel(ctx, desc, input)
	if err == nil || inline == nil || !shouldRetryInline(err) {
		return prediction, err
	}
	logger.LogWarn(ctx, fmt.Sprintf("upstream rejected hosted inputs, retrying inline: %v", err))
	inlineInput, inlineErr := inline()
	if inlineErr != nil {
		return nil, err
	}
	return ctl.runModel(ctx, desc, inlineInput)
}

// MagicEraser removes the masked region from the image. Expects two
// multipart files: image and a white-on-black mask.
func (ctl *ImageController) MagicEraser(c *gin.Context) {
	op := model.OpMagicEraser
	summary := "Object removal failed"
	ctx := c.Request.Context()

	imageFile := middleware.GetStagedFile(c, "image")
	maskFile := middleware.GetStagedFile(c, "mask")
	if imageFile == nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Missing 'image' file (field name: image)"})
		return
	}
	if maskFile == nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Missing 'mask' file (field name: mask). Mask must be white-on-black PNG."})
		return
	}

	imageRef, err := ctl.prepareRef(ctx, imageFile)
	if err != nil {
		ctl.respondError(c, op.Name, summary, err)
		return
	}
	maskRef, err := ctl.prepareRef(ctx, maskFile)
	if err != nil {
		ctl.respondError(c, op.Name, summary, err)
		return
	}

	input := map[string]any{"image": imageRef, "mask": maskRef}
	prediction, err := ctl.runModelWithInlineRetry(ctx, ctl.Catalog.MagicEraser, input, func() (map[string]any, error) {
		inlineImage, err := common.FileToDataURI(imageFile.Path, imageFile.MimeType)
		if err != nil {
			return nil, err
		}
		inlineMask, err := common.FileToDataURI(maskFile.Path, maskFile.MimeType)
		if err != nil {
			return nil, err
		}
		return map[string]any{"image": inlineImage, "mask": inlineMask}, nil
	})
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
		Message:      "Object removed",
		DownloadUrl:  saved.PublicPath,
		Operation:    op.Name,
		PredictionId: prediction.ID,
	})
}

// CreateAvatar generates avatar variants from a main face image plus up
// to three auxiliary face images. Every result image that persists
// successfully is returned; a save failure on one variant does not fail
// the request as long as at least one survives.
func (ctl *ImageController) CreateAvatar(c *gin.Context) {
	op := model.OpCreateAvatar
	summary := "Avatar creation failed"
	ctx := c.Request.Context()

	staged := middleware.GetStagedFiles(c)
	if len(staged) < 1 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "No main face image provided"})
		return
	}
	main := staged[0]
	aux := staged[1:]
	if len(aux) > op.MaxAuxiliaryImages {
		aux = aux[:op.MaxAuxiliaryImages]
	}
	logger.LogInfo(ctx, fmt.Sprintf("[%s] main image %s with %d auxiliary images", op.Name, main.OriginalName, len(aux)))

	buildInput := func(prepare func(*middleware.StagedFile) (string, error)) (map[string]any, error) {
		mainRef, err := prepare(&main)
		if err != nil {
			return nil, err
		}
		input := map[string]any{
			"prompt":          formString(c, "prompt", "a portrait of a person"),
			"cfg_scale":       formFloat(c, "cfg_scale", 1.2),
			"num_steps":       formInt(c, "num_steps", 4),
			"num_samples":     formInt(c, "num_samples", 4),
			"image_width":     formInt(c, "image_width", 1024),
			"image_height":    formInt(c, "image_height", 1024),
			"identity_scale":  formFloat(c, "identity_scale", 0.8),
			"output_quality":  formInt(c, "output_quality", 80),
			"negative_prompt": formString(c, "negative_prompt", defaultAvatarNegativePrompt),
			"output_format":   "webp",
			"mix_identities":  false,
			"generation_mode": "fidelity",
			"main_face_image": mainRef,
		}
		for i := range aux {
			ref, err := prepare(&aux[i])
			if err != nil {
				return nil, err
			}
			input[fmt.Sprintf("auxiliary_face_image%d", i+1)] = ref
		}
		return input, nil
	}

	input, err := buildInput(func(f *middleware.StagedFile) (string, error) {
		return ctl.prepareRef(ctx, f)
	})
	if err != nil {
		ctl.respondError(c, op.Name, summary, err)
		return
	}

	prediction, err := ctl.runModelWithInlineRetry(ctx, ctl.Catalog.AvatarCreator, input, func() (map[string]any, error) {
		return buildInput(func(f *middleware.StagedFile) (string, error) {
			return common.FileToDataURI(f.Path, f.MimeType)
		})
	})
	if err != nil {
		ctl.respondError(c, op.Name, summary, err)
		return
	}

	imageURLs := replicate.ExtractImageURLs(prediction.Output)
	if len(imageURLs) == 0 {
		ctl.respondError(c, op.Name, summary, types.NewError(
			fmt.Errorf("no image urls found in prediction output"), types.ErrorCodeNoImageFound))
		return
	}

	var savedPaths []string
	for i, url := range imageURLs {
		saved, err := service.SaveProcessedImage(ctx, url, fmt.Sprintf("%s-%d", op.SavePrefix, i+1))
		if err != nil {
			logger.LogError(ctx, fmt.Sprintf("[%s] failed to save image %d: %v", op.Name, i+1, err))
			continue
		}
		savedPaths = append(savedPaths, saved.PublicPath)
	}
	if len(savedPaths) == 0 {
		ctl.respondError(c, op.Name, summary, types.NewError(
			fmt.Errorf("failed to save any result images"), types.ErrorCodeDownloadFailed))
		return
	}

	c.JSON(http.StatusOK, dto.OperationResponse{
		Success:      true,
		Message:      "Avatar created successfully",
		AllImages:    savedPaths,
		DownloadUrl:  savedPaths[0],
		Operation:    op.Name,
		PredictionId: prediction.ID,
	})
}

// AiArt morphs a source face toward a target image. The target comes
// either as a second uploaded file or as an image_to_become_url field.
func (ctl *ImageController) AiArt(c *gin.Context) {
	op := model.OpAiArt
	summary := "AI Art generation failed"
	ctx := c.Request.Context()

	staged := middleware.GetStagedFiles(c)
	if len(staged) < 1 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "No source image provided"})
		return
	}
	source := staged[0]

	var target *middleware.StagedFile
	targetURL := strings.TrimSpace(c.PostForm("image_to_become_url"))
	if len(staged) >= 2 {
		target = &staged[1]
	} else if targetURL == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "No target image provided (upload second image or provide image_to_become_url)",
		})
		return
	}

	buildInput := func(prepare func(*middleware.StagedFile) (string, error)) (map[string]any, error) {
		sourceRef, err := prepare(&source)
		if err != nil {
			return nil, err
		}
		targetRef := targetURL
		if target != nil {
			targetRef, err = prepare(target)
			if err != nil {
				return nil, err
			}
		}
		return map[string]any{
			"image":                    sourceRef,
			"image_to_become":          targetRef,
			"prompt":                   formString(c, "prompt", "a person"),
			"prompt_strength":          formFloat(c, "prompt_strength", 2),
			"number_of_images":         formInt(c, "number_of_images", 1),
			"denoising_strength":       formFloat(c, "denoising_strength", 1),
			"instant_id_strength":      formFloat(c, "instant_id_strength", 1),
			"image_to_become_noise":    formFloat(c, "image_to_become_noise", 0.3),
			"control_depth_strength":   formFloat(c, "control_depth_strength", 0.8),
			"image_to_become_strength": formFloat(c, "image_to_become_strength", 0.75),
			"negative_prompt":          formString(c, "negative_prompt", ""),
			"num_steps":                formInt(c, "num_steps", 30),
			"cfg_scale":                formFloat(c, "cfg_scale", 1.5),
		}, nil
	}

	input, err := buildInput(func(f *middleware.StagedFile) (string, error) {
		return ctl.prepareRef(ctx, f)
	})
	if err != nil {
		ctl.respondError(c, op.Name, summary, err)
		return
	}

	prediction, err := ctl.runModelWithInlineRetry(ctx, ctl.Catalog.BecomeImage, input, func() (map[string]any, error) {
		return buildInput(func(f *middleware.StagedFile) (string, error) {
			return common.FileToDataURI(f.Path, f.MimeType)
		})
	})
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
		Message:      "AI Art generated successfully",
		DownloadUrl:  saved.PublicPath,
		Operation:    op.Name,
		PredictionId: prediction.ID,
	})
}
