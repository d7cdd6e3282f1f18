package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"github.com/Brianwan04/PixBackend/constant"
	"github.com/Brianwan04/PixBackend/middleware"
	"github.com/Brianwan04/PixBackend/model"
	"github.com/Brianwan04/PixBackend/relay/channel/replicate"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newUpstream fakes the prediction API plus a delivery host for result
// images. Predictions succeed immediately with the configured output.
func newUpstream(t *testing.T, output string) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.EscapedPath()
		switch {
		case strings.HasSuffix(path, "/versions"):
			_, _ = w.Write([]byte(`{"results":[{"id":"v-test"}]}`))
		case path == "/v1/files":
			_, _ = fmt.Fprintf(w, `{"urls":{"get":"%s/hosted/input.png"}}`, server.URL)
		case path == "/v1/predictions":
			rendered := strings.ReplaceAll(output, "{{base}}", server.URL)
			_, _ = fmt.Fprintf(w, `{"id":"p-test","status":"succeeded","output":%s}`, rendered)
		case strings.HasSuffix(path, ".png"):
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(bytes.Repeat([]byte{0x89}, 256))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestRouter(t *testing.T, upstream *httptest.Server) *gin.Engine {
	t.Helper()

	origStaging := constant.UploadStagingDir
	origProcessed := constant.ProcessedDir
	origUploads := constant.PublicUploadsDir
	origBase := constant.PublicBaseURL
	constant.UploadStagingDir = t.TempDir()
	constant.ProcessedDir = t.TempDir()
	constant.PublicUploadsDir = t.TempDir()
	constant.PublicBaseURL = ""
	t.Cleanup(func() {
		constant.UploadStagingDir = origStaging
		constant.ProcessedDir = origProcessed
		constant.PublicUploadsDir = origUploads
		constant.PublicBaseURL = origBase
	})

	adaptor := replicate.NewAdaptor(upstream.URL, "test-token", upstream.Client())
	ctl := NewImageController(adaptor)

	engine := gin.New()
	engine.GET("/api/images/operations", ctl.GetOperations)
	engine.GET("/api/images/styles", ctl.GetStyles)
	engine.POST("/api/images/remove-background", middleware.SingleImage("image"), ctl.RemoveBackground)
	engine.POST("/api/images/magic-eraser", middleware.ImageFields("image", "mask"), ctl.MagicEraser)
	engine.POST("/api/images/create-avatar", middleware.AnyImages(4, "main_face_image", "image"), ctl.CreateAvatar)
	engine.POST("/api/images/ai-art", middleware.AnyImages(2, "image", "image_to_become"), ctl.AiArt)
	engine.POST("/api/images/text-to-image", ctl.TextToImage)
	engine.POST("/api/images/style-transfer", middleware.SingleImage("image"), ctl.StyleTransfer)
	return engine
}

func multipartBody(t *testing.T, files map[string][]byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for field, content := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s.png"`, field, field))
		hdr.Set("Content-Type", "image/png")
		part, err := writer.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func doRequest(engine *gin.Engine, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	return recorder
}

func TestGetOperations(t *testing.T) {
	engine := newTestRouter(t, newUpstream(t, `"{{base}}/out.png"`))
	resp := doRequest(engine, http.MethodGet, "/api/images/operations", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)

	var payload struct {
		Operations []string `json:"operations"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.Len(t, payload.Operations, 9)
	assert.Contains(t, payload.Operations, "background_remover")
	assert.Contains(t, payload.Operations, "ai_art")
}

func TestGetStyles(t *testing.T) {
	engine := newTestRouter(t, newUpstream(t, `"{{base}}/out.png"`))
	resp := doRequest(engine, http.MethodGet, "/api/images/styles", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "anime")
	assert.Contains(t, resp.Body.String(), "watercolor")
}

func TestRemoveBackgroundEndToEnd(t *testing.T) {
	engine := newTestRouter(t, newUpstream(t, `"{{base}}/out.png"`))

	body, contentType := multipartBody(t, map[string][]byte{"image": bytes.Repeat([]byte{1}, 300)}, nil)
	resp := doRequest(engine, http.MethodPost, "/api/images/remove-background", body, contentType)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var payload struct {
		Success      bool   `json:"success"`
		DownloadUrl  string `json:"downloadUrl"`
		Operation    string `json:"operation"`
		PredictionId string `json:"prediction_id"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.True(t, payload.Success)
	assert.Equal(t, "background_remover", payload.Operation)
	assert.Equal(t, "p-test", payload.PredictionId)
	assert.True(t, strings.HasPrefix(payload.DownloadUrl, constant.ProcessedURLPrefix+"/no-bg-"))

	// the result was persisted and the staged upload was removed
	processed, err := os.ReadDir(constant.ProcessedDir)
	require.NoError(t, err)
	assert.Len(t, processed, 1)
	staged, err := os.ReadDir(constant.UploadStagingDir)
	require.NoError(t, err)
	assert.Empty(t, staged)
}

func TestRemoveBackgroundRequiresImage(t *testing.T) {
	engine := newTestRouter(t, newUpstream(t, `"{{base}}/out.png"`))
	body, contentType := multipartBody(t, nil, map[string]string{"other": "x"})
	resp := doRequest(engine, http.MethodPost, "/api/images/remove-background", body, contentType)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestMagicEraserRequiresMask(t *testing.T) {
	engine := newTestRouter(t, newUpstream(t, `"{{base}}/out.png"`))
	body, contentType := multipartBody(t, map[string][]byte{"image": bytes.Repeat([]byte{1}, 300)}, nil)
	resp := doRequest(engine, http.MethodPost, "/api/images/magic-eraser", body, contentType)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "mask")
}

func TestMagicEraserEndToEnd(t *testing.T) {
	engine := newTestRouter(t, newUpstream(t, `"{{base}}/erased.png"`))
	body, contentType := multipartBody(t, map[string][]byte{
		"image": bytes.Repeat([]byte{1}, 300),
		"mask":  bytes.Repeat([]byte{2}, 300),
	}, nil)
	resp := doRequest(engine, http.MethodPost, "/api/images/magic-eraser", body, contentType)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), "Object removed")
}

func TestCreateAvatarReturnsAllImages(t *testing.T) {
	engine := newTestRouter(t, newUpstream(t, `["{{base}}/a.png","{{base}}/b.png"]`))
	body, contentType := multipartBody(t, map[string][]byte{
		"main_face_image": bytes.Repeat([]byte{1}, 300),
	}, map[string]string{"prompt": "portrait"})
	resp := doRequest(engine, http.MethodPost, "/api/images/create-avatar", body, contentType)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var payload struct {
		Success     bool     `json:"success"`
		AllImages   []string `json:"allImages"`
		DownloadUrl string   `json:"downloadUrl"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.True(t, payload.Success)
	assert.Len(t, payload.AllImages, 2)
	assert.Equal(t, payload.AllImages[0], payload.DownloadUrl)
}

func TestAiArtRequiresTarget(t *testing.T) {
	engine := newTestRouter(t, newUpstream(t, `"{{base}}/out.png"`))
	body, contentType := multipartBody(t, map[string][]byte{"image": bytes.Repeat([]byte{1}, 300)}, nil)
	resp := doRequest(engine, http.MethodPost, "/api/images/ai-art", body, contentType)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "image_to_become_url")
}

func TestAiArtWithRemoteTarget(t *testing.T) {
	upstream := newUpstream(t, `"{{base}}/art.png"`)
	engine := newTestRouter(t, upstream)
	body, contentType := multipartBody(t,
		map[string][]byte{"image": bytes.Repeat([]byte{1}, 300)},
		map[string]string{"image_to_become_url": upstream.URL + "/target.png"})
	resp := doRequest(engine, http.MethodPost, "/api/images/ai-art", body, contentType)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), "AI Art generated successfully")
}

func TestTextToImageRequiresPrompt(t *testing.T) {
	engine := newTestRouter(t, newUpstream(t, `"{{base}}/out.png"`))
	body := bytes.NewBufferString(`{"width":512}`)
	resp := doRequest(engine, http.MethodPost, "/api/images/text-to-image", body, "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "Prompt required")
}

func TestTextToImageEndToEnd(t *testing.T) {
	engine := newTestRouter(t, newUpstream(t, `["{{base}}/gen.png"]`))
	body := bytes.NewBufferString(`{"prompt":"a red fox"}`)
	resp := doRequest(engine, http.MethodPost, "/api/images/text-to-image", body, "application/json")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var payload struct {
		Success bool   `json:"success"`
		Prompt  string `json:"prompt"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.True(t, payload.Success)
	assert.Equal(t, "a red fox", payload.Prompt)
}

func TestStyleTransferPresetSelectsPrompt(t *testing.T) {
	var prompts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.EscapedPath()
		switch {
		case strings.HasSuffix(path, "/versions"):
			_, _ = w.Write([]byte(`{"results":[{"id":"v-test"}]}`))
		case path == "/v1/predictions":
			var req struct {
				Input map[string]any `json:"input"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			prompt, _ := req.Input["prompt"].(string)
			prompts = append(prompts, prompt)
			_, _ = fmt.Fprintf(w, `{"id":"p-test","status":"succeeded","output":"%s/styled.png"}`, serverURL(r))
		case strings.HasSuffix(path, ".png"):
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(bytes.Repeat([]byte{0x89}, 256))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	engine := newTestRouter(t, server)

	body, contentType := multipartBody(t, map[string][]byte{"image": bytes.Repeat([]byte{1}, 300)},
		map[string]string{"style": "anime"})
	resp := doRequest(engine, http.MethodPost, "/api/images/style-transfer", body, contentType)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	body, contentType = multipartBody(t, map[string][]byte{"image": bytes.Repeat([]byte{1}, 300)},
		map[string]string{"style": "no-such-style"})
	resp = doRequest(engine, http.MethodPost, "/api/images/style-transfer", body, contentType)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	require.Len(t, prompts, 2)
	assert.Equal(t, model.SampleStyles()["anime"].Prompt, prompts[0])
	assert.Equal(t, "artistic style", prompts[1])
}

func serverURL(r *http.Request) string {
	return "http://" + r.Host
}

func TestMagicEraserRetriesInlineWhenHostedInputsRejected(t *testing.T) {
	var submissions []map[string]any
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.EscapedPath()
		switch {
		case strings.HasSuffix(path, "/versions"):
			_, _ = w.Write([]byte(`{"results":[{"id":"v-test"}]}`))
		case path == "/v1/files":
			_, _ = fmt.Fprintf(w, `{"urls":{"get":"%s/hosted/input.png"}}`, server.URL)
		case path == "/v1/predictions":
			var req struct {
				Input map[string]any `json:"input"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			submissions = append(submissions, req.Input)
			if len(submissions) == 1 {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = w.Write([]byte(`{"detail":"unable to fetch image from url"}`))
				return
			}
			_, _ = fmt.Fprintf(w, `{"id":"p-test","status":"succeeded","output":"%s/erased.png"}`, server.URL)
		case strings.HasSuffix(path, ".png"):
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(bytes.Repeat([]byte{0x89}, 256))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	engine := newTestRouter(t, server)
	body, contentType := multipartBody(t, map[string][]byte{
		"image": bytes.Repeat([]byte{1}, 300),
		"mask":  bytes.Repeat([]byte{2}, 300),
	}, nil)
	resp := doRequest(engine, http.MethodPost, "/api/images/magic-eraser", body, contentType)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// first submission carried hosted URLs, the retry inlined both inputs
	require.Len(t, submissions, 2)
	assert.Contains(t, submissions[0]["image"], "/hosted/")
	assert.Contains(t, submissions[0]["mask"], "/hosted/")
	for _, key := range []string{"image", "mask"} {
		value, _ := submissions[1][key].(string)
		assert.True(t, strings.HasPrefix(value, "data:image/"), "second %s submission: %s", key, value)
	}
}

func TestFailedPredictionSurfacesUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.EscapedPath()
		switch {
		case strings.HasSuffix(path, "/versions"):
			_, _ = w.Write([]byte(`{"results":[{"id":"v-test"}]}`))
		case path == "/v1/files":
			w.WriteHeader(http.StatusInternalServerError)
		case path == "/v1/predictions":
			_, _ = w.Write([]byte(`{"id":"p-bad","status":"failed","error":"NSFW content detected"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	engine := newTestRouter(t, server)
	body, contentType := multipartBody(t, map[string][]byte{"image": bytes.Repeat([]byte{1}, 300)}, nil)
	resp := doRequest(engine, http.MethodPost, "/api/images/remove-background", body, contentType)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), "upstream_error")
	assert.Contains(t, resp.Body.String(), "NSFW")
}
