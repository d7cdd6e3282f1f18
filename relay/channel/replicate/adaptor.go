package replicate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Brianwan04/PixBackend/common"
	"github.com/Brianwan04/PixBackend/logger"
	"github.com/Brianwan04/PixBackend/types"
)

// Adaptor talks to a Replicate-compatible prediction API: file uploads,
// version resolution, prediction submit and poll. One instance is shared
// across requests; the version cache lives on the instance.
type Adaptor struct {
	BaseURL          string
	Token            string
	Client           *http.Client
	WaitSeconds      int
	Backoff          BackoffPolicy
	MaxUploadRetries int

	// injectable for tests
	sleep func(time.Duration)
	now   func() time.Time

	versionMu    sync.Mutex
	versionCache map[string]string
}

func NewAdaptor(baseURL, token string, client *http.Client) *Adaptor {
	if client == nil {
		client = http.DefaultClient
	}
	return &Adaptor{
		BaseURL:          strings.TrimSuffix(baseURL, "/"),
		Token:            token,
		Client:           client,
		WaitSeconds:      60,
		Backoff:          DefaultBackoffPolicy(),
		MaxUploadRetries: 2,
		sleep:            time.Sleep,
		now:              time.Now,
		versionCache:     make(map[string]string),
	}
}

func (a *Adaptor) GetChannelName() string {
	return ChannelName
}

func (a *Adaptor) checkToken() error {
	if a.Token == "" {
		return types.NewError(fmt.Errorf("%s adaptor: api token is not set", ChannelName), types.ErrorCodeConfiguration)
	}
	return nil
}

// RunModel resolves the model's version and runs a prediction to a
// terminal status.
func (a *Adaptor) RunModel(ctx context.Context, modelID string, input map[string]any) (*PredictionResponse, error) {
	if modelID == "" {
		return nil, types.NewError(fmt.Errorf("%s adaptor: model id is missing", ChannelName), types.ErrorCodeConfiguration)
	}
	versionID, err := a.ResolveVersionID(ctx, modelID)
	if err != nil {
		return nil, err
	}
	return a.CreatePrediction(ctx, versionID, input)
}

// CreatePrediction submits the prediction with a Prefer: wait hint and,
// when the response is not already terminal, polls its get URL until it
// is or the backoff deadline passes.
func (a *Adaptor) CreatePrediction(ctx context.Context, versionID string, input map[string]any) (*PredictionResponse, error) {
	if err := a.checkToken(); err != nil {
		return nil, err
	}

	body, err := common.Marshal(PredictionRequest{Version: versionID, Input: input})
	if err != nil {
		return nil, types.NewError(fmt.Errorf("%s adaptor: encode prediction request: %w", ChannelName, err), types.ErrorCodeUpstreamError)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/v1/predictions", bytes.NewReader(body))
	if err != nil {
		return nil, types.NewError(err, types.ErrorCodeUpstreamError)
	}
	req.Header.Set("Authorization", "Token "+a.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", fmt.Sprintf("wait=%d", a.WaitSeconds))

	prediction, err := a.doPredictionRequest(req)
	if err != nil {
		return nil, err
	}
	if prediction.Status == StatusSucceeded {
		return prediction, nil
	}
	if IsTerminalStatus(prediction.Status) {
		return prediction, nil
	}

	pollURL := prediction.Urls.Get
	if pollURL == "" {
		return nil, types.NewError(fmt.Errorf("%s adaptor: no polling url in prediction response", ChannelName), types.ErrorCodeMissingPollUrl)
	}
	return a.pollPrediction(ctx, pollURL)
}

func (a *Adaptor) pollPrediction(ctx context.Context, pollURL string) (*PredictionResponse, error) {
	start := a.now()
	delay := a.Backoff.InitialDelay

	for a.now().Sub(start) < a.Backoff.Deadline {
		a.sleep(delay)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pollURL, nil)
		if err != nil {
			return nil, types.NewError(err, types.ErrorCodeUpstreamError)
		}
		req.Header.Set("Authorization", "Token "+a.Token)
		req.Header.Set("Content-Type", "application/json")

		prediction, err := a.doPredictionRequest(req)
		if err != nil {
			return nil, err
		}
		if IsTerminalStatus(prediction.Status) {
			return prediction, nil
		}
		logger.LogDebug(ctx, fmt.Sprintf("prediction %s still %s, next poll in %s", prediction.ID, prediction.Status, delay))

		delay = a.Backoff.Next(delay)
	}

	return nil, types.NewError(fmt.Errorf("%s adaptor: prediction timed out after %s", ChannelName, a.Backoff.Deadline), types.ErrorCodePredictionTimeout)
}

func (a *Adaptor) doPredictionRequest(req *http.Request) (*PredictionResponse, error) {
	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, types.NewError(fmt.Errorf("%s adaptor: request failed: %w", ChannelName, err), types.ErrorCodeUpstreamError)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewError(fmt.Errorf("%s adaptor: read response body: %w", ChannelName, err), types.ErrorCodeUpstreamError)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := upstreamErrorMessage(respBody)
		return nil, types.NewUpstreamError(
			fmt.Errorf("%s adaptor: api error %d: %s", ChannelName, resp.StatusCode, msg),
			resp.StatusCode, string(respBody))
	}

	// tolerate junk bodies the way the relay always has
	var prediction PredictionResponse
	if err := common.Unmarshal(respBody, &prediction); err != nil {
		return nil, types.NewError(fmt.Errorf("%s adaptor: decode prediction response: %w", ChannelName, err), types.ErrorCodeUpstreamError)
	}
	return &prediction, nil
}
