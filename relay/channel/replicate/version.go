package replicate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Brianwan04/PixBackend/types"
	"github.com/tidwall/gjson"
)

// ExtractPinnedVersion returns the version hash of a pinned model id
// ("owner/model:version"), or "" when the id is a bare slug.
func ExtractPinnedVersion(modelID string) string {
	parts := strings.Split(modelID, ":")
	if len(parts) == 2 {
		return parts[1]
	}
	return ""
}

// ResolveVersionID maps a model id to a concrete version id. Pinned ids
// resolve locally; bare slugs query the versions endpoint once and the
// first entry wins. Results are cached for the adaptor's lifetime. The
// lock is not held across the fetch, so concurrent first resolutions of
// the same slug may each query upstream; the last idempotent write wins.
func (a *Adaptor) ResolveVersionID(ctx context.Context, modelID string) (string, error) {
	a.versionMu.Lock()
	if cached, ok := a.versionCache[modelID]; ok {
		a.versionMu.Unlock()
		return cached, nil
	}
	a.versionMu.Unlock()

	if pinned := ExtractPinnedVersion(modelID); pinned != "" {
		a.cacheVersion(modelID, pinned)
		return pinned, nil
	}

	if err := a.checkToken(); err != nil {
		return "", err
	}

	versionsURL := a.BaseURL + "/v1/models/" + url.PathEscape(modelID) + "/versions"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, versionsURL, nil)
	if err != nil {
		return "", types.NewError(err, types.ErrorCodeUpstreamError)
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Client.Do(req)
	if err != nil {
		return "", types.NewError(fmt.Errorf("%s adaptor: list versions for %s: %w", ChannelName, modelID, err), types.ErrorCodeUpstreamError)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", types.NewError(fmt.Errorf("%s adaptor: read versions response: %w", ChannelName, err), types.ErrorCodeUpstreamError)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := upstreamErrorMessage(body)
		return "", types.NewUpstreamError(
			fmt.Errorf("%s adaptor: failed to list versions for %s: %s", ChannelName, modelID, msg),
			resp.StatusCode, string(body))
	}

	versionID := firstVersionID(body)
	if versionID == "" {
		return "", types.NewError(
			fmt.Errorf("%s adaptor: no available versions for model %s, consider pinning a version id", ChannelName, modelID),
			types.ErrorCodeNoVersionAvailable)
	}

	a.cacheVersion(modelID, versionID)
	return versionID, nil
}

func (a *Adaptor) cacheVersion(modelID, versionID string) {
	a.versionMu.Lock()
	a.versionCache[modelID] = versionID
	a.versionMu.Unlock()
}

// firstVersionID probes the shapes the versions endpoint has been seen
// to return: a results list, a versions list, or a bare array.
func firstVersionID(body []byte) string {
	parsed := gjson.ParseBytes(body)
	for _, path := range []string{"results.0.id", "versions.0.id", "0.id"} {
		if v := parsed.Get(path); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	if parsed.IsArray() {
		if arr := parsed.Array(); len(arr) > 0 && arr[0].Type == gjson.String {
			return arr[0].String()
		}
	}
	return ""
}

// upstreamErrorMessage pulls a human-readable message out of an error
// body, falling back to the raw text.
func upstreamErrorMessage(body []byte) string {
	parsed := gjson.ParseBytes(body)
	for _, path := range []string{"error.message", "detail", "error"} {
		if v := parsed.Get(path); v.Exists() && v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return strings.TrimSpace(string(body))
}
