package replicate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Brianwan04/PixBackend/types"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

var imageExtRegex = regexp.MustCompile(`(?i)\.(png|jpe?g|webp|gif|bmp|svg)(\?.*)?$`)

// objectURLKeys are the fields a model output object is probed for, in
// preference order.
var objectURLKeys = []string{"url", "artifact.url", "download_url", "uri", "image"}

// collectionKeys are object fields that may hold nested outputs.
var collectionKeys = []string{"url", "download_url", "artifact", "image", "images", "artifacts", "files"}

// looksLikeImageURL applies the acceptance heuristics: inline image data,
// an image file extension, or the known delivery host.
func looksLikeImageURL(candidate string) bool {
	if candidate == "" {
		return false
	}
	if strings.HasPrefix(candidate, "data:image/") {
		return true
	}
	if imageExtRegex.MatchString(candidate) {
		return true
	}
	return strings.Contains(candidate, "replicate.delivery")
}

func extractFromValue(value gjson.Result) string {
	switch value.Type {
	case gjson.String:
		if looksLikeImageURL(value.String()) {
			return value.String()
		}
	case gjson.JSON:
		if value.IsObject() {
			for _, key := range objectURLKeys {
				candidate := value.Get(key)
				if candidate.Type == gjson.String && looksLikeImageURL(candidate.String()) {
					return candidate.String()
				}
			}
		}
	}
	return ""
}

// ExtractImageURLs walks a raw prediction output and returns every value
// that plausibly references an image, in first-seen order without
// duplicates. Output shapes vary wildly across models, so this probes
// strings, arrays, and the usual object fields.
func ExtractImageURLs(output json.RawMessage) []string {
	if len(output) == 0 {
		return nil
	}
	parsed := gjson.ParseBytes(output)
	var results []string

	switch {
	case parsed.IsArray():
		for _, item := range parsed.Array() {
			if v := extractFromValue(item); v != "" {
				results = append(results, v)
			}
		}
		if len(results) == 0 {
			// second pass for arrays of objects carrying nested lists
			for _, item := range parsed.Array() {
				if !item.IsObject() {
					continue
				}
				results = append(results, extractFromCollections(item)...)
			}
		}
	case parsed.IsObject():
		results = append(results, extractFromCollections(parsed)...)
		if v := extractFromValue(parsed); v != "" {
			results = append(results, v)
		}
	case parsed.Type == gjson.String:
		if v := extractFromValue(parsed); v != "" {
			results = append(results, v)
		}
	}

	return lo.Uniq(results)
}

func extractFromCollections(obj gjson.Result) []string {
	var results []string
	for _, key := range collectionKeys {
		candidate := obj.Get(key)
		if !candidate.Exists() {
			continue
		}
		if candidate.IsArray() {
			for _, item := range candidate.Array() {
				if v := extractFromValue(item); v != "" {
					results = append(results, v)
				}
			}
		} else if v := extractFromValue(candidate); v != "" {
			results = append(results, v)
		}
	}
	return results
}

// ExtractImageURL returns the first image reference in the output, or a
// no-image error when the heuristics match nothing.
func ExtractImageURL(output json.RawMessage) (string, error) {
	urls := ExtractImageURLs(output)
	if len(urls) == 0 {
		snippet := string(output)
		if len(snippet) > 300 {
			snippet = snippet[:300]
		}
		return "", types.NewError(
			fmt.Errorf("%s adaptor: no image url found in prediction output: %s", ChannelName, snippet),
			types.ErrorCodeNoImageFound)
	}
	return urls[0], nil
}
