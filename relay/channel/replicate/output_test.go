package replicate

import (
	"encoding/json"
	"testing"

	"github.com/Brianwan04/PixBackend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractImageURLs(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   []string
	}{
		{
			name:   "bare string with delivery host",
			output: `"https://replicate.delivery/pbxt/abc"`,
			want:   []string{"https://replicate.delivery/pbxt/abc"},
		},
		{
			name:   "skips non image strings",
			output: `["notanimage","https://x/pic.jpg"]`,
			want:   []string{"https://x/pic.jpg"},
		},
		{
			name:   "data uri",
			output: `"data:image/png;base64,iVBORw0KGgo="`,
			want:   []string{"data:image/png;base64,iVBORw0KGgo="},
		},
		{
			name:   "extension with query string",
			output: `"https://cdn.example.com/out.jpeg?expires=123"`,
			want:   []string{"https://cdn.example.com/out.jpeg?expires=123"},
		},
		{
			name:   "object with url field",
			output: `{"url":"https://cdn.example.com/img.png"}`,
			want:   []string{"https://cdn.example.com/img.png"},
		},
		{
			name:   "object with nested artifact",
			output: `[{"artifact":{"url":"https://cdn.example.com/a.webp"}}]`,
			want:   []string{"https://cdn.example.com/a.webp"},
		},
		{
			name:   "object with images list",
			output: `{"images":["https://cdn.example.com/a.png","https://cdn.example.com/b.png"]}`,
			want:   []string{"https://cdn.example.com/a.png", "https://cdn.example.com/b.png"},
		},
		{
			name:   "duplicates collapse in first seen order",
			output: `["https://x/a.png","https://x/b.png","https://x/a.png"]`,
			want:   []string{"https://x/a.png", "https://x/b.png"},
		},
		{
			name:   "empty object",
			output: `{}`,
			want:   nil,
		},
		{
			name:   "empty array",
			output: `[]`,
			want:   nil,
		},
		{
			name:   "null",
			output: `null`,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractImageURLs(json.RawMessage(tt.output))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractImageURLPrefersFirstMatch(t *testing.T) {
	url, err := ExtractImageURL(json.RawMessage(`["notanimage","https://x/pic.jpg","https://x/other.png"]`))
	require.NoError(t, err)
	assert.Equal(t, "https://x/pic.jpg", url)
}

func TestExtractImageURLNoImageFound(t *testing.T) {
	for _, output := range []string{`{}`, `[]`, `null`, `"just text"`, `42`} {
		_, err := ExtractImageURL(json.RawMessage(output))
		require.Error(t, err, "output %s", output)
		assert.True(t, types.IsCode(err, types.ErrorCodeNoImageFound), "output %s", output)
	}
}

func TestPredictionErrorMessage(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"boom"`, "boom"},
		{`{"message":"bad input"}`, "bad input"},
		{`{"detail":"not found"}`, "not found"},
		{`null`, ""},
		{``, ""},
	}
	for _, tt := range tests {
		p := &PredictionResponse{Error: json.RawMessage(tt.raw)}
		assert.Equal(t, tt.want, p.ErrorMessage())
	}
}
