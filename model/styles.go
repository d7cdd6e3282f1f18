package model

// StylePreset is a named prompt bundle for the style transfer operation.
type StylePreset struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Model       string `json:"model"`
	Prompt      string `json:"prompt"`
}

const styleModelID = "lucataco/sdxl-lightning-4step:727e49a643e999d962a5a7c9b5cdf92ea7f63badacf55a5b4d5613b55b1f7c24"

// SampleStyles returns the built-in style presets keyed by style id.
func SampleStyles() map[string]StylePreset {
	return map[string]StylePreset{
		"anime": {
			Name:        "Anime Style",
			Description: "Transform your photo into anime artwork",
			Model:       styleModelID,
			Prompt:      "anime style, masterpiece, high quality, detailed face, vibrant colors",
		},
		"oil_painting": {
			Name:        "Oil Painting",
			Description: "Classic oil painting style",
			Model:       styleModelID,
			Prompt:      "oil painting, classical art, brush strokes, masterpiece, framed",
		},
		"cyberpunk": {
			Name:        "Cyberpunk",
			Description: "Futuristic neon cyberpunk style",
			Model:       styleModelID,
			Prompt:      "cyberpunk, neon lights, futuristic, sci-fi, detailed, night city",
		},
		"watercolor": {
			Name:        "Watercolor",
			Description: "Beautiful watercolor painting effect",
			Model:       styleModelID,
			Prompt:      "watercolor painting, soft edges, artistic, beautiful colors",
		},
		"pixel_art": {
			Name:        "Pixel Art",
			Description: "Retro pixel art style",
			Model:       styleModelID,
			Prompt:      "pixel art, 8-bit, retro video game style, low resolution",
		},
		"fantasy": {
			Name:        "Fantasy Art",
			Description: "Magical fantasy artwork style",
			Model:       styleModelID,
			Prompt:      "fantasy art, magical, mystical, dragons, castles, detailed",
		},
	}
}
