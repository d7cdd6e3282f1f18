package model

// Descriptor identifies a hosted model. ID is either a bare slug
// ("owner/model", version resolved at call time) or a pinned
// "owner/model:version" reference.
type Descriptor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Catalog maps each operation to the model that backs it.
type Catalog struct {
	BackgroundRemover Descriptor
	Enhancer          Descriptor
	MagicEraser       Descriptor
	AvatarCreator     Descriptor
	TextToImage       Descriptor
	Upscaler          Descriptor
	StyleTransfer     Descriptor
	MockupGenerator   Descriptor
	BecomeImage       Descriptor
}

// DefaultCatalog returns the production model bindings. Unpinned entries
// resolve to the newest published version on first use.
func DefaultCatalog() Catalog {
	return Catalog{
		BackgroundRemover: Descriptor{ID: "851-labs/background-remover", Name: "Background Remover"},
		Enhancer:          Descriptor{ID: "tencentarc/vqfr", Name: "VQFR Enhancer"},
		MagicEraser: Descriptor{
			ID:   "stability-ai/stable-diffusion-inpainting:95a366c6de1b434f8c9b330b31b6b5b5b0c6a15aa0b12de8ffe033c4908939a5",
			Name: "Magic Eraser",
		},
		AvatarCreator: Descriptor{ID: "bytedance/pulid", Name: "Pulid Avatar"},
		TextToImage:   Descriptor{ID: "bytedance/sdxl-lightning-4step", Name: "SDXL Lightning"},
		Upscaler:      Descriptor{ID: "sczhou/codeformer", Name: "CodeFormer Upscale"},
		StyleTransfer: Descriptor{
			ID:   "stability-ai/stable-diffusion:27b93a2413e7f36cd83da926f3656280b2931564ff050bf9575f1fdf9bcd7478",
			Name: "Style Transfer",
		},
		MockupGenerator: Descriptor{ID: "mia/mockup-placeholder:latest", Name: "Mockup Generator"},
		BecomeImage:     Descriptor{ID: "fofr/become-image", Name: "Become Image"},
	}
}
