package model

// TargetImageRule describes how an operation sources its secondary image.
type TargetImageRule int

const (
	// TargetNone means the operation takes no secondary image.
	TargetNone TargetImageRule = iota
	// TargetRequired means a second uploaded file is mandatory.
	TargetRequired
	// TargetFileOrURL means either a second file or a remote URL field
	// satisfies the requirement.
	TargetFileOrURL
)

// OperationSpec captures the input arity of an operation so the handlers
// can validate uploads uniformly instead of each one re-checking counts.
type OperationSpec struct {
	// Name is the stable operation label returned in responses.
	Name string
	// SavePrefix is the filename prefix for persisted results.
	SavePrefix string
	// RequiresImage marks operations that need at least one uploaded file.
	RequiresImage bool
	// MaxAuxiliaryImages bounds extra face/reference images beyond the first.
	MaxAuxiliaryImages int
	// TargetImage describes the secondary image requirement.
	TargetImage TargetImageRule
}

var (
	OpRemoveBackground = OperationSpec{Name: "background_remover", SavePrefix: "no-bg", RequiresImage: true}
	OpEnhance          = OperationSpec{Name: "enhancer", SavePrefix: "enhanced", RequiresImage: true}
	OpMagicEraser      = OperationSpec{Name: "magic_eraser", SavePrefix: "erased", RequiresImage: true, TargetImage: TargetRequired}
	OpCreateAvatar     = OperationSpec{Name: "avatar_creator", SavePrefix: "avatar-creator", RequiresImage: true, MaxAuxiliaryImages: 3}
	OpTextToImage      = OperationSpec{Name: "text_to_image", SavePrefix: "text-to-image"}
	OpUpscale          = OperationSpec{Name: "upscale", SavePrefix: "upscaled", RequiresImage: true}
	OpStyleTransfer    = OperationSpec{Name: "style_transfer", SavePrefix: "styled", RequiresImage: true}
	OpCreateMockup     = OperationSpec{Name: "mockup", SavePrefix: "mockup", RequiresImage: true}
	OpAiArt            = OperationSpec{Name: "ai_art", SavePrefix: "ai-art", RequiresImage: true, TargetImage: TargetFileOrURL}
)

// OperationNames lists every operation label the API advertises.
func OperationNames() []string {
	return []string{
		OpRemoveBackground.Name,
		OpEnhance.Name,
		OpMagicEraser.Name,
		OpCreateAvatar.Name,
		OpTextToImage.Name,
		OpUpscale.Name,
		OpStyleTransfer.Name,
		OpCreateMockup.Name,
		OpAiArt.Name,
	}
}
