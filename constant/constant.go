package constant

import (
	"fmt"

	"github.com/Brianwan04/PixBackend/common"
)

// Directory layout. The staging dir belongs to the upload middleware, the
// processed dir to the result persister, the public uploads dir to the
// local-hosting upload fallback.
var (
	UploadStagingDir   = "temp/uploads"
	ProcessedDir       = "public/processed"
	PublicUploadsDir   = "public/uploads"
	ProcessedURLPrefix = "/processed"
	UploadsURLPrefix   = "/uploads"
)

var (
	ReplicateAPIToken string
	ReplicateBaseURL  = "https://api.replicate.com"

	// PublicBaseURL is used to synthesize links for locally hosted files
	// (upload fallback and persister self-check).
	PublicBaseURL = ""

	Host = "127.0.0.1"
	Port = 5000

	// Prefer: wait hint sent on prediction submission, seconds.
	PredictionWaitSeconds = 60
	// Upload retry budget: attempts = retries + 1.
	UploadMaxRetries = 2

	FileRetentionHours     = 1
	CleanupIntervalMinutes = 60
	DisableCleanup         = false

	RateLimitWindowSeconds = 900
	RateLimitMax           = 50

	MaxUploadSizeMB = 50
)

// LoadEnv populates configuration from the environment. Call after
// godotenv has loaded the .env file.
func LoadEnv() {
	ReplicateAPIToken = common.GetEnvString("REPLICATE_API_TOKEN", "")
	if ReplicateAPIToken == "" {
		common.SysLog("Warning: REPLICATE_API_TOKEN is not set.")
	}
	ReplicateBaseURL = common.GetEnvString("REPLICATE_BASE_URL", ReplicateBaseURL)
	PublicBaseURL = common.GetEnvString("PUBLIC_BASE_URL", common.GetEnvString("API_BASE_URL", ""))
	Host = common.GetEnvString("HOST", Host)
	Port = common.GetEnvInt("PORT", Port)
	if PublicBaseURL == "" {
		PublicBaseURL = fmt.Sprintf("http://127.0.0.1:%d", Port)
	}
	PredictionWaitSeconds = common.GetEnvInt("PREDICTION_WAIT_SECONDS", PredictionWaitSeconds)
	UploadMaxRetries = common.GetEnvInt("UPLOAD_MAX_RETRIES", UploadMaxRetries)
	FileRetentionHours = common.GetEnvInt("FILE_RETENTION_HOURS", FileRetentionHours)
	CleanupIntervalMinutes = common.GetEnvInt("CLEANUP_INTERVAL_MINUTES", CleanupIntervalMinutes)
	DisableCleanup = common.GetEnvBool("DISABLE_CLEANUP", DisableCleanup)
	RateLimitWindowSeconds = common.GetEnvInt("RATE_WINDOW_SECONDS", RateLimitWindowSeconds)
	RateLimitMax = common.GetEnvInt("RATE_MAX", RateLimitMax)
	MaxUploadSizeMB = common.GetEnvInt("MAX_UPLOAD_SIZE_MB", MaxUploadSizeMB)
}
