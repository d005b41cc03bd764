package constants

// Default retry and polling values
const (
	DefaultRetryBackoffMs = 1000
	DefaultMaxBackoffMs   = 60000
	DefaultMaxAttempts    = 5
	DefaultServerPort     = 8082

	DefaultDatabaseRetryAttempts = 3

	// DefaultMetadataTimeoutSec bounds the participant-metadata lookup during
	// provisioning; a slow lookup falls back to a generic title instead of
	// blocking topic creation.
	DefaultMetadataTimeoutSec = 5
)

// Default media limits
const (
	DefaultMaxImageSizeMB    = 8
	DefaultMaxVideoSizeMB    = 50
	DefaultMaxVoiceSizeMB    = 16
	DefaultMaxDocumentSizeMB = 50
)

// Telegram formatting limits enforced by the translator
const (
	MaxTelegramTextLength    = 4096
	MaxTelegramCaptionLength = 1024
)

// Instagram caps direct messages well below Telegram's limit.
const MaxInstagramTextLength = 1000

// Encryption parameters for at-rest profile encryption
const (
	EncryptionSecretEnvVar = "INSTABRIDGE_ENCRYPTION_SECRET"
	PBKDF2Iterations       = 100000
	EncryptionKeySize      = 32
	NonceSize              = 12
	MinSecretLength        = 16
)
