package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/itxrex07/insta-sub000/internal/constants"
	brerrors "github.com/itxrex07/insta-sub000/internal/errors"
	"github.com/itxrex07/insta-sub000/internal/models"
)

// LoadConfig reads the JSON configuration file, applies defaults and env
// overrides, and validates the result.
func LoadConfig(path string) (*models.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg models.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, brerrors.Wrap(err, brerrors.ErrCodeInvalidConfig, "failed to parse config file")
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *models.Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = constants.DefaultServerPort
	}
	if cfg.Retry.InitialBackoffMs == 0 {
		cfg.Retry.InitialBackoffMs = constants.DefaultRetryBackoffMs
	}
	if cfg.Retry.MaxBackoffMs == 0 {
		cfg.Retry.MaxBackoffMs = constants.DefaultMaxBackoffMs
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = constants.DefaultMaxAttempts
	}
	if cfg.Media.MaxSizeMB.Image == 0 {
		cfg.Media.MaxSizeMB.Image = constants.DefaultMaxImageSizeMB
	}
	if cfg.Media.MaxSizeMB.Video == 0 {
		cfg.Media.MaxSizeMB.Video = constants.DefaultMaxVideoSizeMB
	}
	if cfg.Media.MaxSizeMB.Voice == 0 {
		cfg.Media.MaxSizeMB.Voice = constants.DefaultMaxVoiceSizeMB
	}
	if cfg.Media.MaxSizeMB.Document == 0 {
		cfg.Media.MaxSizeMB.Document = constants.DefaultMaxDocumentSizeMB
	}
	if cfg.Telegram.APIBaseURL == "" {
		cfg.Telegram.APIBaseURL = "https://api.telegram.org"
	}
	if cfg.Tracing.SampleRate == 0 {
		cfg.Tracing.SampleRate = 0.1
	}
}

func applyEnvOverrides(cfg *models.Config) {
	if v := os.Getenv("INSTAGRAM_API_BASE_URL"); v != "" {
		cfg.Instagram.APIBaseURL = v
	}
	if v := os.Getenv("TELEGRAM_API_BASE_URL"); v != "" {
		cfg.Telegram.APIBaseURL = v
	}
}

// Validate checks the fields the bridge cannot run without.
func Validate(cfg *models.Config) error {
	if cfg.Database.Path == "" {
		return brerrors.New(brerrors.ErrCodeInvalidConfig, "database.path is required")
	}
	if cfg.Media.StagingDir == "" {
		return brerrors.New(brerrors.ErrCodeInvalidConfig, "media.stagingDir is required")
	}
	if cfg.Instagram.APIBaseURL == "" {
		return brerrors.New(brerrors.ErrCodeInvalidConfig, "instagram.apiBaseUrl is required")
	}
	if cfg.Telegram.ChatID == 0 {
		return brerrors.New(brerrors.ErrCodeInvalidConfig, "telegram.chatId is required")
	}
	if cfg.Tracing.SampleRate < 0 || cfg.Tracing.SampleRate > 1 {
		return brerrors.New(brerrors.ErrCodeInvalidConfig, "tracing.sampleRate must be between 0 and 1")
	}
	return nil
}
