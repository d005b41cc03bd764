package models

// Config is the process configuration, loaded from JSON with a few env
// overrides for secrets.
type Config struct {
	LogLevel   string           `json:"logLevel"`
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	Instagram  InstagramConfig  `json:"instagram"`
	Telegram   TelegramConfig   `json:"telegram"`
	Media      MediaConfig      `json:"media"`
	Filters    FilterConfig     `json:"filters"`
	Translator TranslatorConfig `json:"translator"`
	Retry      RetryConfig      `json:"retry"`
	Tracing    TracingConfig    `json:"tracing"`
}

type ServerConfig struct {
	Port int `json:"port"`
}

type DatabaseConfig struct {
	Path string `json:"path"`
}

type InstagramConfig struct {
	APIBaseURL string `json:"apiBaseUrl"`
}

type TelegramConfig struct {
	APIBaseURL string `json:"apiBaseUrl"`
	// ChatID is the supergroup (forum) every topic is created in.
	ChatID int64 `json:"chatId"`
}

type MediaSizeLimits struct {
	Image    int `json:"image"`
	Video    int `json:"video"`
	Voice    int `json:"voice"`
	Document int `json:"document"`
}

type MediaConfig struct {
	StagingDir string          `json:"stagingDir"`
	MaxSizeMB  MediaSizeLimits `json:"maxSizeMB"`
}

type FilterConfig struct {
	BlockedSenders []string `json:"blockedSenders"`
	Keywords       []string `json:"keywords"`
}

type TranslatorConfig struct {
	// PrefixSenderOnReplies controls whether Telegram->Instagram replies are
	// prefixed with the operator's identity or sent as raw text.
	PrefixSenderOnReplies bool `json:"prefixSenderOnReplies"`
}

type RetryConfig struct {
	InitialBackoffMs int `json:"initialBackoffMs"`
	MaxBackoffMs     int `json:"maxBackoffMs"`
	MaxAttempts      int `json:"maxAttempts"`
}

type TracingConfig struct {
	Enabled      bool    `json:"enabled"`
	UseStdout    bool    `json:"useStdout"`
	OTLPEndpoint string  `json:"otlpEndpoint"`
	SampleRate   float64 `json:"sampleRate"`
	Environment  string  `json:"environment"`
}
