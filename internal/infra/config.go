package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv    string
	Port      string
	OutputDir string

	SubjectName string
	NamesFile   string
	NamesSheet  string
	SourceDir   string

	WikipediaBaseURL      string
	WikipediaRequestDelay time.Duration

	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	OpenAITemperature float64
	OpenAIMaxTokens   int

	WavespeedAPIKey  string
	WavespeedBaseURL string

	ImagePollInterval    time.Duration
	ImagePollMaxAttempts int
	VideoPollInterval    time.Duration
	VideoPollBackoff     int
	VideoPollTimeout     time.Duration

	MediaConcurrency    int
	MaxSourceChars      int
	RestrictedTermsFile string

	DatabaseURL      string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		Port:                  getEnv("PORT", "8080"),
		OutputDir:             getEnv("OUTPUT_DIR", "./output"),
		SubjectName:           strings.TrimSpace(os.Getenv("SUBJECT_NAME")),
		NamesFile:             os.Getenv("NAMES_FILE"),
		NamesSheet:            strings.TrimSpace(os.Getenv("NAMES_SHEET")),
		SourceDir:             os.Getenv("SOURCE_DIR"),
		WikipediaBaseURL:      getEnv("WIKIPEDIA_BASE_URL", "https://en.wikipedia.org"),
		WikipediaRequestDelay: time.Millisecond * time.Duration(getEnvInt("WIKIPEDIA_REQUEST_DELAY_MS", 1000)),
		OpenAIAPIKey:          strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL:         getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITemperature:     getEnvFloat("OPENAI_TEMPERATURE", 0.7),
		OpenAIMaxTokens:       getEnvInt("OPENAI_MAX_TOKENS", 4000),
		WavespeedAPIKey:       strings.TrimSpace(os.Getenv("WAVESPEED_API_KEY")),
		WavespeedBaseURL:      getEnv("WAVESPEED_BASE_URL", "https://api.wavespeed.ai/api/v3"),
		ImagePollInterval:     time.Millisecond * time.Duration(getEnvInt("IMAGE_POLL_INTERVAL_MS", 100)),
		ImagePollMaxAttempts:  getEnvInt("IMAGE_POLL_MAX_ATTEMPTS", 100),
		VideoPollInterval:     time.Second * time.Duration(getEnvInt("VIDEO_POLL_INTERVAL_SECONDS", 2)),
		VideoPollBackoff:      getEnvInt("VIDEO_POLL_BACKOFF_AFTER", 5),
		VideoPollTimeout:      time.Second * time.Duration(getEnvInt("VIDEO_POLL_TIMEOUT_SECONDS", 600)),
		MediaConcurrency:      getEnvInt("MEDIA_CONCURRENCY", 1),
		MaxSourceChars:        getEnvInt("MAX_SOURCE_CHARS", 20000),
		RestrictedTermsFile:   os.Getenv("RESTRICTED_TERMS_FILE"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		HTTPReadTimeout:       time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:      time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:       time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:       getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if cfg.MediaConcurrency < 1 {
		cfg.MediaConcurrency = 1
	}
	if cfg.MaxSourceChars <= 0 {
		cfg.MaxSourceChars = 20000
	}

	return cfg, nil
}

// RenderMedia reports whether media jobs can be submitted.
func (c *Config) RenderMedia() bool {
	return c.WavespeedAPIKey != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
