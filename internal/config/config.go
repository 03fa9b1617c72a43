package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all runtime configuration for the marketer bot.
// Everything comes from environment variables, optionally seeded
// from a .env file.
type Config struct {
	BotToken string

	AnthropicAPIKey string
	GeminiAPIKey    string
	SerpAPIKey      string
	TranscribeKey   string

	MetrikaToken     string
	MetrikaCounterID string

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	ClaudeModel string
	GeminiModel string

	MaxFileSizeMB     int
	MaxTokensResponse int
	DefaultLanguage   string

	UploadDir string
	LogFile   string
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "invalid configuration for '" + e.Field + "': " + e.Message
}

// Load builds the configuration from the environment. When envFile is
// non-empty it is loaded first; a missing file is not an error so the
// bot can run from plain environment variables in containers.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			logrus.Debugf("No env file at %s, using process environment", envFile)
		}
	}

	cfg := &Config{
		BotToken:          os.Getenv("BOT_TOKEN"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		SerpAPIKey:        os.Getenv("SERP_API_KEY"),
		TranscribeKey:     os.Getenv("TRANSCRIBE_API_KEY"),
		MetrikaToken:      os.Getenv("YANDEX_METRIKA_TOKEN"),
		MetrikaCounterID:  os.Getenv("YANDEX_METRIKA_COUNTER_ID"),
		DBHost:            envOrDefault("DB_HOST", "localhost"),
		DBName:            envOrDefault("DB_NAME", "marketerbot"),
		DBUser:            envOrDefault("DB_USER", "postgres"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		ClaudeModel:       envOrDefault("CLAUDE_MODEL", "claude-3-opus-20240229"),
		GeminiModel:       envOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		DefaultLanguage:   envOrDefault("DEFAULT_LANGUAGE", "ru"),
		UploadDir:         envOrDefault("UPLOAD_DIR", "temp_files"),
		LogFile:           envOrDefault("LOG_FILE", "marketerbot.log"),
		DBPort:            5432,
		MaxFileSizeMB:     50,
		MaxTokensResponse: 4000,
	}

	if cfg.BotToken == "" {
		return nil, &ConfigError{Field: "bot_token", Message: "BOT_TOKEN must be set"}
	}

	if env := os.Getenv("DB_PORT"); env != "" {
		parsed, err := strconv.Atoi(env)
		if err != nil || parsed <= 0 || parsed > 65535 {
			return nil, &ConfigError{Field: "db_port", Message: "must be a valid port number (1-65535)"}
		}
		cfg.DBPort = parsed
	}

	if env := os.Getenv("MAX_FILE_SIZE_MB"); env != "" {
		parsed, err := strconv.Atoi(env)
		if err != nil || parsed <= 0 {
			return nil, &ConfigError{Field: "max_file_size_mb", Message: "must be a positive integer"}
		}
		cfg.MaxFileSizeMB = parsed
	}

	if env := os.Getenv("MAX_TOKENS_RESPONSE"); env != "" {
		parsed, err := strconv.Atoi(env)
		if err != nil || parsed <= 0 {
			return nil, &ConfigError{Field: "max_tokens_response", Message: "must be a positive integer"}
		}
		cfg.MaxTokensResponse = parsed
	}

	logrus.Infof("Config loaded: db=%s:%d/%s, max_file_size=%dMB, max_tokens=%d, upload_dir=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.MaxFileSizeMB, cfg.MaxTokensResponse, cfg.UploadDir)

	return cfg, nil
}

// MaxFileBytes returns the upload size ceiling in bytes.
func (c *Config) MaxFileBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
