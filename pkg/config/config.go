package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Anthropic AnthropicConfig
	Session   SessionConfig
	Logger    LoggerConfig
}

type ServerConfig struct {
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	MaxUploadSize int64
}

type AnthropicConfig struct {
	// APIKey may be empty at startup: the UI still serves, every extraction
	// attempt then fails with an authentication error.
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int
	Timeout    time.Duration
	MaxRetries int
}

type SessionConfig struct {
	TTL time.Duration
}

type LoggerConfig struct {
	Level string
}

func Load() (*Config, error) {
	// Try to load .env file from current directory or project root
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}
	// No .env file is fine, environment variables still apply (Docker/K8s)

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "60"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "120"))
	maxUploadMB, _ := strconv.Atoi(getEnv("MAX_UPLOAD_MB", "20"))
	maxTokens, _ := strconv.Atoi(getEnv("ANTHROPIC_MAX_TOKENS", "4000"))
	requestTimeout, _ := strconv.Atoi(getEnv("ANTHROPIC_TIMEOUT_SECONDS", "120"))
	maxRetries, _ := strconv.Atoi(getEnv("ANTHROPIC_MAX_RETRIES", "3"))
	sessionTTL, _ := strconv.Atoi(getEnv("SESSION_TTL_MINUTES", "60"))

	return &Config{
		Server: ServerConfig{
			Port:          getEnv("SERVER_PORT", "8080"),
			ReadTimeout:   time.Duration(readTimeout) * time.Second,
			WriteTimeout:  time.Duration(writeTimeout) * time.Second,
			MaxUploadSize: int64(maxUploadMB) * 1024 * 1024,
		},
		Anthropic: AnthropicConfig{
			APIKey:     getEnv("ANTHROPIC_API_KEY", ""),
			BaseURL:    getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
			Model:      getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
			MaxTokens:  maxTokens,
			Timeout:    time.Duration(requestTimeout) * time.Second,
			MaxRetries: maxRetries,
		},
		Session: SessionConfig{
			TTL: time.Duration(sessionTTL) * time.Minute,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
