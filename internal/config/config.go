package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config aggregates every configuration section of the service.
type Config struct {
	Server      ServerConfig
	AI          AIConfig
	Preferences PreferencesConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:      server,
		AI:          ai,
		Preferences: loadPreferencesConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "3002"
	}

	if strings.Contains(port, ":") {
		// Allow ":3002" or "127.0.0.1:3002" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the generation upstream and the prompting bounds.
type AIConfig struct {
	APIKey string
	Model  string
	// Temperature is fixed per call; it never changes inside a retry cycle.
	Temperature float64
	// MaxOutputTokens is the baseline output ceiling for the first attempt.
	MaxOutputTokens int
	// RetryMaxOutputTokens is the raised ceiling used when the first attempt
	// hit a truncation signal.
	RetryMaxOutputTokens int
	// SanitizeThreshold is the reply length beyond which text is treated as a
	// payload dump.
	SanitizeThreshold int
	// MaxHistoryTurns bounds the history suffix rendered into the prompt.
	MaxHistoryTurns int
}

func loadAIConfig() (AIConfig, error) {
	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		return AIConfig{}, errors.New("GEMINI_API_KEY is required")
	}

	temperature, err := parseFloatEnv("GEMINI_TEMPERATURE", 0.6)
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseIntEnv("GEMINI_MAX_OUTPUT_TOKENS", 1024)
	if err != nil {
		return AIConfig{}, err
	}

	retryTokens, err := parseIntEnv("GEMINI_RETRY_MAX_OUTPUT_TOKENS", 2048)
	if err != nil {
		return AIConfig{}, err
	}

	threshold, err := parseIntEnv("GEMINI_SANITIZE_THRESHOLD", 16000)
	if err != nil {
		return AIConfig{}, err
	}

	historyTurns, err := parseIntEnv("MAX_HISTORY_TURNS", 8)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:               apiKey,
		Model:                getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		Temperature:          temperature,
		MaxOutputTokens:      maxTokens,
		RetryMaxOutputTokens: retryTokens,
		SanitizeThreshold:    threshold,
		MaxHistoryTurns:      historyTurns,
	}, nil
}

// PreferencesConfig describes the catalog backend that serves preference
// lookups.
type PreferencesConfig struct {
	BaseURL string
}

func loadPreferencesConfig() PreferencesConfig {
	return PreferencesConfig{
		BaseURL: getEnvOrDefault("PREFERENCES_BASE_URL", "http://localhost:3001"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
