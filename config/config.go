package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerPort string
	ServerHost string

	// LLM configuration
	LLMProvider    string
	LLMModel       string
	LLMModels      []string
	LLMBaseURL     string
	LLMAPIKey      string
	LLMTemperature float64
	LLMTimeout     time.Duration

	// Redis configuration, used for rate limiting only
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	RateLimitPerHour   int
	SessionTTL         time.Duration
	CORSAllowedOrigins []string
	LogLevel           string
}

// Defaults
const (
	DefaultServerHost     = "0.0.0.0"
	DefaultServerPort     = "8080"
	DefaultLLMProvider    = "gemini"
	DefaultLLMTemperature = 0.6
	DefaultLLMTimeout     = 60 * time.Second
	DefaultRateLimit      = 30
	DefaultSessionTTL     = 2 * time.Hour
	DefaultCORSOrigin     = "http://localhost:5173"
	DefaultLogLevel       = "info"
)

// providerKeyEnv maps each provider to its conventional API key variable.
var providerKeyEnv = map[string]string{
	"gemini":   "GEMINI_API_KEY",
	"openai":   "OPENAI_API_KEY",
	"deepseek": "DEEPSEEK_API_KEY",
}

// LoadConfig creates a new Config instance with values from environment variables or secrets.
// A missing LLM API key is not an error here: the generator reports it on first use.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Environment:        GetEnvironment(),
		ServerHost:         getString("SERVER_HOST", "server_host", DefaultServerHost),
		ServerPort:         getString("SERVER_PORT", "server_port", DefaultServerPort),
		LLMProvider:        strings.ToLower(getString("LLM_PROVIDER", "llm_provider", DefaultLLMProvider)),
		LLMModel:           getString("LLM_MODEL", "llm_model", ""),
		LLMModels:          splitList(getString("LLM_MODELS", "llm_models", "")),
		LLMBaseURL:         getString("LLM_BASE_URL", "llm_base_url", ""),
		RedisURL:           getString("REDIS_URL", "redis_url", ""),
		RedisHost:          getString("REDIS_HOST", "redis_host", ""),
		RedisPort:          getString("REDIS_PORT", "redis_port", "6379"),
		RedisPassword:      getString("REDIS_PASSWORD", "redis_password", ""),
		CORSAllowedOrigins: splitList(getString("CORS_ALLOWED_ORIGINS", "", DefaultCORSOrigin)),
		LogLevel:           getString("LOG_LEVEL", "", DefaultLogLevel),
	}

	var errs []string
	var err error
	if cfg.LLMTemperature, err = getFloat("LLM_TEMPERATURE", DefaultLLMTemperature); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.LLMTimeout, err = getDuration("LLM_TIMEOUT", DefaultLLMTimeout); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.RateLimitPerHour, err = getInt("RATE_LIMIT_PER_HOUR", DefaultRateLimit); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", DefaultSessionTTL); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load configuration:\n%s", strings.Join(errs, "\n"))
	}

	apiKey, err := resolveAPIKey(cfg.LLMProvider)
	if err != nil {
		return nil, err
	}
	cfg.LLMAPIKey = apiKey

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// HasLLMCredential reports whether an API key was found.
func (c *Config) HasLLMCredential() bool {
	return c.LLMAPIKey != ""
}

// RedisEnabled reports whether Redis was configured at all.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// resolveAPIKey looks for the credential in LLM_API_KEY, the provider's own variable,
// a *_FILE variable pointing at a key file, and finally the llm_api_key Docker secret.
func resolveAPIKey(provider string) (string, error) {
	envNames := []string{"LLM_API_KEY"}
	if name, ok := providerKeyEnv[provider]; ok {
		envNames = append(envNames, name)
	}

	for _, name := range envNames {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v, nil
		}
	}
	for _, name := range envNames {
		path := os.Getenv(name + "_FILE")
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read API key file %s: %w", path, err)
		}
		if key := strings.TrimSpace(string(data)); key != "" {
			return key, nil
		}
	}
	return readSecret("llm_api_key"), nil
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

// getString prefers the environment variable, then the Docker secret, then the default.
func getString(envName, secretName, def string) string {
	if v := strings.TrimSpace(os.Getenv(envName)); v != "" {
		return v
	}
	if secretName != "" {
		if v := readSecret(secretName); v != "" {
			return v
		}
	}
	return def
}

func getInt(name string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, v)
	}
	return n, nil
}

func getFloat(name string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", name, v)
	}
	return f, nil
}

func getDuration(name string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 30s, got %q", name, v)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
