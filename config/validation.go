package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var knownProviders = map[string]bool{
	"gemini":   true,
	"openai":   true,
	"deepseek": true,
	"static":   true,
}

var knownLogLevels = map[string]bool{
	"panic": true, "fatal": true, "error": true, "warn": true, "warning": true,
	"info": true, "debug": true, "trace": true,
}

// ValidateConfig checks the loaded configuration and reports every problem at once
func ValidateConfig(cfg *Config) error {
	var errors []string
	add := func(field, msg string) {
		errors = append(errors, ValidationError{Field: field, Message: msg}.Error())
	}

	if port, err := strconv.Atoi(cfg.ServerPort); err != nil || port < 1 || port > 65535 {
		add("SERVER_PORT", fmt.Sprintf("must be a port number, got %q", cfg.ServerPort))
	}
	if !knownProviders[cfg.LLMProvider] {
		add("LLM_PROVIDER", fmt.Sprintf("unknown provider %q (want gemini, openai, deepseek or static)", cfg.LLMProvider))
	}
	if cfg.LLMTemperature < 0 || cfg.LLMTemperature > 1 {
		add("LLM_TEMPERATURE", "must be between 0 and 1")
	}
	if cfg.LLMTimeout <= 0 {
		add("LLM_TIMEOUT", "must be positive")
	}
	if cfg.RateLimitPerHour < 1 {
		add("RATE_LIMIT_PER_HOUR", "must be at least 1")
	}
	if cfg.SessionTTL <= 0 {
		add("SESSION_TTL", "must be positive")
	}
	if !knownLogLevels[strings.ToLower(cfg.LogLevel)] {
		add("LOG_LEVEL", fmt.Sprintf("unknown level %q", cfg.LogLevel))
	}

	// Production must not fall back to the offline provider.
	if cfg.Environment == Production && cfg.LLMProvider == "static" {
		add("LLM_PROVIDER", "static provider is not allowed in production")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}
