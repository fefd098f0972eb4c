package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "server.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Server.Port),
		})
	}

	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Server.Bind != "" && !slices.Contains(validBinds, cfg.Server.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "server.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Server.Bind),
		})
	}
	if cfg.Server.Bind == "custom" && cfg.Server.CustomBindHost == "" {
		issues = append(issues, ValidationIssue{
			Path:    "server.customBindHost",
			Message: "required when bind: custom",
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validStyles := []string{"pretty", "json"}
	if cfg.Logging.Style != "" && !slices.Contains(validStyles, cfg.Logging.Style) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.style",
			Message: fmt.Sprintf("must be one of %v, got %q", validStyles, cfg.Logging.Style),
		})
	}

	validProviders := []string{"ollama", "gigachat", "mock"}
	if cfg.LLM.Provider != "" && !slices.Contains(validProviders, cfg.LLM.Provider) {
		issues = append(issues, ValidationIssue{
			Path:    "llm.provider",
			Message: fmt.Sprintf("must be one of %v, got %q", validProviders, cfg.LLM.Provider),
		})
	}
	if cfg.LLM.Provider == "gigachat" && cfg.LLM.GigaChat.AuthKey == "" {
		issues = append(issues, ValidationIssue{
			Path:    "llm.gigachat.authKey",
			Message: "required when llm.provider: gigachat",
		})
	}
	if cfg.LLM.MaxAttempts < 1 || cfg.LLM.MaxAttempts > 10 {
		issues = append(issues, ValidationIssue{
			Path:    "llm.maxAttempts",
			Message: fmt.Sprintf("must be 1-10, got %d", cfg.LLM.MaxAttempts),
		})
	}

	if cfg.Retention.IdempotencyDays < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "retention.idempotencyDays",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.Retention.IdempotencyDays),
		})
	}
	if cfg.Retention.SessionDays < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "retention.sessionDays",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.Retention.SessionDays),
		})
	}

	return issues
}
