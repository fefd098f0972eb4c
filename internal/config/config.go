package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 8080,
			Bind: "loopback",
		},
		Logging: LoggingConfig{
			Level: "info",
			Style: "pretty",
		},
		LLM: LLMConfig{
			Provider:    "ollama",
			MaxAttempts: 3,
			Ollama: OllamaConfig{
				BaseURL: "http://localhost:11434",
				Model:   "llama3",
			},
			GigaChat: GigaChatConfig{
				Scope: "GIGACHAT_API_PERS",
				Model: "GigaChat-2-Pro",
			},
		},
		Retention: RetentionConfig{
			IdempotencyDays: 7,
			SessionDays:     30,
			CleanupHours:    1,
			CleanupInServe:  true,
		},
	}
}
