// Package config loads and validates the lexidrill configuration.
package config

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DatabaseConfig  `yaml:"database"`
	LLM       LLMConfig       `yaml:"llm"`
	Teacher   TeacherConfig   `yaml:"teacher"`
	Retention RetentionConfig `yaml:"retention"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Bind           string   `yaml:"bind"` // loopback | lan | custom
	CustomBindHost string   `yaml:"customBindHost,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug | info | warn | error | fatal | silent
	Style string `yaml:"style"` // pretty | json
}

// DatabaseConfig points at the SQLite file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LLMConfig selects and configures the model provider.
type LLMConfig struct {
	Provider    string         `yaml:"provider"` // ollama | gigachat | mock
	MaxAttempts int            `yaml:"maxAttempts"`
	Ollama      OllamaConfig   `yaml:"ollama"`
	GigaChat    GigaChatConfig `yaml:"gigachat"`
}

// OllamaConfig configures the local Ollama provider.
type OllamaConfig struct {
	BaseURL string `yaml:"baseUrl"`
	Model   string `yaml:"model"`
}

// GigaChatConfig configures the GigaChat provider. AuthKey supports ${VAR}
// expansion so the credential can live in the environment.
type GigaChatConfig struct {
	AuthKey  string `yaml:"authKey"`
	Scope    string `yaml:"scope"`
	Model    string `yaml:"model"`
	OAuthURL string `yaml:"oauthUrl,omitempty"`
	APIURL   string `yaml:"apiUrl,omitempty"`
}

// TeacherConfig holds the bearer token that guards assignment creation.
// Supports ${VAR} expansion.
type TeacherConfig struct {
	Token string `yaml:"token"`
}

// RetentionConfig controls the maintenance pass.
type RetentionConfig struct {
	IdempotencyDays int  `yaml:"idempotencyDays"`
	SessionDays     int  `yaml:"sessionDays"`
	CleanupHours    int  `yaml:"cleanupHours"` // interval of the in-process loop
	CleanupInServe  bool `yaml:"cleanupInServe"`
}
