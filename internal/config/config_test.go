package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "loopback", cfg.Server.Bind)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, 3, cfg.LLM.MaxAttempts)
	assert.Equal(t, 7, cfg.Retention.IdempotencyDays)
	assert.Equal(t, 30, cfg.Retention.SessionDays)
}

func TestLoadMergesWithDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
llm:
  provider: gigachat
  gigachat:
    authKey: abc
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "gigachat", cfg.LLM.Provider)
	assert.Equal(t, "abc", cfg.LLM.GigaChat.AuthKey)
	// Untouched sections keep their defaults.
	assert.Equal(t, "loopback", cfg.Server.Bind)
	assert.Equal(t, "GIGACHAT_API_PERS", cfg.LLM.GigaChat.Scope)
	assert.Equal(t, "llama3", cfg.LLM.Ollama.Model)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a map")
	_, err := Load(path)
	require.Error(t, err)

	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LEXIDRILL_SERVER_PORT", "7070")
	t.Setenv("LEXIDRILL_LOG_LEVEL", "DEBUG")
	t.Setenv("LEXIDRILL_TEACHER_TOKEN", "env-token")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "env-token", cfg.Teacher.Token)
}

func TestExpandSensitiveFields(t *testing.T) {
	t.Setenv("TEST_GIGA_KEY", "secret-key")
	path := writeConfig(t, `
teacher:
  token: ${UNSET_VAR_XYZ}
llm:
  gigachat:
    authKey: ${TEST_GIGA_KEY}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "secret-key", cfg.LLM.GigaChat.AuthKey)
	// Unset variables are left verbatim.
	assert.Equal(t, "${UNSET_VAR_XYZ}", cfg.Teacher.Token)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	assert.Nil(t, Validate(&cfg))

	cfg.Server.Port = 70000
	cfg.Server.Bind = "everywhere"
	cfg.Logging.Level = "verbose"
	cfg.LLM.Provider = "gigachat"
	cfg.LLM.MaxAttempts = 0

	issues := Validate(&cfg)
	paths := make([]string, 0, len(issues))
	for _, i := range issues {
		paths = append(paths, i.Path)
	}
	assert.Contains(t, paths, "server.port")
	assert.Contains(t, paths, "server.bind")
	assert.Contains(t, paths, "logging.level")
	assert.Contains(t, paths, "llm.gigachat.authKey")
	assert.Contains(t, paths, "llm.maxAttempts")
}

func TestValidateCustomBindNeedsHost(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Bind = "custom"

	issues := Validate(&cfg)
	require.Len(t, issues, 1)
	assert.Equal(t, "server.customBindHost", issues[0].Path)
}

func TestResolvePathsHonorsHomeOverride(t *testing.T) {
	base := t.TempDir()
	t.Setenv("LEXIDRILL_HOME", base)

	p, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, base, p.Base)
	assert.Equal(t, filepath.Join(base, "config.yaml"), p.Config)
	assert.Equal(t, filepath.Join(base, "data", "lexidrill.db"), p.DefaultDBPath())

	require.NoError(t, p.EnsureDirs())
	for _, d := range []string{p.Base, p.Data, p.Logs} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
