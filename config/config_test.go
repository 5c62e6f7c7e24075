package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentrouter/credential"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func environ(kv ...string) func(o *Options) {
	return func(o *Options) { o.Environ = func() []string { return kv } }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(WithEnvFile(""), environ())
	require.NoError(t, err)

	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.BaseURL)
	assert.Equal(t, "qwen/qwen-plus-2025-07-28", cfg.Model)
	assert.Equal(t, 10*time.Second, cfg.KeyCheckTimeout)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.Markdown)
	assert.Empty(t, cfg.APIKey)

	path, found := cfg.EnvFile()
	assert.Empty(t, path)
	assert.False(t, found)
}

func TestLoad_MissingEnvFileIsNotFatal(t *testing.T) {
	missing := filepath.Join(t.TempDir(), ".env")

	cfg, err := Load(WithEnvFile(missing), environ("OPENROUTER_API_KEY=sk-env"))
	require.NoError(t, err)

	path, found := cfg.EnvFile()
	assert.Equal(t, missing, path)
	assert.False(t, found)
	assert.Equal(t, "sk-env", cfg.APIKey)
}

func TestLoad_EnvironmentPrecedence(t *testing.T) {
	path := writeEnvFile(t, "OPENROUTER_API_KEY=sk-file\nOPENROUTER_MODEL=file/model\n")

	cfg, err := Load(
		WithEnvFile(path),
		WithPrecedence(PrecedenceEnvironment),
		environ("OPENROUTER_API_KEY=sk-env", "OPENROUTER_MODEL="),
	)
	require.NoError(t, err)

	_, found := cfg.EnvFile()
	assert.True(t, found)
	assert.Equal(t, "sk-env", cfg.APIKey)
	// empty process value is filled from the file
	assert.Equal(t, "file/model", cfg.Model)
}

func TestLoad_FilePrecedence(t *testing.T) {
	path := writeEnvFile(t, "OPENROUTER_API_KEY=sk-file\n")

	cfg, err := Load(
		WithEnvFile(path),
		WithPrecedence(PrecedenceFile),
		environ("OPENROUTER_API_KEY=sk-env"),
	)
	require.NoError(t, err)
	assert.Equal(t, "sk-file", cfg.APIKey)
}

func TestLoad_DoesNotTouchProcessEnvironment(t *testing.T) {
	t.Setenv("OPENROUTER_APP_TITLE", "")
	path := writeEnvFile(t, "OPENROUTER_APP_TITLE=from-file\n")

	cfg, err := Load(WithEnvFile(path))
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Title)
	assert.Empty(t, os.Getenv("OPENROUTER_APP_TITLE"))
}

func TestLoad_InstructionsAndDurations(t *testing.T) {
	cfg, err := Load(WithEnvFile(""), environ(
		"AGENT_INSTRUCTIONS=be brief|answer in Chinese",
		"KEYCHECK_TIMEOUT=3s",
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"be brief", "answer in Chinese"}, cfg.Instructions)
	assert.Equal(t, 3*time.Second, cfg.KeyCheckTimeout)
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load(WithEnvFile(""), environ("KEYCHECK_TIMEOUT=soon"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env config")
}

func TestConfig_Credential(t *testing.T) {
	cfg, err := Load(WithEnvFile(""), environ("OPENROUTER_API_KEY="+credential.Placeholder))
	require.NoError(t, err)

	cred := cfg.Credential()
	assert.True(t, cred.IsPlaceholder())
	assert.False(t, cred.Usable())

	cfg, err = Load(WithEnvFile(""), environ())
	require.NoError(t, err)
	assert.False(t, cfg.Credential().Present())
}

func TestPrecedence_String(t *testing.T) {
	assert.Equal(t, "environment", PrecedenceEnvironment.String())
	assert.Equal(t, "file", PrecedenceFile.String())
}
