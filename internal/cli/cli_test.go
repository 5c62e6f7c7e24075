package cli

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentrouter/credential"
	"github.com/hupe1980/agentrouter/internal/testutil"
)

func writeEnvFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd(BuildInfo{Version: "test"})
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func clearKeys(t *testing.T) {
	t.Helper()
	t.Setenv(credential.EnvVar, "")
	t.Setenv("ANTHROPIC_API_KEY", "")
}

func TestCheckConfig_KeyPresent(t *testing.T) {
	clearKeys(t)
	envFile := writeEnvFile(t, "OPENROUTER_API_KEY=sk-or-v1-abcdefghijklmnop")

	out, _, err := run(t, "check-config", "--env-file", envFile)
	require.NoError(t, err)
	assert.Contains(t, out, "[ok] .env file found: "+envFile)
	assert.Contains(t, out, "[ok] API key found: sk-or-v1-a...")
	assert.NotContains(t, out, "abcdefghijklmnop")
}

func TestCheckConfig_Placeholder(t *testing.T) {
	clearKeys(t)
	envFile := writeEnvFile(t, "OPENROUTER_API_KEY="+credential.Placeholder)

	out, _, err := run(t, "check-config", "--env-file", envFile)
	require.NoError(t, err)
	assert.Contains(t, out, "[missing] API key not configured")
	assert.Contains(t, out, "https://openrouter.ai/keys")
}

func TestCheckConfig_MissingEnvFile(t *testing.T) {
	clearKeys(t)

	out, _, err := run(t, "check-config", "--env-file", filepath.Join(t.TempDir(), "nope.env"))
	require.NoError(t, err)
	assert.Contains(t, out, "[missing] .env file not found")
	assert.Contains(t, out, "[missing] API key not configured")
}

func TestCheckConfig_EnvironmentWinsByDefault(t *testing.T) {
	t.Setenv(credential.EnvVar, "sk-proc-0123456789")
	envFile := writeEnvFile(t, "OPENROUTER_API_KEY=sk-file-0123456789")

	out, _, err := run(t, "check-config", "--env-file", envFile)
	require.NoError(t, err)
	assert.Contains(t, out, "[ok] API key found: sk-proc-01...")

	out, _, err = run(t, "check-config", "--env-file", envFile, "--env-file-wins")
	require.NoError(t, err)
	assert.Contains(t, out, "[ok] API key found: sk-file-01...")
}

func TestValidateKey_Valid(t *testing.T) {
	clearKeys(t)
	srv := testutil.NewChatServer(t, testutil.JSON(http.StatusOK, testutil.Completion("hi")))
	envFile := writeEnvFile(t,
		"OPENROUTER_API_KEY=sk-or-v1-0123456789abcdef",
		"OPENROUTER_BASE_URL="+srv.URL,
	)

	out, _, err := run(t, "validate-key", "--env-file", envFile, "--env-file-wins", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Validating API key: sk-or-v1-012345...")
	assert.Contains(t, out, "[ok] API key is valid")
	assert.Contains(t, out, "ready to start")
	assert.Equal(t, 1, srv.Count())
}

func TestValidateKey_Unauthorized(t *testing.T) {
	clearKeys(t)
	srv := testutil.NewChatServer(t, testutil.JSON(http.StatusUnauthorized, testutil.ErrorBody("bad key")))
	envFile := writeEnvFile(t,
		"OPENROUTER_API_KEY=sk-or-v1-0123456789abcdef",
		"OPENROUTER_BASE_URL="+srv.URL,
	)

	out, _, err := run(t, "validate-key", "--env-file", envFile, "--env-file-wins")
	require.NoError(t, err)
	assert.Contains(t, out, "[invalid] API key rejected: bad key")
	assert.Contains(t, out, "How to fix:")
	assert.Contains(t, out, "1. Visit https://openrouter.ai/keys")
}

func TestValidateKey_NotConfigured(t *testing.T) {
	clearKeys(t)
	srv := testutil.NewChatServer(t, testutil.JSON(http.StatusOK, testutil.Completion("hi")))
	envFile := writeEnvFile(t, "OPENROUTER_BASE_URL="+srv.URL)

	out, _, err := run(t, "validate-key", "--env-file", envFile)
	require.NoError(t, err)
	assert.Contains(t, out, "[missing] API key not configured")
	assert.Contains(t, out, "How to fix:")
	assert.Equal(t, 0, srv.Count())
}

func TestValidateKey_InvalidLogLevel(t *testing.T) {
	clearKeys(t)

	_, _, err := run(t, "validate-key", "--env-file", "", "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestChat_StreamsReply(t *testing.T) {
	clearKeys(t)
	srv := testutil.NewChatServer(t, testutil.SSE(
		testutil.Chunk("Hello", "assistant"),
		testutil.EmptyChunk(),
		testutil.Chunk(" world", ""),
	))
	envFile := writeEnvFile(t,
		"OPENROUTER_API_KEY=sk-or-v1-0123456789abcdef",
		"OPENROUTER_BASE_URL="+srv.URL,
		"OPENROUTER_MODEL=test/model",
		"AGENT_NAME=Assistant",
		`AGENT_INSTRUCTIONS="You are a finance expert.|Answer briefly."`,
	)

	out, _, err := run(t, "chat", "--env-file", envFile, "--env-file-wins", "--max-tokens", "9000", "what", "is", "a", "bond?")
	require.NoError(t, err)
	assert.Equal(t, "Hello world\n", out)

	req := srv.LastRequest(t)
	assert.Equal(t, "test/model", req.Body["model"])
	assert.Equal(t, float64(2000), req.Body["max_tokens"])
	assert.Equal(t, "AgentOS Test", req.Header.Get("X-Title"))

	msgs := req.Body["messages"].([]any)
	require.Len(t, msgs, 2)
	system := msgs[0].(map[string]any)
	assert.Equal(t, "system", system["role"])
	assert.Equal(t, fmt.Sprintf("- You are a finance expert.\n- Answer briefly.\n- %s", "Use markdown to format your answers."), system["content"])
	assert.Equal(t, "what is a bond?", msgs[1].(map[string]any)["content"])
}

func TestChat_UpstreamErrorFails(t *testing.T) {
	clearKeys(t)
	srv := testutil.NewChatServer(t, testutil.JSON(http.StatusInternalServerError, testutil.ErrorBody("boom")))
	envFile := writeEnvFile(t,
		"OPENROUTER_API_KEY=sk-or-v1-0123456789abcdef",
		"OPENROUTER_BASE_URL="+srv.URL,
		"LOG_LEVEL=error",
	)

	_, _, err := run(t, "chat", "--env-file", envFile, "--env-file-wins", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestChat_MissingCredential(t *testing.T) {
	clearKeys(t)

	_, _, err := run(t, "chat", "--env-file", "", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, credential.ErrMissingCredential)

	_, _, err = run(t, "chat", "--env-file", "", "--provider", "anthropic", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, credential.ErrMissingCredential)
}

func TestChat_UnknownProvider(t *testing.T) {
	clearKeys(t)

	_, _, err := run(t, "chat", "--env-file", "", "--provider", "mystery", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "mystery"`)
}

func TestBuildInfo_String(t *testing.T) {
	assert.Equal(t, "", BuildInfo{CommitSHA: "abc123"}.String())
	assert.Equal(t, "v1.2.0", BuildInfo{Version: "v1.2.0"}.String())
	assert.Equal(t, "v1.2.0 (abc123)", BuildInfo{Version: "v1.2.0", CommitSHA: "abc123"}.String())
}

func TestRoot_VersionIncludesCommit(t *testing.T) {
	var stdout bytes.Buffer
	root := NewRootCmd(BuildInfo{Version: "v1.2.0", CommitSHA: "abc123"})
	root.SetOut(&stdout)
	root.SetArgs([]string{"--version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, stdout.String(), "v1.2.0 (abc123)")
}
