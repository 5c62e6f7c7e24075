package credential

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ExplicitWins(t *testing.T) {
	t.Setenv(EnvVar, "sk-or-env")

	c, err := Load("sk-or-explicit")
	require.NoError(t, err)
	assert.Equal(t, "sk-or-explicit", c.Value())
	assert.Equal(t, "explicit", c.Source())
}

func TestLoad_FallsBackToEnvironment(t *testing.T) {
	t.Setenv(EnvVar, "sk-or-env")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-or-env", c.Value())
	assert.Equal(t, EnvVar, c.Source())
}

func TestLoad_Missing(t *testing.T) {
	t.Setenv(EnvVar, "")

	_, err := Load("   ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingCredential))

	var missing *MissingCredentialError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"explicit", EnvVar}, missing.Sources)
}

func TestLoad_CustomLookup(t *testing.T) {
	lookup := func(key string) (string, bool) {
		if key == EnvVar {
			return "from-file", true
		}
		return "", false
	}

	c, err := Load("", WithLookup(lookup))
	require.NoError(t, err)
	assert.Equal(t, "from-file", c.Value())
}

func TestCredential_Classification(t *testing.T) {
	absent := New("", "explicit")
	assert.False(t, absent.Present())
	assert.False(t, absent.Usable())
	assert.Equal(t, "<absent>", absent.String())

	placeholder := New(Placeholder, EnvVar)
	assert.True(t, placeholder.Present())
	assert.True(t, placeholder.IsPlaceholder())
	assert.False(t, placeholder.Usable())

	key := New("sk-or-v1-0123456789abcdef", EnvVar)
	assert.True(t, key.Usable())
	assert.Equal(t, "sk-or-v1-0...", key.Masked(10))
	assert.Equal(t, "sk-o...", key.String())
}

func TestCredential_MaskedShortValue(t *testing.T) {
	assert.Equal(t, "***", New("abc", "explicit").Masked(10))
}

func TestLoad_WithEnvVar(t *testing.T) {
	lookup := func(key string) (string, bool) {
		if key == "ANTHROPIC_API_KEY" {
			return "sk-ant-test", true
		}
		return "", false
	}

	c, err := Load("", WithEnvVar("ANTHROPIC_API_KEY"), WithLookup(lookup))
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-test", c.Value())
	assert.Equal(t, "ANTHROPIC_API_KEY", c.Source())

	_, err = Load("", WithEnvVar("MISSING_KEY"), WithLookup(lookup))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set MISSING_KEY")
}
