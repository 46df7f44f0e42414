package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/entangle/internal/entangle"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "::entangle::runtime::Address", cfg.Runtime.Address)
	assert.Equal(t, "auto", cfg.Dispatch.Policy)
	assert.False(t, cfg.Diagnostics.WarningsAsErrors)

	rt, err := cfg.EntangleRuntime()
	require.NoError(t, err)
	assert.Equal(t, entangle.DefaultRuntime(), rt)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
runtime:
  address: "xactor::Address"
  await_method: call
dispatch:
  policy: await
diagnostics:
  warnings_as_errors: true
`))
	require.NoError(t, err)

	assert.Equal(t, "xactor::Address", cfg.Runtime.Address)
	assert.Equal(t, "call", cfg.Runtime.AwaitMethod)
	assert.Equal(t, "notify", cfg.Runtime.NotifyMethod, "unset keys keep defaults")
	assert.Equal(t, "::entangle::runtime::Disconnected", cfg.Runtime.Disconnected)
	assert.Equal(t, "await", cfg.Dispatch.Policy)
	assert.True(t, cfg.Diagnostics.WarningsAsErrors)

	rt, err := cfg.EntangleRuntime()
	require.NoError(t, err)
	assert.False(t, rt.Address.Global)
	assert.Equal(t, "xactor::Address", rt.Address.String())
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"unknown policy":   "dispatch:\n  policy: sometimes\n",
		"unknown key":      "runtime:\n  mailbox: x\n",
		"bad address":      "runtime:\n  address: \"a::<b>\"\n",
		"bad method":       "runtime:\n  notify_method: \"tell me\"\n",
		"empty disconnect": "runtime:\n  disconnected: \"\"\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFile)

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(path, false)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("dispatch:\n  policy: await\n"), 0o644))
	cfg, err = Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, "await", cfg.Dispatch.Policy)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvPolicy:           "await",
		EnvWarningsAsErrors: "true",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "await", cfg.Dispatch.Policy)
	assert.True(t, cfg.Diagnostics.WarningsAsErrors)

	env[EnvWarningsAsErrors] = "maybe"
	assert.Error(t, Default().ApplyEnv(lookup))
}

func TestTransformerOptions(t *testing.T) {
	cfg := Default()
	cfg.Dispatch.Policy = "await"
	opts, err := cfg.TransformerOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 2)
}
