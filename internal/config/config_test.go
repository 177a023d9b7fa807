package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, os.FileMode(0o666), cfg.Exec.RedirectPerm.FileMode())
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	path := writeConfig(t, `
prompt: "% "
prompt_script: ~/prompt.star
parser:
  max_args: 32
  max_stages: 4
exec:
  redirect_perm: 0644
audit:
  enabled: false
  path: ~/journal.jsonl
log:
  level: debug
`)
	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "% ", cfg.Prompt)
	assert.Equal(t, "/home/tester/prompt.star", cfg.PromptScript)
	assert.Equal(t, 32, cfg.Parser.MaxArgs)
	assert.Equal(t, 4, cfg.Parser.MaxStages)
	assert.Equal(t, Perm(0o644), cfg.Exec.RedirectPerm)
	assert.False(t, cfg.Audit.Enabled)
	assert.Equal(t, "/home/tester/journal.jsonl", cfg.Audit.Path)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Unset fields keep their defaults.
	assert.Equal(t, "/home/tester/.local/share/eliash/history", cfg.HistoryFile)
}

func TestPermForms(t *testing.T) {
	for _, raw := range []string{"0600", "0o600", "600"} {
		t.Run(raw, func(t *testing.T) {
			cfg, err := LoadFrom(writeConfig(t, "exec:\n  redirect_perm: "+raw+"\n"))
			require.NoError(t, err)
			assert.Equal(t, Perm(0o600), cfg.Exec.RedirectPerm)
		})
	}
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]string{
		"max_args zero":    "parser:\n  max_args: 0\n",
		"max_args huge":    "parser:\n  max_args: 1000\n",
		"max_stages one":   "parser:\n  max_stages: 1\n",
		"perm not octal":   "exec:\n  redirect_perm: 0999\n",
		"perm too wide":    "exec:\n  redirect_perm: 01777\n",
		"unknown level":    "log:\n  level: loud\n",
		"audit needs path": "audit:\n  enabled: true\n  path: \"\"\n",
		"bad yaml":         "parser: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestValidationNamesYAMLKey(t *testing.T) {
	_, err := LoadFrom(writeConfig(t, "parser:\n  max_args: 0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_args")
}

func TestConfigPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	assert.Equal(t, "/home/tester/.config/eliash/config.yaml", ConfigPath())
}
