package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsValidate(t *testing.T) {
	cfg, err := LoadDefault()
	require.NoError(t, err)
	require.Equal(t, 500*time.Millisecond, cfg.TUI.SearchDebounce)
	require.Equal(t, 100, cfg.TUI.ObservationFetchLimit)
}

func TestLoad_FromFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	payload := []byte(`
api:
  base_url: https://crm.example.com
  token: test-token
  account_id: acct-1
tui:
  theme: high-contrast
  search_debounce: 250ms
`)
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "https://crm.example.com", cfg.API.BaseURL)
	require.Equal(t, "acct-1", cfg.API.AccountID)
	require.Equal(t, "high-contrast", cfg.TUI.Theme)
	require.Equal(t, 250*time.Millisecond, cfg.TUI.SearchDebounce)
	// Untouched keys keep defaults.
	require.Equal(t, 15*time.Second, cfg.API.Timeout)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.BaseURL = "not a url"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.TUI.SearchDebounce = time.Millisecond
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.TUI.ObservationFetchLimit = 0
	require.Error(t, cfg.Validate())
}
