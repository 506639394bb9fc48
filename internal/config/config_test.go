package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "https://www.examtopics.com/discussions/%s/", cfg.Scrape.BaseURL)
	require.Equal(t, 4, cfg.Scrape.Concurrency)
	require.True(t, cfg.Scrape.ListingFastPath)
	require.Equal(t, 45*time.Second, cfg.NavTimeout())
	require.Equal(t, 5*time.Second, cfg.SettleDelay())
	require.Equal(t, 15*time.Second, cfg.ListingTimeout())
	require.True(t, cfg.Render.Silent)
	require.Equal(t, "dumps", cfg.Export.OutputDir)
	require.True(t, cfg.Export.WriteText)
	require.True(t, cfg.Export.WriteCards)
	require.False(t, cfg.Server.Enabled)
	require.Equal(t, 8080, cfg.Server.Port)
	require.True(t, cfg.Logging.Development)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "examdump.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scrape:
  concurrency: 12
  listing_fast_path: false
render:
  settle_seconds: 0
  wait_selector: "div.question-body"
server:
  enabled: true
  port: 9090
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 12, cfg.Scrape.Concurrency)
	require.False(t, cfg.Scrape.ListingFastPath)
	require.Zero(t, cfg.SettleDelay())
	require.Equal(t, "div.question-body", cfg.Render.WaitSelector)
	require.True(t, cfg.Server.Enabled)
	require.Equal(t, 9090, cfg.Server.Port)
	// Untouched keys keep their defaults.
	require.Equal(t, 45*time.Second, cfg.NavTimeout())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "base url missing provider verb",
			mutate:  func(c *Config) { c.Scrape.BaseURL = "https://example.com/discussions/" },
			wantErr: "base_url",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Scrape.Concurrency = 0 },
			wantErr: "concurrency",
		},
		{
			name:    "zero nav timeout",
			mutate:  func(c *Config) { c.Render.NavTimeoutSeconds = 0 },
			wantErr: "nav_timeout_seconds",
		},
		{
			name:    "negative settle",
			mutate:  func(c *Config) { c.Render.SettleSeconds = -1 },
			wantErr: "settle_seconds",
		},
		{
			name:    "empty output dir",
			mutate:  func(c *Config) { c.Export.OutputDir = "" },
			wantErr: "output_dir",
		},
		{
			name: "server enabled without port",
			mutate: func(c *Config) {
				c.Server.Enabled = true
				c.Server.Port = 0
			},
			wantErr: "server.port",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
