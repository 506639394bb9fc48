// Package config loads and validates examdump configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Scrape  ScrapeConfig  `mapstructure:"scrape"`
	Render  RenderConfig  `mapstructure:"render"`
	Export  ExportConfig  `mapstructure:"export"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ScrapeConfig governs discovery and the parallel fetch pipeline.
type ScrapeConfig struct {
	// BaseURL is a printf template with one %s verb for the provider name.
	BaseURL string `mapstructure:"base_url"`
	// Concurrency caps in-flight rendering sessions during the fetch phase.
	Concurrency int `mapstructure:"concurrency"`
	// ListingFastPath fetches listing pages over plain HTTP first, falling
	// back to a rendered session when the static HTML is incomplete.
	ListingFastPath bool `mapstructure:"listing_fast_path"`
	// ListingTimeoutSeconds bounds each fast-path listing request.
	ListingTimeoutSeconds int `mapstructure:"listing_timeout_seconds"`
	// RPS paces question-page fetches across all workers. Zero disables
	// pacing, leaving concurrency as the only throttle.
	RPS float64 `mapstructure:"rps"`
	// Burst is the pacer's token bucket size.
	Burst int `mapstructure:"burst"`
}

// RenderConfig configures the headless rendering subsystem.
type RenderConfig struct {
	UserAgent         string `mapstructure:"user_agent"`
	NavTimeoutSeconds int    `mapstructure:"nav_timeout_seconds"`
	SettleSeconds     int    `mapstructure:"settle_seconds"`
	// WaitSelector, when set, replaces the fixed settle delay with a
	// poll-until-visible condition on this selector.
	WaitSelector string `mapstructure:"wait_selector"`
	Silent       bool   `mapstructure:"silent"`
}

// ExportConfig sets output locations and formats.
type ExportConfig struct {
	OutputDir  string `mapstructure:"output_dir"`
	WriteText  bool   `mapstructure:"write_text"`
	WriteCards bool   `mapstructure:"write_cards"`
}

// ServerConfig controls the optional ops HTTP surface.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk and environment. path may be empty, in
// which case only defaults and EXAMDUMP_* env vars apply.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("EXAMDUMP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scrape.base_url", "https://www.examtopics.com/discussions/%s/")
	v.SetDefault("scrape.concurrency", 4)
	v.SetDefault("scrape.listing_fast_path", true)
	v.SetDefault("scrape.listing_timeout_seconds", 15)
	v.SetDefault("scrape.rps", 0)
	v.SetDefault("scrape.burst", 1)
	v.SetDefault("render.nav_timeout_seconds", 45)
	v.SetDefault("render.settle_seconds", 5)
	v.SetDefault("render.silent", true)
	v.SetDefault("export.output_dir", "dumps")
	v.SetDefault("export.write_text", true)
	v.SetDefault("export.write_cards", true)
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if !strings.Contains(c.Scrape.BaseURL, "%s") {
		return fmt.Errorf("scrape.base_url must contain a %%s verb for the provider")
	}
	if c.Scrape.Concurrency <= 0 {
		return fmt.Errorf("scrape.concurrency must be > 0")
	}
	if c.Scrape.RPS < 0 {
		return fmt.Errorf("scrape.rps must be >= 0")
	}
	if c.Render.NavTimeoutSeconds <= 0 {
		return fmt.Errorf("render.nav_timeout_seconds must be > 0")
	}
	if c.Render.SettleSeconds < 0 {
		return fmt.Errorf("render.settle_seconds must be >= 0")
	}
	if c.Export.OutputDir == "" {
		return fmt.Errorf("export.output_dir must be set")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when the server is enabled")
	}
	return nil
}

// NavTimeout returns the render navigation timeout as a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Render.NavTimeoutSeconds) * time.Second
}

// SettleDelay returns the post-navigation settle duration.
func (c Config) SettleDelay() time.Duration {
	return time.Duration(c.Render.SettleSeconds) * time.Second
}

// ListingTimeout returns the fast-path listing request timeout.
func (c Config) ListingTimeout() time.Duration {
	return time.Duration(c.Scrape.ListingTimeoutSeconds) * time.Second
}
