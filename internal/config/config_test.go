package config

import (
	"io"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "batch" {
		t.Errorf("Expected default mode to be 'batch', got '%s'", cfg.Mode)
	}

	if cfg.Version != "1.0.0" {
		t.Errorf("Expected default version to be '1.0.0', got '%s'", cfg.Version)
	}

	if cfg.ServerName != "sgx-filings" {
		t.Errorf("Expected default server name to be 'sgx-filings', got '%s'", cfg.ServerName)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxPDFSize != 50*1024*1024 {
		t.Errorf("Expected default max PDF size to be 50MB, got %d", cfg.MaxPDFSize)
	}

	if cfg.FeedPageSize != 20 {
		t.Errorf("Expected default feed page size to be 20, got %d", cfg.FeedPageSize)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{
			name:    "valid config - batch mode",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "valid config - stdio mode",
			modify:  func(c *Config) { c.Mode = ModeStdio },
			wantErr: false,
		},
		{
			name: "valid period",
			modify: func(c *Config) {
				c.PeriodStart = "20241107"
				c.PeriodEnd = "20241107"
			},
			wantErr: false,
		},
		{
			name:    "no rate limit",
			modify:  func(c *Config) { c.RequestsPerSecond = 0 },
			wantErr: false,
		},
		{
			name:    "invalid mode",
			modify:  func(c *Config) { c.Mode = "server" },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.LogLevel = "trace" },
			wantErr: true,
		},
		{
			name:    "zero timeout",
			modify:  func(c *Config) { c.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "zero retry attempts",
			modify:  func(c *Config) { c.RetryAttempts = 0 },
			wantErr: true,
		},
		{
			name:    "negative rate",
			modify:  func(c *Config) { c.RequestsPerSecond = -1 },
			wantErr: true,
		},
		{
			name:    "zero max PDF size",
			modify:  func(c *Config) { c.MaxPDFSize = 0 },
			wantErr: true,
		},
		{
			name:    "zero page size",
			modify:  func(c *Config) { c.FeedPageSize = 0 },
			wantErr: true,
		},
		{
			name: "period end before start",
			modify: func(c *Config) {
				c.PeriodStart = "20241108"
				c.PeriodEnd = "20241107"
			},
			wantErr: true,
		},
		{
			name:    "period end without start",
			modify:  func(c *Config) { c.PeriodEnd = "20241107" },
			wantErr: true,
		},
		{
			name: "bad period end",
			modify: func(c *Config) {
				c.PeriodStart = "20241107"
				c.PeriodEnd = "tomorrow"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigModes(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.IsStdioMode() {
		t.Error("Expected default config not to be in stdio mode")
	}
	if cfg.IsDebug() {
		t.Error("Expected default config not to be in debug mode")
	}
	if cfg.HasPeriod() {
		t.Error("Expected default config to have no period")
	}

	cfg.Mode = ModeStdio
	cfg.LogLevel = "debug"
	if !cfg.IsStdioMode() || !cfg.IsDebug() {
		t.Error("Expected stdio debug config")
	}
}

func TestConfigString(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FeedToken = "very-secret-token"
	cfg.Timeout = 5 * time.Second
	cfg.URLs = []string{"https://links.sgx.com/a"}

	s := cfg.String()
	for _, want := range []string{"Mode: batch", "Timeout: 5s", "FeedToken: ***", "URLs: 1"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %s, missing %q", s, want)
		}
	}
	if strings.Contains(s, "very-secret-token") {
		t.Errorf("String() leaks the feed token: %s", s)
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name       string
		mode       string
		level      string
		wantPrefix string
		silent     bool
	}{
		{name: "batch", mode: ModeBatch, level: "info", wantPrefix: "[Filing] "},
		{name: "stdio quiet", mode: ModeStdio, level: "info", wantPrefix: "[Filing] ", silent: true},
		{name: "stdio debug", mode: ModeStdio, level: "debug", wantPrefix: "[Filing] "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Mode = tt.mode
			cfg.LogLevel = tt.level

			logger := cfg.NewLogger("Filing")
			if logger.Prefix() != tt.wantPrefix {
				t.Errorf("Prefix() = %q, want %q", logger.Prefix(), tt.wantPrefix)
			}
			silent := logger.Writer() == io.Discard
			if silent != tt.silent {
				t.Errorf("silent = %v, want %v", silent, tt.silent)
			}
		})
	}
}
