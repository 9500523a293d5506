package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeBatch = "batch"
	ModeStdio = "stdio"

	// Default values
	DefaultLogLevel          = "info"
	DefaultTimeout           = 30 * time.Second
	DefaultRetryAttempts     = 3
	DefaultRetryDelay        = time.Second
	DefaultRequestsPerSecond = 1.0
	DefaultMaxPDFSize        = 50 * 1024 * 1024 // 50MB
	DefaultFXBaseURL         = "https://api.frankfurter.app"
	DefaultFXTTL             = 12 * time.Hour
	DefaultDatabasePath      = "sgx_filings.db"
	DefaultFeedBaseURL       = "https://api.sgx.com/announcements/v1.1/"
	DefaultFeedPageSize      = 20

	envPrefix = "SGX_FILINGS"
)

// Config holds all configuration for the filing pipeline
type Config struct {
	// Run configuration
	Mode     string // "batch" or "stdio"
	LogLevel string

	// HTTP configuration
	Timeout           time.Duration
	RetryAttempts     uint
	RetryDelay        time.Duration
	RequestsPerSecond float64
	MaxPDFSize        int64 // Maximum PDF size in bytes

	// Exchange rates
	FXBaseURL string
	FXTTL     time.Duration

	// Files
	DatabasePath    string
	OutputPath      string
	PolicyPath      string
	SymbolTablePath string

	// Announcement feed
	FeedBaseURL  string
	FeedToken    string
	FeedPageSize int
	PeriodStart  string // YYYYMMDD
	PeriodEnd    string // YYYYMMDD

	// Positional announcement URLs
	URLs []string

	// Application configuration
	ServerName string
	Version    string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:              ModeBatch,
		LogLevel:          DefaultLogLevel,
		Timeout:           DefaultTimeout,
		RetryAttempts:     DefaultRetryAttempts,
		RetryDelay:        DefaultRetryDelay,
		RequestsPerSecond: DefaultRequestsPerSecond,
		MaxPDFSize:        DefaultMaxPDFSize,
		FXBaseURL:         DefaultFXBaseURL,
		FXTTL:             DefaultFXTTL,
		DatabasePath:      DefaultDatabasePath,
		FeedBaseURL:       DefaultFeedBaseURL,
		FeedPageSize:      DefaultFeedPageSize,
		ServerName:        "sgx-filings",
		Version:           "1.0.0",
	}
}

// LoadFromFlags parses command line flags and returns a configuration.
// A .env file in the working directory is loaded into the environment
// first; variables already set win.
func LoadFromFlags() (*Config, error) {
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	_ = godotenv.Load()

	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)
	cfg.URLs = pflag.Args()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// flagKeys lists every flag, which doubles as the viper key
var flagKeys = []string{
	"mode", "log-level", "timeout", "retry-attempts", "retry-delay", "rps", "max-pdf-size",
	"fx-url", "fx-ttl", "db", "out", "policy", "symbols",
	"feed-url", "feed-token", "page-size", "period-start", "period-end",
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("log-level", cfg.LogLevel)
	viper.SetDefault("timeout", cfg.Timeout)
	viper.SetDefault("retry-attempts", cfg.RetryAttempts)
	viper.SetDefault("retry-delay", cfg.RetryDelay)
	viper.SetDefault("rps", cfg.RequestsPerSecond)
	viper.SetDefault("max-pdf-size", cfg.MaxPDFSize)
	viper.SetDefault("fx-url", cfg.FXBaseURL)
	viper.SetDefault("fx-ttl", cfg.FXTTL)
	viper.SetDefault("db", cfg.DatabasePath)
	viper.SetDefault("feed-url", cfg.FeedBaseURL)
	viper.SetDefault("page-size", cfg.FeedPageSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'batch' to process announcements, 'stdio' for the MCP tool server")
	pflag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Duration("timeout", cfg.Timeout, "HTTP request timeout")
	pflag.Uint("retry-attempts", cfg.RetryAttempts, "Attempts per HTTP request")
	pflag.Duration("retry-delay", cfg.RetryDelay, "Initial delay between HTTP attempts")
	pflag.Float64("rps", cfg.RequestsPerSecond, "Requests per second to SGX (0 for no limit)")
	pflag.Int64("max-pdf-size", cfg.MaxPDFSize, "Maximum PDF size in bytes")
	pflag.String("fx-url", cfg.FXBaseURL, "Exchange rate API base URL")
	pflag.Duration("fx-ttl", cfg.FXTTL, "How long exchange rates are cached")
	pflag.String("db", cfg.DatabasePath, "SQLite database path (empty disables storage)")
	pflag.String("out", cfg.OutputPath, "Write the batch result as JSON to this path")
	pflag.String("policy", cfg.PolicyPath, "YAML extraction policy overriding the built-in one")
	pflag.String("symbols", cfg.SymbolTablePath, "JSON company table used to resolve issuer names")
	pflag.String("feed-url", cfg.FeedBaseURL, "SGX announcements API URL")
	pflag.String("feed-token", cfg.FeedToken, "SGX announcements API authorization token")
	pflag.Int("page-size", cfg.FeedPageSize, "Announcements requested per feed page")
	pflag.String("period-start", cfg.PeriodStart, "First day of the feed period (YYYYMMDD)")
	pflag.String("period-end", cfg.PeriodEnd, "Last day of the feed period (YYYYMMDD)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, key := range flagKeys {
		_ = viper.BindPFlag(key, pflag.Lookup(key))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nSGX Filings - extract shareholder transactions from SGX disclosure filings\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s https://links.sgx.com/1.0.0/corporate-announcements/ABC/123\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --period-start=20241107 --period-end=20241108 --out=filings.json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio --db=filings.db   # MCP tool server\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables (also read from .env):\n")
		for _, key := range flagKeys {
			fmt.Fprintf(os.Stderr, "  %s_%s\n", envPrefix, strings.ToUpper(strings.ReplaceAll(key, "-", "_")))
		}
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.LogLevel = viper.GetString("log-level")
	cfg.Timeout = viper.GetDuration("timeout")
	cfg.RetryAttempts = viper.GetUint("retry-attempts")
	cfg.RetryDelay = viper.GetDuration("retry-delay")
	cfg.RequestsPerSecond = viper.GetFloat64("rps")
	cfg.MaxPDFSize = viper.GetInt64("max-pdf-size")
	cfg.FXBaseURL = viper.GetString("fx-url")
	cfg.FXTTL = viper.GetDuration("fx-ttl")
	cfg.DatabasePath = viper.GetString("db")
	cfg.OutputPath = viper.GetString("out")
	cfg.PolicyPath = viper.GetString("policy")
	cfg.SymbolTablePath = viper.GetString("symbols")
	cfg.FeedBaseURL = viper.GetString("feed-url")
	cfg.FeedToken = viper.GetString("feed-token")
	cfg.FeedPageSize = viper.GetInt("page-size")
	cfg.PeriodStart = viper.GetString("period-start")
	cfg.PeriodEnd = viper.GetString("period-end")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeBatch && c.Mode != ModeStdio {
		return errors.New("mode must be either 'batch' or 'stdio'")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.RetryAttempts == 0 {
		return errors.New("retry attempts must be at least 1")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("requests per second cannot be negative")
	}
	if c.MaxPDFSize <= 0 {
		return errors.New("maximum PDF size must be positive")
	}
	if c.FeedPageSize <= 0 {
		return errors.New("feed page size must be positive")
	}

	for name, v := range map[string]string{"period start": c.PeriodStart, "period end": c.PeriodEnd} {
		if v == "" {
			continue
		}
		if _, err := time.Parse("20060102", v); err != nil {
			return fmt.Errorf("invalid %s %q (expected YYYYMMDD)", name, v)
		}
	}
	if (c.PeriodStart == "") != (c.PeriodEnd == "") {
		return errors.New("period start and period end must be given together")
	}
	if c.PeriodStart != "" && c.PeriodEnd < c.PeriodStart {
		return errors.New("period end is before period start")
	}

	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// IsStdioMode returns true when running as an MCP tool server
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// HasPeriod reports whether a feed period was configured
func (c *Config) HasPeriod() bool {
	return c.PeriodStart != "" && c.PeriodEnd != ""
}

// NewLogger returns a logger for a component. In stdio mode the protocol
// owns stdout, so logs go to stderr and only when debugging.
func (c *Config) NewLogger(component string) *log.Logger {
	var w io.Writer = os.Stderr
	if c.IsStdioMode() && !c.IsDebug() {
		w = io.Discard
	}
	flags := log.LstdFlags
	if c.IsDebug() {
		flags |= log.Lshortfile
	}
	return log.New(w, "["+component+"] ", flags)
}

// String returns a string representation of the configuration. The feed
// token is masked.
func (c *Config) String() string {
	token := ""
	if c.FeedToken != "" {
		token = "***"
	}
	return fmt.Sprintf("Config{Mode: %s, LogLevel: %s, Timeout: %s, RetryAttempts: %d, RPS: %g, MaxPDFSize: %d, "+
		"DatabasePath: %s, OutputPath: %s, PolicyPath: %s, SymbolTablePath: %s, FeedBaseURL: %s, FeedToken: %s, "+
		"Period: %s-%s, URLs: %d}",
		c.Mode, c.LogLevel, c.Timeout, c.RetryAttempts, c.RequestsPerSecond, c.MaxPDFSize,
		c.DatabasePath, c.OutputPath, c.PolicyPath, c.SymbolTablePath, c.FeedBaseURL, token,
		c.PeriodStart, c.PeriodEnd, len(c.URLs))
}
