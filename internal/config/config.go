package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines service configuration.
type Config struct {
	HTTPAddr       string        `yaml:"http_addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	JWTSecret      string        `yaml:"jwt_secret"`
	ServiceName    string        `yaml:"service_name"`

	Store     StoreConfig     `yaml:"store"`
	Historian HistorianConfig `yaml:"historian"`
	Report    ReportConfig    `yaml:"report"`
	Log       LogConfig       `yaml:"log"`
}

// StoreConfig locates the report store.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
}

// HistorianConfig locates the alarm historian.
type HistorianConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Schema string `yaml:"schema"`
}

// ReportConfig tunes report content.
type ReportConfig struct {
	Title           string `yaml:"title"`
	LogoPath        string `yaml:"logo_path"`
	Timezone        string `yaml:"timezone"`
	DefaultReviewer string `yaml:"default_reviewer"`
	SkipEmpty       bool   `yaml:"skip_empty"`
	Compress        *bool  `yaml:"compress"`
}

// LogConfig selects log level and encoding.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads defaults, then the optional YAML file named by REPORTS_CONFIG, then env overrides.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:       ":8080",
		RequestTimeout: 60 * time.Second,
		ServiceName:    "bms-reports",
		Store:          StoreConfig{Driver: "sqlite", DSN: "reports.db"},
		Historian:      HistorianConfig{Driver: "sqlserver"},
		Report: ReportConfig{
			Title:           "Alarm Report of S20A BMS System",
			Timezone:        "Local",
			DefaultReviewer: "Supervisor",
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}

	if path := os.Getenv("REPORTS_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.RequestTimeout = getenvDuration("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.JWTSecret = getenvDefault("AUTH_JWT_SECRET", cfg.JWTSecret)
	cfg.Store.Driver = getenvDefault("STORE_DRIVER", cfg.Store.Driver)
	cfg.Store.DSN = getenvDefault("STORE_DSN", getenvDefault("DATABASE_URL", cfg.Store.DSN))
	cfg.Historian.Driver = getenvDefault("HISTORIAN_DRIVER", cfg.Historian.Driver)
	cfg.Historian.DSN = getenvDefault("HISTORIAN_DSN", cfg.Historian.DSN)
	cfg.Historian.Schema = getenvDefault("HISTORIAN_SCHEMA", cfg.Historian.Schema)
	cfg.Report.Title = getenvDefault("REPORT_TITLE", cfg.Report.Title)
	cfg.Report.LogoPath = getenvDefault("REPORT_LOGO_PATH", cfg.Report.LogoPath)
	cfg.Report.Timezone = getenvDefault("REPORT_TIMEZONE", cfg.Report.Timezone)
	cfg.Report.DefaultReviewer = getenvDefault("REPORT_DEFAULT_REVIEWER", cfg.Report.DefaultReviewer)
	cfg.Report.SkipEmpty = getenvBool("REPORT_SKIP_EMPTY", cfg.Report.SkipEmpty)
	cfg.Log.Level = getenvDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getenvDefault("LOG_FORMAT", cfg.Log.Format)

	return cfg, cfg.Validate()
}

// Validate checks required settings.
func (c Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("config: http_addr required"))
	}
	if c.Store.Driver == "" || c.Store.DSN == "" {
		errs = append(errs, errors.New("config: store driver and dsn required"))
	}
	if c.Historian.DSN == "" {
		errs = append(errs, errors.New("config: HISTORIAN_DSN required"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("config: request_timeout must be positive"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Location resolves the report time zone.
func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Report.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", name, err)
	}
	return loc, nil
}

// CompressPDF reports whether rendered PDFs use stream compression.
func (c Config) CompressPDF() bool {
	if c.Report.Compress == nil {
		return true
	}
	return *c.Report.Compress
}

// AuthEnabled reports whether JWT auth is configured.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
