// Package config holds the harness configuration and its viper bindings.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	instance *Config
	mu       sync.RWMutex
)

// Built-in fallbacks used when no configuration source is readable.
const (
	DefaultBaseURL  = "http://localhost:3000"
	DefaultAPIURL   = "http://localhost:3000/api"
	DefaultUsername = "admin"
	DefaultPassword = "admin123"
)

// Config is the root configuration structure for the harness.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	Target   TargetConfig   `mapstructure:"target"`
	UI       UIConfig       `mapstructure:"ui"`
	Report   ReportConfig   `mapstructure:"report"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	DemoApp  DemoAppConfig  `mapstructure:"demoapp"`
}

// ColorConfig defines the color settings for different log levels.
// These are used for console output to make logs more readable.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" json:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" json:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" json:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" json:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" json:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" json:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" json:"fatal" yaml:"fatal"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" json:"level" yaml:"level"`
	Format      string      `mapstructure:"format" json:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" json:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" json:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" json:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" json:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" json:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" json:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" json:"colors" yaml:"colors"`
}

// BrowserConfig holds the settings applied when a browser session is created.
type BrowserConfig struct {
	// Family is one of chrome, firefox or edge.
	Family   string `mapstructure:"family"`
	Headless bool   `mapstructure:"headless"`
	// ElementTimeout is the default budget for a single explicit wait.
	ElementTimeout time.Duration `mapstructure:"element_timeout"`
	// PageLoadTimeout bounds a navigation. It must exceed ElementTimeout.
	PageLoadTimeout time.Duration `mapstructure:"page_load_timeout"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	WindowWidth     int           `mapstructure:"window_width"`
	WindowHeight    int           `mapstructure:"window_height"`
	// ExecPath overrides the browser executable (chrome and edge only).
	ExecPath string `mapstructure:"exec_path"`
	// WebDriverURL is the geckodriver or selenium endpoint used for firefox.
	WebDriverURL string   `mapstructure:"webdriver_url"`
	Args         []string `mapstructure:"args"`
	Debug        bool     `mapstructure:"debug"`
}

// TargetConfig describes the application under test.
type TargetConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	APIURL   string `mapstructure:"api_url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// WaitReachable bounds the readiness probe run before a suite. Zero skips it.
	WaitReachable time.Duration `mapstructure:"wait_reachable"`
}

// UIConfig holds timing knobs for UI behaviour that has no observable condition.
type UIConfig struct {
	// Debounce is the bounded pause after a blur, while the page's validation debounce runs.
	Debounce time.Duration `mapstructure:"debounce"`
}

// ReportConfig controls where run artifacts are written.
type ReportConfig struct {
	Dir         string   `mapstructure:"dir"`
	Formats     []string `mapstructure:"formats"`
	Screenshots bool     `mapstructure:"screenshots"`
	Features    []string `mapstructure:"features"`
	Tags        string   `mapstructure:"tags"`
}

// DemoUser is an account known to the bundled login application.
type DemoUser struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Email    string `mapstructure:"email"`
	Role     string `mapstructure:"role"`
}

// PostgresConfig holds settings for the optional results history database.
type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

// DemoAppConfig configures the bundled login application.
type DemoAppConfig struct {
	Addr  string     `mapstructure:"addr"`
	Users []DemoUser `mapstructure:"users"`
	// ValidationDelay simulates a debounced client side validation.
	ValidationDelay time.Duration `mapstructure:"validation_delay"`
}

// SetDefaults registers the built-in defaults so the harness runs without a config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "logintest")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	v.SetDefault("browser.family", "chrome")
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.element_timeout", 10*time.Second)
	v.SetDefault("browser.page_load_timeout", 30*time.Second)
	v.SetDefault("browser.poll_interval", 100*time.Millisecond)
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("browser.webdriver_url", "http://localhost:4444")

	v.SetDefault("target.base_url", DefaultBaseURL)
	v.SetDefault("target.api_url", DefaultAPIURL)
	v.SetDefault("target.username", DefaultUsername)
	v.SetDefault("target.password", DefaultPassword)
	v.SetDefault("target.wait_reachable", 15*time.Second)

	v.SetDefault("ui.debounce", 300*time.Millisecond)

	v.SetDefault("report.dir", "target")
	v.SetDefault("report.formats", []string{"pretty", "cucumber", "junit"})
	v.SetDefault("report.screenshots", true)
	v.SetDefault("report.features", []string{"features"})

	v.SetDefault("demoapp.addr", ":3000")
	// A slice, not a map: viper lower-cases map keys and usernames are case sensitive.
	v.SetDefault("demoapp.users", []DemoUser{
		{Username: DefaultUsername, Password: DefaultPassword, Email: "admin@example.com", Role: "Administrator"},
		{Username: "validUser", Password: "ValidPass123", Email: "valid.user@example.com", Role: "User"},
		{Username: "testuser", Password: "test1234", Email: "test@example.com", Role: "User"},
		{Username: "john.doe", Password: "john@123", Email: "john.doe@example.com", Role: "User"},
	})
	v.SetDefault("demoapp.validation_delay", 200*time.Millisecond)
}

// Default returns a fully defaulted configuration.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// Defaults are static and always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	if c.Browser.ElementTimeout <= 0 {
		errs = append(errs, errors.New("browser.element_timeout must be positive"))
	}
	if c.Browser.PageLoadTimeout <= c.Browser.ElementTimeout {
		errs = append(errs, errors.New("browser.page_load_timeout must be larger than browser.element_timeout"))
	}
	if c.Browser.PollInterval <= 0 {
		errs = append(errs, errors.New("browser.poll_interval must be positive"))
	}
	if c.Target.BaseURL == "" {
		errs = append(errs, errors.New("target.base_url is required"))
	}
	if c.Report.Dir == "" {
		errs = append(errs, errors.New("report.dir is required"))
	}
	return errors.Join(errs...)
}

// legacyKeys maps the properties file keys onto the structured config keys.
var legacyKeys = map[string]string{
	"base.url":       "target.base_url",
	"api.url":        "target.api_url",
	"valid.username": "target.username",
	"valid.password": "target.password",
}

// LoadProperties overlays a legacy config.properties file onto v.
// A missing or unreadable file leaves the defaults untouched and returns the read error
// so the caller can log it.
func LoadProperties(v *viper.Viper, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening properties file: %w", err)
	}
	defer f.Close()

	props := viper.New()
	props.SetConfigType("properties")
	if err := props.ReadConfig(f); err != nil {
		return fmt.Errorf("reading properties file: %w", err)
	}

	for legacy, key := range legacyKeys {
		// viper splits properties keys on dots, so look them up as nested paths.
		if val := strings.TrimSpace(props.GetString(legacy)); val != "" {
			v.Set(key, val)
		}
	}
	return nil
}

// Set replaces the global instance. Used by the root command after validation.
func Set(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = cfg
}

// Get returns the loaded configuration instance.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		panic("Configuration not initialized. Call config.Set() in the root command.")
	}
	return instance
}
