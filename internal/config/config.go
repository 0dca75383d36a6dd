package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all fragnav configuration.
type Config struct {
	Name string `yaml:"name"`

	// Static site the shell lives in
	Site SiteConfig `yaml:"site"`

	// Fragment navigator
	Navigator NavigatorConfig `yaml:"navigator"`

	// Notification layer
	Notifications NotificationsConfig `yaml:"notifications"`

	// Fragment fetch transport
	Fetch FetchConfig `yaml:"fetch"`

	// External data helper
	External ExternalConfig `yaml:"external"`

	// Live browser backend
	Browser BrowserConfig `yaml:"browser"`

	// Executable block runtime (headless document)
	Scripts ScriptsConfig `yaml:"scripts"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// SiteConfig locates the shell and its fragments.
type SiteConfig struct {
	BaseURL         string `yaml:"base_url"`         // fragments resolve against this
	Root            string `yaml:"root"`             // directory served by `fragnav serve`
	Shell           string `yaml:"shell"`            // shell document, relative to root
	InitialLocation string `yaml:"initial_location"` // navigated on boot
	Addr            string `yaml:"addr"`             // listen address for `fragnav serve`
}

// NavigatorConfig configures the fragment navigator.
type NavigatorConfig struct {
	ContainerID   string `yaml:"container_id"`
	NavClass      string `yaml:"nav_class"`
	ActiveClass   string `yaml:"active_class"`
	Transition    string `yaml:"transition"`
	LoadingText   string `yaml:"loading_text"`
	NotifyOnError bool   `yaml:"notify_on_error"`
}

// NotificationsConfig configures the notification manager.
type NotificationsConfig struct {
	ContainerID    string `yaml:"container_id"`
	ContainerClass string `yaml:"container_class"`
	Duration       string `yaml:"duration"`
	HideTransition string `yaml:"hide_transition"`
	WelcomeMessage string `yaml:"welcome_message"`
	WelcomeDelay   string `yaml:"welcome_delay"`
}

// FetchConfig configures the fragment fetcher.
type FetchConfig struct {
	UserAgent    string `yaml:"user_agent"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

// ExternalConfig configures FetchData.
type ExternalConfig struct {
	APIBaseURL string `yaml:"api_base_url"`
}

// BrowserConfig configures the rod-driven browser backend.
type BrowserConfig struct {
	DebuggerURL       string   `yaml:"debugger_url"`
	Launch            []string `yaml:"launch"`
	Headless          bool     `yaml:"headless"`
	ViewportWidth     int      `yaml:"viewport_width"`
	ViewportHeight    int      `yaml:"viewport_height"`
	NavigationTimeout string   `yaml:"navigation_timeout"`
}

// ScriptsConfig configures how live blocks run in the headless document.
type ScriptsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Timeout string `yaml:"timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name: "fragnav",

		Site: SiteConfig{
			BaseURL:         "http://localhost:8080/",
			Root:            "public",
			Shell:           "index.html",
			InitialLocation: "./views/home.html",
			Addr:            ":8080",
		},

		Navigator: NavigatorConfig{
			ContainerID: "main-content",
			NavClass:    "nav-link",
			ActiveClass: "active",
			Transition:  "300ms",
			LoadingText: "Loading content...",
		},

		Notifications: NotificationsConfig{
			ContainerID:    "toast-container",
			ContainerClass: "position-fixed top-0 end-0 p-3",
			Duration:       "5s",
			HideTransition: "150ms",
			WelcomeMessage: "Welcome to the gallery!",
			WelcomeDelay:   "1s",
		},

		Fetch: FetchConfig{
			UserAgent:    "fragnav/1.0",
			MaxBodyBytes: 2 << 20,
		},

		External: ExternalConfig{
			APIBaseURL: "https://jsonplaceholder.typicode.com",
		},

		Browser: BrowserConfig{
			Headless:          true,
			ViewportWidth:     1280,
			ViewportHeight:    800,
			NavigationTimeout: "30s",
		},

		Scripts: ScriptsConfig{
			Enabled: true,
			Timeout: "5s",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
// A .env file next to the config, if present, is loaded before env overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
		// Defaults only
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FRAGNAV_BASE_URL"); v != "" {
		c.Site.BaseURL = v
	}
	if v := os.Getenv("FRAGNAV_SITE_ROOT"); v != "" {
		c.Site.Root = v
	}
	if v := os.Getenv("FRAGNAV_API_BASE_URL"); v != "" {
		c.External.APIBaseURL = v
	}
	if v := os.Getenv("FRAGNAV_DEBUGGER_URL"); v != "" {
		c.Browser.DebuggerURL = v
	}
	if v := os.Getenv("FRAGNAV_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Site.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("site.base_url must be an absolute URL, got %q", c.Site.BaseURL)
	}
	if strings.TrimSpace(c.Navigator.ContainerID) == "" {
		return fmt.Errorf("navigator.container_id is required")
	}
	if strings.TrimSpace(c.Notifications.ContainerID) == "" {
		return fmt.Errorf("notifications.container_id is required")
	}
	if c.Navigator.ContainerID == c.Notifications.ContainerID {
		return fmt.Errorf("navigator and notifications must use different containers (%s)", c.Navigator.ContainerID)
	}
	if _, ok := validLevels[strings.ToLower(c.Logging.Level)]; !ok {
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}
	return nil
}

var validLevels = map[string]struct{}{
	"debug": {}, "info": {}, "warn": {}, "warning": {}, "error": {},
}

// GetTransition returns the fixed content transition duration.
func (c *Config) GetTransition() time.Duration {
	return parseDuration(c.Navigator.Transition, 300*time.Millisecond)
}

// GetNotificationDuration returns the auto-dismiss delay of notifications.
func (c *Config) GetNotificationDuration() time.Duration {
	return parseDuration(c.Notifications.Duration, 5*time.Second)
}

// GetHideTransition returns the hide animation length before a notification is removed.
func (c *Config) GetHideTransition() time.Duration {
	return parseDuration(c.Notifications.HideTransition, 150*time.Millisecond)
}

// GetWelcomeDelay returns the delay before the boot welcome notification.
func (c *Config) GetWelcomeDelay() time.Duration {
	return parseDuration(c.Notifications.WelcomeDelay, time.Second)
}

// GetNavigationTimeout returns the browser page navigation timeout.
func (c *Config) GetNavigationTimeout() time.Duration {
	return parseDuration(c.Browser.NavigationTimeout, 30*time.Second)
}

// GetScriptTimeout returns the per-block interpreter timeout.
func (c *Config) GetScriptTimeout() time.Duration {
	return parseDuration(c.Scripts.Timeout, 5*time.Second)
}

// ShellPath returns the shell document path on disk.
func (c *Config) ShellPath() string {
	if filepath.IsAbs(c.Site.Shell) {
		return c.Site.Shell
	}
	return filepath.Join(c.Site.Root, c.Site.Shell)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
