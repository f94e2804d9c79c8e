package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete pipeline configuration.
type Config struct {
	Browser   BrowserConfig   `yaml:"browser"`
	Selectors SelectorsConfig `yaml:"selectors"`
	Timeouts  TimeoutsConfig  `yaml:"timeouts"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// BrowserConfig identifies the Chrome instance and the TTS page to drive.
type BrowserConfig struct {
	// DebuggerAddr is Chrome's remote debugging endpoint
	// (--remote-debugging-port).
	DebuggerAddr string `yaml:"debugger_addr"`
	// PageURL is the address the TTS web UI is open on.
	PageURL string `yaml:"page_url"`
}

// SignalConfig is one observable tracked for generation completion.
type SignalConfig struct {
	Selector  string `yaml:"selector"`
	Attribute string `yaml:"attribute"`
}

// SelectorsConfig holds the XPath interaction points of the web UI. These
// are UI-version dependent and expected to need adjustment when the page
// changes.
type SelectorsConfig struct {
	TextInput      string         `yaml:"text_input"`
	GenerateButton string         `yaml:"generate_button"`
	DownloadButton string         `yaml:"download_button"`
	Signals        []SignalConfig `yaml:"signals"`
}

// TimeoutsConfig holds the per-stage wait ceilings, in seconds.
type TimeoutsConfig struct {
	Generation      int     `yaml:"generation"`       // seconds
	DownloadControl int     `yaml:"download_control"` // seconds
	Download        int     `yaml:"download"`         // seconds
	PollInterval    float64 `yaml:"poll_interval"`    // seconds
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration, matching a stock local RVC
// web UI reachable through Chrome's default remote-debugging setup.
func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			DebuggerAddr: "127.0.0.1:9222",
			PageURL:      "http://127.0.0.1:6969/",
		},
		Selectors: SelectorsConfig{
			TextInput:      `//*[@id="component-353"]/label/div[2]/textarea`,
			GenerateButton: `//*[@id="component-392"]`,
			DownloadButton: `//*[@id="component-395"]/div[2]/a/button`,
			Signals: []SignalConfig{
				{Selector: `//*[@id="waveform"]/div//audio`, Attribute: "src"},
				{Selector: `//*[@id="component-395"]/audio`, Attribute: "src"},
				{Selector: `//*[@id="component-395"]/div[2]/a`, Attribute: "href"},
			},
		},
		Timeouts: TimeoutsConfig{
			Generation:      300,
			DownloadControl: 60,
			Download:        120,
			PollInterval:    1.0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads the configuration file at path, merged over the defaults.
// An empty path returns the defaults unchanged. Environment variables
// RVC_DEBUGGER_ADDR and RVC_PAGE_URL override the browser section either
// way.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if addr := os.Getenv("RVC_DEBUGGER_ADDR"); addr != "" {
		config.Browser.DebuggerAddr = addr
	}
	if url := os.Getenv("RVC_PAGE_URL"); url != "" {
		config.Browser.PageURL = url
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

// Validate performs validation of the complete configuration.
func (c *Config) Validate() error {
	if err := c.Browser.Validate(); err != nil {
		return fmt.Errorf("browser config: %w", err)
	}
	if err := c.Selectors.Validate(); err != nil {
		return fmt.Errorf("selectors config: %w", err)
	}
	if err := c.Timeouts.Validate(); err != nil {
		return fmt.Errorf("timeouts config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// Validate validates browser configuration.
func (b *BrowserConfig) Validate() error {
	if b.DebuggerAddr == "" {
		return fmt.Errorf("debugger_addr cannot be empty")
	}
	if b.PageURL == "" {
		return fmt.Errorf("page_url cannot be empty")
	}
	return nil
}

// Validate validates the selector set.
func (s *SelectorsConfig) Validate() error {
	if s.TextInput == "" {
		return fmt.Errorf("text_input selector cannot be empty")
	}
	if s.GenerateButton == "" {
		return fmt.Errorf("generate_button selector cannot be empty")
	}
	if s.DownloadButton == "" {
		return fmt.Errorf("download_button selector cannot be empty")
	}
	if len(s.Signals) == 0 {
		return fmt.Errorf("at least one completion signal must be configured")
	}
	for i, sig := range s.Signals {
		if sig.Selector == "" || sig.Attribute == "" {
			return fmt.Errorf("signal %d must have both selector and attribute", i)
		}
	}
	return nil
}

// Validate validates the timeout ceilings.
func (t *TimeoutsConfig) Validate() error {
	if t.Generation < 1 {
		return fmt.Errorf("generation timeout must be at least 1 second, got %d", t.Generation)
	}
	if t.DownloadControl < 1 {
		return fmt.Errorf("download_control timeout must be at least 1 second, got %d", t.DownloadControl)
	}
	if t.Download < 1 {
		return fmt.Errorf("download timeout must be at least 1 second, got %d", t.Download)
	}
	if t.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %f", t.PollInterval)
	}
	return nil
}

// Validate validates logging configuration.
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}
	return nil
}

// GetGenerationTimeout returns the generation ceiling as a time.Duration.
func (t *TimeoutsConfig) GetGenerationTimeout() time.Duration {
	return time.Duration(t.Generation) * time.Second
}

// GetDownloadControlTimeout returns the download-control ceiling as a
// time.Duration.
func (t *TimeoutsConfig) GetDownloadControlTimeout() time.Duration {
	return time.Duration(t.DownloadControl) * time.Second
}

// GetDownloadTimeout returns the download ceiling as a time.Duration.
func (t *TimeoutsConfig) GetDownloadTimeout() time.Duration {
	return time.Duration(t.Download) * time.Second
}

// GetPollInterval returns the poll interval as a time.Duration.
func (t *TimeoutsConfig) GetPollInterval() time.Duration {
	return time.Duration(t.PollInterval * float64(time.Second))
}
