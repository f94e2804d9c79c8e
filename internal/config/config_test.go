package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default configuration must validate, got %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	valid := func() *Config { return Default() }

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:   "valid configuration",
			mutate: func(*Config) {},
		},
		{
			name:        "empty debugger address",
			mutate:      func(c *Config) { c.Browser.DebuggerAddr = "" },
			expectError: true,
			errorMsg:    "debugger_addr",
		},
		{
			name:        "empty page url",
			mutate:      func(c *Config) { c.Browser.PageURL = "" },
			expectError: true,
			errorMsg:    "page_url",
		},
		{
			name:        "missing text input selector",
			mutate:      func(c *Config) { c.Selectors.TextInput = "" },
			expectError: true,
			errorMsg:    "text_input",
		},
		{
			name:        "no completion signals",
			mutate:      func(c *Config) { c.Selectors.Signals = nil },
			expectError: true,
			errorMsg:    "completion signal",
		},
		{
			name: "signal missing attribute",
			mutate: func(c *Config) {
				c.Selectors.Signals = []SignalConfig{{Selector: "//audio"}}
			},
			expectError: true,
			errorMsg:    "signal 0",
		},
		{
			name:        "zero generation timeout",
			mutate:      func(c *Config) { c.Timeouts.Generation = 0 },
			expectError: true,
			errorMsg:    "generation timeout",
		},
		{
			name:        "negative poll interval",
			mutate:      func(c *Config) { c.Timeouts.PollInterval = -1 },
			expectError: true,
			errorMsg:    "poll_interval",
		},
		{
			name:        "bad log level",
			mutate:      func(c *Config) { c.Logging.Level = "verbose" },
			expectError: true,
			errorMsg:    "level",
		},
		{
			name:        "bad log format",
			mutate:      func(c *Config) { c.Logging.Format = "xml" },
			expectError: true,
			errorMsg:    "format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectError {
				if err == nil {
					t.Fatal("Expected validation error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error containing %q, got %v", tt.errorMsg, err)
				}
			} else if err != nil {
				t.Fatalf("Expected valid config, got %v", err)
			}
		})
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
browser:
  debugger_addr: "10.0.0.5:9333"
timeouts:
  generation: 600
`
	// Partial files keep defaults for everything they do not mention.
	full := Default()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Browser.DebuggerAddr != "10.0.0.5:9333" {
		t.Errorf("Expected overridden debugger addr, got %s", cfg.Browser.DebuggerAddr)
	}
	if cfg.Timeouts.Generation != 600 {
		t.Errorf("Expected generation timeout 600, got %d", cfg.Timeouts.Generation)
	}
	if cfg.Browser.PageURL != full.Browser.PageURL {
		t.Errorf("Expected default page URL kept, got %s", cfg.Browser.PageURL)
	}
	if len(cfg.Selectors.Signals) != len(full.Selectors.Signals) {
		t.Errorf("Expected default signals kept, got %d", len(cfg.Selectors.Signals))
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Browser.DebuggerAddr != Default().Browser.DebuggerAddr {
		t.Errorf("Expected default debugger addr, got %s", cfg.Browser.DebuggerAddr)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Expected error for missing config file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("browser: ["), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Expected error for invalid YAML")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RVC_DEBUGGER_ADDR", "192.168.1.2:9222")
	t.Setenv("RVC_PAGE_URL", "http://192.168.1.2:6969/")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Browser.DebuggerAddr != "192.168.1.2:9222" {
		t.Errorf("Expected env debugger addr, got %s", cfg.Browser.DebuggerAddr)
	}
	if cfg.Browser.PageURL != "http://192.168.1.2:6969/" {
		t.Errorf("Expected env page URL, got %s", cfg.Browser.PageURL)
	}
}

func TestTimeoutDurations(t *testing.T) {
	cfg := TimeoutsConfig{Generation: 300, DownloadControl: 60, Download: 120, PollInterval: 0.5}

	if d := cfg.GetGenerationTimeout(); d != 300*time.Second {
		t.Errorf("Expected 300s, got %v", d)
	}
	if d := cfg.GetDownloadControlTimeout(); d != 60*time.Second {
		t.Errorf("Expected 60s, got %v", d)
	}
	if d := cfg.GetDownloadTimeout(); d != 120*time.Second {
		t.Errorf("Expected 120s, got %v", d)
	}
	if d := cfg.GetPollInterval(); d != 500*time.Millisecond {
		t.Errorf("Expected 500ms, got %v", d)
	}
}
