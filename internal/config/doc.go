// Package config provides configuration loading and validation for the
// narration pipeline. Selectors, timeouts and logging come from an optional
// YAML file with environment overrides; built-in defaults match a stock
// local RVC web UI.
package config
