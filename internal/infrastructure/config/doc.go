// Package config loads and validates Hearth Core configuration.
//
// Configuration is layered: hardcoded defaults, then the YAML file,
// then HEARTH_* environment variable overrides. Load returns a fully
// validated *Config; components receive only the section they need.
package config
