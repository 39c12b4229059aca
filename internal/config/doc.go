// Package config loads, normalizes, and validates tubeharvest configuration.
//
// Configuration lives in a TOML file (default ~/.config/tubeharvest/config.toml)
// and is layered over repository defaults. Secrets fall back to environment
// variables so they can stay out of the file. Paths are expanded to absolute
// form during normalization, and Validate rejects combinations the harvester
// cannot run with. Files ending in .yaml or .yml are read with the legacy
// config.yaml layout so existing installs can be imported unchanged.
package config
