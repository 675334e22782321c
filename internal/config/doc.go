// Package config loads, validates, and normalizes the renamer TOML
// configuration. Paths are expanded to absolute form during load and a
// sample configuration can be written for first-time setup.
package config
