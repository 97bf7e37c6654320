// Package config loads YAML application configuration with sensible
// per-provider defaults. A missing config file yields defaults, not an
// error; secrets are referenced by environment variable name and
// resolved at use.
package config
