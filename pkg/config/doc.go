// Package config loads server and cache-agent settings from an optional
// YAML file, environment variables, and flag overrides, in that ascending
// priority: flags beat env, env beats file, file beats built-in defaults.
package config
