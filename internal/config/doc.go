// Package config loads settings from LEARNLOOP_* environment variables and an
// optional YAML file, applies defaults and validates the result.
package config
