// Package config loads engine settings.
//
// Settings are layered, lowest to highest precedence: built-in defaults, an
// optional YAML file and environment variables prefixed with TRANSFORM_
// (TRANSFORM_MAX_CONTEXTS sets max_contexts).
package config
