// Package config resolves the bifrost configuration from a YAML file and
// BIFROST_* environment variables.
package config
