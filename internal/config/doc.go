// Package config loads wa-relay configuration from a YAML file with
// ${VAR} environment expansion, falling back to plain environment
// variables so env-only deployments need no file at all.
package config
