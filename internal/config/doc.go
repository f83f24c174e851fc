// Package config handles configuration loading, parsing, and validation
// from various sources (environment variables, files). It provides type-safe
// access to the connection strings, JWT signing secret, and identity options
// needed by the host while keeping configuration details separate from the
// components that consume them.
package config
