// Package config holds the keva-server configuration schema, its
// defaults, and validation. Values are populated by the confloader
// from file, environment, and flags.
package config
