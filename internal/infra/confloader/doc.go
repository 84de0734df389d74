// Package confloader merges keva-server configuration from YAML
// files, KEVA_-prefixed environment variables, and CLI flag
// overrides, and watches the config file for hot reload of settings
// that can change at runtime (currently the log level).
package confloader
