// keva-server is the KevaDB server binary.
//
// Usage:
//
//	keva-server [-config /etc/keva/keva.yaml] [-version]
//
// Configuration is merged from the YAML file, KEVA_-prefixed
// environment variables, and defaults. The log level reloads on
// config file changes without a restart.
package main
