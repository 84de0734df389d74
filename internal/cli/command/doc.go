// Package command wires keva-cli subcommands: each maps CLI arguments
// and flags onto one server command, executes it over a fresh
// connection, and renders the reply.
package command
