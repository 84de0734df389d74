// Package command provides CLI command definitions for keva-cli.
package command

import "github.com/urfave/cli/v2"

// PingCommand checks server liveness.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:      "ping",
		Usage:     "Ping the server",
		ArgsUsage: "[MESSAGE]",
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				return runOne(c, "PING", c.Args().Get(0))
			}
			return runOne(c, "PING")
		},
	}
}

// DBSizeCommand reports the number of keys.
func DBSizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "dbsize",
		Usage: "Report the number of keys in the store",
		Action: func(c *cli.Context) error {
			return runOne(c, "DBSIZE")
		},
	}
}

// FlushCommand removes all keys.
func FlushCommand() *cli.Command {
	return &cli.Command{
		Name:  "flushdb",
		Usage: "Remove all keys from the store",
		Action: func(c *cli.Context) error {
			return runOne(c, "FLUSHDB")
		},
	}
}

// InfoCommand prints server information.
func InfoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Print server information",
		ArgsUsage: "[SECTION]",
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				return runOne(c, "INFO", c.Args().Get(0))
			}
			return runOne(c, "INFO")
		},
	}
}
