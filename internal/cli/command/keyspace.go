// Package command provides CLI command definitions for keva-cli.
package command

import (
	"strconv"

	"github.com/urfave/cli/v2"
)

// GetCommand fetches a key's value.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Get the value of a key",
		ArgsUsage: "KEY",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: keva-cli get KEY", 2)
			}
			return runOne(c, "GET", c.Args().Get(0))
		},
	}
}

// SetCommand stores a key-value pair.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Set a key to a value",
		ArgsUsage: "KEY VALUE",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:  "ex",
				Usage: "Expire after `SECONDS`",
			},
			&cli.Int64Flag{
				Name:  "px",
				Usage: "Expire after `MILLISECONDS`",
			},
			&cli.BoolFlag{
				Name:  "nx",
				Usage: "Only set if the key does not exist",
			},
			&cli.BoolFlag{
				Name:  "xx",
				Usage: "Only set if the key already exists",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("usage: keva-cli set KEY VALUE", 2)
			}
			args := []string{"SET", c.Args().Get(0), c.Args().Get(1)}
			if c.Int64("ex") > 0 {
				args = append(args, "EX", strconv.FormatInt(c.Int64("ex"), 10))
			}
			if c.Int64("px") > 0 {
				args = append(args, "PX", strconv.FormatInt(c.Int64("px"), 10))
			}
			if c.Bool("nx") {
				args = append(args, "NX")
			}
			if c.Bool("xx") {
				args = append(args, "XX")
			}
			return runOne(c, args...)
		},
	}
}

// DelCommand removes one or more keys.
func DelCommand() *cli.Command {
	return &cli.Command{
		Name:      "del",
		Usage:     "Delete one or more keys",
		ArgsUsage: "KEY [KEY...]",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return cli.Exit("usage: keva-cli del KEY [KEY...]", 2)
			}
			return runOne(c, append([]string{"DEL"}, c.Args().Slice()...)...)
		},
	}
}

// ExistsCommand counts how many of the given keys exist.
func ExistsCommand() *cli.Command {
	return &cli.Command{
		Name:      "exists",
		Usage:     "Check how many of the given keys exist",
		ArgsUsage: "KEY [KEY...]",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return cli.Exit("usage: keva-cli exists KEY [KEY...]", 2)
			}
			return runOne(c, append([]string{"EXISTS"}, c.Args().Slice()...)...)
		},
	}
}

// ExpireCommand sets a key's time to live in seconds.
func ExpireCommand() *cli.Command {
	return &cli.Command{
		Name:      "expire",
		Usage:     "Set a key's time to live in seconds",
		ArgsUsage: "KEY SECONDS",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("usage: keva-cli expire KEY SECONDS", 2)
			}
			return runOne(c, "EXPIRE", c.Args().Get(0), c.Args().Get(1))
		},
	}
}

// TTLCommand reports a key's remaining time to live.
func TTLCommand() *cli.Command {
	return &cli.Command{
		Name:      "ttl",
		Usage:     "Get a key's remaining time to live in seconds",
		ArgsUsage: "KEY",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: keva-cli ttl KEY", 2)
			}
			return runOne(c, "TTL", c.Args().Get(0))
		},
	}
}

// KeysCommand lists keys matching a glob pattern.
func KeysCommand() *cli.Command {
	return &cli.Command{
		Name:      "keys",
		Usage:     "List keys matching a glob pattern",
		ArgsUsage: "PATTERN",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: keva-cli keys PATTERN", 2)
			}
			return runOne(c, "KEYS", c.Args().Get(0))
		},
	}
}
