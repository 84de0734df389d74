// Package command provides CLI command definitions for keva-cli.
//
// It uses urfave/cli/v2 for command parsing. Every subcommand opens a
// connection, runs one command against the server, prints the reply,
// and exits.
package command

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kevadb/keva-go/internal/cli/client"
)

// Build information, set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "keva-cli",
		Usage:   "KevaDB command-line client",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			PingCommand(),
			GetCommand(),
			SetCommand(),
			DelCommand(),
			ExistsCommand(),
			ExpireCommand(),
			TTLCommand(),
			KeysCommand(),
			DBSizeCommand(),
			FlushCommand(),
			InfoCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "KevaDB server address",
			EnvVars: []string{"KEVA_SERVER"},
			Value:   "127.0.0.1:6379",
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "Per-request timeout",
			Value:   client.DefaultTimeout,
		},
	}
}

// dial opens a connection using the global flags.
func dial(c *cli.Context) (*client.Client, error) {
	return client.Dial(c.String("server"), client.WithTimeout(c.Duration("timeout")))
}

// runOne connects, executes a single command, and prints the reply.
func runOne(c *cli.Context, args ...string) error {
	conn, err := dial(c)
	if err != nil {
		return err
	}
	defer conn.Close()

	reply, err := conn.Do(args...)
	if err != nil {
		var serr *client.ServerError
		if errors.As(err, &serr) {
			fmt.Fprintln(os.Stderr, "(error) "+serr.Message)
			return cli.Exit("", 1)
		}
		return err
	}

	fmt.Println(Format(reply))
	return nil
}
