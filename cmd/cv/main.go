package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

func main() {
	if err := newRootCmd().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:  "cv",
		Usage: "Browse chat histories stored by n8n's Postgres memory",
		Description: `
      _         _           _
  __ | |_  __ _| |_ __ __ _(_)_____ __ __
 / _|| ' \/ _' |  _|\ V /| | / -_) V  V /
 \__||_||_\__,_|\__| \_/ |_|_\___|\_/\_/

 Sessions, oldest question to latest answer.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log",
				Usage: "Log level: debug, info, warn, error",
				Value: "error",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file (default: ./chatview.yaml, ~/.config/chatview/chatview.yaml)",
			},
			&cli.StringFlag{
				Name:  "dsn",
				Usage: "Database connection string (env: CHATVIEW_DSN, DATABASE_URL)",
			},
			&cli.StringFlag{
				Name:  "driver",
				Usage: "Database driver: postgres, sqlite",
			},
			&cli.StringFlag{
				Name:  "table",
				Usage: "Chat history table, optionally schema-qualified",
			},
			&cli.StringSliceFlag{
				Name:  "redact",
				Usage: "Rule groups to redact from message content. Example: --redact=secrets,pii",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level, err := log.ParseLevel(cmd.String("log"))
			if err != nil {
				return ctx, err
			}
			log.SetLevel(level)
			return ctx, nil
		},
		Commands: []*cli.Command{
			serveCmd(),
			sessionsCmd(),
			showCmd(),
			browseCmd(),
			exportCmd(),
		},
	}
}
