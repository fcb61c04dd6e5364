package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/sonnes/chatview/server"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the JSON API and the session browser",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (env: CHATVIEW_PORT, PORT; default 3001)",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "HTML message formatting: basic, markdown",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Ping(ctx); err != nil {
				log.Warn("database not reachable yet, requests will fail until it is", "error", err)
			}

			srv := server.New(server.Options{
				Store:    st,
				Renderer: a.htmlRenderer(),
				Redactor: a.redactor(),
			})

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx, a.cfg.Addr())
		},
	}
}
