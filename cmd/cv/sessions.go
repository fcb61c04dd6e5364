package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/sonnes/chatview/render"
)

func sessionsCmd() *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "List sessions, most recently started first",
		Flags: append(sourceFlags(),
			&cli.StringFlag{
				Name:  "o",
				Usage: "Output format: terminal, json",
				Value: "terminal",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			rnd, err := a.renderer(cmd, cmd.String("o"))
			if err != nil {
				return err
			}
			ir, ok := rnd.(render.IndexRenderer)
			if !ok {
				return fmt.Errorf("output format %q cannot list sessions", cmd.String("o"))
			}

			src, closer, err := a.openSource(ctx, cmd)
			if err != nil {
				return err
			}
			defer closer.Close()

			sessions, err := src.ListSessions(ctx)
			if err != nil {
				return err
			}
			return ir.RenderIndex(cmd.Root().Writer, sessions)
		},
	}
}
