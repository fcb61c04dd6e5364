package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/sonnes/chatview/core"
	"github.com/sonnes/chatview/render"
	"github.com/sonnes/chatview/view"
)

func showCmd() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "session",
			Aliases: []string{"s"},
			Usage:   "Session ID to show (default: the most recently started session)",
		},
		&cli.StringFlag{
			Name:  "o",
			Usage: "Output format: terminal, json, html",
			Value: "terminal",
		},
		&cli.BoolFlag{
			Name:  "sidebar",
			Usage: "List all sessions above the transcript (terminal output)",
		},
	}
	flags = append(flags, sourceFlags()...)
	flags = append(flags, transformFlags()...)

	return &cli.Command{
		Name:  "show",
		Usage: "Show the transcript of a session",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			rnd, err := a.renderer(cmd, cmd.String("o"))
			if err != nil {
				return err
			}

			src, closer, err := a.openSource(ctx, cmd)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctl := view.NewController(src)
			if err := ctl.Load(ctx, cmd.String("session")); err != nil {
				return fmt.Errorf("load session: %w", err)
			}

			st := ctl.State()
			t := core.NewTranscript(st.Selected, st.Records)
			if err := core.Chain(t, a.transformers(cmd)...); err != nil {
				return fmt.Errorf("transform: %w", err)
			}
			st.Records = t.Records

			w := cmd.Root().Writer
			if dr, ok := rnd.(render.DisplayRenderer); ok {
				return dr.RenderDisplay(w, view.Render(st))
			}
			return rnd.Render(w, t)
		},
	}
}
