package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/sonnes/chatview/tui"
	"github.com/sonnes/chatview/view"
)

func browseCmd() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "session",
			Aliases: []string{"s"},
			Usage:   "Session ID to open first (default: the most recently started session)",
		},
	}
	flags = append(flags, sourceFlags()...)

	return &cli.Command{
		Name:  "browse",
		Usage: "Browse sessions interactively in the terminal",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			src, closer, err := a.openSource(ctx, cmd)
			if err != nil {
				return err
			}
			defer closer.Close()

			var vs view.Source = src
			if r := a.redactor(); r != nil {
				vs = redactedSource{source: src, redact: r.Records}
			}

			m := tui.NewModel(ctx, view.NewController(vs), cmd.String("session"))
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}
}
