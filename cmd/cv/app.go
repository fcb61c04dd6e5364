package main

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/sonnes/chatview/client"
	"github.com/sonnes/chatview/compact"
	"github.com/sonnes/chatview/config"
	"github.com/sonnes/chatview/core"
	"github.com/sonnes/chatview/reader"
	"github.com/sonnes/chatview/redact"
	"github.com/sonnes/chatview/render"
	htmlrender "github.com/sonnes/chatview/render/html"
	jsonrender "github.com/sonnes/chatview/render/json"
	"github.com/sonnes/chatview/render/terminal"
	"github.com/sonnes/chatview/store"
	"github.com/sonnes/chatview/view"
)

// app holds the loaded configuration and the renderer registry used by CLI
// commands.
type app struct {
	cfg       *config.Config
	renderers map[string]func(cmd *cli.Command) render.Renderer
}

func newApp(cmd *cli.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}
	a.renderers = map[string]func(cmd *cli.Command) render.Renderer{
		"terminal": func(cmd *cli.Command) render.Renderer {
			return &terminal.Renderer{Sidebar: cmd.Bool("sidebar")}
		},
		"json": func(*cli.Command) render.Renderer { return jsonrender.New() },
		"html": func(*cli.Command) render.Renderer { return a.htmlRenderer() },
	}
	return a, nil
}

// configFlags maps CLI flag names to config keys. Only flags the user set
// override the file and environment.
var configFlags = map[string]string{
	"dsn":    "dsn",
	"driver": "driver",
	"table":  "table",
	"format": "render.format",
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	overrides := make(map[string]any)
	for flag, key := range configFlags {
		if cmd.IsSet(flag) {
			overrides[key] = cmd.String(flag)
		}
	}
	if cmd.IsSet("port") {
		overrides["port"] = cmd.Int("port")
	}
	if cmd.IsSet("redact") {
		overrides["redact"] = cmd.StringSlice("redact")
	}
	return config.Load(cmd.String("config"), overrides)
}

func (a *app) renderer(cmd *cli.Command, name string) (render.Renderer, error) {
	fn, ok := a.renderers[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q", name)
	}
	return fn(cmd), nil
}

func (a *app) htmlRenderer() *htmlrender.Renderer {
	r := htmlrender.New()
	r.Format = a.cfg.Format()
	return r
}

// openStore opens the configured database. Connectivity is checked lazily by
// the first query.
func (a *app) openStore(ctx context.Context) (*store.SQLStore, error) {
	sc, err := a.cfg.Store()
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, sc)
}

// source is the read side shared by the database and a remote server.
type source interface {
	view.Source
	ListAllMessages(ctx context.Context) ([]core.Record, error)
}

// openSource returns a client of --server or the dump of --file when set,
// the database otherwise. The returned closer is never nil.
func (a *app) openSource(ctx context.Context, cmd *cli.Command) (source, io.Closer, error) {
	if cmd.String("server") != "" && cmd.String("file") != "" {
		return nil, nil, fmt.Errorf("--server and --file are mutually exclusive")
	}
	if path := cmd.String("file"); path != "" {
		ar, err := reader.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		return ar, ar, nil
	}
	if u := cmd.String("server"); u != "" {
		c, err := client.New(u, client.WithRateLimit(cmd.Float("rate")))
		if err != nil {
			return nil, nil, err
		}
		log.Debug("reading from server", "url", u)
		return c, nopCloser{}, nil
	}
	st, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return st, st, nil
}

// redactor returns nil when no rule group is configured.
func (a *app) redactor() *redact.Redactor {
	rc := a.cfg.RedactConfig()
	if !rc.Enabled() {
		return nil
	}
	return redact.New(rc)
}

// transformers returns the configured redaction and compaction steps.
func (a *app) transformers(cmd *cli.Command) []core.Transformer {
	var ts []core.Transformer
	if r := a.redactor(); r != nil {
		ts = append(ts, r)
	}
	if n := cmd.Int("compact"); n > 0 {
		ts = append(ts, compact.New(compact.Config{
			MaxLines:      int(n),
			AssistantOnly: cmd.Bool("assistant-only"),
		}))
	}
	return ts
}

// redactedSource applies redaction to every transcript a source returns.
type redactedSource struct {
	source
	redact func([]core.Record) []core.Record
}

func (r redactedSource) ListMessages(ctx context.Context, sessionID string) ([]core.Record, error) {
	records, err := r.source.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return r.redact(records), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// sourceFlags are shared by commands that can read from a remote server.
func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "server",
			Usage: "Read from a running chatview server instead of the database, e.g. http://localhost:3001",
		},
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Read from a JSON or JSONL dump of chat history records instead of the database",
		},
		&cli.FloatFlag{
			Name:  "rate",
			Usage: "Maximum requests per second against --server (0 for unlimited)",
		},
	}
}

func transformFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "format",
			Usage: "HTML message formatting: basic, markdown",
		},
		&cli.IntFlag{
			Name:  "compact",
			Usage: "Keep only the first N lines of each message",
		},
		&cli.BoolFlag{
			Name:  "assistant-only",
			Usage: "With --compact, leave user messages intact",
		},
	}
}
