package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/sonnes/chatview/core"
	"github.com/sonnes/chatview/manifest"
	htmlrender "github.com/sonnes/chatview/render/html"
	"github.com/sonnes/chatview/view"
)

const manifestFile = "manifest.json"

func exportCmd() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "dir",
			Aliases:  []string{"d"},
			Usage:    "Output directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "session",
			Aliases: []string{"s"},
			Usage:   "Export only this session and update it in the existing manifest",
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "Sessions rendered in parallel",
			Value: 4,
		},
	}
	flags = append(flags, sourceFlags()...)
	flags = append(flags, transformFlags()...)

	return &cli.Command{
		Name:  "export",
		Usage: "Write a static site: index.html, one page per session and manifest.json",
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

			dir := cmd.String("dir")
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}

			sessions, err := src.ListSessions(ctx)
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}

			targets := sessions
			if id := cmd.String("session"); id != "" {
				targets = nil
				for _, s := range sessions {
					if s.SessionID == id {
						targets = []core.SessionSummary{s}
						break
					}
				}
				if targets == nil {
					return fmt.Errorf("session %q not found", id)
				}
			}

			renderer := a.htmlRenderer()
			renderer.SessionHref = sessionFileName
			renderer.IndexHref = "index.html"

			transformers := a.transformers(cmd)

			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(int(max(1, cmd.Int("concurrency"))))
			for _, s := range targets {
				s := s
				g.Go(func() error {
					return exportSession(gctx, src, renderer, transformers, sessions, s.SessionID, dir)
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			index := view.Render(view.State{Phase: view.PhaseEmpty, Sessions: sessions})
			if err := writePage(renderer, index, filepath.Join(dir, "index.html")); err != nil {
				return err
			}

			// A full export replaces the manifest; a single session is upserted.
			return updateManifest(filepath.Join(dir, manifestFile), targets, cmd.String("session") == "")
		},
	}
}

func exportSession(
	ctx context.Context,
	src source,
	renderer *htmlrender.Renderer,
	transformers []core.Transformer,
	sessions []core.SessionSummary,
	sessionID, dir string,
) error {
	records, err := src.ListMessages(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("list messages of %s: %w", sessionID, err)
	}

	t := core.NewTranscript(sessionID, records)
	if err := core.Chain(t, transformers...); err != nil {
		return fmt.Errorf("transform %s: %w", sessionID, err)
	}

	st := view.State{Phase: view.PhaseContent, Sessions: sessions, Selected: sessionID, Records: t.Records}
	if len(t.Records) == 0 {
		st.Phase = view.PhaseEmpty
	}

	path := filepath.Join(dir, sessionFileName(sessionID))
	if err := writePage(renderer, view.Render(st), path); err != nil {
		return err
	}
	log.Debug("exported session", "session_id", sessionID, "messages", len(t.Records), "path", path)
	return nil
}

func writePage(renderer *htmlrender.Renderer, d view.Display, path string) error {
	var buf bytes.Buffer
	if err := renderer.RenderDisplay(&buf, d); err != nil {
		return fmt.Errorf("render %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func updateManifest(path string, exported []core.SessionSummary, replace bool) error {
	m := &manifest.Manifest{}
	if !replace {
		var err error
		if m, err = manifest.ReadFile(path); err != nil {
			return fmt.Errorf("read manifest: %w", err)
		}
	}
	for _, s := range exported {
		m.Upsert(core.NewManifestEntry(s, sessionFileName(s.SessionID)))
	}
	m.GeneratedAt = time.Now().UTC()

	if err := m.WriteFile(path); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	log.Info("export complete", "sessions", len(exported), "manifest", path)
	return nil
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sessionFileName returns the page file name of a session. IDs that are not
// already file-name safe get a hash suffix so distinct IDs never collide.
func sessionFileName(sessionID string) string {
	safe := unsafeFileChars.ReplaceAllString(sessionID, "_")
	if safe != sessionID || safe == "" {
		sum := sha256.Sum256([]byte(sessionID))
		safe += "-" + hex.EncodeToString(sum[:4])
	}
	return "session-" + safe + ".html"
}
