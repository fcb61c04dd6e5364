// Package server serves the chat history JSON API and the server-rendered
// session browser page.
package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/sonnes/chatview/core"
	"github.com/sonnes/chatview/redact"
	htmlrender "github.com/sonnes/chatview/render/html"
	"github.com/sonnes/chatview/store"
	"github.com/sonnes/chatview/view"
)

const (
	shutdownTimeout = 10 * time.Second
	pingTimeout     = 2 * time.Second
)

// Options configures a Server.
type Options struct {
	// Store provides the chat history rows. Required.
	Store store.Store
	// Renderer renders the browser page. Defaults to htmlrender.New().
	Renderer *htmlrender.Renderer
	// Redactor, when non-nil, is applied to every message before it leaves
	// the server.
	Redactor *redact.Redactor
}

// Server serves chat transcripts over HTTP.
type Server struct {
	store    store.Store
	renderer *htmlrender.Renderer
	redactor *redact.Redactor
	e        *echo.Echo
}

// New creates a Server and registers its routes.
func New(opts Options) *Server {
	s := &Server{
		store:    opts.Store,
		renderer: opts.Renderer,
		redactor: opts.Redactor,
	}
	if s.renderer == nil {
		s.renderer = htmlrender.New()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			kv := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				log.Error("request", append(kv, "error", v.Error)...)
				return nil
			}
			log.Info("request", kv...)
			return nil
		},
	}))
	e.Use(middleware.CORS())

	e.GET("/api/sessions", s.handleSessions)
	e.GET("/api/messages", s.handleAllMessages)
	e.GET("/api/messages/:sessionId", s.handleMessages)
	e.GET("/healthz", s.handleHealth)

	e.GET("/", s.handleIndexPage)
	e.GET("/sessions", s.handleAllSessionsPage)
	e.GET("/session/:sessionId", s.handleSessionPage)

	s.e = e
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("serving", "addr", addr)
		if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return s.e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) handleSessions(c echo.Context) error {
	sessions, err := s.store.ListSessions(c.Request().Context())
	if err != nil {
		log.Error("list sessions", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch sessions"})
	}
	return c.JSON(http.StatusOK, sessions)
}

func (s *Server) handleMessages(c echo.Context) error {
	id := sessionParam(c)
	records, err := s.store.ListMessages(c.Request().Context(), id)
	if err != nil {
		log.Error("list messages", "session_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch messages"})
	}
	return c.JSON(http.StatusOK, s.redactRecords(records))
}

func (s *Server) handleAllMessages(c echo.Context) error {
	records, err := s.store.ListAllMessages(c.Request().Context())
	if err != nil {
		log.Error("list all messages", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch messages"})
	}
	return c.JSON(http.StatusOK, s.redactRecords(records))
}

func (s *Server) handleHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		log.Warn("health check", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIndexPage(c echo.Context) error {
	ctl := view.NewController(s.source())
	_ = ctl.Load(c.Request().Context(), c.QueryParam("session"))
	return s.renderPage(c, ctl)
}

func (s *Server) handleAllSessionsPage(c echo.Context) error {
	ctl := view.NewController(s.source())
	_ = ctl.LoadIndex(c.Request().Context())
	return s.renderPage(c, ctl)
}

func (s *Server) handleSessionPage(c echo.Context) error {
	ctl := view.NewController(s.source())
	_ = ctl.Load(c.Request().Context(), sessionParam(c))
	return s.renderPage(c, ctl)
}

// renderPage writes the controller's display. Fetch errors are already in
// the display; they only change the status code.
func (s *Server) renderPage(c echo.Context, ctl *view.Controller) error {
	st := ctl.State()
	status := http.StatusOK
	if st.Phase == view.PhaseError {
		log.Error("load page", "stage", st.Failed, "session_id", st.Selected, "error", st.Err)
		status = http.StatusInternalServerError
	}

	var buf bytes.Buffer
	if err := s.renderer.RenderDisplay(&buf, view.Render(st)); err != nil {
		log.Error("render page", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.HTMLBlob(status, buf.Bytes())
}

func (s *Server) source() view.Source {
	return &redactingSource{store: s.store, redactor: s.redactor}
}

func (s *Server) redactRecords(records []core.Record) []core.Record {
	if s.redactor == nil {
		return records
	}
	return s.redactor.Records(records)
}

// redactingSource adapts the store to view.Source, redacting transcripts.
type redactingSource struct {
	store    store.Store
	redactor *redact.Redactor
}

func (r *redactingSource) ListSessions(ctx context.Context) ([]core.SessionSummary, error) {
	return r.store.ListSessions(ctx)
}

func (r *redactingSource) ListMessages(ctx context.Context, sessionID string) ([]core.Record, error) {
	records, err := r.store.ListMessages(ctx, sessionID)
	if err != nil || r.redactor == nil {
		return records, err
	}
	return r.redactor.Records(records), nil
}

// sessionParam returns the decoded session id path parameter. The router
// matches on the raw path when the request carries escaped separators, in
// which case the parameter is still escaped.
func sessionParam(c echo.Context) string {
	id := c.Param("sessionId")
	if c.Request().URL.RawPath == "" {
		return id
	}
	if u, err := url.PathUnescape(id); err == nil {
		return u
	}
	return id
}
