package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/imageio"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// Server serves the live preview of a render over HTTP
type Server struct {
	port   int
	logger core.Logger
	echo   *echo.Echo
	events *eventHub

	ctx    context.Context // Parent of every render, cancelled on Shutdown
	cancel context.CancelFunc

	mu      sync.Mutex // guards current and nextID
	current *renderSession
	nextID  int
}

// NewServer creates a new web server. A nil logger discards output.
func NewServer(port int, logger core.Logger) *Server {
	if logger == nil {
		logger = core.NopLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		port:   port,
		logger: logger,
		events: newEventHub(),
		ctx:    ctx,
		cancel: cancel,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(corsMiddleware)

	e.GET("/api/health", s.handleHealth)
	e.GET("/api/scenes", s.handleScenes)
	e.POST("/api/render", s.handleRender)
	e.DELETE("/api/render", s.handleCancel)
	e.GET("/api/status", s.handleStatus)
	e.GET("/api/frame", s.handleFrame)
	e.GET("/api/events", s.handleEvents)
	e.GET("/api/inspect", s.handleInspect)

	s.echo = e
	return s
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on the configured port until Shutdown is called
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Printf("Starting web server on http://localhost%s\n", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown cancels any running render and stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	s.Wait()
	return s.echo.Shutdown(ctx)
}

// Wait blocks until the current render, if any, has finished
func (s *Server) Wait() {
	s.mu.Lock()
	session := s.current
	s.mu.Unlock()
	if session != nil {
		<-session.done
	}
}

func corsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Access-Control-Allow-Origin", "*")
		c.Response().Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE")
		c.Response().Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")
		if c.Request().Method == http.MethodOptions {
			return c.NoContent(http.StatusNoContent)
		}
		return next(c)
	}
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the registered scenes grouped by category
func (s *Server) handleScenes(c echo.Context) error {
	return c.JSON(http.StatusOK, scene.ListAllScenes())
}

// handleFrame returns the current frame as a PNG, or BMP with ?format=bmp
func (s *Server) handleFrame(c echo.Context) error {
	session := s.session()
	if session == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "No render has been started"})
	}

	snapshot := session.scheduler.Snapshot()
	if snapshot == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Frame not ready"})
	}

	format := imageio.FormatPNG
	if c.QueryParam("format") == string(imageio.FormatBMP) {
		format = imageio.FormatBMP
	}

	var buf bytes.Buffer
	if err := imageio.Encode(&buf, format, snapshot); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.Blob(http.StatusOK, "image/"+string(format), buf.Bytes())
}

// handleEvents streams render events to the client until it disconnects.
// Each progress event is a pull signal: the client fetches /api/frame.
func (s *Server) handleEvents(c echo.Context) error {
	ctx := c.Request().Context()
	events := s.events.subscribe()
	defer s.events.unsubscribe(events)

	w := c.Response()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeSSEEvent(w, SSEEvent{Type: EventConnected, Data: "{}"}); err != nil {
		return nil
	}

	for {
		select {
		case event := <-events:
			if err := writeSSEEvent(w, event); err != nil {
				// Client disconnected during write
				return nil
			}
		case <-ctx.Done():
			return nil
		case <-s.ctx.Done():
			return nil
		}
	}
}

// writeSSEEvent writes one event and flushes it to the client
func writeSSEEvent(w *echo.Response, event SSEEvent) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
		return err
	}
	w.Flush()
	return nil
}

// session returns the most recently started render
func (s *Server) session() *renderSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}
