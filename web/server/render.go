package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene      string `json:"scene"`      // Scene id (e.g., "weekend")
	Width      int    `json:"width"`      // Image width
	Height     int    `json:"height"`     // Image height
	Samples    int    `json:"samples"`    // Samples per pixel
	MaxDepth   int    `json:"maxDepth"`   // Maximum bounce depth
	Strategy   string `json:"strategy"`   // "tiles" or "samples"
	TileSize   int    `json:"tileSize"`   // Tile edge in pixels
	NumWorkers int    `json:"numWorkers"` // 0 = auto
	Seed       uint64 `json:"seed"`
}

// ProgressUpdate is sent on every merged job
type ProgressUpdate struct {
	RenderID      string `json:"renderId"`
	JobNumber     int    `json:"jobNumber"`
	TotalJobs     int    `json:"totalJobs"`
	X             int    `json:"x"`
	Y             int    `json:"y"` // Rows count up from the bottom of the image
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Sample        int    `json:"sample"` // -1 for tiles
	SamplesMerged int    `json:"samplesMerged"`
	WorkerID      int    `json:"workerId"`
	ElapsedMs     int64  `json:"elapsedMs"`
}

// Stats represents render statistics
type Stats struct {
	Strategy        string  `json:"strategy"`
	Jobs            int     `json:"jobs"`
	JobsCompleted   int     `json:"jobsCompleted"`
	Workers         int     `json:"workers"`
	TotalPixels     int     `json:"totalPixels"`
	SamplesPerPixel int     `json:"samplesPerPixel"`
	TotalSamples    int     `json:"totalSamples"`
	ElapsedMs       int64   `json:"elapsedMs"`
	SamplesPerSec   float64 `json:"samplesPerSecond"`
}

// RenderStatus describes the current render for /api/status
type RenderStatus struct {
	ID      string        `json:"id"`
	Request RenderRequest `json:"request"`
	Running bool          `json:"running"`
	Stats   *Stats        `json:"stats,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// renderSession is one render started through the API
type renderSession struct {
	id        string
	request   RenderRequest
	scene     *scene.Scene
	camera    *geometry.Camera
	renderer  *renderer.Renderer
	scheduler *renderer.Scheduler
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}

	mu    sync.Mutex // guards stats and err
	stats *renderer.RenderStats
	err   error
}

func (rs *renderSession) status() RenderStatus {
	status := RenderStatus{ID: rs.id, Request: rs.request}

	select {
	case <-rs.done:
	default:
		status.Running = true
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.stats != nil {
		stats := toStats(*rs.stats)
		status.Stats = &stats
	}
	if rs.err != nil {
		status.Error = rs.err.Error()
	}
	return status
}

func toStats(s renderer.RenderStats) Stats {
	return Stats{
		Strategy:        s.Strategy.String(),
		Jobs:            s.Jobs,
		JobsCompleted:   s.JobsCompleted,
		Workers:         s.Workers,
		TotalPixels:     s.TotalPixels,
		SamplesPerPixel: s.SamplesPerPixel,
		TotalSamples:    s.TotalSamples,
		ElapsedMs:       s.Elapsed.Milliseconds(),
		SamplesPerSec:   s.SamplesPerSecond(),
	}
}

// handleRender starts a render in the background, replacing any render in progress
func (s *Server) handleRender(c echo.Context) error {
	req, err := parseRenderRequest(c.QueryParams())
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("Invalid request: %v", err)})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev := s.current; prev != nil {
		prev.cancel()
		<-prev.done
	}

	s.nextID++
	session, err := s.newSession(fmt.Sprintf("render-%d", s.nextID), req)
	if err != nil {
		if errors.Is(err, scene.ErrUnknownScene) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}
	s.current = session

	go s.run(session)

	return c.JSON(http.StatusAccepted, session.status())
}

// handleCancel stops the current render, keeping its partial frame
func (s *Server) handleCancel(c echo.Context) error {
	session := s.session()
	if session == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "No render has been started"})
	}
	session.cancel()
	<-session.done
	return c.JSON(http.StatusOK, session.status())
}

// handleStatus reports the current render
func (s *Server) handleStatus(c echo.Context) error {
	session := s.session()
	if session == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "No render has been started"})
	}
	return c.JSON(http.StatusOK, session.status())
}

// newSession builds the scene, camera, renderer and scheduler for a request
func (s *Server) newSession(id string, req RenderRequest) (*renderSession, error) {
	sceneObj, err := scene.Create(req.Scene, scene.BuildOptions{
		Seed:   req.Seed,
		Camera: geometry.CameraConfig{AspectRatio: float32(req.Width) / float32(req.Height)},
	})
	if err != nil {
		return nil, err
	}

	camera, err := sceneObj.Camera()
	if err != nil {
		return nil, err
	}

	strategy, err := renderer.ParseStrategy(req.Strategy)
	if err != nil {
		return nil, err
	}

	samplingConfig := renderer.DefaultSamplingConfig()
	samplingConfig.SamplesPerPixel = req.Samples
	samplingConfig.MaxDepth = req.MaxDepth
	samplingConfig.Seed = req.Seed
	rt, err := renderer.NewRenderer(samplingConfig)
	if err != nil {
		return nil, err
	}

	scheduler, err := renderer.NewScheduler(rt, renderer.SchedulerConfig{
		Strategy:   strategy,
		TileSize:   req.TileSize,
		NumWorkers: req.NumWorkers,
	}, newWebLogger(id, s.events, s.logger))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(s.ctx)
	session := &renderSession{
		id:        id,
		request:   req,
		scene:     sceneObj,
		camera:    camera,
		renderer:  rt,
		scheduler: scheduler,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	scheduler.SetObserver(renderer.ObserverFunc(func(job renderer.JobCompletion) {
		s.events.publishJSON(EventProgress, ProgressUpdate{
			RenderID:      id,
			JobNumber:     job.JobNumber,
			TotalJobs:     job.TotalJobs,
			X:             job.Region.X,
			Y:             job.Region.Y,
			Width:         job.Region.Width,
			Height:        job.Region.Height,
			Sample:        job.Sample,
			SamplesMerged: job.SamplesMerged,
			WorkerID:      job.WorkerID,
			ElapsedMs:     job.Elapsed.Milliseconds(),
		})
	}))

	return session, nil
}

// run renders the session and publishes the outcome
func (s *Server) run(session *renderSession) {
	defer close(session.done)
	defer session.cancel()

	target := renderer.NewRenderTarget(session.request.Width, session.request.Height)
	start := time.Now()
	stats, err := session.scheduler.Render(session.ctx, session.camera, session.scene, target)

	session.mu.Lock()
	session.stats = &stats
	session.err = err
	session.mu.Unlock()

	if err != nil {
		s.logger.Printf("Render %s stopped after %v: %v\n", session.id, time.Since(start), err)
		s.events.publishJSON(EventError, map[string]string{"renderId": session.id, "error": err.Error()})
		return
	}
	s.events.publishJSON(EventComplete, struct {
		RenderID string `json:"renderId"`
		Stats    Stats  `json:"stats"`
	}{session.id, toStats(stats)})
}

// parseRenderRequest parses request parameters
func parseRenderRequest(values url.Values) (RenderRequest, error) {
	req := RenderRequest{
		Scene:    values.Get("scene"),
		Strategy: values.Get("strategy"),
	}
	if req.Scene == "" {
		req.Scene = "weekend" // Default scene
	}
	if req.Strategy == "" {
		req.Strategy = renderer.StrategyTiles.String()
	}

	var err error
	if req.Width, err = parseIntParam(values, "width", 600, 1, 4000); err != nil {
		return req, err
	}
	if req.Height, err = parseIntParam(values, "height", 400, 1, 4000); err != nil {
		return req, err
	}
	if req.Samples, err = parseIntParam(values, "samples", 50, 1, 10000); err != nil {
		return req, err
	}
	if req.MaxDepth, err = parseIntParam(values, "depth", 50, 1, 1000); err != nil {
		return req, err
	}
	if req.TileSize, err = parseIntParam(values, "tile", 64, 1, 1024); err != nil {
		return req, err
	}
	if req.NumWorkers, err = parseIntParam(values, "workers", 0, 0, 256); err != nil {
		return req, err
	}
	if value := values.Get("seed"); value != "" {
		if req.Seed, err = strconv.ParseUint(value, 10, 64); err != nil {
			return req, fmt.Errorf("invalid seed: %s", value)
		}
	}

	if _, err := renderer.ParseStrategy(req.Strategy); err != nil {
		return req, err
	}
	return req, nil
}
