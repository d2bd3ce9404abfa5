package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/imageio"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// maxEnvWorkers caps the PATHTRACER_WORKERS override
const maxEnvWorkers = 128

// options holds the parsed command line
type options struct {
	Scene    string
	Width    int // 0 = scene default
	Height   int // 0 = scene default
	Samples  int // 0 = scene default
	MaxDepth int // 0 = scene default
	Strategy renderer.Strategy
	TileSize int
	Workers  int
	Seed     uint64
	GridSize int
	Output   string // empty = output/<scene>/render_<timestamp>.bmp
	Verbose  bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("pathtracer", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	var strategy string
	fs.StringVar(&opts.Scene, "scene", "weekend", "Scene to render: "+strings.Join(sceneIDs(), ", "))
	fs.IntVar(&opts.Width, "width", 0, "Image width (0 = scene default)")
	fs.IntVar(&opts.Height, "height", 0, "Image height (0 = scene default)")
	fs.IntVar(&opts.Samples, "samples", 0, "Samples per pixel (0 = scene default)")
	fs.IntVar(&opts.MaxDepth, "depth", 0, "Maximum bounce depth (0 = scene default)")
	fs.StringVar(&strategy, "strategy", "tiles", "Sharding strategy: 'tiles' or 'samples'")
	fs.IntVar(&opts.TileSize, "tile", renderer.DefaultSchedulerConfig().TileSize, "Tile size in pixels")
	fs.IntVar(&opts.Workers, "workers", 0, "Number of workers (0 = PATHTRACER_WORKERS or logical CPU count)")
	fs.Uint64Var(&opts.Seed, "seed", 0, "Random seed")
	fs.IntVar(&opts.GridSize, "grid", 0, "Sphere grid size for the sphere-grid scene (0 = default)")
	fs.StringVar(&opts.Output, "out", "", "Output file (.bmp or .png)")
	fs.BoolVar(&opts.Verbose, "v", false, "Verbose logging")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	var err error
	if opts.Strategy, err = renderer.ParseStrategy(strategy); err != nil {
		return opts, err
	}
	if opts.Width < 0 || opts.Height < 0 || opts.Samples < 0 || opts.MaxDepth < 0 || opts.Workers < 0 {
		return opts, errors.New("width, height, samples, depth and workers must not be negative")
	}
	if opts.Output != "" {
		if _, err := imageio.FormatFromPath(opts.Output); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func sceneIDs() []string {
	var ids []string
	for _, info := range scene.ListScenes() {
		ids = append(ids, info.ID)
	}
	return ids
}

// createScene builds the named scene with the camera aspect matching the image
func createScene(opts options) (*scene.Scene, error) {
	buildOpts := scene.BuildOptions{Seed: opts.Seed, GridSize: opts.GridSize}
	if opts.Width > 0 && opts.Height > 0 {
		buildOpts.Camera = geometry.CameraConfig{AspectRatio: float32(opts.Width) / float32(opts.Height)}
	}
	return scene.Create(opts.Scene, buildOpts)
}

// defaultWorkers returns the worker count when -workers is not given
func defaultWorkers() int {
	if envWorkers := os.Getenv("PATHTRACER_WORKERS"); envWorkers != "" {
		if n, err := strconv.Atoi(envWorkers); err == nil && n > 0 && n <= maxEnvWorkers {
			return n
		}
	}
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// hostInfo describes the machine for the startup log
func hostInfo() string {
	model := "unknown CPU"
	if info, err := cpu.Info(); err == nil && len(info) > 0 {
		model = strings.TrimSpace(info[0].ModelName)
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		return fmt.Sprintf("%s, %d GB RAM", model, vm.Total/(1024*1024*1024))
	}
	return model
}

// resolveSettings fills unset options from the scene's suggestions
func resolveSettings(opts options, s *scene.Scene) options {
	if opts.Width == 0 {
		opts.Width = s.SamplingConfig.Width
	}
	if opts.Height == 0 {
		opts.Height = s.SamplingConfig.Height
	}
	if opts.Samples == 0 {
		opts.Samples = s.SamplingConfig.SamplesPerPixel
	}
	if opts.MaxDepth == 0 {
		opts.MaxDepth = s.SamplingConfig.MaxDepth
	}
	if opts.Workers == 0 {
		opts.Workers = defaultWorkers()
	}
	if opts.Output == "" {
		timestamp := time.Now().Format("20060102_150405")
		opts.Output = filepath.Join("output", opts.Scene, fmt.Sprintf("render_%s.bmp", timestamp))
	}
	return opts
}

// run renders one image and writes it to disk
func run(ctx context.Context, opts options, logger *slog.Logger, stdout io.Writer) error {
	// Build once to learn the scene's default size, then again with the final aspect ratio
	defaults, err := createScene(opts)
	if err != nil {
		return err
	}
	opts = resolveSettings(opts, defaults)

	selectedScene, err := createScene(opts)
	if err != nil {
		return err
	}
	camera, err := selectedScene.Camera()
	if err != nil {
		return fmt.Errorf("invalid camera for scene %s: %w", opts.Scene, err)
	}

	samplingConfig := renderer.DefaultSamplingConfig()
	samplingConfig.SamplesPerPixel = opts.Samples
	samplingConfig.MaxDepth = opts.MaxDepth
	samplingConfig.Seed = opts.Seed
	rt, err := renderer.NewRenderer(samplingConfig)
	if err != nil {
		return err
	}

	scheduler, err := renderer.NewScheduler(rt, renderer.SchedulerConfig{
		Strategy:   opts.Strategy,
		TileSize:   opts.TileSize,
		NumWorkers: opts.Workers,
	}, core.NewSlogLogger(logger))
	if err != nil {
		return err
	}
	scheduler.SetProgressLogger(core.NewSlogDebugLogger(logger))

	logger.Info("starting render",
		"scene", opts.Scene,
		"shapes", selectedScene.Len(),
		"width", opts.Width,
		"height", opts.Height,
		"host", hostInfo())

	target := renderer.NewRenderTarget(opts.Width, opts.Height)
	stats, renderErr := scheduler.Render(ctx, camera, selectedScene, target)
	if renderErr != nil && !errors.Is(renderErr, context.Canceled) {
		return renderErr
	}

	if err := os.MkdirAll(filepath.Dir(opts.Output), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}
	if err := imageio.Save(opts.Output, target.Buffer); err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	p.Fprintf(stdout, "Rendered %d pixels at %d samples/pixel in %v (%d/%d jobs, %d workers)\n",
		stats.TotalPixels, stats.SamplesPerPixel, stats.Elapsed.Round(time.Millisecond),
		stats.JobsCompleted, stats.Jobs, stats.Workers)
	p.Fprintf(stdout, "%d camera rays, %.0f rays/s\n", stats.TotalSamples, stats.SamplesPerSecond())
	fmt.Fprintf(stdout, "Render saved as %s\n", opts.Output)

	// A cancelled render still saves the partial frame
	return renderErr
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, logger, os.Stdout); err != nil {
		logger.Error("render failed", "error", err)
		stop()
		os.Exit(1)
	}
}
