package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-pathtracer/pkg/imageio"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

func TestCreateScene(t *testing.T) {
	tests := []struct {
		name        string
		sceneType   string
		expectError bool
	}{
		{"weekend scene", "weekend", false},
		{"three-spheres scene", "three-spheres", false},
		{"sphere-grid scene", "sphere-grid", false},
		{"empty scene", "empty", false},

		// Invalid scenes
		{"unknown scene", "nonexistent", true},
		{"cornell scene", "cornell", true},
		{"empty scene name", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := createScene(options{Scene: tt.sceneType, Width: 30, Height: 20})

			if tt.expectError {
				if !errors.Is(err, scene.ErrUnknownScene) {
					t.Errorf("Expected ErrUnknownScene for scene type '%s', got %v", tt.sceneType, err)
				}
				if s != nil {
					t.Errorf("Expected nil scene for invalid scene type '%s'", tt.sceneType)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error for scene type '%s': %v", tt.sceneType, err)
			}
			if s.CameraConfig.AspectRatio != 1.5 {
				t.Errorf("Camera aspect ratio = %v, want 1.5", s.CameraConfig.AspectRatio)
			}
			if s.SamplingConfig.Width <= 0 || s.SamplingConfig.Height <= 0 {
				t.Errorf("Scene sampling size should be positive, got %dx%d", s.SamplingConfig.Width, s.SamplingConfig.Height)
			}
			if _, err := s.Camera(); err != nil {
				t.Errorf("Scene camera is invalid: %v", err)
			}
		})
	}
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		check   func(t *testing.T, opts options)
		wantErr bool
	}{
		{
			name: "Defaults",
			args: nil,
			check: func(t *testing.T, opts options) {
				if opts.Scene != "weekend" || opts.Strategy != renderer.StrategyTiles || opts.TileSize != 64 {
					t.Errorf("Unexpected defaults: %+v", opts)
				}
			},
		},
		{
			name: "All flags",
			args: []string{"-scene", "empty", "-width", "32", "-height", "16", "-samples", "3", "-depth", "4",
				"-strategy", "samples", "-tile", "8", "-workers", "2", "-seed", "9", "-out", "x.png", "-v"},
			check: func(t *testing.T, opts options) {
				want := options{Scene: "empty", Width: 32, Height: 16, Samples: 3, MaxDepth: 4,
					Strategy: renderer.StrategySamples, TileSize: 8, Workers: 2, Seed: 9, Output: "x.png", Verbose: true}
				if opts != want {
					t.Errorf("Got %+v, want %+v", opts, want)
				}
			},
		},
		{name: "Unknown strategy", args: []string{"-strategy", "rows"}, wantErr: true},
		{name: "Negative width", args: []string{"-width", "-1"}, wantErr: true},
		{name: "Unsupported output", args: []string{"-out", "render.jpg"}, wantErr: true},
		{name: "Unknown flag", args: []string{"-cornell"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseFlags(tt.args, io.Discard)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			tt.check(t, opts)
		})
	}
}

func TestDefaultWorkers(t *testing.T) {
	tests := []struct {
		env      string
		expected int // 0 = host CPU count
	}{
		{"3", 3},
		{"128", 128},
		{"129", 0},
		{"0", 0},
		{"many", 0},
	}

	for _, tt := range tests {
		t.Run("PATHTRACER_WORKERS="+tt.env, func(t *testing.T) {
			t.Setenv("PATHTRACER_WORKERS", tt.env)
			got := defaultWorkers()
			if tt.expected > 0 {
				if got != tt.expected {
					t.Errorf("defaultWorkers() = %d, want %d", got, tt.expected)
				}
				return
			}
			if got <= 0 || got == 129 {
				t.Errorf("Expected host CPU count, got %d", got)
			}
		})
	}
}

func TestRun_WritesImage(t *testing.T) {
	for _, ext := range []string{"bmp", "png"} {
		t.Run(ext, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "nested", "render."+ext)
			opts := options{
				Scene:    "three-spheres",
				Width:    12,
				Height:   8,
				Samples:  2,
				MaxDepth: 3,
				Strategy: renderer.StrategySamples,
				TileSize: 4,
				Workers:  2,
				Output:   out,
			}

			var stdout bytes.Buffer
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			if err := run(context.Background(), opts, logger, &stdout); err != nil {
				t.Fatalf("run failed: %v", err)
			}

			img, err := imageio.Load(out)
			if err != nil {
				t.Fatalf("Failed to load output: %v", err)
			}
			if img.Width() != 12 || img.Height() != 8 {
				t.Errorf("Output is %dx%d, want 12x8", img.Width(), img.Height())
			}
			if !strings.Contains(stdout.String(), "Render saved as") {
				t.Errorf("Missing summary in output: %q", stdout.String())
			}
		})
	}
}

func TestRun_CancelledStillSaves(t *testing.T) {
	out := filepath.Join(t.TempDir(), "partial.bmp")
	opts := options{Scene: "empty", Width: 8, Height: 8, Samples: 1, MaxDepth: 1, TileSize: 4, Workers: 1, Output: out}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := run(ctx, opts, logger, io.Discard)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if _, err := imageio.Load(out); err != nil {
		t.Errorf("Expected partial frame to be saved: %v", err)
	}
}
