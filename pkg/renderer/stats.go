package renderer

import "time"

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	Strategy        Strategy      // How the image was sharded
	Jobs            int           // Number of jobs submitted
	JobsCompleted   int           // Jobs that ran to completion
	Workers         int           // Number of parallel workers
	TotalPixels     int           // Pixels in the target region
	SamplesPerPixel int           // Samples per pixel merged into the final image
	TotalSamples    int           // Camera rays traced
	Elapsed         time.Duration // Wall time of the render
}

// SamplesPerSecond returns the camera ray throughput
func (s RenderStats) SamplesPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.TotalSamples) / s.Elapsed.Seconds()
}

// Complete reports whether every submitted job finished
func (s RenderStats) Complete() bool {
	return s.JobsCompleted == s.Jobs
}
