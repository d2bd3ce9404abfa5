package raster

import (
	"testing"
)

func TestRegion_Chunks(t *testing.T) {
	tests := []struct {
		name          string
		region        Region
		size          int
		expectedCount int
		expectedFirst Region
		expectedLast  Region
	}{
		{
			name:          "Exact fit",
			region:        Region{Width: 128, Height: 128},
			size:          64,
			expectedCount: 4,
			expectedFirst: Region{X: 0, Y: 0, Width: 64, Height: 64},
			expectedLast:  Region{X: 64, Y: 64, Width: 64, Height: 64},
		},
		{
			name:          "Partial edges",
			region:        Region{Width: 100, Height: 70},
			size:          64,
			expectedCount: 4,
			expectedFirst: Region{X: 0, Y: 0, Width: 64, Height: 64},
			expectedLast:  Region{X: 64, Y: 64, Width: 36, Height: 6},
		},
		{
			name:          "Offset region",
			region:        Region{X: 10, Y: 20, Width: 5, Height: 3},
			size:          2,
			expectedCount: 6,
			expectedFirst: Region{X: 10, Y: 20, Width: 2, Height: 2},
			expectedLast:  Region{X: 14, Y: 22, Width: 1, Height: 1},
		},
		{
			name:          "Chunk larger than region",
			region:        Region{Width: 10, Height: 10},
			size:          64,
			expectedCount: 1,
			expectedFirst: Region{Width: 10, Height: 10},
			expectedLast:  Region{Width: 10, Height: 10},
		},
		{
			name:          "Non-positive size",
			region:        Region{X: 1, Y: 1, Width: 10, Height: 10},
			size:          0,
			expectedCount: 1,
			expectedFirst: Region{X: 1, Y: 1, Width: 10, Height: 10},
			expectedLast:  Region{X: 1, Y: 1, Width: 10, Height: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := tt.region.Chunks(tt.size)
			if len(chunks) != tt.expectedCount {
				t.Fatalf("Expected %d chunks, got %d", tt.expectedCount, len(chunks))
			}
			if chunks[0] != tt.expectedFirst {
				t.Errorf("First chunk = %v, want %v", chunks[0], tt.expectedFirst)
			}
			if chunks[len(chunks)-1] != tt.expectedLast {
				t.Errorf("Last chunk = %v, want %v", chunks[len(chunks)-1], tt.expectedLast)
			}
		})
	}
}

func TestRegion_ChunksEmpty(t *testing.T) {
	if chunks := (Region{Width: 0, Height: 10}).Chunks(4); chunks != nil {
		t.Errorf("Empty region should have no chunks, got %v", chunks)
	}
}

func TestRegion_ChunksCoverExactlyOnce(t *testing.T) {
	regions := []Region{
		{Width: 1, Height: 1},
		{Width: 17, Height: 5},
		{X: 3, Y: 7, Width: 31, Height: 29},
		{X: 100, Y: 0, Width: 64, Height: 65},
	}

	for _, region := range regions {
		for size := 1; size <= 20; size++ {
			coverage := make(map[[2]int]int)
			for _, chunk := range region.Chunks(size) {
				if chunk.Width > size || chunk.Height > size {
					t.Fatalf("%v size %d: chunk %v too large", region, size, chunk)
				}
				for y := chunk.Y; y < chunk.Y+chunk.Height; y++ {
					for x := chunk.X; x < chunk.X+chunk.Width; x++ {
						coverage[[2]int{x, y}]++
					}
				}
			}

			if len(coverage) != region.Area() {
				t.Fatalf("%v size %d: covered %d pixels, want %d", region, size, len(coverage), region.Area())
			}
			for p, n := range coverage {
				if n != 1 {
					t.Fatalf("%v size %d: pixel %v covered %d times", region, size, p, n)
				}
				if !region.Contains(p[0], p[1]) {
					t.Fatalf("%v size %d: pixel %v outside region", region, size, p)
				}
			}
		}
	}
}

func TestRegion_Intersect(t *testing.T) {
	a := Region{X: 0, Y: 0, Width: 10, Height: 10}

	tests := []struct {
		name     string
		other    Region
		expected Region
	}{
		{"Inside", Region{X: 2, Y: 3, Width: 4, Height: 5}, Region{X: 2, Y: 3, Width: 4, Height: 5}},
		{"Overhang right and top", Region{X: 8, Y: 7, Width: 5, Height: 5}, Region{X: 8, Y: 7, Width: 2, Height: 3}},
		{"Overhang left and bottom", Region{X: -3, Y: -2, Width: 5, Height: 4}, Region{X: 0, Y: 0, Width: 2, Height: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Intersect(tt.other); got != tt.expected {
				t.Errorf("Intersect = %v, want %v", got, tt.expected)
			}
		})
	}

	if !a.Intersect(Region{X: 20, Y: 20, Width: 5, Height: 5}).Empty() {
		t.Error("Disjoint regions should intersect to empty")
	}
}
