package scene

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/df07/go-pathtracer/pkg/geometry"
)

// ErrUnknownScene is returned when a scene id is not registered
var ErrUnknownScene = errors.New("unknown scene")

// SceneInfo represents a registered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Scene name
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

// BuildOptions carries the knobs a scene builder may use
type BuildOptions struct {
	Seed     uint64                // Seed for randomly generated content
	GridSize int                   // Sphere grid dimension, 0 for the default
	Camera   geometry.CameraConfig // Non-zero fields override the scene camera
}

// Builder creates a fresh, unfrozen scene
type Builder func(opts BuildOptions) *Scene

type registration struct {
	info  SceneInfo
	build Builder
}

const (
	builtInGroup = "Built-in Scenes"
	testGroup    = "Test Scenes"
)

var registry = []registration{
	{
		info: SceneInfo{ID: "weekend", Description: "Random sphere field with one large sphere per material", Group: builtInGroup},
		build: func(opts BuildOptions) *Scene {
			return NewWeekendScene(opts.Seed, opts.Camera)
		},
	},
	{
		info: SceneInfo{ID: "three-spheres", Description: "Diffuse, glass and metal spheres on a ground sphere", Group: builtInGroup},
		build: func(opts BuildOptions) *Scene {
			return NewThreeSpheresScene(opts.Camera)
		},
	},
	{
		info: SceneInfo{ID: "sphere-grid", Description: "Grid of rainbow-colored metallic spheres", Group: builtInGroup},
		build: func(opts BuildOptions) *Scene {
			size := opts.GridSize
			if size == 0 {
				size = 20
			}
			return NewSphereGridScene(size, opts.Camera)
		},
	},
	{
		info: SceneInfo{ID: "empty", Description: "No geometry, background gradient only", Group: testGroup},
		build: func(opts BuildOptions) *Scene {
			return NewEmptyScene(opts.Camera)
		},
	},
}

// Create builds the scene registered under id
func Create(id string, opts BuildOptions) (*Scene, error) {
	for _, r := range registry {
		if r.info.ID == id {
			return r.build(opts), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScene, id)
}

// ListScenes returns every registered scene in registration order
func ListScenes() []SceneInfo {
	scenes := make([]SceneInfo, 0, len(registry))
	for _, r := range registry {
		info := r.info
		if info.Name == "" {
			info.Name = titleCase(info.ID)
		}
		if info.DisplayName == "" {
			info.DisplayName = info.Name
		}
		scenes = append(scenes, info)
	}
	return scenes
}

// ListAllScenes returns the registered scenes grouped by category
func ListAllScenes() ScenesResponse {
	var response ScenesResponse

	groupMap := make(map[string][]SceneInfo)
	for _, scene := range ListScenes() {
		groupMap[scene.Group] = append(groupMap[scene.Group], scene)
	}

	// Built-in first, then alphabetical
	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtInGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	if scenes, exists := groupMap[builtInGroup]; exists {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   builtInGroup,
			Scenes: scenes,
		})
	}

	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   groupName,
			Scenes: groupMap[groupName],
		})
	}

	return response
}

// titleCase converts an id-style string to title case
// e.g., "three-spheres" -> "Three Spheres"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
