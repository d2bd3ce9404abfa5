package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	MaterialType string                 `json:"materialType"`
	GeometryType string                 `json:"geometryType"`
	Point        [3]float32             `json:"point"`
	Normal       [3]float32             `json:"normal"`
	Distance     float32                `json:"distance"`
	FrontFace    bool                   `json:"frontFace"`
	Properties   map[string]interface{} `json:"properties"`
}

func vecArray(v core.Vec3) [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

func colorHex(c core.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", int(clampUnit(c.R)*255), int(clampUnit(c.G)*255), int(clampUnit(c.B)*255))
}

func clampUnit(f float32) float32 {
	return max(0, min(1, f))
}

// extractMaterialInfo extracts detailed material information with type assertions
func extractMaterialInfo(mat material.Material) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch m := mat.(type) {
	case *material.Lambertian:
		properties["albedo"] = [3]float32{m.Albedo.R, m.Albedo.G, m.Albedo.B}
		properties["color"] = colorHex(m.Albedo)
		return "lambertian", properties

	case *material.Metal:
		properties["albedo"] = [3]float32{m.Albedo.R, m.Albedo.G, m.Albedo.B}
		properties["color"] = colorHex(m.Albedo)
		properties["roughness"] = m.Roughness
		return "metal", properties

	case *material.Dielectric:
		properties["refractiveIndex"] = m.RefractiveIndex
		properties["color"] = "#ffffff" // Clear glass
		return "dielectric", properties

	default:
		return "unknown", properties
	}
}

// extractGeometryInfo extracts detailed geometry information
func extractGeometryInfo(shape geometry.Shape) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch geom := shape.(type) {
	case *geometry.Sphere:
		properties["center"] = vecArray(geom.Center)
		properties["radius"] = geom.Radius
		return "sphere", properties

	default:
		return "unknown", properties
	}
}

// inspectResult is the nearest hit along an inspection ray
type inspectResult struct {
	hit   *material.HitRecord
	shape geometry.Shape
}

// inspectPixel casts a ray through the center of a pixel of the current
// render. py counts down from the top row, as the client sees the image.
func (rs *renderSession) inspectPixel(px, py int) (inspectResult, bool) {
	width, height := rs.request.Width, rs.request.Height
	u := float32(px) / float32(max(1, width-1))
	v := float32(height-1-py) / float32(max(1, height-1))

	// Fixed sampler so lens jitter is repeatable
	ray := rs.camera.GetRay(u, v, core.NewRandomSampler(0))

	config := rs.renderer.Config()
	hit, isHit := rs.scene.Hit(ray, config.TMin, config.TMax)
	if !isHit {
		return inspectResult{}, false
	}

	// The scene does not report which shape was hit; find the one with the same t
	for _, shape := range rs.scene.Shapes() {
		if shapeHit, ok := shape.Hit(ray, config.TMin, hit.T+config.TMin); ok && shapeHit.T == hit.T {
			return inspectResult{hit: hit, shape: shape}, true
		}
	}
	return inspectResult{hit: hit}, true
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(c echo.Context) error {
	session := s.session()
	if session == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "No render has been started"})
	}

	pixelX, err := strconv.Atoi(c.QueryParam("x"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid x coordinate"})
	}
	pixelY, err := strconv.Atoi(c.QueryParam("y"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid y coordinate"})
	}
	if pixelX < 0 || pixelX >= session.request.Width || pixelY < 0 || pixelY >= session.request.Height {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Pixel coordinates out of bounds"})
	}

	result, ok := session.inspectPixel(pixelX, pixelY)
	if !ok {
		return c.JSON(http.StatusOK, InspectResponse{Hit: false})
	}

	materialType, materialProps := extractMaterialInfo(result.hit.Material)
	geometryType, geometryProps := extractGeometryInfo(result.shape)

	return c.JSON(http.StatusOK, InspectResponse{
		Hit:          true,
		MaterialType: materialType,
		GeometryType: geometryType,
		Point:        vecArray(result.hit.Point),
		Normal:       vecArray(result.hit.Normal),
		Distance:     result.hit.T,
		FrontFace:    result.hit.FrontFace,
		Properties: map[string]interface{}{
			"material": materialProps,
			"geometry": geometryProps,
		},
	})
}
