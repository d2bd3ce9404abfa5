package geometry

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/material"
)

func TestHittableList_Empty(t *testing.T) {
	list := NewHittableList()
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	if _, isHit := list.Hit(ray, 0.001, 1000); isHit {
		t.Error("Empty list should never report a hit")
	}
}

func TestHittableList_NearestHitIgnoresInsertionOrder(t *testing.T) {
	nearMat := material.NewLambertian(core.NewColor(1, 0, 0))
	farMat := material.NewLambertian(core.NewColor(0, 0, 1))

	// Overlapping spheres along the -Z axis
	near := NewSphere(core.NewVec3(0, 0, -3), 1.0, nearMat)
	far := NewSphere(core.NewVec3(0, 0, -4), 1.5, farMat)

	tests := []struct {
		name   string
		shapes []Shape
	}{
		{"Near first", []Shape{near, far}},
		{"Far first", []Shape{far, near}},
	}

	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := NewHittableList(tt.shapes...)
			hit, isHit := list.Hit(ray, 0.001, 1000)
			if !isHit {
				t.Fatal("Expected hit")
			}
			if math32.Abs(hit.T-2.0) > 1e-4 {
				t.Errorf("Expected nearest t=2, got %f", hit.T)
			}
			if hit.Material != nearMat {
				t.Error("Expected the nearer sphere's material")
			}
		})
	}
}

func TestHittableList_RespectsTMax(t *testing.T) {
	list := NewHittableList()
	list.Add(NewSphere(core.NewVec3(0, 0, -10), 1.0, nil))

	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))
	if _, isHit := list.Hit(ray, 0.001, 5); isHit {
		t.Error("Sphere beyond tMax should not be hit")
	}
	if _, isHit := list.Hit(ray, 0.001, 1000); !isHit {
		t.Error("Sphere within range should be hit")
	}
}
