package core

// Color is linear RGB radiance. Values are unclamped until tone mapping.
type Color struct {
	R, G, B float32
}

// NewColor creates a new Color
func NewColor(r, g, b float32) Color {
	return Color{R: r, G: g, B: b}
}

// Black returns the zero color
func Black() Color {
	return Color{}
}

// White returns full unit radiance on every channel
func White() Color {
	return Color{R: 1, G: 1, B: 1}
}

// Add returns the sum of two colors
func (c Color) Add(other Color) Color {
	return Color{c.R + other.R, c.G + other.G, c.B + other.B}
}

// Multiply returns the color scaled by a scalar
func (c Color) Multiply(scalar float32) Color {
	return Color{c.R * scalar, c.G * scalar, c.B * scalar}
}

// MultiplyColor returns the component-wise product, used for attenuation
func (c Color) MultiplyColor(other Color) Color {
	return Color{c.R * other.R, c.G * other.G, c.B * other.B}
}

// LerpColor returns (1-t)*a + t*b
func LerpColor(t float32, a, b Color) Color {
	return a.Multiply(1 - t).Add(b.Multiply(t))
}
