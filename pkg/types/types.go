package types

import "image"

// Box represents a normalized rectangle with coordinates in [0,1] range.
// The origin is the top-left corner of the image.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Point represents a normalized 2D coordinate in [0,1] range.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FullImage is the region of interest covering the entire image.
var FullImage = Box{X: 0, Y: 0, W: 1, H: 1}

// IsZero reports whether the box is the zero value.
func (b Box) IsZero() bool {
	return b.X == 0 && b.Y == 0 && b.W == 0 && b.H == 0
}

// Center returns the center point of the box.
func (b Box) Center() Point {
	return Point{X: b.X + b.W/2, Y: b.Y + b.H/2}
}

// Area returns the normalized area of the box.
func (b Box) Area() float64 {
	return b.W * b.H
}

// Clamp constrains the box to the unit square.
func (b Box) Clamp() Box {
	x0 := clamp(b.X, 0, 1)
	y0 := clamp(b.Y, 0, 1)
	x1 := clamp(b.X+b.W, 0, 1)
	y1 := clamp(b.Y+b.H, 0, 1)
	return Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Intersect returns the intersection of two boxes. The result has zero
// width and height when the boxes do not overlap.
func (b Box) Intersect(o Box) Box {
	x0 := maxf(b.X, o.X)
	y0 := maxf(b.Y, o.Y)
	x1 := minf(b.X+b.W, o.X+o.W)
	y1 := minf(b.Y+b.H, o.Y+o.H)
	if x1 <= x0 || y1 <= y0 {
		return Box{}
	}
	return Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Denormalize converts the box to pixel coordinates for an image of the
// given dimensions.
func (b Box) Denormalize(width, height int) image.Rectangle {
	fw, fh := float64(width), float64(height)
	x0 := int(clamp(b.X, 0, 1)*fw + 0.5)
	y0 := int(clamp(b.Y, 0, 1)*fh + 0.5)
	x1 := int(clamp(b.X+b.W, 0, 1)*fw + 0.5)
	y1 := int(clamp(b.Y+b.H, 0, 1)*fh + 0.5)
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return image.Rect(x0, y0, x1, y1)
}

// FlipY mirrors the box vertically in unit space. Rendering surfaces with
// a bottom-left origin need this before denormalizing.
func (b Box) FlipY() Box {
	return Box{X: b.X, Y: 1 - b.Y - b.H, W: b.W, H: b.H}
}

// Denormalize converts the point to pixel coordinates for an image of the
// given dimensions.
func (p Point) Denormalize(width, height int) image.Point {
	return image.Point{
		X: int(clamp(p.X, 0, 1)*float64(width) + 0.5),
		Y: int(clamp(p.Y, 0, 1)*float64(height) + 0.5),
	}
}

// FlipY mirrors the point vertically in unit space.
func (p Point) FlipY() Point {
	return Point{X: p.X, Y: 1 - p.Y}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
