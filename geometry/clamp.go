// Package geometry keeps dragged elements inside their container.
package geometry

type (
	// Point is a pixel position, measured from the container's top-left.
	Point struct {
		X, Y float64
	}

	// Extent is a width/height pair. For elements it is the half-extent.
	Extent struct {
		W, H float64
	}
)

// Center returns the midpoint of a container of extent e.
func (e Extent) Center() Point {
	return Point{X: e.W / 2, Y: e.H / 2}
}

// Clamp returns the point nearest to req whose element, of half-extent
// half, lies entirely inside container:
//
//	half.W <= x <= container.W-half.W
//	half.H <= y <= container.H-half.H
//
// When the element is larger than the container along an axis, the bounds
// cross and that axis pins to the container's midpoint.
func Clamp(req Point, half, container Extent) Point {
	return Point{
		X: clampAxis(req.X, half.W, container.W),
		Y: clampAxis(req.Y, half.H, container.H),
	}
}

func clampAxis(v, half, size float64) float64 {
	lo, hi := half, size-half
	if lo > hi {
		return size / 2
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
