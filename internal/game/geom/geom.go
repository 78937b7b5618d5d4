// Package geom provides the world-space and screen-space primitives shared
// by the locator, anchor monitor, and tracking packages.
package geom

import "math"

// Position is a world-space tile coordinate.
type Position struct {
	X int
	Y int
	// Plane is the vertical level; entities on different planes never match.
	Plane int
}

// Distance returns the Euclidean distance between p and other on the X/Y
// plane. Positions on different planes are infinitely far apart.
//
// Postcondition: return value >= 0.
func (p Position) Distance(other Position) float64 {
	if p.Plane != other.Plane {
		return math.Inf(1)
	}
	dx := float64(p.X - other.X)
	dy := float64(p.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// WithinRadius reports whether other is at most radius tiles from p.
func (p Position) WithinRadius(other Position, radius float64) bool {
	return p.Distance(other) <= radius
}

// Region is an axis-aligned world-space box.
//
// Invariant: Min.X <= Max.X and Min.Y <= Max.Y; Min.Plane == Max.Plane.
type Region struct {
	Min Position
	Max Position
}

// RegionAround returns the square region centered on p extending radius
// tiles in each direction.
//
// Precondition: radius >= 0.
func RegionAround(p Position, radius int) Region {
	return Region{
		Min: Position{X: p.X - radius, Y: p.Y - radius, Plane: p.Plane},
		Max: Position{X: p.X + radius, Y: p.Y + radius, Plane: p.Plane},
	}
}

// Contains reports whether p lies inside r (inclusive).
func (r Region) Contains(p Position) bool {
	if p.Plane != r.Min.Plane {
		return false
	}
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// ScreenBounds is a pixel-space rectangle.
//
// Invariant: Width >= 0 and Height >= 0.
type ScreenBounds struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Area returns the rectangle's area in pixels.
//
// Postcondition: return value >= 0.
func (b ScreenBounds) Area() int {
	return b.Width * b.Height
}

// CenterX returns the horizontal center of the rectangle.
func (b ScreenBounds) CenterX() float64 { return float64(b.X) + float64(b.Width)/2 }

// CenterY returns the vertical center of the rectangle.
func (b ScreenBounds) CenterY() float64 { return float64(b.Y) + float64(b.Height)/2 }

// Intersection returns the overlapping area between b and other in pixels,
// or 0 when the rectangles are disjoint.
//
// Postcondition: return value >= 0.
func (b ScreenBounds) Intersection(other ScreenBounds) int {
	left := max(b.X, other.X)
	right := min(b.X+b.Width, other.X+other.Width)
	top := max(b.Y, other.Y)
	bottom := min(b.Y+b.Height, other.Y+other.Height)
	if right <= left || bottom <= top {
		return 0
	}
	return (right - left) * (bottom - top)
}

// CenterDistance returns the Euclidean distance between the centers of b
// and other in pixels.
//
// Postcondition: return value >= 0.
func (b ScreenBounds) CenterDistance(other ScreenBounds) float64 {
	dx := b.CenterX() - other.CenterX()
	dy := b.CenterY() - other.CenterY()
	return math.Sqrt(dx*dx + dy*dy)
}

// LongestSide returns the larger of Width and Height.
func (b ScreenBounds) LongestSide() int {
	return max(b.Width, b.Height)
}
