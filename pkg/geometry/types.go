// Package geometry provides the basic geometric types used throughout the
// detection pipeline.
package geometry

import "math"

// PointInt represents a 2D point with integer pixel coordinates.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p PointInt) Distance(other PointInt) float64 {
	dx := float64(p.X - other.X)
	dy := float64(p.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// RectInt represents a rectangle with integer pixel coordinates.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the center point of the rectangle, truncated to integers.
func (r RectInt) Center() PointInt {
	return PointInt{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Valid reports whether the rectangle has a non-negative origin and a
// positive extent.
func (r RectInt) Valid() bool {
	return r.X >= 0 && r.Y >= 0 && r.Width > 0 && r.Height > 0
}

// Centroid returns the integer-rounded centroid of a set of points.
// Returns the zero point for an empty set.
func Centroid(points []PointInt) PointInt {
	if len(points) == 0 {
		return PointInt{}
	}
	var sx, sy float64
	for _, p := range points {
		sx += float64(p.X)
		sy += float64(p.Y)
	}
	n := float64(len(points))
	return PointInt{
		X: int(math.Round(sx / n)),
		Y: int(math.Round(sy / n)),
	}
}
