package mesh

import "github.com/go-gl/mathgl/mgl32"

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Union returns the smallest box containing both a and b.
func (a AABB) Union(b AABB) AABB {
	return AABB{
		Min: mgl32.Vec3{min(a.Min[0], b.Min[0]), min(a.Min[1], b.Min[1]), min(a.Min[2], b.Min[2])},
		Max: mgl32.Vec3{max(a.Max[0], b.Max[0]), max(a.Max[1], b.Max[1]), max(a.Max[2], b.Max[2])},
	}
}

// Center returns the midpoint of the box.
func (a AABB) Center() mgl32.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// Corners returns the eight box corners, bottom face first.
func (a AABB) Corners() [8]mgl32.Vec3 {
	return [8]mgl32.Vec3{
		{a.Min[0], a.Min[1], a.Min[2]},
		{a.Max[0], a.Min[1], a.Min[2]},
		{a.Max[0], a.Min[1], a.Max[2]},
		{a.Min[0], a.Min[1], a.Max[2]},
		{a.Min[0], a.Max[1], a.Min[2]},
		{a.Max[0], a.Max[1], a.Min[2]},
		{a.Max[0], a.Max[1], a.Max[2]},
		{a.Min[0], a.Max[1], a.Max[2]},
	}
}

// boundsOf computes the bounds of a point stream.
func boundsOf(points [][3]float32) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	box := AABB{Min: mgl32.Vec3(points[0]), Max: mgl32.Vec3(points[0])}
	for _, p := range points[1:] {
		box = box.Union(AABB{Min: mgl32.Vec3(p), Max: mgl32.Vec3(p)})
	}
	return box
}
