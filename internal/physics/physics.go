// Package physics is the rigid-sphere world the game steps every frame:
// gravity, a ground plane, sphere contacts with restitution and friction,
// sleeping, and per-body collision events. Broadphase pair search is
// pluggable; the default delegates to a resolv space.
package physics

import "github.com/go-gl/mathgl/mgl64"

// Vec3 and Quat are the vector types shared with the renderer.
type (
	Vec3 = mgl64.Vec3
	Quat = mgl64.Quat
)

// Up is the world's vertical axis.
var Up = Vec3{0, 1, 0}

// Distance calculates the Euclidean distance between two points.
func Distance(a, b Vec3) float64 {
	return b.Sub(a).Len()
}

// DistanceSquared calculates the squared distance between two points.
// Use this when comparing distances to avoid the sqrt cost.
func DistanceSquared(a, b Vec3) float64 {
	d := b.Sub(a)
	return d.Dot(d)
}

// PointInSphere checks if a point is within radius of a target position.
// The boundary counts as inside.
func PointInSphere(p, center Vec3, radius float64) bool {
	return DistanceSquared(p, center) <= radius*radius
}

// SpheresOverlap checks if two spheres interpenetrate.
func SpheresOverlap(a Vec3, ra float64, b Vec3, rb float64) bool {
	minDist := ra + rb
	return DistanceSquared(a, b) < minDist*minDist
}
