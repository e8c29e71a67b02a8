package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// PerspectiveCamera projects world points onto the screen.
type PerspectiveCamera struct {
	FOV    float64 // Vertical field of view in degrees
	Aspect float64
	Near   float64
	Far    float64

	Position mgl64.Vec3
	Target   mgl64.Vec3
	Up       mgl64.Vec3

	proj     mgl64.Mat4
	view     mgl64.Mat4
	viewProj mgl64.Mat4
	inverse  mgl64.Mat4
}

// NewPerspectiveCamera creates a camera at the origin looking down -Z.
func NewPerspectiveCamera(fov, aspect, near, far float64) *PerspectiveCamera {
	c := &PerspectiveCamera{
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Target: mgl64.Vec3{0, 0, -1},
		Up:     mgl64.Vec3{0, 1, 0},
	}
	c.UpdateProjection()
	return c
}

// LookAt points the camera at target from its current Position.
func (c *PerspectiveCamera) LookAt(target mgl64.Vec3) {
	c.Target = target
	c.updateView()
}

// SetAspect changes the aspect ratio and rebuilds the projection.
func (c *PerspectiveCamera) SetAspect(aspect float64) {
	if aspect <= 0 {
		return
	}
	c.Aspect = aspect
	c.UpdateProjection()
}

// UpdateProjection rebuilds the projection from FOV, Aspect, Near and Far.
// Call after changing any of them directly.
func (c *PerspectiveCamera) UpdateProjection() {
	c.proj = mgl64.Perspective(mgl64.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
	c.updateView()
}

func (c *PerspectiveCamera) updateView() {
	eye := c.Position
	if eye.ApproxEqual(c.Target) {
		eye = eye.Add(mgl64.Vec3{0, 0, 1e-6})
	}
	c.view = mgl64.LookAtV(eye, c.Target, c.Up)
	c.viewProj = c.proj.Mul4(c.view)
	c.inverse = c.viewProj.Inv()
}

// Project maps a world point to normalized device coordinates.
// x and y are in [-1, 1] when on screen, y pointing up; depth is the
// distance in front of the camera. ok is false for points behind the
// near plane.
func (c *PerspectiveCamera) Project(p mgl64.Vec3) (x, y, depth float64, ok bool) {
	clip := c.viewProj.Mul4x1(p.Vec4(1))
	w := clip.W()
	if w < c.Near {
		return 0, 0, w, false
	}
	return clip.X() / w, clip.Y() / w, w, true
}

// Ray returns the world-space direction through a point in normalized
// device coordinates, starting at the camera position.
func (c *PerspectiveCamera) Ray(x, y float64) mgl64.Vec3 {
	near := c.inverse.Mul4x1(mgl64.Vec4{x, y, -1, 1})
	far := c.inverse.Mul4x1(mgl64.Vec4{x, y, 1, 1})
	n := near.Vec3().Mul(1 / near.W())
	f := far.Vec3().Mul(1 / far.W())
	return f.Sub(n).Normalize()
}

// toView rotates a world direction into camera space.
func (c *PerspectiveCamera) toView(d mgl64.Vec3) mgl64.Vec3 {
	return c.view.Mul4x1(d.Vec4(0)).Vec3()
}

// pixelsPerUnit returns how many screen pixels one world unit spans at depth,
// for a viewport screenHeight pixels tall.
func (c *PerspectiveCamera) pixelsPerUnit(depth float64, screenHeight int) float64 {
	half := math.Tan(mgl64.DegToRad(c.FOV) / 2)
	if depth <= 0 || half <= 0 {
		return 0
	}
	return float64(screenHeight) / 2 / (half * depth)
}
