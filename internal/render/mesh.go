package render

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
)

// Geometry is the shape of a mesh in its local space.
type Geometry interface {
	geometry()
}

// SphereGeometry is a sphere centred on the local origin.
type SphereGeometry struct {
	Radius float64
}

// PlaneGeometry is a rectangle in the local XY plane facing +Z.
type PlaneGeometry struct {
	Width, Height float64
}

func (SphereGeometry) geometry() {}
func (PlaneGeometry) geometry()  {}

// Material describes how a surface is shaded.
type Material struct {
	Color       colorful.Color
	Metalness   float64
	Roughness   float64
	Opacity     float64 // Used only when Transparent is set
	Transparent bool

	EnvMap          *Environment
	EnvMapIntensity float64
}

// NewMaterial creates an opaque material from a hex colour.
func NewMaterial(hex string, metalness, roughness float64) *Material {
	return &Material{
		Color:           mustHex(hex),
		Metalness:       metalness,
		Roughness:       roughness,
		Opacity:         1,
		EnvMapIntensity: 1,
	}
}

// alpha returns the effective opacity.
func (m *Material) alpha() float64 {
	if !m.Transparent {
		return 1
	}
	return min(max(m.Opacity, 0), 1)
}

// Mesh is a geometry placed in the world with a material.
type Mesh struct {
	Geometry   Geometry
	Material   *Material
	Position   mgl64.Vec3
	Quaternion mgl64.Quat
	Scale      mgl64.Vec3

	CastShadow    bool
	ReceiveShadow bool
}

// NewMesh creates a mesh at the origin with identity rotation and unit scale.
func NewMesh(g Geometry, m *Material) *Mesh {
	return &Mesh{
		Geometry:   g,
		Material:   m,
		Quaternion: mgl64.QuatIdent(),
		Scale:      mgl64.Vec3{1, 1, 1},
	}
}

// SetScale applies the same scale on every axis.
func (m *Mesh) SetScale(s float64) {
	m.Scale = mgl64.Vec3{s, s, s}
}

// Radius returns the world radius of a sphere mesh, or 0 for other geometry.
func (m *Mesh) Radius() float64 {
	s, ok := m.Geometry.(SphereGeometry)
	if !ok {
		return 0
	}
	return s.Radius * max(m.Scale.X(), m.Scale.Y(), m.Scale.Z())
}
