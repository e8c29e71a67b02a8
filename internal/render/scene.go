package render

import (
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
)

// Node is anything that can be added to a Scene: meshes and lights.
type Node interface {
	sceneNode()
}

// Environment is the lighting contribution of an environment map,
// reduced to an average tint.
type Environment struct {
	Tint      colorful.Color
	Intensity float64
}

// AmbientLight lights every surface evenly.
type AmbientLight struct {
	Color     colorful.Color
	Intensity float64
}

// NewAmbientLight creates an ambient light from a hex colour.
func NewAmbientLight(hex string, intensity float64) *AmbientLight {
	return &AmbientLight{Color: mustHex(hex), Intensity: intensity}
}

// DirectionalLight shines from Position towards the origin.
type DirectionalLight struct {
	Color         colorful.Color
	Intensity     float64
	Position      mgl64.Vec3
	CastShadow    bool
	ShadowMapSize int // Shadows are drawn only when positive
}

// NewDirectionalLight creates a directional light from a hex colour.
func NewDirectionalLight(hex string, intensity float64) *DirectionalLight {
	return &DirectionalLight{Color: mustHex(hex), Intensity: intensity, Position: mgl64.Vec3{0, 1, 0}}
}

// Direction returns the unit vector the light travels along.
func (l *DirectionalLight) Direction() mgl64.Vec3 {
	if l.Position.Len() == 0 {
		return mgl64.Vec3{0, -1, 0}
	}
	return l.Position.Normalize().Mul(-1)
}

func (*Mesh) sceneNode()             {}
func (*AmbientLight) sceneNode()     {}
func (*DirectionalLight) sceneNode() {}

// Scene is the set of nodes drawn by the Renderer.
type Scene struct {
	nodes []Node

	// Background fills pixels no mesh covers; nil leaves them empty.
	Background *colorful.Color
	// Environment lights materials that have no EnvMap of their own.
	Environment *Environment
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{}
}

// Add appends nodes to the scene. A node already present is not added twice.
func (s *Scene) Add(nodes ...Node) {
	for _, n := range nodes {
		if n == nil || slices.Contains(s.nodes, n) {
			continue
		}
		s.nodes = append(s.nodes, n)
	}
}

// Remove takes a node out of the scene and reports whether it was present.
func (s *Scene) Remove(n Node) bool {
	i := slices.Index(s.nodes, n)
	if i < 0 {
		return false
	}
	s.nodes = slices.Delete(s.nodes, i, i+1)
	return true
}

// Contains reports whether n is in the scene.
func (s *Scene) Contains(n Node) bool {
	return slices.Contains(s.nodes, n)
}

// Len returns the number of nodes.
func (s *Scene) Len() int {
	return len(s.nodes)
}

// Nodes returns the scene's nodes in insertion order. The slice must not be modified.
func (s *Scene) Nodes() []Node {
	return s.nodes
}

// SetBackground sets the background from a colour.
func (s *Scene) SetBackground(c colorful.Color) {
	s.Background = &c
}

func mustHex(hex string) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{R: 1, G: 1, B: 1}
	}
	return c
}
