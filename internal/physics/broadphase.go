package physics

import "github.com/solarlune/resolv"

// Broadphase narrows the sphere pairs the world tests for contact.
type Broadphase interface {
	// Prepare refreshes the broadphase with the current body positions.
	// Called once per internal step before any Near query.
	Prepare(bodies []*Body)
	// Near calls fn for every body that may touch b. May include false positives.
	Near(b *Body, fn func(other *Body))
	// Remove forgets a body that left the world.
	Remove(b *Body)
}

// SpaceBroadphase keeps bodies in a resolv space on the ground (x, z) plane.
// Bodies outside the space bounds are not tracked and never collide.
type SpaceBroadphase struct {
	space   *resolv.Space
	objects map[*Body]*resolv.Object
	offsetX float64
	offsetZ float64
}

// NewSpaceBroadphase creates a space covering x in [minX, minX+width) and
// z in [minZ, minZ+depth), divided into square cells of cellSize.
func NewSpaceBroadphase(minX, minZ float64, width, depth, cellSize int) *SpaceBroadphase {
	return &SpaceBroadphase{
		space:   resolv.NewSpace(width, depth, cellSize, cellSize),
		objects: make(map[*Body]*resolv.Object),
		offsetX: -minX,
		offsetZ: -minZ,
	}
}

// Prepare moves every sphere's resolv object to the body's footprint.
func (s *SpaceBroadphase) Prepare(bodies []*Body) {
	for _, b := range bodies {
		r := b.Radius()
		if r == 0 {
			continue
		}
		obj, ok := s.objects[b]
		if !ok {
			obj = resolv.NewObject(0, 0, 2*r, 2*r)
			obj.Data = b
			s.objects[b] = obj
			s.place(obj, b, r)
			s.space.Add(obj)
			continue
		}
		s.place(obj, b, r)
		obj.Update()
	}
}

func (s *SpaceBroadphase) place(obj *resolv.Object, b *Body, r float64) {
	obj.X = b.Position.X() - r + s.offsetX
	obj.Y = b.Position.Z() - r + s.offsetZ
	obj.W = 2 * r
	obj.H = 2 * r
}

// Near reports the bodies sharing a cell with b.
func (s *SpaceBroadphase) Near(b *Body, fn func(other *Body)) {
	obj, ok := s.objects[b]
	if !ok {
		return
	}
	collision := obj.Check(0, 0)
	if collision == nil {
		return
	}
	for _, other := range collision.Objects {
		if ob, ok := other.Data.(*Body); ok && ob != b {
			fn(ob)
		}
	}
}

// Remove takes b out of the space.
func (s *SpaceBroadphase) Remove(b *Body) {
	if obj, ok := s.objects[b]; ok {
		s.space.Remove(obj)
		delete(s.objects, b)
	}
}

// Tracked returns the number of bodies in the space.
func (s *SpaceBroadphase) Tracked() int {
	return len(s.objects)
}

// NaiveBroadphase pairs every sphere with every other.
type NaiveBroadphase struct {
	bodies []*Body
}

// Prepare records the body list.
func (n *NaiveBroadphase) Prepare(bodies []*Body) {
	n.bodies = bodies
}

// Near reports every other body.
func (n *NaiveBroadphase) Near(b *Body, fn func(other *Body)) {
	for _, other := range n.bodies {
		if other != b {
			fn(other)
		}
	}
}

// Remove is a no-op; the list is refreshed by Prepare.
func (n *NaiveBroadphase) Remove(*Body) {}

// Ensure all broadphases satisfy Broadphase.
var (
	_ Broadphase = (*SpaceBroadphase)(nil)
	_ Broadphase = (*GridBroadphase)(nil)
	_ Broadphase = (*NaiveBroadphase)(nil)
)
