package physics

import "github.com/go-gl/mathgl/mgl64"

// Shape is the collision geometry of a body.
type Shape interface {
	// BoundingRadius is the radius of a sphere enclosing the shape; 0 for unbounded shapes.
	BoundingRadius() float64
}

// Sphere is a ball centred on the body position.
type Sphere struct {
	Radius float64
}

// BoundingRadius returns the sphere radius.
func (s Sphere) BoundingRadius() float64 { return s.Radius }

// Plane is an infinite plane through the body position whose normal is the
// body's local +Z axis.
type Plane struct{}

// BoundingRadius returns 0; planes are unbounded.
func (Plane) BoundingRadius() float64 { return 0 }

// Material names a surface. Contacts between materials use the world's
// default contact material.
type Material struct {
	Name string
}

// ContactMaterial governs how two surfaces interact on contact.
type ContactMaterial struct {
	Friction    float64
	Restitution float64
}

// Contact describes one collision between two bodies.
type Contact struct {
	Point  Vec3 // World-space contact point
	Normal Vec3 // Unit normal pointing from the body toward the target
	// ImpactVelocity is the closing speed along the normal at impact (>= 0).
	ImpactVelocity float64
}

// CollideEvent is delivered to a body's collision handlers.
type CollideEvent struct {
	Body    *Body
	Target  *Body
	Contact Contact
}

// Body is a rigid body in the world.
type Body struct {
	ID              uint64
	Mass            float64 // 0 makes the body static
	Shape           Shape
	Position        Vec3
	Velocity        Vec3
	AngularVelocity Vec3
	Quaternion      Quat
	Material        *Material
	AllowSleep      bool

	sleeping    bool
	slowTime    float64
	handlers    map[int]func(CollideEvent)
	nextHandler int
	world       *World
}

// NewBody creates an awake body at the origin with identity orientation.
func NewBody(id uint64, mass float64, shape Shape, material *Material) *Body {
	return &Body{
		ID:         id,
		Mass:       mass,
		Shape:      shape,
		Quaternion: mgl64.QuatIdent(),
		Material:   material,
		AllowSleep: true,
	}
}

// IsStatic reports whether the body never moves under simulation.
func (b *Body) IsStatic() bool {
	return b.Mass <= 0
}

func (b *Body) invMass() float64 {
	if b.IsStatic() {
		return 0
	}
	return 1 / b.Mass
}

// Radius returns the sphere radius, or 0 for other shapes.
func (b *Body) Radius() float64 {
	if s, ok := b.Shape.(Sphere); ok {
		return s.Radius
	}
	return 0
}

// Sleeping reports whether the body is asleep.
func (b *Body) Sleeping() bool {
	return b.sleeping
}

// WakeUp resumes simulation of a sleeping body.
func (b *Body) WakeUp() {
	b.sleeping = false
	b.slowTime = 0
}

// World returns the world the body was added to, or nil.
func (b *Body) World() *World {
	return b.world
}

// OnCollide subscribes fn to the body's collisions and returns a function
// that removes the subscription.
func (b *Body) OnCollide(fn func(CollideEvent)) (unsubscribe func()) {
	if b.handlers == nil {
		b.handlers = make(map[int]func(CollideEvent))
	}
	id := b.nextHandler
	b.nextHandler++
	b.handlers[id] = fn
	return func() {
		delete(b.handlers, id)
	}
}

// Handlers returns the number of collision subscriptions.
func (b *Body) Handlers() int {
	return len(b.handlers)
}

func (b *Body) emit(target *Body, contact Contact) {
	if len(b.handlers) == 0 {
		return
	}
	ev := CollideEvent{Body: b, Target: target, Contact: contact}
	// Collect first so a handler may unsubscribe itself.
	fns := make([]func(CollideEvent), 0, len(b.handlers))
	for i := 0; i < b.nextHandler; i++ {
		if fn, ok := b.handlers[i]; ok {
			fns = append(fns, fn)
		}
	}
	for _, fn := range fns {
		fn(ev)
	}
}
