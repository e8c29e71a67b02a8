package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Sleep thresholds.
const (
	defaultSleepSpeedLimit = 0.1 // Speed below which a body counts as slow
	defaultSleepTimeLimit  = 1.0 // Seconds a body must stay slow before sleeping
)

// restingSpeed is the least closing speed below which contacts do not bounce.
const restingSpeed = 0.5

// contactSlop is the gap within which a sphere counts as touching a plane.
const contactSlop = 1e-6

// World owns the bodies and steps the simulation.
type World struct {
	Gravity                Vec3
	Broadphase             Broadphase
	AllowSleep             bool
	DefaultContactMaterial ContactMaterial
	SleepSpeedLimit        float64
	SleepTimeLimit         float64

	bodies      []*Body
	accumulator float64
	time        float64
	steps       int
}

// NewWorld creates an empty world using bp for pair search.
// A nil broadphase falls back to testing every pair.
func NewWorld(bp Broadphase) *World {
	if bp == nil {
		bp = &NaiveBroadphase{}
	}
	return &World{
		Broadphase:             bp,
		DefaultContactMaterial: ContactMaterial{Friction: 0.3, Restitution: 0},
		SleepSpeedLimit:        defaultSleepSpeedLimit,
		SleepTimeLimit:         defaultSleepTimeLimit,
	}
}

// AddBody adds b to the world. Adding a body twice is a no-op.
func (w *World) AddBody(b *Body) {
	if b.world == w {
		return
	}
	b.world = w
	w.bodies = append(w.bodies, b)
}

// RemoveBody removes b from the world. Removing an absent body is a no-op.
func (w *World) RemoveBody(b *Body) {
	if b.world != w {
		return
	}
	for i, other := range w.bodies {
		if other == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			break
		}
	}
	b.world = nil
	w.Broadphase.Remove(b)
}

// Bodies returns the bodies in insertion order. The slice must not be modified.
func (w *World) Bodies() []*Body {
	return w.bodies
}

// Time returns the simulated time in seconds.
func (w *World) Time() float64 {
	return w.time
}

// Steps returns the total number of internal steps taken.
func (w *World) Steps() int {
	return w.steps
}

// Step advances the simulation toward deltaTime seconds of real time using
// internal steps of fixedTimeStep, taking at most maxSubSteps of them.
// Time beyond that bound is dropped. Returns the number of internal steps.
func (w *World) Step(fixedTimeStep, deltaTime float64, maxSubSteps int) int {
	if fixedTimeStep <= 0 || deltaTime <= 0 {
		return 0
	}
	w.accumulator += deltaTime
	n := 0
	for w.accumulator >= fixedTimeStep && n < maxSubSteps {
		w.internalStep(fixedTimeStep)
		w.accumulator -= fixedTimeStep
		n++
	}
	w.accumulator = math.Mod(w.accumulator, fixedTimeStep)
	return n
}

func (w *World) internalStep(dt float64) {
	// Gravity
	for _, b := range w.bodies {
		if b.IsStatic() || b.sleeping {
			continue
		}
		b.Velocity = b.Velocity.Add(w.Gravity.Mul(dt))
	}

	w.solvePlaneContacts(dt)
	w.solveSphereContacts()

	// Integrate
	for _, b := range w.bodies {
		if b.IsStatic() || b.sleeping {
			continue
		}
		b.Position = b.Position.Add(b.Velocity.Mul(dt))
		if b.AngularVelocity.Len() > 0 {
			spin := mgl64.Quat{W: 0, V: b.AngularVelocity}
			b.Quaternion = b.Quaternion.Add(spin.Mul(b.Quaternion).Scale(0.5 * dt)).Normalize()
		}
		w.updateSleep(b, dt)
	}

	w.time += dt
	w.steps++
}

// bounceThreshold is the closing speed below which a plane contact does not
// bounce. It scales with the speed gravity adds per step.
func bounceThreshold(gravity, dt, restitution float64) float64 {
	if restitution >= 1 {
		return restingSpeed
	}
	return math.Max(restingSpeed, 4*math.Abs(gravity)*dt/(1-restitution*restitution))
}

// solvePlaneContacts resolves every sphere against every plane.
func (w *World) solvePlaneContacts(dt float64) {
	cm := w.DefaultContactMaterial
	for _, p := range w.bodies {
		if _, ok := p.Shape.(Plane); !ok {
			continue
		}
		normal := p.Quaternion.Rotate(Vec3{0, 0, 1}).Normalize()
		threshold := bounceThreshold(w.Gravity.Dot(normal), dt, cm.Restitution)

		for _, s := range w.bodies {
			r := s.Radius()
			if r == 0 || s.IsStatic() || s.sleeping {
				continue
			}
			depth := s.Position.Sub(p.Position).Dot(normal) - r
			if depth > contactSlop {
				continue
			}
			if depth < 0 {
				// Push out of the plane
				s.Position = s.Position.Sub(normal.Mul(depth))
			}

			vn := s.Velocity.Dot(normal)
			if vn >= 0 {
				continue
			}
			impact := -vn
			e := cm.Restitution
			if impact < threshold {
				e = 0
			}
			s.Velocity = s.Velocity.Sub(normal.Mul((1 + e) * vn))

			// Coulomb friction on the tangential velocity
			tangent := s.Velocity.Sub(normal.Mul(s.Velocity.Dot(normal)))
			if speed := tangent.Len(); speed > 0 {
				drop := math.Min(speed, cm.Friction*(1+e)*impact)
				s.Velocity = s.Velocity.Sub(tangent.Mul(drop / speed))
				tangent = tangent.Mul((speed - drop) / speed)
			}
			// Roll without slipping
			s.AngularVelocity = normal.Cross(tangent).Mul(1 / r)

			contact := Contact{
				Point:          s.Position.Sub(normal.Mul(r)),
				Normal:         normal.Mul(-1),
				ImpactVelocity: impact,
			}
			s.emit(p, contact)
			p.emit(s, Contact{Point: contact.Point, Normal: normal, ImpactVelocity: impact})
		}
	}
}

// solveSphereContacts resolves sphere pairs found by the broadphase.
func (w *World) solveSphereContacts() {
	w.Broadphase.Prepare(w.bodies)
	for _, a := range w.bodies {
		if a.Radius() == 0 {
			continue
		}
		w.Broadphase.Near(a, func(b *Body) {
			if b.ID <= a.ID || b.Radius() == 0 {
				return
			}
			w.resolveSpheres(a, b)
		})
	}
}

func (w *World) resolveSpheres(a, b *Body) {
	ima, imb := a.invMass(), b.invMass()
	if ima+imb == 0 {
		return
	}
	if a.sleeping && b.sleeping {
		return
	}

	ra, rb := a.Radius(), b.Radius()
	if !SpheresOverlap(a.Position, ra, b.Position, rb) {
		return
	}
	d := b.Position.Sub(a.Position)
	dist := d.Len()
	penetration := ra + rb - dist
	if penetration <= 0 {
		return
	}
	normal := Up
	if dist > 0 {
		normal = d.Mul(1 / dist)
	}

	// Separate proportionally to inverse mass
	a.Position = a.Position.Sub(normal.Mul(penetration * ima / (ima + imb)))
	b.Position = b.Position.Add(normal.Mul(penetration * imb / (ima + imb)))

	closing := a.Velocity.Sub(b.Velocity).Dot(normal)
	if closing > 0 {
		e := w.DefaultContactMaterial.Restitution
		if closing < restingSpeed {
			e = 0
		}
		j := (1 + e) * closing / (ima + imb)
		a.Velocity = a.Velocity.Sub(normal.Mul(j * ima))
		b.Velocity = b.Velocity.Add(normal.Mul(j * imb))
	} else {
		closing = 0
	}

	if !a.IsStatic() {
		a.WakeUp()
	}
	if !b.IsStatic() {
		b.WakeUp()
	}

	point := a.Position.Add(normal.Mul(ra))
	a.emit(b, Contact{Point: point, Normal: normal, ImpactVelocity: closing})
	b.emit(a, Contact{Point: point, Normal: normal.Mul(-1), ImpactVelocity: closing})
}

func (w *World) updateSleep(b *Body, dt float64) {
	if !w.AllowSleep || !b.AllowSleep {
		return
	}
	if b.Velocity.Len() < w.SleepSpeedLimit {
		b.slowTime += dt
		if b.slowTime > w.SleepTimeLimit {
			b.sleeping = true
			b.Velocity = Vec3{}
			b.AngularVelocity = Vec3{}
		}
		return
	}
	b.slowTime = 0
}
