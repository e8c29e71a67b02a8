// Package object defines the game's entities. Each pairs one render mesh
// with one physics body and keeps the mesh in step with the body.
package object

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/tomz197/rollrun/internal/physics"
	"github.com/tomz197/rollrun/internal/render"
)

// EntityID identifies an entity for its whole life. Zero is never issued.
type EntityID uint64

// IDSource issues increasing entity ids.
type IDSource struct {
	last EntityID
}

// Next returns a fresh id.
func (s *IDSource) Next() EntityID {
	s.last++
	return s.last
}

// Entity is anything with a visual and a physics counterpart.
type Entity interface {
	EntityID() EntityID
	// Sync copies the physics transform onto the visual transform.
	Sync()
}

// unitSphere is shared by every sphere mesh; meshes are scaled to their radius.
var unitSphere = render.SphereGeometry{Radius: 1}

// sync copies position and orientation from body to mesh.
func sync(m *render.Mesh, b *physics.Body) {
	m.Position = b.Position
	m.Quaternion = b.Quaternion
}

// Obstacle is a sphere rolling towards the player.
type Obstacle struct {
	ID        EntityID
	Mesh      *render.Mesh
	Body      *physics.Body
	CreatedAt time.Time
}

// ObstacleStyle is the shading shared by obstacles.
type ObstacleStyle struct {
	Metalness       float64
	Roughness       float64
	EnvMap          *render.Environment
	EnvMapIntensity float64
}

// DefaultObstacleStyle is a slightly metallic, fairly smooth finish.
var DefaultObstacleStyle = ObstacleStyle{Metalness: 0.3, Roughness: 0.4, EnvMapIntensity: 0.5}

// NewObstacle creates an obstacle of the given radius at position, created at now.
func NewObstacle(id EntityID, radius float64, position mgl64.Vec3, color colorful.Color, style ObstacleStyle, material *physics.Material, now time.Time) *Obstacle {
	mat := &render.Material{
		Color:           color,
		Metalness:       style.Metalness,
		Roughness:       style.Roughness,
		Opacity:         1,
		EnvMap:          style.EnvMap,
		EnvMapIntensity: style.EnvMapIntensity,
	}
	mesh := render.NewMesh(unitSphere, mat)
	mesh.SetScale(radius)
	mesh.CastShadow = true

	body := physics.NewBody(uint64(id), 1, physics.Sphere{Radius: radius}, material)
	body.Position = position

	o := &Obstacle{ID: id, Mesh: mesh, Body: body, CreatedAt: now}
	o.Sync()
	return o
}

// EntityID returns the obstacle's id.
func (o *Obstacle) EntityID() EntityID { return o.ID }

// Sync copies the physics transform onto the mesh.
func (o *Obstacle) Sync() { sync(o.Mesh, o.Body) }

// Age returns how long the obstacle has existed at now.
func (o *Obstacle) Age(now time.Time) time.Duration {
	return now.Sub(o.CreatedAt)
}

// Expired reports whether the obstacle has lived at least ttl.
func (o *Obstacle) Expired(now time.Time, ttl time.Duration) bool {
	return o.Age(now) >= ttl
}

// Player is the sphere the user steers.
type Player struct {
	ID   EntityID
	Mesh *render.Mesh
	Body *physics.Body
}

// PlayerColor is the player's base colour.
const PlayerColor = "#89b5fa"

// NewPlayer creates a player of the given radius at start. The player
// body never sleeps, so input moves it at once.
func NewPlayer(id EntityID, radius float64, start mgl64.Vec3, material *physics.Material) *Player {
	mat := render.NewMaterial(PlayerColor, 1, 0)
	mat.Transparent = true
	mat.Opacity = 1

	mesh := render.NewMesh(unitSphere, mat)
	mesh.SetScale(radius)
	mesh.CastShadow = true

	body := physics.NewBody(uint64(id), 1, physics.Sphere{Radius: radius}, material)
	body.Position = start
	body.AllowSleep = false

	p := &Player{ID: id, Mesh: mesh, Body: body}
	p.Sync()
	return p
}

// EntityID returns the player's id.
func (p *Player) EntityID() EntityID { return p.ID }

// Sync copies the physics transform onto the mesh.
func (p *Player) Sync() { sync(p.Mesh, p.Body) }

// Lateral returns the player's position across the lane.
func (p *Player) Lateral() float64 {
	return p.Body.Position.X()
}

// SetLateral moves the player across the lane.
func (p *Player) SetLateral(x float64) {
	p.Body.Position[0] = x
}
