package object

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/tomz197/rollrun/internal/physics"
)

func TestIDSourceNeverZero(t *testing.T) {
	var ids IDSource
	prev := EntityID(0)
	for i := 0; i < 100; i++ {
		id := ids.Next()
		if id <= prev {
			t.Fatalf("got id %d after %d, want increasing non-zero ids", id, prev)
		}
		prev = id
	}
}

func TestObstacleSyncAndExpiry(t *testing.T) {
	mat := &physics.Material{Name: "default"}
	now := time.Unix(100, 0)
	o := NewObstacle(7, 2.5, mgl64.Vec3{1, 2.5, -80}, colorful.Color{R: 1}, DefaultObstacleStyle, mat, now)

	if o.Body.ID != 7 {
		t.Fatalf("body id %d, want 7", o.Body.ID)
	}
	if o.Mesh.Radius() != 2.5 || o.Body.Radius() != 2.5 {
		t.Fatalf("mesh radius %v body radius %v, want 2.5", o.Mesh.Radius(), o.Body.Radius())
	}

	o.Body.Position = mgl64.Vec3{3, 2.5, -70}
	o.Body.Quaternion = mgl64.QuatRotate(1, mgl64.Vec3{1, 0, 0})
	o.Sync()
	if o.Mesh.Position != o.Body.Position || o.Mesh.Quaternion != o.Body.Quaternion {
		t.Fatal("mesh transform does not match body after Sync")
	}

	ttl := 7 * time.Second
	if o.Expired(now.Add(ttl-time.Millisecond), ttl) {
		t.Fatal("expired before its ttl")
	}
	if !o.Expired(now.Add(ttl), ttl) {
		t.Fatal("not expired at its ttl")
	}
}

func TestPlayerLateral(t *testing.T) {
	p := NewPlayer(1, 1, mgl64.Vec3{0, 1, 0}, &physics.Material{Name: "default"})
	if p.Body.AllowSleep {
		t.Fatal("player body may sleep")
	}
	p.SetLateral(12)
	if p.Lateral() != 12 || p.Body.Position.Y() != 1 {
		t.Fatalf("got position %v, want x=12 y=1", p.Body.Position)
	}
	if p.Mesh.Position.X() != 0 {
		t.Fatal("mesh moved before Sync")
	}
	p.Sync()
	if p.Mesh.Position.X() != 12 {
		t.Fatal("mesh did not follow the body")
	}
}
